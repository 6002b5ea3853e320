package oss

import (
	"testing"

	"github.com/forPelevin/pdfnarrate/internal/storage"
)

func TestValidateEndpoint(t *testing.T) {
	tests := []struct {
		name         string
		endpoint     string
		allowedHosts []string
		wantErr      bool
	}{
		{
			name:     "aliyun region endpoint",
			endpoint: "https://oss-cn-hangzhou.aliyuncs.com",
		},
		{
			name:     "trailing slash",
			endpoint: "https://oss-ap-southeast-1.aliyuncs.com/",
		},
		{
			name:     "reject empty",
			endpoint: " ",
			wantErr:  true,
		},
		{
			name:     "reject non-absolute URL",
			endpoint: "oss-cn-hangzhou.aliyuncs.com",
			wantErr:  true,
		},
		{
			name:     "reject http",
			endpoint: "http://oss-cn-hangzhou.aliyuncs.com",
			wantErr:  true,
		},
		{
			name:     "reject userinfo",
			endpoint: "https://ak:sk@oss-cn-hangzhou.aliyuncs.com",
			wantErr:  true,
		},
		{
			name:     "reject query",
			endpoint: "https://oss-cn-hangzhou.aliyuncs.com?x=1",
			wantErr:  true,
		},
		{
			name:     "reject path",
			endpoint: "https://oss-cn-hangzhou.aliyuncs.com/bucket",
			wantErr:  true,
		},
		{
			name:     "reject foreign host by default",
			endpoint: "https://aliyuncs.com.evil.example",
			wantErr:  true,
		},
		{
			name:         "allow configured host",
			endpoint:     "https://oss.internal:8443",
			allowedHosts: []string{"https://OSS.internal:8443/"},
		},
		{
			name:         "configured list replaces default",
			endpoint:     "https://oss-cn-hangzhou.aliyuncs.com",
			allowedHosts: []string{"oss.internal"},
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEndpoint(tt.endpoint, tt.allowedHosts)
			if tt.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestNormalizeAllowedHosts_SkipsBlank(t *testing.T) {
	out := normalizeAllowedHosts([]string{" ", "https://", "http://"})
	if len(out) != 0 {
		t.Fatalf("expected no hosts, got %v", out)
	}
}

func TestNewOSSStorage(t *testing.T) {
	s, err := NewOSSStorage(storage.OSSConfig{
		Endpoint:        "https://oss-cn-hangzhou.aliyuncs.com",
		Bucket:          "narrations",
		AccessKeyID:     "id",
		AccessKeySecret: "secret",
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.GetStorageType() != "oss" {
		t.Fatalf("unexpected type %s", s.GetStorageType())
	}
	if got := s.objectURL("/runs/slides/final_video.mp4"); got != "https://narrations.oss-cn-hangzhou.aliyuncs.com/runs/slides/final_video.mp4" {
		t.Fatalf("unexpected url %s", got)
	}

	if _, err := NewOSSStorage(storage.OSSConfig{Endpoint: "https://oss-cn-hangzhou.aliyuncs.com", Bucket: "b"}); err == nil {
		t.Fatalf("expected missing credentials error")
	}
}
