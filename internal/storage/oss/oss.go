package oss

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"github.com/forPelevin/pdfnarrate/internal/storage"
)

// OSSStorage uploads artifacts to an Aliyun OSS bucket.
type OSSStorage struct {
	bucket     *oss.Bucket
	bucketName string
	host       string
}

func NewOSSStorage(cfg storage.OSSConfig) (*OSSStorage, error) {
	if err := ValidateEndpoint(cfg.Endpoint, cfg.AllowedHosts); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("oss bucket is required")
	}
	if cfg.AccessKeyID == "" || cfg.AccessKeySecret == "" {
		return nil, fmt.Errorf("oss access key id and secret are required")
	}

	endpoint := normalizeEndpoint(cfg.Endpoint)
	client, err := oss.New(endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create OSS client: %w", err)
	}
	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}

	u, _ := url.Parse(endpoint)
	return &OSSStorage{
		bucket:     bucket,
		bucketName: cfg.Bucket,
		host:       u.Host,
	}, nil
}

func (s *OSSStorage) Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	options := []oss.Option{oss.WithContext(ctx)}
	if contentType != "" {
		options = append(options, oss.ContentType(contentType))
	}
	if err := s.bucket.PutObject(key, data, options...); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return s.objectURL(key), nil
}

func (s *OSSStorage) GetStorageType() string {
	return string(storage.StorageTypeOSS)
}

func (s *OSSStorage) objectURL(key string) string {
	return fmt.Sprintf("https://%s.%s/%s", s.bucketName, s.host, strings.TrimPrefix(key, "/"))
}
