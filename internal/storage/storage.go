package storage

import (
	"context"
	"io"
)

// Storage receives finished artifacts.
type Storage interface {
	// Upload stores data under key and returns where it can be found.
	Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error)

	GetStorageType() string
}

type StorageType string

const (
	StorageTypeNone  StorageType = "none"
	StorageTypeLocal StorageType = "local"
	StorageTypeOSS   StorageType = "oss"
)

type Config struct {
	Type   string
	Prefix string
	Local  LocalConfig
	OSS    OSSConfig
}

type LocalConfig struct {
	BasePath string
	BaseURL  string
}

type OSSConfig struct {
	Endpoint        string
	Bucket          string
	AccessKeyID     string
	AccessKeySecret string
	AllowedHosts    []string
}

// Enabled reports whether artifacts should be published at all.
func (c Config) Enabled() bool {
	return c.Type != "" && StorageType(c.Type) != StorageTypeNone
}
