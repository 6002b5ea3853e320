package storagefactory

import (
	"fmt"

	"github.com/forPelevin/pdfnarrate/internal/storage"
	"github.com/forPelevin/pdfnarrate/internal/storage/local"
	"github.com/forPelevin/pdfnarrate/internal/storage/oss"
)

// NewStorage returns the configured backend, or nil when publishing is off.
func NewStorage(cfg storage.Config) (storage.Storage, error) {
	switch storage.StorageType(cfg.Type) {
	case "", storage.StorageTypeNone:
		return nil, nil
	case storage.StorageTypeLocal:
		s, err := local.NewLocalStorage(cfg.Local.BasePath, cfg.Local.BaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case storage.StorageTypeOSS:
		s, err := oss.NewOSSStorage(cfg.OSS)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
