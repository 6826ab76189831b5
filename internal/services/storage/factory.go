package storage

import (
	"context"
	"fmt"

	"github.com/denisAlshanov/vidgrab/internal/config"
	"github.com/denisAlshanov/vidgrab/internal/utils"
)

// NewStorage creates S3 storage. It returns nil when no bucket is configured.
func NewStorage(cfg *config.S3Config) (StorageInterface, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	utils.LogInfo(context.Background(), "Creating S3 storage", utils.Fields{
		"bucket":   cfg.BucketName,
		"endpoint": cfg.EndpointURL,
	})
	storage, err := NewS3Storage(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 storage: %w", err)
	}

	return storage, nil
}
