package storage

import (
	"context"
	"time"
)

// StorageInterface defines the object store used for link delivery
type StorageInterface interface {
	UploadFile(ctx context.Context, key, path, contentType string, metadata map[string]string) error
	Delete(ctx context.Context, key string) error
	GeneratePresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	Ping(ctx context.Context) error
}
