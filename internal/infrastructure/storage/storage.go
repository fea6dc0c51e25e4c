// Package storage serves product images. The storefront stores image
// references as keys and resolves them to servable URLs at read time.
package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/zava/retail-backend/internal/infrastructure/config"
)

// ImageStore resolves product image keys to servable URLs and accepts
// uploads from the management console.
type ImageStore interface {
	// ImageURL returns a URL the storefront can serve for the stored key.
	ImageURL(ctx context.Context, key string) (string, error)

	// Upload stores image bytes under the key.
	Upload(ctx context.Context, key string, data []byte, contentType string) error

	// Exists reports whether an image is stored under the key.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the stored image.
	Delete(ctx context.Context, key string) error
}

// New returns the image store selected by cfg.Provider.
func New(cfg *config.StorageConfig, log *zap.Logger) (ImageStore, error) {
	switch cfg.Provider {
	case "s3":
		return NewS3ImageStore(cfg, WithLogger(log))
	case "", "stub":
		return NewStubImageStore(cfg.PublicBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}
