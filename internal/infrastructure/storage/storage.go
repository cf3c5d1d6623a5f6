// Package storage keeps uploaded media (product images) on the local
// filesystem or in an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gmja/storefront/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Errors returned by storage backends
var (
	ErrNotFound   = errors.New("media object not found")
	ErrInvalidKey = errors.New("invalid media key")
)

// MediaStorage stores media objects addressed by slash-separated keys
type MediaStorage interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// URL returns where a browser can fetch the object
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// New builds the backend selected by cfg.Storage.Backend
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (MediaStorage, error) {
	switch cfg.Storage.Backend {
	case "", "local":
		return NewLocalStorage(cfg.URLs.MediaRoot, cfg.URLs.MediaURL)
	case "s3":
		s, err := NewS3Storage(&cfg.Storage, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// CleanKey validates a key and returns its canonical form. Keys are relative,
// slash separated and may not climb out of the storage root.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsRune(key, 0) || strings.Contains(key, `\`) {
		return "", ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", ErrInvalidKey
		}
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

// ProductImageKey returns a fresh key for an image of a product
func ProductImageKey(productID uint, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
	default:
		ext = ".bin"
	}
	return fmt.Sprintf("products/%d/%s%s", productID, uuid.NewString(), ext)
}
