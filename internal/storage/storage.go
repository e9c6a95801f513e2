// Package storage archives rendered invoice PDFs.
package storage

import (
	"context"
	"io"

	"github.com/dukerupert/gymdesk/internal"
)

// Storage is a key/value blob store.
type Storage interface {
	// Put stores content under key and returns its URL or path.
	Put(ctx context.Context, key string, content io.Reader, contentType string) (string, error)

	// Get retrieves a file by its key. The caller closes the reader.
	// A missing key yields an error matched by IsNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// URL returns the public URL for a stored file.
	URL(key string) string

	// Exists checks if a file exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)
}

// NewStorage creates a Storage from configuration. The "none" provider
// returns a nil Storage, which disables archiving.
func NewStorage(ctx context.Context, cfg internal.StorageConfig) (Storage, error) {
	switch cfg.Provider {
	case "none":
		return nil, nil
	case "local", "":
		return NewLocalStorage(cfg.LocalPath, cfg.LocalURL)
	case "r2":
		return NewR2Storage(ctx, R2Config{
			AccountID:   cfg.R2AccountID,
			AccessKeyID: cfg.R2AccessKeyID,
			SecretKey:   cfg.R2SecretKey,
			BucketName:  cfg.R2BucketName,
			PublicURL:   cfg.R2PublicURL,
		})
	default:
		return nil, ErrUnknownProvider(cfg.Provider)
	}
}
