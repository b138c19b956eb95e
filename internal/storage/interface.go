package storage

import (
	"context"
	"io"
)

// ObjectStorage defines the object storage operations used to archive finished downloads
type ObjectStorage interface {
	// EnsureBucket creates the target bucket when the backend allows it
	EnsureBucket(ctx context.Context) error

	// Upload uploads an object to storage
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// GetURL returns the URL for accessing an object
	GetURL(key string) string

	// Exists checks if an object exists
	Exists(ctx context.Context, key string) (bool, error)
}
