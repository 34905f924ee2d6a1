// Package storage defines the Backend interface and common types for
// attachment blob storage in Noteplane.
//
// New backends are added by implementing the Storage interface and registering
// with the factory via an init() function in the backend's own package:
//
//	func init() {
//	    storage.Register("mybackend", func(cfg *config.Config) (Storage, error) {
//	        return NewMyBackend(cfg)
//	    })
//	}
//
// The main package imports each backend with a blank import to trigger init().
// This means adding a new backend requires no changes to the factory or main
// package — only a blank import in cmd/server/main.go.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNoDirectURL is returned by GetURL when a backend cannot mint a direct
// download URL. Callers fall back to proxying the blob through Download.
var ErrNoDirectURL = errors.New("storage backend does not support direct URLs")

// Storage is implemented by every attachment blob backend.
type Storage interface {
	// Upload stores a blob and returns its path, size, and SHA256 checksum.
	Upload(ctx context.Context, path string, reader io.Reader, size int64) (*UploadResult, error)

	// Download retrieves a blob as a stream. The caller closes the reader.
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes a blob. Deleting an absent blob is not an error.
	Delete(ctx context.Context, path string) error

	// GetURL returns a direct download URL valid for ttl, or ErrNoDirectURL
	// when the backend can only serve blobs through Download.
	GetURL(ctx context.Context, path string, ttl time.Duration) (string, error)

	// Exists reports whether a blob is present at path.
	Exists(ctx context.Context, path string) (bool, error)
}

// UploadResult describes a stored blob.
type UploadResult struct {
	// Path is the storage path where the blob was stored
	Path string

	// Size is the blob size in bytes
	Size int64

	// Checksum is the SHA256 hash of the blob contents
	Checksum string
}
