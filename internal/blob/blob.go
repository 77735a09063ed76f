// Package blob provides object storage for generated export artifacts. The
// interface mirrors a minimal subset of S3 so the hosted adapter stays thin
// while the filesystem adapter can emulate the same semantics locally.
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies a concrete object storage backend.
type Driver string

const (
	DriverFilesystem Driver = "fs"     // local filesystem (default, dev)
	DriverS3         Driver = "s3"     // S3 / MinIO compatible
	DriverMemory     Driver = "memory" // in-memory (tests)
)

// PutOptions specifies optional parameters for Put.
type PutOptions struct {
	ContentType string            // MIME type, optional
	Metadata    map[string]string // user metadata (small, flat key-value)
}

// SignedURLOptions holds options for generating a pre-signed URL.
type SignedURLOptions struct {
	Method  string        // GET|PUT (only GET used internally)
	Expiry  time.Duration // default 15m
	Headers map[string]string
}

// ObjectInfo describes a stored artifact.
type ObjectInfo struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
	URL          string            `json:"url,omitempty"` // optional presigned URL
}

// ObjectStore stores export artifacts under opaque keys.
type ObjectStore interface {
	// Put stores a new object at key and fails if the key already exists.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (ObjectInfo, error)
	// Get retrieves object contents and metadata.
	Get(ctx context.Context, key string) (ObjectInfo, io.ReadCloser, error)
	// Head returns metadata only.
	Head(ctx context.Context, key string) (ObjectInfo, error)
	// Delete removes an object. Returns (false, nil) when absent.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns objects whose key has the given prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// PresignURL returns a time-limited GET URL, or ErrUnsupported.
	PresignURL(ctx context.Context, key string, opts SignedURLOptions) (string, error)
	// Driver returns the configured backend identifier.
	Driver() Driver
}

// ErrUnsupported is returned when an optional capability is not available.
var ErrUnsupported = errors.New("blobstore: unsupported operation")

func cloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
