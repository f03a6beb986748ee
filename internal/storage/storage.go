package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when no object exists at the requested key.
var ErrNotFound = errors.New("object not found")

// Metadata contains storage object metadata.
type Metadata struct {
	Size        int64
	ContentType string
	ETag        string
}

// MetadataReader provides read-only access to object metadata.
type MetadataReader interface {
	// GetMetadata returns metadata for the object at the given key.
	GetMetadata(ctx context.Context, key string) (*Metadata, error)
}

// Reader provides read access to stored objects.
type Reader interface {
	// GetReader returns a reader for the object at the given key.
	GetReader(ctx context.Context, key string) (io.ReadCloser, error)
}

// Writer provides write access for derived objects.
type Writer interface {
	// Put writes an object at the given key with a content type and
	// per-object metadata. Writing an existing key overwrites it.
	Put(ctx context.Context, key string, r io.Reader, contentType string, meta map[string]string) error
}

// ObjectStore combines the full read/write surface of an object store.
type ObjectStore interface {
	MetadataReader
	Reader
	Writer
}
