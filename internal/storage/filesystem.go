package storage

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const sidecarSuffix = ".meta.json"

// FilesystemStore implements ObjectStore on a local directory. Content type
// and per-object metadata live in a JSON sidecar next to each object, so
// metadata lookups behave like a real object store during development.
type FilesystemStore struct {
	baseDir string
}

type sidecar struct {
	ContentType string            `json:"contentType"`
	ETag        string            `json:"etag"`
	Meta        map[string]string `json:"meta,omitempty"`
}

// NewFilesystemStore creates a new filesystem object store rooted at baseDir.
func NewFilesystemStore(baseDir string) (*FilesystemStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &FilesystemStore{baseDir: baseDir}, nil
}

func (fs *FilesystemStore) resolve(key string) (string, error) {
	path := filepath.Join(fs.baseDir, key)

	// Security: prevent directory traversal
	if !filepath.HasPrefix(filepath.Clean(path), filepath.Clean(fs.baseDir)) {
		return "", fmt.Errorf("invalid key: path traversal detected")
	}
	return path, nil
}

// GetMetadata returns metadata for the object at the given key.
func (fs *FilesystemStore) GetMetadata(ctx context.Context, key string) (*Metadata, error) {
	path, err := fs.resolve(key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("stat %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}

	md := &Metadata{Size: info.Size()}
	if raw, err := os.ReadFile(path + sidecarSuffix); err == nil {
		var sc sidecar
		if json.Unmarshal(raw, &sc) == nil {
			md.ContentType = sc.ContentType
			md.ETag = sc.ETag
		}
	}
	return md, nil
}

// GetReader returns a reader for the object at the given key.
func (fs *FilesystemStore) GetReader(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := fs.resolve(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("open %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	return file, nil
}

// Put writes an object and its metadata sidecar, overwriting any previous
// object at the same key.
func (fs *FilesystemStore) Put(ctx context.Context, key string, r io.Reader, contentType string, meta map[string]string) error {
	path, err := fs.resolve(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create object: %w", err)
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(io.MultiWriter(file, hash), r); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}

	sc := sidecar{
		ContentType: contentType,
		ETag:        fmt.Sprintf("%x", hash.Sum(nil)),
		Meta:        meta,
	}
	raw, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("failed to encode sidecar: %w", err)
	}
	if err := os.WriteFile(path+sidecarSuffix, raw, 0644); err != nil {
		return fmt.Errorf("failed to write sidecar: %w", err)
	}
	return nil
}
