package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"sync"
)

// MemoryStore implements ObjectStore in process memory. It backs tests and
// the standalone server's zero-setup mode.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
	etag        string
	meta        map[string]string
}

// NewMemoryStore creates an empty in-memory object store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memoryObject)}
}

// GetMetadata returns metadata for the object at the given key.
func (m *MemoryStore) GetMetadata(ctx context.Context, key string) (*Metadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("head %s: %w", key, ErrNotFound)
	}
	return &Metadata{
		Size:        int64(len(obj.data)),
		ContentType: obj.contentType,
		ETag:        obj.etag,
	}, nil
}

// GetReader returns a reader for the object at the given key.
func (m *MemoryStore) GetReader(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", key, ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Put stores an object, overwriting any previous object at the same key.
func (m *MemoryStore) Put(ctx context.Context, key string, r io.Reader, contentType string, meta map[string]string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read body for %s: %w", key, err)
	}

	copied := make(map[string]string, len(meta))
	for k, v := range meta {
		copied[k] = v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{
		data:        data,
		contentType: contentType,
		etag:        fmt.Sprintf("%x", md5.Sum(data)),
		meta:        copied,
	}
	return nil
}

// ObjectMeta returns the per-object metadata recorded at Put time. Test
// helper surface, not part of ObjectStore.
func (m *MemoryStore) ObjectMeta(key string) (map[string]string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, false
	}
	return obj.meta, true
}

// Keys returns all stored keys. Test helper surface.
func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of stored objects. Test helper surface.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
