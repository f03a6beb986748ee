package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore fails the first n calls of every operation.
type flakyStore struct {
	inner    ObjectStore
	failures int
	calls    int
}

func (f *flakyStore) tick() error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("transient storage error")
	}
	return nil
}

func (f *flakyStore) GetMetadata(ctx context.Context, key string) (*Metadata, error) {
	if err := f.tick(); err != nil {
		return nil, err
	}
	return f.inner.GetMetadata(ctx, key)
}

func (f *flakyStore) GetReader(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := f.tick(); err != nil {
		return nil, err
	}
	return f.inner.GetReader(ctx, key)
}

func (f *flakyStore) Put(ctx context.Context, key string, r io.Reader, contentType string, meta map[string]string) error {
	if err := f.tick(); err != nil {
		return err
	}
	return f.inner.Put(ctx, key, r, contentType, meta)
}

func TestRetryRecoversFromTransientErrors(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	require.NoError(t, mem.Put(ctx, "a.jpg", strings.NewReader("img"), "image/jpeg", nil))

	flaky := &flakyStore{inner: mem, failures: 2}
	store := WithRetry(flaky, 3)

	md, err := store.GetMetadata(ctx, "a.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(3), md.Size)
	assert.Equal(t, 3, flaky.calls)
}

func TestRetryGivesUpAfterMaxAttempts(t *testing.T) {
	flaky := &flakyStore{inner: NewMemoryStore(), failures: 100}
	store := WithRetry(flaky, 3)

	_, err := store.GetMetadata(context.Background(), "a.jpg")
	assert.Error(t, err)
	assert.Equal(t, 3, flaky.calls)
}

func TestRetryNotFoundIsPermanent(t *testing.T) {
	mem := NewMemoryStore()
	flaky := &flakyStore{inner: mem, failures: 0}
	store := WithRetry(flaky, 5)

	_, err := store.GetMetadata(context.Background(), "missing.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, flaky.calls, "missing objects are not retried")
}

func TestRetryPutReplaysBody(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	flaky := &flakyStore{inner: mem, failures: 1}
	store := WithRetry(flaky, 3)

	require.NoError(t, store.Put(ctx, "b.jpg", strings.NewReader("payload"), "image/jpeg", nil))

	rc, err := mem.GetReader(ctx, "b.jpg")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestWithRetryPassThrough(t *testing.T) {
	mem := NewMemoryStore()
	assert.Equal(t, mem, WithRetry(mem, 1), "single attempt skips the wrapper")
}
