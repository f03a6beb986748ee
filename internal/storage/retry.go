package storage

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/cenkalti/backoff/v4"
)

// RetryStore wraps an ObjectStore with a bounded exponential backoff policy
// applied uniformly at the I/O boundary. Missing objects are permanent
// failures and are never retried. The wrapped store stays retry-agnostic.
type RetryStore struct {
	inner       ObjectStore
	maxAttempts uint64
}

// WithRetry wraps store so each operation is attempted up to maxAttempts
// times. maxAttempts < 2 returns the store unwrapped.
func WithRetry(store ObjectStore, maxAttempts int) ObjectStore {
	if maxAttempts < 2 {
		return store
	}
	return &RetryStore{inner: store, maxAttempts: uint64(maxAttempts)}
}

func (r *RetryStore) policy(ctx context.Context) backoff.BackOff {
	return backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), r.maxAttempts-1),
		ctx,
	)
}

func permanent(err error) error {
	if errors.Is(err, ErrNotFound) {
		return backoff.Permanent(err)
	}
	return err
}

// GetMetadata retries the metadata lookup on transient errors.
func (r *RetryStore) GetMetadata(ctx context.Context, key string) (*Metadata, error) {
	var md *Metadata
	err := backoff.Retry(func() error {
		var err error
		md, err = r.inner.GetMetadata(ctx, key)
		return permanent(err)
	}, r.policy(ctx))
	if err != nil {
		return nil, err
	}
	return md, nil
}

// GetReader retries opening the object on transient errors.
func (r *RetryStore) GetReader(ctx context.Context, key string) (io.ReadCloser, error) {
	var rc io.ReadCloser
	err := backoff.Retry(func() error {
		var err error
		rc, err = r.inner.GetReader(ctx, key)
		return permanent(err)
	}, r.policy(ctx))
	if err != nil {
		return nil, err
	}
	return rc, nil
}

// Put buffers the body once so every attempt writes identical bytes.
func (r *RetryStore) Put(ctx context.Context, key string, body io.Reader, contentType string, meta map[string]string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	return backoff.Retry(func() error {
		return r.inner.Put(ctx, key, bytes.NewReader(data), contentType, meta)
	}, r.policy(ctx))
}
