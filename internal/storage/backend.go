package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by a Backend when the key does not exist.
	ErrNotFound = errors.New("storage: key not found")
	// ErrUnavailable wraps any failure of the underlying backend.
	ErrUnavailable = errors.New("storage: backend unavailable")
	// ErrQuotaExceeded is returned when an encoded value is larger than the quota.
	ErrQuotaExceeded = errors.New("storage: quota exceeded")
	// ErrCorrupt is returned when a stored value cannot be decoded.
	ErrCorrupt = errors.New("storage: corrupt value")
)

// Backend is raw byte-level key-value persistence.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Keys returns every stored key starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}
