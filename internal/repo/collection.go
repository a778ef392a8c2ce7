package repo

import (
	"context"
	"errors"

	"taskapp/internal/storage"
)

var (
	// ErrNotFound is returned when a record with the requested id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write would break a uniqueness rule.
	ErrConflict = errors.New("conflict")
)

const (
	keyUsers = "users"
	keyTasks = "tasks"
)

// collection is the persisted layout of one logical collection.
type collection[T any] struct {
	NextID int64 `json:"nextId"`
	Items  []T   `json:"items"`
}

func loadCollection[T any](ctx context.Context, s *storage.Manager, key string) (collection[T], error) {
	var c collection[T]
	if _, err := s.Get(ctx, key, &c); err != nil {
		return collection[T]{}, err
	}
	if c.NextID < 1 {
		c.NextID = 1
	}
	return c, nil
}

func saveCollection[T any](ctx context.Context, s *storage.Manager, key string, c collection[T]) error {
	return s.Set(ctx, key, c)
}
