package repo

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	dom "taskapp/internal/domain"
	"taskapp/internal/storage"
)

// UserRepo provides user persistence.
type UserRepo interface {
	FindAll(ctx context.Context) ([]dom.User, error)
	FindByID(ctx context.Context, id int64) (dom.User, error)
	FindByUsername(ctx context.Context, username string) (dom.User, error)
	Create(ctx context.Context, u dom.User) (dom.User, error)
	Update(ctx context.Context, u dom.User) (dom.User, error)
	Delete(ctx context.Context, id int64) error
}

// StorageUserRepo implements UserRepo over a storage.Manager.
type StorageUserRepo struct {
	store *storage.Manager
	tasks TaskRepo
	mu    sync.Mutex
	now   func() time.Time
}

type UserRepoOption func(*StorageUserRepo)

// WithTasks makes Delete remove the user's tasks first, so no task is left
// pointing at a missing owner.
func WithTasks(tasks TaskRepo) UserRepoOption {
	return func(r *StorageUserRepo) { r.tasks = tasks }
}

// NewStorageUserRepo returns a new StorageUserRepo.
func NewStorageUserRepo(store *storage.Manager, opts ...UserRepoOption) *StorageUserRepo {
	r := &StorageUserRepo{store: store, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *StorageUserRepo) load(ctx context.Context) (collection[dom.User], error) {
	return loadCollection[dom.User](ctx, r.store, keyUsers)
}

// FindAll returns every user in id order.
func (r *StorageUserRepo) FindAll(ctx context.Context) ([]dom.User, error) {
	c, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return c.Items, nil
}

// FindByID returns the user with id or ErrNotFound.
func (r *StorageUserRepo) FindByID(ctx context.Context, id int64) (dom.User, error) {
	c, err := r.load(ctx)
	if err != nil {
		return dom.User{}, err
	}
	for _, u := range c.Items {
		if u.ID == id {
			return u, nil
		}
	}
	return dom.User{}, ErrNotFound
}

// FindByUsername matches username case-insensitively after trimming.
func (r *StorageUserRepo) FindByUsername(ctx context.Context, username string) (dom.User, error) {
	username = strings.TrimSpace(username)
	c, err := r.load(ctx)
	if err != nil {
		return dom.User{}, err
	}
	for _, u := range c.Items {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return dom.User{}, ErrNotFound
}

// taken reports whether another user already has username.
func taken(items []dom.User, username string, exceptID int64) bool {
	for _, u := range items {
		if u.ID != exceptID && strings.EqualFold(u.Username, username) {
			return true
		}
	}
	return false
}

// Create assigns the next id and creation time, persists the user and returns it.
// A username already in use, ignoring case, gives ErrConflict.
func (r *StorageUserRepo) Create(ctx context.Context, u dom.User) (dom.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.load(ctx)
	if err != nil {
		return dom.User{}, err
	}
	u.Username = strings.TrimSpace(u.Username)
	if taken(c.Items, u.Username, 0) {
		return dom.User{}, ErrConflict
	}
	u.ID = c.NextID
	u.CreatedAt = r.now().UTC()
	c.NextID++
	c.Items = append(c.Items, u)
	if err := saveCollection(ctx, r.store, keyUsers, c); err != nil {
		return dom.User{}, err
	}
	return u, nil
}

// Update replaces the stored user with the same id. CreatedAt is preserved.
// Renaming to another user's username gives ErrConflict.
func (r *StorageUserRepo) Update(ctx context.Context, u dom.User) (dom.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.load(ctx)
	if err != nil {
		return dom.User{}, err
	}
	u.Username = strings.TrimSpace(u.Username)
	if taken(c.Items, u.Username, u.ID) {
		return dom.User{}, ErrConflict
	}
	for i := range c.Items {
		if c.Items[i].ID == u.ID {
			u.CreatedAt = c.Items[i].CreatedAt
			c.Items[i] = u
			if err := saveCollection(ctx, r.store, keyUsers, c); err != nil {
				return dom.User{}, err
			}
			return u, nil
		}
	}
	return dom.User{}, ErrNotFound
}

// Delete removes the user with id or returns ErrNotFound. With WithTasks the
// user's tasks are deleted before the user record.
func (r *StorageUserRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.load(ctx)
	if err != nil {
		return err
	}
	for i := range c.Items {
		if c.Items[i].ID != id {
			continue
		}
		if r.tasks != nil {
			if _, err := r.tasks.DeleteByUserID(ctx, id); err != nil {
				return fmt.Errorf("delete tasks of user %d: %w", id, err)
			}
		}
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return saveCollection(ctx, r.store, keyUsers, c)
	}
	return ErrNotFound
}
