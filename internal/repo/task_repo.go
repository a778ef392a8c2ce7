package repo

import (
	"context"
	"sync"
	"time"

	dom "taskapp/internal/domain"
	"taskapp/internal/storage"
)

type TaskRepo interface {
	FindAll(ctx context.Context) ([]dom.Task, error)
	FindByID(ctx context.Context, id int64) (dom.Task, error)
	FindByUserID(ctx context.Context, userID int64) ([]dom.Task, error)
	Create(ctx context.Context, t dom.Task) (dom.Task, error)
	Update(ctx context.Context, t dom.Task) (dom.Task, error)
	Delete(ctx context.Context, id int64) error
	DeleteByUserID(ctx context.Context, userID int64) (int, error)
}

type StorageTaskRepo struct {
	store *storage.Manager
	mu    sync.Mutex
	now   func() time.Time
}

func NewStorageTaskRepo(store *storage.Manager) *StorageTaskRepo {
	return &StorageTaskRepo{store: store, now: time.Now}
}

func (r *StorageTaskRepo) load(ctx context.Context) (collection[dom.Task], error) {
	return loadCollection[dom.Task](ctx, r.store, keyTasks)
}

func (r *StorageTaskRepo) FindAll(ctx context.Context) ([]dom.Task, error) {
	c, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return c.Items, nil
}

func (r *StorageTaskRepo) FindByID(ctx context.Context, id int64) (dom.Task, error) {
	c, err := r.load(ctx)
	if err != nil {
		return dom.Task{}, err
	}
	for _, t := range c.Items {
		if t.ID == id {
			return t, nil
		}
	}
	return dom.Task{}, ErrNotFound
}

// FindByUserID returns the tasks owned by userID in creation order.
func (r *StorageTaskRepo) FindByUserID(ctx context.Context, userID int64) ([]dom.Task, error) {
	c, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	var list []dom.Task
	for _, t := range c.Items {
		if t.UserID == userID {
			list = append(list, t)
		}
	}
	return list, nil
}

func (r *StorageTaskRepo) Create(ctx context.Context, t dom.Task) (dom.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.load(ctx)
	if err != nil {
		return dom.Task{}, err
	}
	now := r.now().UTC()
	t.ID = c.NextID
	t.CreatedAt = now
	t.UpdatedAt = now
	c.NextID++
	c.Items = append(c.Items, t)
	if err := saveCollection(ctx, r.store, keyTasks, c); err != nil {
		return dom.Task{}, err
	}
	return t, nil
}

// Update replaces the stored task with the same id and bumps UpdatedAt.
// Ownership and CreatedAt are never changed by an update.
func (r *StorageTaskRepo) Update(ctx context.Context, t dom.Task) (dom.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.load(ctx)
	if err != nil {
		return dom.Task{}, err
	}
	for i := range c.Items {
		if c.Items[i].ID == t.ID {
			t.UserID = c.Items[i].UserID
			t.CreatedAt = c.Items[i].CreatedAt
			t.UpdatedAt = r.now().UTC()
			c.Items[i] = t
			if err := saveCollection(ctx, r.store, keyTasks, c); err != nil {
				return dom.Task{}, err
			}
			return t, nil
		}
	}
	return dom.Task{}, ErrNotFound
}

func (r *StorageTaskRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.load(ctx)
	if err != nil {
		return err
	}
	for i := range c.Items {
		if c.Items[i].ID == id {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return saveCollection(ctx, r.store, keyTasks, c)
		}
	}
	return ErrNotFound
}

// DeleteByUserID removes every task owned by userID and returns how many went.
func (r *StorageTaskRepo) DeleteByUserID(ctx context.Context, userID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.load(ctx)
	if err != nil {
		return 0, err
	}
	kept := c.Items[:0]
	for _, t := range c.Items {
		if t.UserID != userID {
			kept = append(kept, t)
		}
	}
	removed := len(c.Items) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	c.Items = kept
	if err := saveCollection(ctx, r.store, keyTasks, c); err != nil {
		return 0, err
	}
	return removed, nil
}
