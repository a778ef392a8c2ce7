package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	dom "taskapp/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	keyList    = "task:list:"
	keyOverdue = "task:overdue:"
	keySearch  = "task:search:"
)

// TaskCache caches a user's task list, search, and overdue results in Redis.
// One TaskCache is shared by every controller so that concurrent misses on
// the same key collapse into a single load.
type TaskCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	sf     singleflight.Group
}

// NewTaskCache returns a new TaskCache. prefix separates applications sharing one Redis.
func NewTaskCache(rdb *redis.Client, prefix string, ttl time.Duration) *TaskCache {
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	return &TaskCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *TaskCache) key(kind string, userID int64) string {
	return c.prefix + kind + strconv.FormatInt(userID, 10)
}

func (c *TaskCache) searchKey(userID int64, q string) string {
	return c.key(keySearch, userID) + ":" + normalizeQuery(q)
}

// GetList returns the cached list or nil on a miss.
func (c *TaskCache) GetList(ctx context.Context, userID int64) ([]dom.Task, error) {
	return c.get(ctx, c.key(keyList, userID))
}

// SetList stores the list in cache.
func (c *TaskCache) SetList(ctx context.Context, userID int64, list []dom.Task) error {
	return c.set(ctx, c.key(keyList, userID), list)
}

// GetSearch returns the cached search result for q, or nil on a miss.
func (c *TaskCache) GetSearch(ctx context.Context, userID int64, q string) ([]dom.Task, error) {
	return c.get(ctx, c.searchKey(userID, q))
}

// SetSearch stores the search result in cache.
func (c *TaskCache) SetSearch(ctx context.Context, userID int64, q string, list []dom.Task) error {
	return c.set(ctx, c.searchKey(userID, q), list)
}

// GetOverdue returns the cached overdue list or nil on a miss.
func (c *TaskCache) GetOverdue(ctx context.Context, userID int64) ([]dom.Task, error) {
	return c.get(ctx, c.key(keyOverdue, userID))
}

// SetOverdue stores the overdue list in cache. A positive maxTTL shortens the
// entry's lifetime below the default, e.g. to the next task falling due.
func (c *TaskCache) SetOverdue(ctx context.Context, userID int64, list []dom.Task, maxTTL time.Duration) error {
	ttl := c.ttl
	if maxTTL > 0 && (ttl <= 0 || maxTTL < ttl) {
		ttl = maxTTL
	}
	return c.setTTL(ctx, c.key(keyOverdue, userID), list, ttl)
}

// Do runs load once for all concurrent callers sharing key and hands each of
// them the same result.
func (c *TaskCache) Do(key string, load func() ([]dom.Task, error)) ([]dom.Task, error) {
	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		return load()
	})
	if err != nil {
		return nil, err
	}
	return v.([]dom.Task), nil
}

// InvalidateAll removes the user's list, overdue, and search keys (cache invalidation on write).
func (c *TaskCache) InvalidateAll(ctx context.Context, userID int64) error {
	if err := c.rdb.Del(ctx, c.key(keyList, userID), c.key(keyOverdue, userID)).Err(); err != nil {
		return err
	}
	iter := c.rdb.Scan(ctx, 0, c.key(keySearch, userID)+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// A cached empty list is stored as "[]" and decodes to a non-nil slice,
// so an empty result is still a hit.
func (c *TaskCache) get(ctx context.Context, key string) ([]dom.Task, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	list := []dom.Task{}
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *TaskCache) set(ctx context.Context, key string, list []dom.Task) error {
	return c.setTTL(ctx, key, list, c.ttl)
}

func (c *TaskCache) setTTL(ctx context.Context, key string, list []dom.Task, ttl time.Duration) error {
	if list == nil {
		list = []dom.Task{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, ttl).Err()
}

func normalizeQuery(q string) string {
	return strings.TrimSpace(strings.ToLower(q))
}
