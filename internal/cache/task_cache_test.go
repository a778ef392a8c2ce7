package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	dom "taskapp/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*TaskCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewTaskCache(rdb, "taskAppDay2", time.Minute), mr
}

func TestTaskCache_MissThenHit(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	list, err := c.GetList(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, list)

	require.NoError(t, c.SetList(ctx, 1, []dom.Task{{ID: 1, UserID: 1, Title: "a"}}))
	list, err = c.GetList(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].Title)

	other, err := c.GetList(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, other, "entries are per user")
}

func TestTaskCache_EmptyListIsAHit(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	require.NoError(t, c.SetOverdue(ctx, 1, nil, 0))
	list, err := c.GetOverdue(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestTaskCache_SearchKeyNormalized(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	require.NoError(t, c.SetSearch(ctx, 1, "  Milk ", []dom.Task{{ID: 3}}))
	list, err := c.GetSearch(ctx, 1, "milk")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestTaskCache_InvalidateAllIsScopedToUser(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	require.NoError(t, c.SetList(ctx, 1, []dom.Task{{ID: 1}}))
	require.NoError(t, c.SetOverdue(ctx, 1, []dom.Task{{ID: 1}}, 0))
	require.NoError(t, c.SetSearch(ctx, 1, "a", []dom.Task{{ID: 1}}))
	require.NoError(t, c.SetList(ctx, 12, []dom.Task{{ID: 2}}))
	require.NoError(t, c.SetSearch(ctx, 12, "a", []dom.Task{{ID: 2}}))

	require.NoError(t, c.InvalidateAll(ctx, 1))

	assert.False(t, mr.Exists("taskAppDay2:task:list:1"))
	assert.False(t, mr.Exists("taskAppDay2:task:overdue:1"))
	assert.False(t, mr.Exists("taskAppDay2:task:search:1:a"))
	assert.True(t, mr.Exists("taskAppDay2:task:list:12"))
	assert.True(t, mr.Exists("taskAppDay2:task:search:12:a"))
}

func TestTaskCache_EntriesExpire(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	require.NoError(t, c.SetList(ctx, 1, []dom.Task{{ID: 1}}))
	mr.FastForward(2 * time.Minute)

	list, err := c.GetList(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, list)
}

func TestTaskCache_OverdueTTLIsCapped(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	require.NoError(t, c.SetOverdue(ctx, 1, nil, 20*time.Second))
	assert.Equal(t, 20*time.Second, mr.TTL("taskAppDay2:task:overdue:1"))

	require.NoError(t, c.SetOverdue(ctx, 2, nil, time.Hour))
	assert.Equal(t, time.Minute, mr.TTL("taskAppDay2:task:overdue:2"), "never longer than the default")
}

func TestTaskCache_DoCollapsesConcurrentLoads(t *testing.T) {
	c, _ := newTestCache(t)

	var (
		calls   atomic.Int64
		release = make(chan struct{})
		wg      sync.WaitGroup
	)
	load := func() ([]dom.Task, error) {
		calls.Add(1)
		<-release
		return []dom.Task{{ID: 7}}, nil
	}

	const n = 5
	results := make([][]dom.Task, n)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = c.Do("list:1", load)
	}()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	for i := 1; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.Do("list:1", load)
		}(i)
	}
	// Let the followers reach Do before the leader finishes.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
	for _, r := range results {
		require.Len(t, r, 1)
		assert.Equal(t, int64(7), r[0].ID)
	}
}
