package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestManager(t *testing.T, b Backend, opts ...Option) *Manager {
	t.Helper()
	m, err := NewManager(b, "taskAppDay2", "2.0", opts...)
	require.NoError(t, err)
	return m
}

func TestManager_SetGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, NewMemoryBackend())

	require.NoError(t, m.Set(ctx, "users", []record{{Name: "a", Count: 1}, {Name: "b", Count: 2}}))

	var got []record
	found, err := m.Get(ctx, "users", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []record{{Name: "a", Count: 1}, {Name: "b", Count: 2}}, got)
}

func TestManager_GetAbsentKey(t *testing.T) {
	m := newTestManager(t, NewMemoryBackend())

	var got record
	found, err := m.Get(context.Background(), "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, record{}, got)
}

func TestManager_NamespaceAndVersionIsolation(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	writer := newTestManager(t, backend)
	require.NoError(t, writer.Set(ctx, "tasks", record{Name: "x"}))

	otherVersion, err := NewManager(backend, "taskAppDay2", "1.0")
	require.NoError(t, err)
	otherNamespace, err := NewManager(backend, "someOtherApp", "2.0")
	require.NoError(t, err)

	var got record
	found, err := otherVersion.Get(ctx, "tasks", &got)
	require.NoError(t, err)
	assert.False(t, found, "different version must not see data")

	found, err = otherNamespace.Get(ctx, "tasks", &got)
	require.NoError(t, err)
	assert.False(t, found, "different namespace must not see data")

	found, err = writer.Get(ctx, "tasks", &got)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestManager_PhysicalKeyLayout(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	m := newTestManager(t, backend)
	require.NoError(t, m.Set(ctx, "users", 1))

	keys, err := backend.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"taskAppDay2:2.0:users"}, keys)
}

func TestManager_QuotaExceeded(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	m := newTestManager(t, backend, WithQuota(16))

	err := m.Set(ctx, "big", strings.Repeat("x", 64))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	var got string
	found, err := m.Get(ctx, "big", &got)
	require.NoError(t, err)
	assert.False(t, found, "rejected value must not be written")
}

func TestManager_CorruptValue(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	m := newTestManager(t, backend)
	require.NoError(t, backend.Set(ctx, "taskAppDay2:2.0:users", []byte("{not json")))

	var got []record
	_, err := m.Get(ctx, "users", &got)
	assert.ErrorIs(t, err, ErrCorrupt)
}

type failingBackend struct{ *MemoryBackend }

func (failingBackend) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func (failingBackend) Set(context.Context, string, []byte) error {
	return errors.New("disk on fire")
}

func TestManager_BackendFailureIsUnavailable(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, failingBackend{NewMemoryBackend()})

	err := m.Set(ctx, "users", 1)
	assert.ErrorIs(t, err, ErrUnavailable)

	var v int
	_, err = m.Get(ctx, "users", &v)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestManager_KeysAndClearAreScoped(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	m := newTestManager(t, backend)
	old, err := NewManager(backend, "taskAppDay2", "1.0")
	require.NoError(t, err)

	require.NoError(t, m.Set(ctx, "users", 1))
	require.NoError(t, m.Set(ctx, "tasks", 2))
	require.NoError(t, old.Set(ctx, "users", 3))

	keys, err := m.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tasks", "users"}, keys)

	require.NoError(t, m.Clear(ctx))
	keys, err = m.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	var v int
	found, err := old.Get(ctx, "users", &v)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 3, v)
}

func TestNewManager_Validation(t *testing.T) {
	_, err := NewManager(nil, "ns", "1")
	assert.Error(t, err)
	_, err = NewManager(NewMemoryBackend(), " ", "1")
	assert.Error(t, err)
	_, err = NewManager(NewMemoryBackend(), "ns", "")
	assert.Error(t, err)
}
