package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DefaultQuota is the largest encoded value Set accepts unless WithQuota overrides it.
const DefaultQuota = 5 << 20

const keySep = ":"

// Manager stores JSON values under a namespace and schema version.
// A reader configured with a different namespace or version sees no data.
type Manager struct {
	backend   Backend
	namespace string
	version   string
	quota     int
}

// Option configures a Manager.
type Option func(*Manager)

// WithQuota sets the maximum encoded size of a single value. Zero or less disables the check.
func WithQuota(bytes int) Option {
	return func(m *Manager) { m.quota = bytes }
}

// NewManager returns a Manager over backend scoped to namespace and version.
func NewManager(backend Backend, namespace, version string, opts ...Option) (*Manager, error) {
	namespace = strings.TrimSpace(namespace)
	version = strings.TrimSpace(version)
	if backend == nil {
		return nil, errors.New("storage: nil backend")
	}
	if namespace == "" || version == "" {
		return nil, errors.New("storage: namespace and version are required")
	}
	m := &Manager{backend: backend, namespace: namespace, version: version, quota: DefaultQuota}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Manager) Namespace() string { return m.namespace }

func (m *Manager) Version() string { return m.version }

func (m *Manager) prefix() string {
	return m.namespace + keySep + m.version + keySep
}

func (m *Manager) fullKey(key string) string {
	return m.prefix() + key
}

// Get decodes the value stored under key into dst. It reports false when the key is absent.
func (m *Manager) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, err := m.backend.Get(ctx, m.fullKey(key))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: get %q: %v", ErrUnavailable, key, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, fmt.Errorf("%w: %q: %v", ErrCorrupt, key, err)
	}
	return true, nil
}

// Set encodes value as JSON and writes it under key, replacing any previous value.
func (m *Manager) Set(ctx context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("storage: encode %q: %w", key, err)
	}
	if m.quota > 0 && len(b) > m.quota {
		return fmt.Errorf("%w: %q is %d bytes, limit %d", ErrQuotaExceeded, key, len(b), m.quota)
	}
	if err := m.backend.Set(ctx, m.fullKey(key), b); err != nil {
		return fmt.Errorf("%w: set %q: %v", ErrUnavailable, key, err)
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (m *Manager) Remove(ctx context.Context, key string) error {
	err := m.backend.Delete(ctx, m.fullKey(key))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: remove %q: %v", ErrUnavailable, key, err)
	}
	return nil
}

// Keys lists the logical keys stored under this namespace and version.
func (m *Manager) Keys(ctx context.Context) ([]string, error) {
	raw, err := m.backend.Keys(ctx, m.prefix())
	if err != nil {
		return nil, fmt.Errorf("%w: keys: %v", ErrUnavailable, err)
	}
	out := make([]string, 0, len(raw))
	for _, k := range raw {
		out = append(out, strings.TrimPrefix(k, m.prefix()))
	}
	return out, nil
}

// Clear removes every key of this namespace and version. Other versions are untouched.
func (m *Manager) Clear(ctx context.Context) error {
	keys, err := m.Keys(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := m.Remove(ctx, k); err != nil {
			return err
		}
	}
	return nil
}
