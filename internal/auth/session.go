package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:"
	sessionTTL       = 24 * time.Hour
)

// Sessions maps session ids to user ids.
type Sessions interface {
	Create(ctx context.Context, userID int64) (string, error)
	GetUserID(ctx context.Context, id string) (int64, bool, error)
	Delete(ctx context.Context, id string) error
}

// Store manages sessions in Redis.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore returns a new session store.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = sessionTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// Create stores a new session for userID and returns its ID.
func (s *Store) Create(ctx context.Context, userID int64) (string, error) {
	id := uuid.NewString()
	if err := s.rdb.Set(ctx, sessionKeyPrefix+id, userID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}
	return id, nil
}

// GetUserID returns the user bound to the session. ok is false for unknown or expired sessions.
func (s *Store) GetUserID(ctx context.Context, id string) (int64, bool, error) {
	v, err := s.rdb.Get(ctx, sessionKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("session get: %w", err)
	}
	userID, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return userID, true, nil
}

// Delete removes a session by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, sessionKeyPrefix+id).Err()
}

type memorySession struct {
	userID    int64
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Used when Redis is not configured.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]memorySession
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = sessionTTL
	}
	return &MemoryStore{ttl: ttl, now: time.Now, sessions: make(map[string]memorySession)}
}

// Create starts a session for userID. Expired sessions are dropped on the way,
// so ones that are never looked up again do not pile up.
func (s *MemoryStore) Create(_ context.Context, userID int64) (string, error) {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, sess := range s.sessions {
		if !now.Before(sess.expiresAt) {
			delete(s.sessions, k)
		}
	}
	s.sessions[id] = memorySession{userID: userID, expiresAt: now.Add(s.ttl)}
	return id, nil
}

func (s *MemoryStore) GetUserID(_ context.Context, id string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return 0, false, nil
	}
	if !s.now().Before(sess.expiresAt) {
		delete(s.sessions, id)
		return 0, false, nil
	}
	return sess.userID, true, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
