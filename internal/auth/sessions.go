package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore tracks revoked session IDs. JWTs are otherwise stateless;
// logout marks the token's jti revoked until its natural expiry.
type SessionStore interface {
	Revoke(ctx context.Context, sessionID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

const revokedKeyPrefix = "auth:revoked:"

// redisSessionStore keeps revocation flags in Redis with a TTL matching
// the token's remaining lifetime.
type redisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore builds a Redis-backed session store.
func NewRedisSessionStore(client *redis.Client) SessionStore {
	return &redisSessionStore{client: client}
}

func (s *redisSessionStore) Revoke(ctx context.Context, sessionID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		ttl = time.Hour
	}
	return s.client.Set(ctx, revokedKeyPrefix+sessionID, "1", ttl).Err()
}

func (s *redisSessionStore) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKeyPrefix+sessionID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// memorySessionStore is the fallback for single-node development and
// tests when no Redis is configured.
type memorySessionStore struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
}

// NewMemorySessionStore builds an in-process session store.
func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{revoked: make(map[string]time.Time)}
}

func (s *memorySessionStore) Revoke(_ context.Context, sessionID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[sessionID] = expiresAt
	return nil
}

func (s *memorySessionStore) IsRevoked(_ context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	expiresAt, ok := s.revoked[sessionID]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(expiresAt) {
		s.mu.Lock()
		delete(s.revoked, sessionID)
		s.mu.Unlock()
		return false, nil
	}
	return true, nil
}
