// File: services/call/session.go
package call

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"asignaciones/models"

	"github.com/go-redis/redis/v8"
)

const sessionKeyPrefix = "callSession:"

// SessionStore holds ephemeral call sessions between call initiation and the
// provider's callbacks. Implementations are safe for concurrent use and
// evict sessions after a bounded TTL; a Put must be durably visible to Get
// before it returns.
type SessionStore interface {
	Put(ctx context.Context, session *models.CallSession) error
	// Get returns nil when no session exists for the id.
	Get(ctx context.Context, callID string) (*models.CallSession, error)
	Delete(ctx context.Context, callID string) error
}

// RedisSessionStore keeps sessions as TTL'd JSON blobs in Redis.
type RedisSessionStore struct {
	Client *redis.Client
	TTL    time.Duration
}

// Put saves the session, resetting its TTL.
func (s *RedisSessionStore) Put(ctx context.Context, session *models.CallSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal call session: %w", err)
	}
	if err := s.Client.Set(ctx, sessionKeyPrefix+session.CallID, data, s.TTL).Err(); err != nil {
		return fmt.Errorf("failed to save call session: %w", err)
	}
	return nil
}

// Get retrieves the session, or nil once Redis has evicted it.
func (s *RedisSessionStore) Get(ctx context.Context, callID string) (*models.CallSession, error) {
	data, err := s.Client.Get(ctx, sessionKeyPrefix+callID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch call session: %w", err)
	}
	var session models.CallSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal call session: %w", err)
	}
	return &session, nil
}

// Delete removes the session.
func (s *RedisSessionStore) Delete(ctx context.Context, callID string) error {
	return s.Client.Del(ctx, sessionKeyPrefix+callID).Err()
}

// MemorySessionStore is an in-process store with the same TTL semantics and
// a hard capacity bound (oldest session evicted first). Used in tests and
// single-node deployments without Redis.
type MemorySessionStore struct {
	TTL      time.Duration
	Capacity int

	mu       sync.RWMutex
	sessions map[string]memorySession
}

type memorySession struct {
	session  models.CallSession
	storedAt time.Time
}

const defaultSessionCapacity = 1024

// NewMemorySessionStore builds a store with the given TTL.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		TTL:      ttl,
		Capacity: defaultSessionCapacity,
		sessions: make(map[string]memorySession),
	}
}

func (s *MemorySessionStore) Put(ctx context.Context, session *models.CallSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	s.sessions[session.CallID] = memorySession{session: *session, storedAt: time.Now()}
	return nil
}

func (s *MemorySessionStore) Get(ctx context.Context, callID string) (*models.CallSession, error) {
	s.mu.RLock()
	entry, ok := s.sessions[callID]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if s.TTL > 0 && time.Since(entry.storedAt) > s.TTL {
		s.mu.Lock()
		delete(s.sessions, callID)
		s.mu.Unlock()
		return nil, nil
	}
	session := entry.session
	return &session, nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, callID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, callID)
	return nil
}

// sweepLocked drops expired sessions and, if the store is still at capacity,
// the oldest live ones.
func (s *MemorySessionStore) sweepLocked() {
	now := time.Now()
	if s.TTL > 0 {
		for id, entry := range s.sessions {
			if now.Sub(entry.storedAt) > s.TTL {
				delete(s.sessions, id)
			}
		}
	}

	capacity := s.Capacity
	if capacity <= 0 {
		capacity = defaultSessionCapacity
	}
	if len(s.sessions) < capacity {
		return
	}

	type aged struct {
		id       string
		storedAt time.Time
	}
	entries := make([]aged, 0, len(s.sessions))
	for id, entry := range s.sessions {
		entries = append(entries, aged{id: id, storedAt: entry.storedAt})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].storedAt.Before(entries[j].storedAt) })
	for i := 0; i <= len(entries)-capacity; i++ {
		delete(s.sessions, entries[i].id)
	}
}
