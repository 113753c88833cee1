// Package cache holds the most recent session snapshot per player for
// quick UI reads. It is never the source of truth; the engine session
// is, and the database keeps the durable copy.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Store is the minimal key-value surface the snapshot cache needs.
// The memory implementation below serves a single-process deployment;
// a Redis-backed implementation can slot in for a fleet.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process Store.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]entry)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || (!e.expiresAt.IsZero() && time.Now().After(e.expiresAt)) {
		return nil, ErrMiss
	}
	return e.value, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, expiration time.Duration) error {
	e := entry{value: value}
	if expiration > 0 {
		e.expiresAt = time.Now().Add(expiration)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	m.mu.Unlock()
	return nil
}

// StateCache stores the latest JSON session snapshot per player.
type StateCache struct {
	store      Store
	expiration time.Duration
}

func NewStateCache(store Store) *StateCache {
	return &StateCache{
		store:      store,
		expiration: 15 * time.Minute,
	}
}

func (c *StateCache) key(playerID string) string {
	return "omerta:state:" + playerID
}

// SetState caches a player's snapshot.
func (c *StateCache) SetState(ctx context.Context, playerID string, snapshot any) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return c.store.Set(ctx, c.key(playerID), data, c.expiration)
}

// GetState loads a cached snapshot into out. Returns ErrMiss when absent.
func (c *StateCache) GetState(ctx context.Context, playerID string, out any) error {
	data, err := c.store.Get(ctx, c.key(playerID))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// Invalidate drops a player's cached snapshot.
func (c *StateCache) Invalidate(ctx context.Context, playerID string) error {
	return c.store.Del(ctx, c.key(playerID))
}
