// Package session stores the per-session cart identifier. Two backends are
// provided: an in-process map for single-instance deployments and tests, and
// Redis for anything that runs more than one replica.
package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	cartID   string
	expireAt time.Time
}

// Memory is an in-process identifier store with per-entry TTL.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

// NewMemory builds a Memory store. A non-positive ttl disables expiry.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

func (m *Memory) Load(_ context.Context, session string) (string, error) {
	m.mu.RLock()
	e, ok := m.entries[session]
	m.mu.RUnlock()
	if !ok {
		return "", nil
	}
	if !e.expireAt.IsZero() && time.Now().After(e.expireAt) {
		m.mu.Lock()
		delete(m.entries, session)
		m.mu.Unlock()
		return "", nil
	}
	return e.cartID, nil
}

func (m *Memory) Save(_ context.Context, session, cartID string) error {
	e := memoryEntry{cartID: cartID}
	if m.ttl > 0 {
		e.expireAt = time.Now().Add(m.ttl)
	}
	m.mu.Lock()
	m.entries[session] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(_ context.Context, session string) error {
	m.mu.Lock()
	delete(m.entries, session)
	m.mu.Unlock()
	return nil
}
