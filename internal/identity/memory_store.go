// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package identity

import (
	"context"
	"sync"
	"time"

	"github.com/pdiddy/truthfinder/pkg/types"
)

// MemoryStore is an in-process SessionStore with an idle TTL. Sessions are
// lost when the process exits.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*sessionEntry
	closed  chan struct{}
	once    sync.Once
}

type sessionEntry struct {
	id       types.Identity
	lastSeen time.Time
}

// NewMemoryStore returns a MemoryStore. If ttl <= 0, a default of 24 hours is
// used. A background goroutine evicts idle sessions every cleanupEvery; pass
// zero to disable it and call Cleanup manually.
func NewMemoryStore(ttl, cleanupEvery time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	s := &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*sessionEntry),
		closed:  make(chan struct{}),
	}
	if cleanupEvery > 0 {
		go s.cleanupLoop(cleanupEvery)
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, token string) (types.Identity, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[token]
	if !ok {
		return "", false, nil
	}
	now := s.now()
	if now.Sub(e.lastSeen) > s.ttl {
		delete(s.entries, token)
		return "", false, nil
	}
	e.lastSeen = now
	return e.id, true, nil
}

func (s *MemoryStore) Claim(_ context.Context, token string, id types.Identity) (types.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[token]; ok && now.Sub(e.lastSeen) <= s.ttl {
		e.lastSeen = now
		return e.id, nil
	}
	s.entries[token] = &sessionEntry{id: id, lastSeen: now}
	return id, nil
}

func (s *MemoryStore) Del(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, token)
	return nil
}

// Len returns the number of tracked sessions, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cleanup evicts sessions idle longer than the TTL.
func (s *MemoryStore) Cleanup() {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		if e.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// Close stops the cleanup goroutine.
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func (s *MemoryStore) cleanupLoop(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-s.closed:
			return
		case <-t.C:
			s.Cleanup()
		}
	}
}
