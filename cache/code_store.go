// Package cache holds short-lived verification codes.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// CodeStore is a key → value store where every entry expires after its TTL.
type CodeStore interface {
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns ok=false for missing and expired entries.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Delete(ctx context.Context, key string) error
	// Incr bumps the counter at key and returns the new value. A new counter lives for ttl;
	// later increments keep the original expiry.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

type entry struct {
	value     string
	expiresAt time.Time
}

// MemoryCodeStore keeps entries in process memory. Time comes from the injected clock.
type MemoryCodeStore struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]entry
}

// NewMemoryCodeStore returns a store using now as its clock; nil means time.Now.
func NewMemoryCodeStore(now func() time.Time) *MemoryCodeStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryCodeStore{now: now, entries: make(map[string]entry)}
}

func (s *MemoryCodeStore) Put(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{value: value, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryCodeStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *MemoryCodeStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *MemoryCodeStore) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	e, ok := s.entries[key]
	if !ok || !now.Before(e.expiresAt) {
		e = entry{value: "0", expiresAt: now.Add(ttl)}
	}
	n, err := strconv.ParseInt(e.value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("value at %q is not a counter: %w", key, err)
	}
	n++
	e.value = strconv.FormatInt(n, 10)
	s.entries[key] = e
	return n, nil
}

// PurgeExpired drops expired entries and returns how many were removed.
func (s *MemoryCodeStore) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored entries, expired ones included.
func (s *MemoryCodeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
