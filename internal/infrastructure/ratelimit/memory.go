// Package ratelimit holds the in-process sliding-window limiter used when no
// shared Redis is configured (single replica, local development, tests).
package ratelimit

import (
	"sync"
	"time"
)

// MemoryStore is a sliding-log limiter keyed by client identifier. It
// satisfies echo's middleware.RateLimiterStore.
type MemoryStore struct {
	mu        sync.Mutex
	window    time.Duration
	limit     int
	hits      map[string][]time.Time
	lastSweep time.Time
	now       func() time.Time
}

func NewMemoryStore(window time.Duration, limit int) *MemoryStore {
	return &MemoryStore{
		window: window,
		limit:  limit,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Allow admits the request when fewer than limit requests from identifier
// were admitted during the last window.
func (s *MemoryStore) Allow(identifier string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-s.window)

	if now.Sub(s.lastSweep) >= s.window {
		s.sweep(cutoff)
		s.lastSweep = now
	}

	recent := trim(s.hits[identifier], cutoff)
	if len(recent) >= s.limit {
		s.hits[identifier] = recent
		return false, nil
	}
	s.hits[identifier] = append(recent, now)
	return true, nil
}

// sweep drops identifiers with no hits inside the window.
func (s *MemoryStore) sweep(cutoff time.Time) {
	for id, hits := range s.hits {
		if kept := trim(hits, cutoff); len(kept) == 0 {
			delete(s.hits, id)
		} else {
			s.hits[id] = kept
		}
	}
}

// trim returns the suffix of hits newer than cutoff. hits is in ascending order.
func trim(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	return hits[i:]
}
