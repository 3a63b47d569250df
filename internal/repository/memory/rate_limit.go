package memory

import (
	"context"
	"sync"
	"time"

	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/core/port"
)

// SlidingWindowStore keeps per-client attempt timestamps in process memory.
// Correct for a single instance; multi-instance deployments should use the
// redis-backed store instead so all workers share one window.
type SlidingWindowStore struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
}

// NewSlidingWindowStore constructs an empty in-process store.
func NewSlidingWindowStore() *SlidingWindowStore {
	return &SlidingWindowStore{attempts: make(map[string][]time.Time)}
}

// TrimWindow drops attempts that fell out of the window ending at reference.
// An attempt exactly window old is dropped; only reference-at < window keeps
// it counted. Identifiers whose window empties are removed entirely so the
// key space does not grow with every client ever seen.
func (s *SlidingWindowStore) TrimWindow(_ context.Context, identifier string, window time.Duration, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trimLocked(identifier, window, reference)
	return nil
}

// CountAttempts returns how many attempts remain inside the window.
func (s *SlidingWindowStore) CountAttempts(_ context.Context, identifier string, window time.Duration, reference time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, at := range s.attempts[identifier] {
		if reference.Sub(at) < window {
			count++
		}
	}
	return count, nil
}

// RecordAttempt appends a new attempt timestamp for the identifier.
func (s *SlidingWindowStore) RecordAttempt(_ context.Context, identifier string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts[identifier] = append(s.attempts[identifier], at)
	return nil
}

// OldestAttempt returns the earliest attempt still inside the window.
func (s *SlidingWindowStore) OldestAttempt(_ context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var oldest time.Time
	found := false
	for _, at := range s.attempts[identifier] {
		if reference.Sub(at) >= window {
			continue
		}
		if !found || at.Before(oldest) {
			oldest = at
			found = true
		}
	}
	return oldest, found, nil
}

// Len reports how many identifiers currently hold attempts.
func (s *SlidingWindowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attempts)
}

func (s *SlidingWindowStore) trimLocked(identifier string, window time.Duration, reference time.Time) {
	recorded, ok := s.attempts[identifier]
	if !ok {
		return
	}

	kept := recorded[:0]
	for _, at := range recorded {
		if reference.Sub(at) < window {
			kept = append(kept, at)
		}
	}

	if len(kept) == 0 {
		delete(s.attempts, identifier)
		return
	}
	s.attempts[identifier] = kept
}

var _ port.RateLimitStore = (*SlidingWindowStore)(nil)
