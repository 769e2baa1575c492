package repository

import (
	"context"
	"sync"
	"time"

	"admission-gate-service/domain"
)

type counterEntry struct {
	count     int64
	expiresAt time.Time
}

// InMemoryCounter keeps counters in process memory. Meant for local
// development and tests, quota is not shared between instances.
type InMemoryCounter struct {
	now         func() time.Time
	lock        sync.Mutex
	entries     map[string]*counterEntry
	unavailable bool
}

func NewInMemoryCounter(now func() time.Time) *InMemoryCounter {
	if now == nil {
		now = time.Now
	}
	return &InMemoryCounter{
		now:     now,
		entries: make(map[string]*counterEntry),
	}
}

func (r *InMemoryCounter) IncrementAndGet(
	_ context.Context,
	tier domain.Tier,
	identityKey string,
	window time.Duration,
) (int64, time.Duration, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.unavailable {
		return 0, 0, domain.ErrStoreUnavailable
	}

	now := r.now()
	key := counterKey(tier, identityKey)
	entry, ok := r.entries[key]
	if !ok || !now.Before(entry.expiresAt) {
		entry = &counterEntry{expiresAt: now.Add(window)}
		r.entries[key] = entry
	}
	entry.count++
	return entry.count, entry.expiresAt.Sub(now), nil
}

// SetUnavailable switches the store into a failing state to exercise
// the fail-open and fail-closed paths.
func (r *InMemoryCounter) SetUnavailable(unavailable bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.unavailable = unavailable
}

// Count reports the live value of one counter without touching it.
func (r *InMemoryCounter) Count(tier domain.Tier, identityKey string) int64 {
	r.lock.Lock()
	defer r.lock.Unlock()

	entry, ok := r.entries[counterKey(tier, identityKey)]
	if !ok || !r.now().Before(entry.expiresAt) {
		return 0
	}
	return entry.count
}
