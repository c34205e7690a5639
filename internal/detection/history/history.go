// Package history keeps the recent alert events for the REST API. A small
// ring preserves ordering for list queries; the shared ristretto cache serves
// point lookups by event ID with a TTL.
package history

import (
	"sync"
	"time"

	"github.com/okieraised/fatigue-agent/internal/detection/alert"
	"github.com/okieraised/fatigue-agent/internal/infrastructure/local_cache"
)

const (
	defaultCapacity = 128
	eventTTL        = 30 * time.Minute
	eventCost       = 1
)

type Store struct {
	mu     sync.RWMutex
	ring   []*alert.Event
	next   int
	filled bool
}

func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Store{ring: make([]*alert.Event, capacity)}
}

// Add records one event. Safe for concurrent use with Recent/Get.
func (s *Store) Add(ev *alert.Event) {
	if ev == nil {
		return
	}
	s.mu.Lock()
	s.ring[s.next] = ev
	s.next++
	if s.next == len(s.ring) {
		s.next = 0
		s.filled = true
	}
	s.mu.Unlock()

	local_cache.Cache().SetWithTTL(ev.ID, ev, eventCost, eventTTL)
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(limit int) []*alert.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	size := s.next
	if s.filled {
		size = len(s.ring)
	}
	if limit <= 0 || limit > size {
		limit = size
	}

	out := make([]*alert.Event, 0, limit)
	idx := s.next - 1
	for len(out) < limit {
		if idx < 0 {
			idx = len(s.ring) - 1
		}
		out = append(out, s.ring[idx])
		idx--
	}
	return out
}

// Get looks an event up by ID via the cache. Events expire after the TTL
// even if still present in the ring.
func (s *Store) Get(id string) (*alert.Event, bool) {
	v, ok := local_cache.Cache().Get(id)
	if !ok {
		return nil, false
	}
	ev, ok := v.(*alert.Event)
	return ev, ok
}
