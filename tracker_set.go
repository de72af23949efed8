package combiner

import (
	"sync/atomic"
)

// trackerSet is a copy-on-write set of trackers keyed by queue identity.
//
// Readers load an immutable slice and never block. Writers build a new
// slice and publish it; they must be serialized by the caller.
type trackerSet[T any] struct {
	items atomic.Pointer[[]*queueTracker[T]]
}

func newTrackerSet[T any]() *trackerSet[T] {
	s := &trackerSet[T]{}
	empty := make([]*queueTracker[T], 0)
	s.items.Store(&empty)
	return s
}

// snapshot returns the current members. The slice must not be modified.
func (s *trackerSet[T]) snapshot() []*queueTracker[T] {
	return *s.items.Load()
}

func (s *trackerSet[T]) len() int {
	return len(s.snapshot())
}

func (s *trackerSet[T]) find(q InputQueue[T]) *queueTracker[T] {
	for _, t := range s.snapshot() {
		if t.queue == q {
			return t
		}
	}
	return nil
}

// add publishes t unless a tracker for the same queue exists.
// It reports whether t was inserted.
func (s *trackerSet[T]) add(t *queueTracker[T]) bool {
	cur := s.snapshot()
	for _, e := range cur {
		if e.queue == t.queue {
			return false
		}
	}
	next := make([]*queueTracker[T], len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, t)
	s.items.Store(&next)
	return true
}

// remove unpublishes the tracker for q and returns it, or nil if q is
// not tracked.
func (s *trackerSet[T]) remove(q InputQueue[T]) *queueTracker[T] {
	cur := s.snapshot()
	for i, e := range cur {
		if e.queue != q {
			continue
		}
		next := make([]*queueTracker[T], 0, len(cur)-1)
		next = append(next, cur[:i]...)
		next = append(next, cur[i+1:]...)
		s.items.Store(&next)
		e.removed.Store(true)
		return e
	}
	return nil
}

// maxWeight scans the current members; 0 for an empty set.
func (s *trackerSet[T]) maxWeight() float64 {
	var m float64
	for _, t := range s.snapshot() {
		if t.weight > m {
			m = t.weight
		}
	}
	return m
}
