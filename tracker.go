package combiner

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"k8s.io/utils/clock"
)

// QueueInfo is a point-in-time view of a registered input queue.
type QueueInfo[T any] struct {
	ID           string
	Queue        InputQueue[T]
	Weight       float64
	EmptyTimeout time.Duration

	// EmptyFor is the accumulated empty duration used for eviction.
	EmptyFor time.Duration

	// Idle reports whether the queue was empty when last observed.
	Idle    bool
	AddedAt time.Time
}

// queueTracker wraps one input queue with its weight and the empty
// duration bookkeeping that drives eviction.
//
// Only the combiner worker mutates the accounting; mu exists so that
// diagnostic snapshots can read it concurrently.
type queueTracker[T any] struct {
	id           string
	queue        InputQueue[T]
	weight       float64
	emptyTimeout time.Duration
	addedAt      time.Time
	clock        clock.PassiveClock

	mu sync.Mutex
	// emptyFor is how long the queue has been seen empty.
	emptyFor time.Duration
	// emptySince is when the current empty streak started; meaningful
	// only while idle is set.
	emptySince time.Time
	idle       bool

	// removed is set once the tracker has left the set.
	removed atomic.Bool
	// evictFailed is set after the first failed eviction was logged.
	evictFailed atomic.Bool
}

func newQueueTracker[T any](q InputQueue[T], weight float64, emptyTimeout time.Duration, c clock.PassiveClock) *queueTracker[T] {
	now := c.Now()
	t := &queueTracker[T]{
		id:           uuid.NewString(),
		queue:        q,
		weight:       weight,
		emptyTimeout: emptyTimeout,
		addedAt:      now,
		clock:        c,
	}
	if q.Empty() {
		t.emptySince = now
		t.idle = true
	}
	return t
}

func (t *queueTracker[T]) Weight() float64 { return t.weight }

// updateEmptiness adds time to the empty period if the queue is empty.
//
// The first empty observation after a non-empty one restarts the period
// at zero. Later empty observations add the time elapsed since the start
// of the streak without moving that start, so repeated polls compound.
func (t *queueTracker[T]) updateEmptiness() {
	empty := t.queue.Empty()

	t.mu.Lock()
	defer t.mu.Unlock()

	if !empty {
		t.emptyFor = 0
		t.emptySince = time.Time{}
		t.idle = false
		return
	}
	if !t.idle {
		t.emptyFor = 0
		t.emptySince = t.clock.Now()
		t.idle = true
		return
	}
	t.emptyFor += t.clock.Since(t.emptySince)
}

// timedOut reports whether the queue has been empty longer than allowed.
func (t *queueTracker[T]) timedOut() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.emptyFor > t.emptyTimeout
}

func (t *queueTracker[T]) info() QueueInfo[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return QueueInfo[T]{
		ID:           t.id,
		Queue:        t.queue,
		Weight:       t.weight,
		EmptyTimeout: t.emptyTimeout,
		EmptyFor:     t.emptyFor,
		Idle:         t.idle,
		AddedAt:      t.addedAt,
	}
}
