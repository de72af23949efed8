package combiner

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	boff "github.com/Andrej220/go-utils/backoff"
	lg "github.com/Andrej220/go-utils/zlog"
)

// Combiner merges weighted input queues into one output.
//
// A single worker goroutine repeatedly samples one registered queue by
// weight, evicts it if it has been empty longer than its timeout, and
// otherwise forwards its head item to the output. Registration calls are
// safe to use concurrently with the worker and with each other.
type Combiner[T any, M MetricsPolicy] struct {
	out     Output[T]
	opts    Options
	metrics M

	// mu serializes writers of trackers. The worker never takes it
	// except to evict.
	mu       sync.Mutex
	trackers *trackerSet[T]

	// maxWeight holds math.Float64bits of the largest registered weight.
	maxWeight atomic.Uint64

	lifeMu  sync.Mutex
	started bool
	closed  bool
	cancel  context.CancelFunc
	doneCh  chan struct{}
}

// NewCombiner creates a Combiner forwarding to out. The worker is not
// running until Start is called.
func NewCombiner[T any, M MetricsPolicy](out Output[T], opts Options, m M) *Combiner[T, M] {
	if out == nil {
		panic("combiner: output is nil")
	}
	opts.FillDefaults()

	return &Combiner[T, M]{
		out:      out,
		opts:     opts,
		metrics:  m,
		trackers: newTrackerSet[T](),
		doneCh:   make(chan struct{}),
	}
}

// AddInputQueue registers q with the given weight. q is evicted once it
// has been observed empty for longer than emptyTimeout.
//
// Registering a queue that is already tracked is a no-op; the first
// registration's weight and timeout stay in effect.
func (c *Combiner[T, M]) AddInputQueue(q InputQueue[T], weight float64, emptyTimeout time.Duration) (err error) {
	if err := validateQueue(q); err != nil {
		return err
	}
	if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidWeight, weight)
	}
	if emptyTimeout < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, emptyTimeout)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	defer recoverInto(&err, ErrQueueNotComparable)

	if c.trackers.find(q) != nil {
		return nil
	}
	c.trackers.add(newQueueTracker(q, weight, emptyTimeout, c.opts.Clock))
	c.raiseMaxWeight(weight)
	return nil
}

// RemoveInputQueue stops tracking q. Removing an unknown queue is not
// an error.
func (c *Combiner[T, M]) RemoveInputQueue(q InputQueue[T]) (err error) {
	if q == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	defer recoverInto(&err, ErrRemoveFailed)

	c.removeLocked(q)
	return nil
}

// HasInputQueue reports whether q is currently tracked. It does not
// block on registration calls. Queues that AddInputQueue would reject
// are never tracked.
func (c *Combiner[T, M]) HasInputQueue(q InputQueue[T]) bool {
	if validateQueue(q) != nil {
		return false
	}
	return c.trackers.find(q) != nil
}

// ListQueues returns a snapshot of the tracked queues.
func (c *Combiner[T, M]) ListQueues() []QueueInfo[T] {
	snap := c.trackers.snapshot()
	out := make([]QueueInfo[T], 0, len(snap))
	for _, t := range snap {
		out = append(out, t.info())
	}
	return out
}

// Len returns the number of tracked queues.
func (c *Combiner[T, M]) Len() int { return c.trackers.len() }

// MaxWeight returns the cached maximum weight across tracked queues.
func (c *Combiner[T, M]) MaxWeight() float64 {
	return math.Float64frombits(c.maxWeight.Load())
}

// Start launches the worker. The worker stops when Shutdown is called
// or when ctx is done; its logger is taken from ctx.
func (c *Combiner[T, M]) Start(ctx context.Context) error {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.started {
		return ErrAlreadyStarted
	}
	c.started = true

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	go c.run(runCtx)
	return nil
}

// Shutdown stops the worker and waits for it to exit or for ctx to be
// done. An item already taken from an input queue but not yet handed
// off is dropped.
func (c *Combiner[T, M]) Shutdown(ctx context.Context) error {
	c.lifeMu.Lock()
	c.closed = true
	started := c.started
	if c.cancel != nil {
		c.cancel()
	}
	c.lifeMu.Unlock()

	if !started {
		return nil
	}
	select {
	case <-c.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// blocking stop
func (c *Combiner[T, M]) Stop() { _ = c.Shutdown(context.Background()) }

// run is the worker loop:
//   - idles with a growing backoff while no queue is registered
//   - picks one tracker by weight
//   - evicts it when its empty period exceeded the timeout
//   - otherwise forwards its head item, blocking on the handoff
func (c *Combiner[T, M]) run(ctx context.Context) {
	defer close(c.doneCh)
	logger := lg.FromContext(ctx)

	if c.opts.PinWorker {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if err := PinToCPU(c.opts.WorkerCPU); err != nil {
			logger.Error("Unable to pin combiner worker", lg.Int("cpu", c.opts.WorkerCPU), lg.Any("error", err))
			c.reportInternalError(err)
		}
	}

	rnd := newRand(c.opts.Seed)
	bo := boff.New(c.opts.IdleWaitMin, c.opts.IdleWait, int64(c.opts.Seed))
	idle := false

	logger.Info("Combiner worker started")
	defer func() {
		logger.Info("Combiner worker stopped", lg.Any("reason", context.Cause(ctx)))
	}()

	for ctx.Err() == nil {
		snap := c.trackers.snapshot()
		if len(snap) == 0 {
			if !idle {
				bo = boff.New(c.opts.IdleWaitMin, c.opts.IdleWait, int64(c.opts.Seed))
				idle = true
			}
			if !c.idleWait(ctx, bo.Next()) {
				return
			}
			continue
		}
		idle = false

		t := snap[StochasticIndex(snap, c.MaxWeight(), rnd)]
		if t.removed.Load() {
			continue
		}

		t.updateEmptiness()
		if t.timedOut() {
			c.evict(ctx, t)
			continue
		}
		if t.queue.Empty() {
			runtime.Gosched()
			continue
		}
		c.forward(ctx, t)
	}
}

func (c *Combiner[T, M]) idleWait(ctx context.Context, d time.Duration) bool {
	timer := c.opts.Clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C():
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Combiner[T, M]) evict(ctx context.Context, t *queueTracker[T]) {
	logger := lg.FromContext(ctx)
	info := t.info()

	removed, err := c.evictTracker(t)
	if err != nil {
		// the tracker stays in the set and is sampled again soon
		if t.evictFailed.CompareAndSwap(false, true) {
			logger.Error("Unable to remove queue", lg.String("queue_id", info.ID), lg.Any("error", err))
		}
		c.reportInternalError(err)
		return
	}
	if !removed {
		return
	}
	c.metrics.IncEvicted()
	logger.Info("Input queue evicted",
		lg.String("queue_id", info.ID),
		lg.String("empty_for", info.EmptyFor.String()),
		lg.String("timeout", info.EmptyTimeout.String()),
	)
}

// evictTracker removes t unless it already left the set, possibly
// replaced by a newer registration of the same queue.
func (c *Combiner[T, M]) evictTracker(t *queueTracker[T]) (removed bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer recoverInto(&err, ErrRemoveFailed)

	if c.trackers.find(t.queue) != t {
		return false, nil
	}
	return c.removeLocked(t.queue) != nil, nil
}

func (c *Combiner[T, M]) forward(ctx context.Context, t *queueTracker[T]) {
	item, ok, err := take(ctx, t.queue)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		lg.FromContext(ctx).Error("Unable to take from input queue", lg.String("queue_id", t.id), lg.Any("error", err))
		c.reportInternalError(fmt.Errorf("combiner: take from queue %s: %w", t.id, err))
		return
	}
	if !ok {
		return
	}

	if err := c.out.Put(ctx, item); err != nil {
		c.metrics.IncDropped()
		if ctx.Err() != nil {
			lg.FromContext(ctx).Warn("Item dropped on shutdown", lg.String("queue_id", t.id))
			return
		}
		lg.FromContext(ctx).Error("Unable to hand off item", lg.String("queue_id", t.id), lg.Any("error", err))
		c.reportInternalError(fmt.Errorf("combiner: hand off from queue %s: %w", t.id, err))
		return
	}
	c.metrics.IncForwarded()
}

// removeLocked drops the tracker for q and recomputes the max weight.
// Must be called with mu held.
func (c *Combiner[T, M]) removeLocked(q InputQueue[T]) *queueTracker[T] {
	t := c.trackers.remove(q)
	c.maxWeight.Store(math.Float64bits(c.trackers.maxWeight()))
	return t
}

func (c *Combiner[T, M]) raiseMaxWeight(w float64) {
	for {
		old := c.maxWeight.Load()
		if math.Float64frombits(old) >= w {
			return
		}
		if c.maxWeight.CompareAndSwap(old, math.Float64bits(w)) {
			return
		}
	}
}

// take prefers a non-blocking take so that a queue drained by another
// consumer after the emptiness check does not stall the worker.
func take[T any](ctx context.Context, q InputQueue[T]) (T, bool, error) {
	if tt, ok := q.(TryTaker[T]); ok {
		v, ok := tt.TryTake()
		return v, ok, nil
	}
	v, err := q.Take(ctx)
	if err != nil {
		return v, false, err
	}
	return v, true, nil
}

func validateQueue[T any](q InputQueue[T]) error {
	if q == nil {
		return ErrNilQueue
	}
	v := reflect.ValueOf(q)
	switch v.Kind() {
	case reflect.Pointer, reflect.Chan, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface:
		if v.IsNil() {
			return ErrNilQueue
		}
	}
	if !v.Type().Comparable() || !selfEqual(q) {
		return fmt.Errorf("%w: %T", ErrQueueNotComparable, q)
	}
	return nil
}

// selfEqual reports whether q can serve as its own identity. A struct type
// is comparable even when an interface field holds a slice or map, in
// which case == panics at run time.
func selfEqual[T any](q InputQueue[T]) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	same := q
	return same == q
}

// recoverInto converts a panic into an error wrapping kind.
func recoverInto(err *error, kind error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", kind, r)
	}
}
