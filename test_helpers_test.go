package combiner_test

import (
	"context"
	"testing"
	"time"

	wc "github.com/azargarov/wcombiner"
)

func newTestOptions() wc.Options {
	return wc.Options{
		IdleWait:    5 * time.Millisecond,
		IdleWaitMin: time.Millisecond,
		Seed:        42,
	}
}

// newIdleCombiner builds a combiner that is not running yet.
func newIdleCombiner(t *testing.T, opts wc.Options) (*wc.Combiner[int, *wc.AtomicMetrics], *wc.SyncQueue[int], *wc.AtomicMetrics) {
	t.Helper()

	out := wc.NewSyncQueue[int]()
	m := &wc.AtomicMetrics{}
	c := wc.NewCombiner[int](out, opts, m)
	t.Cleanup(c.Stop)
	return c, out, m
}

// newTestCombiner builds and starts a combiner; it is stopped on cleanup.
func newTestCombiner(t *testing.T, opts wc.Options) (*wc.Combiner[int, *wc.AtomicMetrics], *wc.SyncQueue[int], *wc.AtomicMetrics) {
	t.Helper()

	c, out, m := newIdleCombiner(t, opts)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return c, out, m
}

// waitFor polls cond until it holds or timeout elapses.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}

// takeN receives n items from out or fails the test.
func takeN(t *testing.T, out *wc.SyncQueue[int], n int, timeout time.Duration) []int {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	items := make([]int, 0, n)
	for range n {
		v, err := out.Take(ctx)
		if err != nil {
			t.Fatalf("take %d/%d: %v", len(items)+1, n, err)
		}
		items = append(items, v)
	}
	return items
}

func fill(t *testing.T, q *wc.BlockingQueue[int], v, n int) {
	t.Helper()

	for range n {
		if !q.TryPush(v) {
			t.Fatalf("push %d: queue full", v)
		}
	}
}
