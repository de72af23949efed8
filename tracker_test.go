package combiner

import (
	"testing"
	"time"

	testingclock "k8s.io/utils/clock/testing"
)

var trackerEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func expectEmptyFor(t *testing.T, tr *queueTracker[int], want time.Duration) {
	t.Helper()
	if got := tr.info().EmptyFor; got != want {
		t.Fatalf("expected empty period %v, got %v", want, got)
	}
}

func TestTrackerStartsIdleWhenEmpty(t *testing.T) {
	clk := testingclock.NewFakePassiveClock(trackerEpoch)
	q := NewBlockingQueue[int](0)
	tr := newQueueTracker[int](q, 1, 10*time.Second, clk)

	info := tr.info()
	if !info.Idle || info.ID == "" || !info.AddedAt.Equal(trackerEpoch) {
		t.Fatalf("unexpected initial state: %+v", info)
	}

	clk.SetTime(trackerEpoch.Add(4 * time.Second))
	tr.updateEmptiness()
	expectEmptyFor(t, tr, 4*time.Second)
}

func TestTrackerCompoundsWithoutAdvancingStart(t *testing.T) {
	clk := testingclock.NewFakePassiveClock(trackerEpoch)
	q := NewBlockingQueue[int](0)
	tr := newQueueTracker[int](q, 1, 10*time.Second, clk)

	clk.SetTime(trackerEpoch.Add(4 * time.Second))
	tr.updateEmptiness()
	expectEmptyFor(t, tr, 4*time.Second)

	// 4s + 6s since the streak started
	clk.SetTime(trackerEpoch.Add(6 * time.Second))
	tr.updateEmptiness()
	expectEmptyFor(t, tr, 10*time.Second)
	if tr.timedOut() {
		t.Fatal("timeout must be exceeded, not reached")
	}

	clk.SetTime(trackerEpoch.Add(7 * time.Second))
	tr.updateEmptiness()
	expectEmptyFor(t, tr, 17*time.Second)
	if !tr.timedOut() {
		t.Fatal("expected tracker to time out")
	}
}

func TestTrackerResetsOnItems(t *testing.T) {
	clk := testingclock.NewFakePassiveClock(trackerEpoch)
	q := NewBlockingQueue[int](0)
	tr := newQueueTracker[int](q, 1, time.Second, clk)

	clk.SetTime(trackerEpoch.Add(5 * time.Second))
	tr.updateEmptiness()
	if !tr.timedOut() {
		t.Fatal("expected tracker to time out")
	}

	q.TryPush(1)
	tr.updateEmptiness()
	if tr.timedOut() || tr.info().Idle {
		t.Fatalf("non-empty observation must reset: %+v", tr.info())
	}
	expectEmptyFor(t, tr, 0)

	// the next empty observation restarts the clock at zero
	q.TryTake()
	clk.SetTime(trackerEpoch.Add(20 * time.Second))
	tr.updateEmptiness()
	expectEmptyFor(t, tr, 0)
	if !tr.info().Idle {
		t.Fatal("expected idle after empty observation")
	}

	clk.SetTime(trackerEpoch.Add(21 * time.Second))
	tr.updateEmptiness()
	expectEmptyFor(t, tr, time.Second)
}

func TestTrackerStartsBusyWhenFed(t *testing.T) {
	clk := testingclock.NewFakePassiveClock(trackerEpoch)
	q := NewBlockingQueue[int](0)
	q.TryPush(1)
	tr := newQueueTracker[int](q, 1, 0, clk)

	if tr.info().Idle {
		t.Fatal("fed queue must not start idle")
	}

	q.TryTake()
	clk.SetTime(trackerEpoch.Add(time.Hour))
	tr.updateEmptiness()
	if tr.timedOut() {
		t.Fatal("first empty observation only starts the clock")
	}

	clk.SetTime(trackerEpoch.Add(time.Hour + time.Nanosecond))
	tr.updateEmptiness()
	if !tr.timedOut() {
		t.Fatal("zero timeout must expire on any empty period")
	}
}
