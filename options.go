package combiner

import (
	"time"

	"k8s.io/utils/clock"
)

const (
	// DefaultIdleWait caps how long the worker sleeps between checks
	// while no input queue is registered.
	DefaultIdleWait = 100 * time.Millisecond

	// DefaultIdleWaitMin is the first idle sleep after the set empties.
	DefaultIdleWaitMin = 10 * time.Millisecond
)

// Options configure a Combiner.
//
// All zero values are replaced with sensible defaults in FillDefaults.
type Options struct {
	// IdleWait is the upper bound of the idle backoff.
	IdleWait time.Duration

	// IdleWaitMin is the initial idle backoff.
	IdleWaitMin time.Duration

	// Seed seeds the selection PRNG. Zero picks a time based seed.
	Seed uint64

	// Clock drives empty-period accounting and idle waits.
	Clock clock.Clock

	// PinWorker locks the worker goroutine to its OS thread and pins
	// that thread to WorkerCPU. Linux only.
	PinWorker bool
	WorkerCPU int

	// OnInternalError receives faults the worker swallows to keep
	// running, such as a failed eviction.
	OnInternalError func(error)
}

func (o *Options) FillDefaults() {
	if o.IdleWait <= 0 {
		o.IdleWait = DefaultIdleWait
	}
	if o.IdleWaitMin <= 0 {
		o.IdleWaitMin = DefaultIdleWaitMin
	}
	if o.IdleWaitMin > o.IdleWait {
		o.IdleWaitMin = o.IdleWait
	}
	if o.Seed == 0 {
		o.Seed = uint64(time.Now().UnixNano())
	}
	if o.Clock == nil {
		o.Clock = clock.RealClock{}
	}
	if o.WorkerCPU < 0 {
		o.WorkerCPU = 0
	}
}
