package combiner

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// cachePad is used to prevent false sharing between hot fields.
type cachePad = cpu.CacheLinePad

// MetricsPolicy defines hooks used by the combiner to report
// forwarding and eviction activity.
//
// Implementations must be safe for concurrent use.
// All methods are expected to be lightweight and non-blocking.
type MetricsPolicy interface {

	// IncForwarded counts an item handed off to the output.
	IncForwarded()

	// IncEvicted counts an input queue removed for being empty too long.
	IncEvicted()

	// IncDropped counts an item taken from an input queue but never
	// handed off because the worker was stopped.
	IncDropped()
}

// AtomicMetrics is a lock-free metrics implementation backed by atomics.
//
// Writes are optimized for hot paths.
// Reads are intended for cold-path observation.
type AtomicMetrics struct {
	forwarded atomic.Uint64
	_         cachePad

	evicted atomic.Uint64
	dropped atomic.Uint64
}

// Forwarded returns the total number of items handed off.
func (m *AtomicMetrics) Forwarded() uint64 {
	return m.forwarded.Load()
}

// Evicted returns the number of input queues evicted so far.
func (m *AtomicMetrics) Evicted() uint64 {
	return m.evicted.Load()
}

// Dropped returns the number of items lost to cancellation.
func (m *AtomicMetrics) Dropped() uint64 {
	return m.dropped.Load()
}

func (m *AtomicMetrics) IncForwarded() {
	m.forwarded.Add(1)
}

func (m *AtomicMetrics) IncEvicted() {
	m.evicted.Add(1)
}

func (m *AtomicMetrics) IncDropped() {
	m.dropped.Add(1)
}

//------------- NoopMetrics ----------------------------------

// NoopMetrics is a MetricsPolicy implementation that discards
// all metric updates.
type NoopMetrics struct{}

func (m *NoopMetrics) IncForwarded() {}
func (m *NoopMetrics) IncEvicted()   {}
func (m *NoopMetrics) IncDropped()   {}
