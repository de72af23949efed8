// Package combiner merges several weighted input queues into a single
// output stream.
//
// Model
//
// Producers push into independent, caller-owned input queues. Each queue
// is registered with a weight and an empty timeout. One background worker
// repeatedly samples a registered queue with probability biased by weight,
// and either
//
//   - evicts it, when it has stayed empty longer than its timeout, or
//   - forwards its head item to the output.
//
// The output is a zero-capacity handoff: forwarding blocks until a
// consumer accepts the item. The worker therefore moves at most one item
// at a time and never buffers.
//
// Selection
//
// Queues are picked by fitness proportionate selection implemented with
// rejection sampling against the largest registered weight (see
// StochasticIndex). With weights 8 and 2 and both queues backlogged, the
// first one receives about 80% of the forwarded items. A zero max weight
// degrades to uniform selection.
//
// Eviction
//
// Every time a queue is sampled its empty period is updated. The first
// empty observation starts the period at zero; further empty observations
// add the time elapsed since that start, so the period grows faster the
// more often an empty queue is sampled. Any non-empty observation resets
// it. A queue is evicted once the period exceeds its timeout.
//
// Concurrency
//
// Registration calls are serialized by one mutex. The worker reads a
// copy-on-write snapshot of the registered queues and never waits on that
// mutex except to evict. The cached max weight is updated atomically and
// may briefly lag the set.
//
// Shutdown
//
// Shutdown cancels the worker context. Both blocking points, taking from
// an input queue and handing off to the output, observe it. An item taken
// but not yet handed off is dropped and counted by MetricsPolicy.IncDropped.
//
// Collaborators
//
// Any type implementing InputQueue or Output can be plugged in.
// BlockingQueue and SyncQueue are ready-made implementations.
package combiner
