package combiner

// reportInternalError reports a fault swallowed by the worker.
//
// Internal errors never stop the dispatch loop: a single misbehaving
// input queue must not halt the merge. If no handler is registered,
// the error is only logged by the caller.
func (c *Combiner[T, M]) reportInternalError(e error) {
	if c.opts.OnInternalError != nil {
		c.opts.OnInternalError(e)
	}
}
