// Package loader implements the bounded data-prefetching pipeline.
//
// A Loader runs a pool of producer workers that sample example indices,
// assemble minibatches, and push them into a bounded CPU-side queue. One
// enqueuer per consumer device drains that queue into a bounded device
// blob queue, applying backpressure when the device side is full. The
// consumer adapter dequeues one minibatch per invocation into named,
// schema-checked buffers.
//
// Lifecycle:
//
//	Constructed → (Prefilling) → Running → ShuttingDown → Stopped
//
// Start launches the workers and, with prefill enabled, blocks until
// every device queue is at capacity or a bounded timeout elapses.
// Shutdown is idempotent: whether called directly, a second time, or via
// an interrupt signal, exactly one teardown runs, every blocked worker
// wakes, and all goroutines join within a bounded wait.
package loader
