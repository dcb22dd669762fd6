package loader

import (
	"fmt"
	"sync"

	"github.com/mlpipe/prefetch/internal/blob"
)

// Adapter is the consumer-side dequeue operation. It binds a device blob
// queue, by identifier, to named engine-visible buffer slots matching the
// pipeline's output schema. Each Dequeue consumes exactly one minibatch.
type Adapter struct {
	dq     *DeviceQueue
	schema blob.Schema

	mu    sync.RWMutex
	bound blob.Minibatch
}

// NewAdapter binds an adapter to the device queue with the given ID.
func NewAdapter(l *Loader, queueID string) (*Adapter, error) {
	dq, ok := l.DeviceQueueByID(queueID)
	if !ok {
		return nil, fmt.Errorf("loader: unknown device queue %q", queueID)
	}
	return &Adapter{dq: dq, schema: l.Schema()}, nil
}

// Dequeue pops one minibatch from the bound queue and publishes its
// buffers into the adapter's slots, blocking while the queue is empty.
// It returns ErrStopped once the pipeline has shut down.
func (a *Adapter) Dequeue() error {
	mb, err := a.dq.Dequeue()
	if err != nil {
		return err
	}
	if err := mb.Conforms(a.schema); err != nil {
		return fmt.Errorf("loader: minibatch violates output schema: %w", err)
	}
	a.mu.Lock()
	a.bound = mb
	a.mu.Unlock()
	return nil
}

// Blob returns the most recently bound buffer for name.
func (a *Adapter) Blob(name string) (blob.Blob, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	b, ok := a.bound[name]
	return b, ok
}

// QueueID returns the identifier of the bound device queue.
func (a *Adapter) QueueID() string { return a.dq.ID() }
