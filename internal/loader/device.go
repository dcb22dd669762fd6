package loader

import (
	"time"

	"github.com/google/uuid"

	"github.com/mlpipe/prefetch/internal/blob"
	"github.com/mlpipe/prefetch/internal/monitoring"
	"github.com/mlpipe/prefetch/internal/queue"
)

// DeviceQueue is the bounded per-device queue of ready minibatches. The
// consumer adapter binds to it by ID; the ID is stable for the pipeline's
// lifetime.
type DeviceQueue struct {
	id     string
	device int
	q      *queue.Queue[blob.Minibatch]
	met    *monitoring.Metrics
}

func newDeviceQueue(device, capacity int, met *monitoring.Metrics) *DeviceQueue {
	return &DeviceQueue{
		id:     uuid.NewString(),
		device: device,
		q:      queue.New[blob.Minibatch](capacity),
		met:    met,
	}
}

// ID returns the stable queue identifier used for adapter binding.
func (d *DeviceQueue) ID() string { return d.id }

// Device returns the logical consumer device index.
func (d *DeviceQueue) Device() int { return d.device }

// Len returns the current occupancy.
func (d *DeviceQueue) Len() int { return d.q.Len() }

// Cap returns the configured capacity.
func (d *DeviceQueue) Cap() int { return d.q.Cap() }

// Dequeue removes the oldest ready minibatch, blocking while the queue is
// empty. It returns ErrStopped once the pipeline has shut down and the
// queue is drained.
func (d *DeviceQueue) Dequeue() (blob.Minibatch, error) {
	start := time.Now()
	mb, err := d.q.Get()
	if err != nil {
		return nil, ErrStopped
	}
	d.met.DequeueDuration.Observe(time.Since(start).Seconds())
	d.met.DeviceQueueDepth.WithLabelValues(d.id).Set(float64(d.q.Len()))
	return mb, nil
}

func (d *DeviceQueue) put(mb blob.Minibatch) error {
	if err := d.q.Put(mb); err != nil {
		return err
	}
	d.met.DeviceQueueDepth.WithLabelValues(d.id).Set(float64(d.q.Len()))
	return nil
}
