package queue

import (
	"errors"
	"sync"
)

var (
	// ErrClosed is returned by Put and Get after Close.
	ErrClosed = errors.New("queue: closed")
	// ErrFull is returned by TryPut when no capacity is available.
	ErrFull = errors.New("queue: full")
	// ErrEmpty is returned by TryGet when no item is available.
	ErrEmpty = errors.New("queue: empty")
)

// Queue is a bounded FIFO safe for concurrent producers and consumers.
// The zero value is not usable; construct with New.
type Queue[T any] struct {
	ch        chan T
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a queue with the given capacity. Capacity must be positive;
// the loader validates configuration before constructing queues.
func New[T any](capacity int) *Queue[T] {
	return &Queue[T]{
		ch:   make(chan T, capacity),
		done: make(chan struct{}),
	}
}

// Put appends v, blocking while the queue is full. It returns ErrClosed
// if the queue is closed before space becomes available.
func (q *Queue[T]) Put(v T) error {
	select {
	case <-q.done:
		return ErrClosed
	default:
	}
	select {
	case q.ch <- v:
		return nil
	case <-q.done:
		return ErrClosed
	}
}

// Get removes and returns the oldest item, blocking while the queue is
// empty. After Close, Get keeps returning queued items until the queue
// is drained, then returns ErrClosed.
func (q *Queue[T]) Get() (T, error) {
	select {
	case v := <-q.ch:
		return v, nil
	case <-q.done:
		// Closed may win the race while items remain; drain before failing.
		select {
		case v := <-q.ch:
			return v, nil
		default:
			var zero T
			return zero, ErrClosed
		}
	}
}

// TryPut appends v without blocking. It returns ErrFull when at capacity
// and ErrClosed after Close.
func (q *Queue[T]) TryPut(v T) error {
	select {
	case <-q.done:
		return ErrClosed
	default:
	}
	select {
	case q.ch <- v:
		return nil
	default:
		return ErrFull
	}
}

// TryGet removes the oldest item without blocking. It returns ErrEmpty
// when nothing is queued and ErrClosed once closed and drained.
func (q *Queue[T]) TryGet() (T, error) {
	select {
	case v := <-q.ch:
		return v, nil
	default:
	}
	var zero T
	select {
	case <-q.done:
		return zero, ErrClosed
	default:
		return zero, ErrEmpty
	}
}

// Close transitions the queue to the closed state, waking every goroutine
// blocked in Put or Get. Safe to call more than once.
func (q *Queue[T]) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}

// Closed reports whether Close has been called.
func (q *Queue[T]) Closed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}

// Drain removes and returns every queued item without blocking. Used at
// shutdown to release items abandoned by stopped workers.
func (q *Queue[T]) Drain() []T {
	var items []T
	for {
		select {
		case v := <-q.ch:
			items = append(items, v)
		default:
			return items
		}
	}
}

// Len returns the current occupancy.
func (q *Queue[T]) Len() int { return len(q.ch) }

// Cap returns the configured capacity.
func (q *Queue[T]) Cap() int { return cap(q.ch) }
