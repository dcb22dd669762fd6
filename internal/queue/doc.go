// Package queue provides a bounded, blocking FIFO with an explicit
// closed state.
//
// Put blocks while the queue is full and Get blocks while it is empty;
// both unblock with ErrClosed once Close is called, so goroutines parked
// on a full or empty queue observe shutdown promptly. Items still queued
// at close time remain retrievable via Get or Drain until exhausted.
package queue
