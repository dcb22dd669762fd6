package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig reports bad construction parameters. Fatal; raised
	// at construction and never retried.
	ErrInvalidConfig = errors.New("loader: invalid configuration")

	// ErrStopped is returned by accessors once the pipeline has reached
	// the Stopped state. Terminal, not retryable.
	ErrStopped = errors.New("loader: pipeline stopped")

	// ErrAlreadyStarted is returned by Start on any state but Constructed.
	ErrAlreadyStarted = errors.New("loader: already started")
)

// AssemblyError reports that a single example failed to assemble. Producer
// workers recover from it locally: the batch is skipped, the failure is
// counted, and the pipeline keeps running.
type AssemblyError struct {
	Example int // index of the offending example
	Err     error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assembly failed for example %d: %v", e.Example, e.Err)
}

func (e *AssemblyError) Unwrap() error { return e.Err }
