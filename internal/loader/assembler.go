package loader

import "github.com/mlpipe/prefetch/internal/blob"

// Index is the external provider of example descriptors. The pipeline
// needs only its length; example content is the Assembler's concern.
type Index interface {
	Len() int
}

// Assembler builds one minibatch from a set of example indices. It is
// called concurrently by every producer worker and must be stateless with
// respect to anything but dataset reads. Every successful Assemble must
// return a minibatch conforming to Schema. Failures should be reported as
// *AssemblyError so the owning worker can log the offending example.
type Assembler interface {
	Assemble(indices []int) (blob.Minibatch, error)
	Schema() blob.Schema
}
