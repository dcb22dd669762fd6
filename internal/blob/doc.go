// Package blob defines the minibatch data model.
//
// A Minibatch is an immutable mapping from blob name to a typed, shaped
// buffer. Every minibatch produced by one pipeline configuration conforms
// to a single fixed Schema: same names, same element types, same ranks.
// Queues and the consumer adapter treat minibatches as opaque values;
// ownership transfers with the value on dequeue.
package blob
