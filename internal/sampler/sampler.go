// Package sampler selects which example indices compose each minibatch.
//
// A Sampler walks a seeded shuffled permutation of [0, N). Concurrent
// NextBatch calls each receive a disjoint slice of the permutation, so
// across one epoch the union of all returned indices is exactly a
// permutation of [0, N). When the cursor exhausts the permutation the
// sampler reshuffles and starts the next epoch mid-call, so a batch is
// never short.
package sampler

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
)

// ErrEmptyIndex reports construction over a zero-length example index.
var ErrEmptyIndex = errors.New("sampler: empty example index")

// Sampler hands out example indices in shuffled epoch order. Safe for
// concurrent use; only the cursor advance is serialized, never the
// caller's assembly work.
type Sampler struct {
	mu    sync.Mutex
	rng   *rand.Rand
	perm  []int
	pos   int
	epoch int
}

// New creates a sampler over n examples with a deterministic seed.
func New(n int, seed int64) (*Sampler, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: n=%d", ErrEmptyIndex, n)
	}
	s := &Sampler{rng: rand.New(rand.NewSource(seed))}
	s.perm = s.rng.Perm(n)
	return s, nil
}

// NextBatch returns the next size example indices, advancing the cursor
// exactly once. A request that crosses the end of the permutation wraps
// into a freshly shuffled next epoch rather than returning short.
func (s *Sampler) NextBatch(size int) ([]int, error) {
	if size <= 0 {
		return nil, fmt.Errorf("sampler: non-positive batch size %d", size)
	}
	out := make([]int, 0, size)

	s.mu.Lock()
	defer s.mu.Unlock()
	for len(out) < size {
		if s.pos == len(s.perm) {
			s.rng.Shuffle(len(s.perm), func(i, j int) {
				s.perm[i], s.perm[j] = s.perm[j], s.perm[i]
			})
			s.pos = 0
			s.epoch++
		}
		take := size - len(out)
		if remain := len(s.perm) - s.pos; take > remain {
			take = remain
		}
		out = append(out, s.perm[s.pos:s.pos+take]...)
		s.pos += take
	}
	return out, nil
}

// Epoch returns the number of completed passes over the index.
func (s *Sampler) Epoch() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Size returns the number of examples per epoch.
func (s *Sampler) Size() int { return len(s.perm) }
