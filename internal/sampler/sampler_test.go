package sampler

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyIndexRejected(t *testing.T) {
	_, err := New(0, 1)
	assert.ErrorIs(t, err, ErrEmptyIndex)

	_, err = New(-1, 1)
	assert.ErrorIs(t, err, ErrEmptyIndex)
}

func TestSingleEpochIsPermutation(t *testing.T) {
	const n = 16
	s, err := New(n, 7)
	require.NoError(t, err)

	seen := make(map[int]int)
	for i := 0; i < n/4; i++ {
		batch, err := s.NextBatch(4)
		require.NoError(t, err)
		require.Len(t, batch, 4)
		for _, idx := range batch {
			seen[idx]++
		}
	}

	assert.Len(t, seen, n)
	for idx, count := range seen {
		assert.Equal(t, 1, count, "index %d", idx)
	}
	assert.Equal(t, 0, s.Epoch())
}

func TestPartitionUnderConcurrentCallers(t *testing.T) {
	// 8 goroutines x 5 calls x 5 indices = 200 = exactly 2 epochs of 100.
	// Regardless of interleaving, every index must be handed out exactly
	// twice.
	const (
		n          = 100
		callers    = 8
		calls      = 5
		batchSize  = 5
		wantEpochs = 2
	)
	s, err := New(n, 3)
	require.NoError(t, err)

	var mu sync.Mutex
	counts := make(map[int]int)
	var wg sync.WaitGroup
	for g := 0; g < callers; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := 0; c < calls; c++ {
				batch, err := s.NextBatch(batchSize)
				if err != nil {
					t.Error(err)
					return
				}
				mu.Lock()
				for _, idx := range batch {
					counts[idx]++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, counts, n)
	for idx, count := range counts {
		assert.Equal(t, wantEpochs, count, "index %d", idx)
	}
}

func TestBatchLargerThanRemainingWrapsEpoch(t *testing.T) {
	s, err := New(7, 11)
	require.NoError(t, err)

	batch, err := s.NextBatch(10)
	require.NoError(t, err)
	require.Len(t, batch, 10)

	// First 7 form a full permutation, the remaining 3 open the next epoch.
	first := make(map[int]bool)
	for _, idx := range batch[:7] {
		first[idx] = true
	}
	assert.Len(t, first, 7)
	for _, idx := range batch[7:] {
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 7)
	}
	assert.Equal(t, 1, s.Epoch())
}

func TestDeterministicGivenSeed(t *testing.T) {
	a, err := New(32, 42)
	require.NoError(t, err)
	b, err := New(32, 42)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		ba, err := a.NextBatch(5)
		require.NoError(t, err)
		bb, err := b.NextBatch(5)
		require.NoError(t, err)
		assert.Equal(t, ba, bb)
	}
}

func TestNonPositiveBatchSize(t *testing.T) {
	s, err := New(4, 1)
	require.NoError(t, err)
	_, err = s.NextBatch(0)
	assert.Error(t, err)
}
