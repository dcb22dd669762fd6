package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFIFOOrder(t *testing.T) {
	q := New[int](4)
	for i := 0; i < 4; i++ {
		require.NoError(t, q.Put(i))
	}
	for i := 0; i < 4; i++ {
		v, err := q.Get()
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
}

func TestPutBlocksUntilSpace(t *testing.T) {
	q := New[int](1)
	require.NoError(t, q.Put(1))

	done := make(chan error, 1)
	go func() { done <- q.Put(2) }()

	select {
	case <-done:
		t.Fatal("Put returned while queue was full")
	case <-time.After(20 * time.Millisecond):
	}

	_, err := q.Get()
	require.NoError(t, err)
	require.NoError(t, <-done)
}

func TestCloseWakesBlockedPut(t *testing.T) {
	q := New[int](1)
	require.NoError(t, q.Put(1))

	done := make(chan error, 1)
	go func() { done <- q.Put(2) }()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("blocked Put did not observe Close")
	}
}

func TestCloseWakesBlockedGet(t *testing.T) {
	q := New[int](1)

	done := make(chan error, 1)
	go func() {
		_, err := q.Get()
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("blocked Get did not observe Close")
	}
}

func TestGetDrainsAfterClose(t *testing.T) {
	q := New[int](2)
	require.NoError(t, q.Put(1))
	require.NoError(t, q.Put(2))
	q.Close()

	v, err := q.Get()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	v, err = q.Get()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	_, err = q.Get()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPutAfterClose(t *testing.T) {
	q := New[int](2)
	q.Close()
	assert.ErrorIs(t, q.Put(1), ErrClosed)
	assert.ErrorIs(t, q.TryPut(1), ErrClosed)
}

func TestTryPutTryGet(t *testing.T) {
	q := New[int](1)
	_, err := q.TryGet()
	assert.ErrorIs(t, err, ErrEmpty)

	require.NoError(t, q.TryPut(7))
	assert.ErrorIs(t, q.TryPut(8), ErrFull)

	v, err := q.TryGet()
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestCloseIdempotent(t *testing.T) {
	q := New[int](1)
	q.Close()
	q.Close()
	assert.True(t, q.Closed())
}

func TestDrain(t *testing.T) {
	q := New[int](4)
	require.NoError(t, q.Put(1))
	require.NoError(t, q.Put(2))
	q.Close()

	items := q.Drain()
	assert.Equal(t, []int{1, 2}, items)
	assert.Zero(t, q.Len())
}

func TestOccupancyNeverExceedsCapacity(t *testing.T) {
	const capacity = 4
	q := New[int](capacity)

	var wg sync.WaitGroup
	for p := 0; p < 3; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; ; i++ {
				if q.Put(i) != nil {
					return
				}
			}
		}()
	}
	for c := 0; c < 2; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if _, err := q.Get(); err != nil {
					return
				}
			}
		}()
	}

	deadline := time.After(100 * time.Millisecond)
	for {
		select {
		case <-deadline:
			q.Close()
			wg.Wait()
			return
		default:
			if n := q.Len(); n > capacity {
				t.Fatalf("occupancy %d exceeds capacity %d", n, capacity)
			}
		}
	}
}
