package loader_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlpipe/prefetch/internal/dataset"
	"github.com/mlpipe/prefetch/internal/loader"
)

func TestAdapterUnknownQueue(t *testing.T) {
	ds := dataset.NewSynthetic(10, 4, 10)
	l := newTestLoader(t, ds, testConfig())

	_, err := loader.NewAdapter(l, "no-such-queue")
	assert.Error(t, err)
}

func TestAdapterBindsSchemaBuffers(t *testing.T) {
	ds := dataset.NewSynthetic(10, 4, 10)
	l := newTestLoader(t, ds, testConfig())

	adapter, err := loader.NewAdapter(l, l.DeviceQueues()[0].ID())
	require.NoError(t, err)
	assert.Equal(t, l.DeviceQueues()[0].ID(), adapter.QueueID())

	_, ok := adapter.Blob(dataset.BlobData)
	assert.False(t, ok, "no buffer bound before first dequeue")

	require.NoError(t, l.Start(true))
	require.NoError(t, adapter.Dequeue())

	for _, f := range l.Schema() {
		b, ok := adapter.Blob(f.Name)
		require.True(t, ok, "blob %q not bound", f.Name)
		assert.Equal(t, f.DType, b.DType)
		assert.Len(t, b.Shape, f.Rank)
	}
}

func TestAdapterDequeueUnblocksOnShutdown(t *testing.T) {
	ds := dataset.NewSynthetic(10, 4, 10)
	l := newTestLoader(t, ds, testConfig())
	// Never started: the device queue stays empty and Dequeue parks.
	adapter, err := loader.NewAdapter(l, l.DeviceQueues()[0].ID())
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- adapter.Dequeue() }()

	time.Sleep(20 * time.Millisecond)
	l.Shutdown()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, loader.ErrStopped)
	case <-time.After(3 * time.Second):
		t.Fatal("blocked dequeue did not observe shutdown")
	}
}
