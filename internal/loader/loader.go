package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mlpipe/prefetch/internal/blob"
	"github.com/mlpipe/prefetch/internal/logging"
	"github.com/mlpipe/prefetch/internal/monitoring"
	"github.com/mlpipe/prefetch/internal/queue"
	"github.com/mlpipe/prefetch/internal/sampler"
)

// State is the pipeline lifecycle state.
type State int32

const (
	StateConstructed State = iota
	StatePrefilling
	StateRunning
	StateShuttingDown
	StateStopped
)

// String returns the lifecycle state name.
func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StatePrefilling:
		return "prefilling"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Config holds pipeline construction parameters.
type Config struct {
	NumLoaders         int           // producer worker count, >= 1
	MinibatchQueueSize int           // CPU-side queue capacity
	BlobsQueueCapacity int           // per-device queue capacity
	NumDevices         int           // logical consumer devices, >= 1
	BatchSize          int           // examples per minibatch
	Seed               int64         // sampling seed
	PrefillTimeout     time.Duration // bounded wait for Start(prefill=true)
	JoinTimeout        time.Duration // bounded wait for worker join at shutdown
}

const (
	defaultPrefillTimeout = 30 * time.Second
	defaultJoinTimeout    = 5 * time.Second
)

// Validate checks construction parameters, wrapping ErrInvalidConfig.
func (c Config) Validate() error {
	if c.NumLoaders < 1 {
		return fmt.Errorf("%w: num_loaders must be >= 1, got %d", ErrInvalidConfig, c.NumLoaders)
	}
	if c.MinibatchQueueSize < 1 {
		return fmt.Errorf("%w: minibatch_queue_size must be positive, got %d", ErrInvalidConfig, c.MinibatchQueueSize)
	}
	if c.BlobsQueueCapacity < 1 {
		return fmt.Errorf("%w: blobs_queue_capacity must be positive, got %d", ErrInvalidConfig, c.BlobsQueueCapacity)
	}
	if c.NumDevices < 1 {
		return fmt.Errorf("%w: num_devices must be >= 1, got %d", ErrInvalidConfig, c.NumDevices)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: batch_size must be >= 1, got %d", ErrInvalidConfig, c.BatchSize)
	}
	return nil
}

// Loader is the prefetching pipeline. Construct with New, run with Start,
// tear down with Shutdown.
type Loader struct {
	cfg Config
	asm Assembler
	smp *sampler.Sampler
	log *logging.Logger
	met *monitoring.Metrics

	minibatchQ *queue.Queue[blob.Minibatch]
	devices    []*DeviceQueue

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	state State

	shutdownOnce sync.Once
	sigOnce      sync.Once

	produced         atomic.Int64
	assemblyFailures atomic.Int64
}

// New constructs a pipeline over the given index. Queues and worker
// handles are allocated here; no goroutine runs until Start.
func New(index Index, asm Assembler, cfg Config, log *logging.Logger, met *monitoring.Metrics) (*Loader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if index == nil || index.Len() == 0 {
		return nil, fmt.Errorf("%w: empty example index", ErrInvalidConfig)
	}
	if cfg.PrefillTimeout <= 0 {
		cfg.PrefillTimeout = defaultPrefillTimeout
	}
	if cfg.JoinTimeout <= 0 {
		cfg.JoinTimeout = defaultJoinTimeout
	}
	if log == nil {
		log = logging.NewNop()
	}
	if met == nil {
		met = monitoring.NewNopMetrics()
	}

	smp, err := sampler.New(index.Len(), cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &Loader{
		cfg:        cfg,
		asm:        asm,
		smp:        smp,
		log:        log,
		met:        met,
		minibatchQ: queue.New[blob.Minibatch](cfg.MinibatchQueueSize),
		ctx:        ctx,
		cancel:     cancel,
	}
	l.devices = make([]*DeviceQueue, cfg.NumDevices)
	for i := range l.devices {
		l.devices[i] = newDeviceQueue(i, cfg.BlobsQueueCapacity, met)
	}
	return l, nil
}

// OutputNames returns the fixed blob-name schema, in order.
func (l *Loader) OutputNames() []string {
	return l.asm.Schema().Names()
}

// Schema returns the fixed output schema.
func (l *Loader) Schema() blob.Schema {
	return l.asm.Schema()
}

// DeviceQueues returns the per-device queues for adapter binding.
func (l *Loader) DeviceQueues() []*DeviceQueue {
	return l.devices
}

// DeviceQueueByID resolves a device queue from its identifier.
func (l *Loader) DeviceQueueByID(id string) (*DeviceQueue, bool) {
	for _, dq := range l.devices {
		if dq.id == id {
			return dq, true
		}
	}
	return nil, false
}

// State returns the current lifecycle state.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Loader) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

// MinibatchQueueLen returns the CPU-side queue occupancy, reported by the
// benchmark harness against MinibatchQueueCap each iteration.
func (l *Loader) MinibatchQueueLen() int { return l.minibatchQ.Len() }

// MinibatchQueueCap returns the configured CPU-side queue capacity.
func (l *Loader) MinibatchQueueCap() int { return l.minibatchQ.Cap() }

// Start launches the producer pool and one enqueuer per device. With
// prefill enabled it blocks until every device queue reaches capacity or
// PrefillTimeout elapses, in which case it logs the under-fill and
// proceeds anyway.
func (l *Loader) Start(prefill bool) error {
	l.mu.Lock()
	if l.state != StateConstructed {
		state := l.state
		l.mu.Unlock()
		if state == StateStopped || state == StateShuttingDown {
			return ErrStopped
		}
		return ErrAlreadyStarted
	}
	if prefill {
		l.state = StatePrefilling
	} else {
		l.state = StateRunning
	}
	l.mu.Unlock()

	l.log.Info("starting data loader",
		zap.Int("num_loaders", l.cfg.NumLoaders),
		zap.Int("num_devices", l.cfg.NumDevices),
		zap.Int("minibatch_queue_size", l.cfg.MinibatchQueueSize),
		zap.Int("blobs_queue_capacity", l.cfg.BlobsQueueCapacity),
		zap.Bool("prefill", prefill),
	)

	for i := 0; i < l.cfg.NumLoaders; i++ {
		l.wg.Add(1)
		go l.producer(i)
	}
	for _, dq := range l.devices {
		l.wg.Add(1)
		go l.enqueuer(dq)
	}

	if prefill {
		l.waitPrefill()
		l.mu.Lock()
		if l.state == StatePrefilling {
			l.state = StateRunning
		}
		l.mu.Unlock()
	}
	return nil
}

// waitPrefill blocks until every device queue is full, removing queue
// warm-up effects from subsequent measurement.
func (l *Loader) waitPrefill() {
	start := time.Now()
	deadline := time.NewTimer(l.cfg.PrefillTimeout)
	defer deadline.Stop()
	tick := time.NewTicker(time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-tick.C:
			if l.devicesFull() {
				l.met.PrefillSeconds.Set(time.Since(start).Seconds())
				l.log.Info("prefill complete", zap.Duration("elapsed", time.Since(start)))
				return
			}
		case <-deadline.C:
			l.met.PrefillSeconds.Set(time.Since(start).Seconds())
			for _, dq := range l.devices {
				if dq.Len() < dq.Cap() {
					l.log.Warn("prefill timed out with under-filled queue",
						zap.String("queue", dq.id),
						zap.Int("device", dq.device),
						zap.Int("occupancy", dq.Len()),
						zap.Int("capacity", dq.Cap()),
					)
				}
			}
			return
		case <-l.ctx.Done():
			return
		}
	}
}

func (l *Loader) devicesFull() bool {
	for _, dq := range l.devices {
		if dq.Len() < dq.Cap() {
			return false
		}
	}
	return true
}

// producer is one worker loop: sample a batch of indices, assemble the
// minibatch, push it into the minibatch queue. Assembly failures are
// counted and skipped; the loop exits only on shutdown.
func (l *Loader) producer(id int) {
	defer l.wg.Done()
	log := l.log.With(zap.Int("worker", id))
	log.Debug("producer started")

	for {
		select {
		case <-l.ctx.Done():
			log.Debug("producer stopped")
			return
		default:
		}

		indices, err := l.smp.NextBatch(l.cfg.BatchSize)
		if err != nil {
			log.Error("sampling failed", zap.Error(err))
			return
		}

		start := time.Now()
		mb, err := l.asm.Assemble(indices)
		if err != nil {
			l.assemblyFailures.Add(1)
			l.met.AssemblyErrors.Inc()
			var aerr *AssemblyError
			if errors.As(err, &aerr) {
				log.Warn("minibatch assembly failed", zap.Int("example", aerr.Example), zap.Error(aerr.Err))
			} else {
				log.Warn("minibatch assembly failed", zap.Error(err))
			}
			continue
		}
		l.met.AssembleDuration.Observe(time.Since(start).Seconds())

		// A worker parked on a full queue wakes with ErrClosed at shutdown;
		// the in-flight minibatch is discarded.
		if err := l.minibatchQ.Put(mb); err != nil {
			log.Debug("producer stopped")
			return
		}
		l.produced.Add(1)
		l.met.MinibatchesAssembled.Inc()
		l.met.MinibatchQueueDepth.Set(float64(l.minibatchQ.Len()))
	}
}

// enqueuer drains the minibatch queue into one device blob queue,
// blocking on either side and exiting once a queue closes.
func (l *Loader) enqueuer(dq *DeviceQueue) {
	defer l.wg.Done()
	log := l.log.With(zap.Int("device", dq.device))
	log.Debug("enqueuer started")

	for {
		mb, err := l.minibatchQ.Get()
		if err != nil {
			log.Debug("enqueuer stopped")
			return
		}
		l.met.MinibatchQueueDepth.Set(float64(l.minibatchQ.Len()))
		if err := dq.put(mb); err != nil {
			log.Debug("enqueuer stopped")
			return
		}
	}
}

// GetNextMinibatch pops the minibatch queue directly, bypassing the
// device-queue stage. Used by the direct-call benchmark mode. It blocks
// while the queue is empty and returns ErrStopped once the pipeline has
// shut down.
func (l *Loader) GetNextMinibatch() (blob.Minibatch, error) {
	if l.State() == StateStopped {
		return nil, ErrStopped
	}
	mb, err := l.minibatchQ.Get()
	if err != nil {
		return nil, ErrStopped
	}
	l.met.MinibatchQueueDepth.Set(float64(l.minibatchQ.Len()))
	return mb, nil
}

// RegisterInterruptHandler routes SIGINT/SIGTERM to Shutdown. Repeated
// signals, or a signal racing an explicit Shutdown, still produce exactly
// one teardown.
func (l *Loader) RegisterInterruptHandler() {
	l.sigOnce.Do(func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		go func() {
			defer signal.Stop(ch)
			select {
			case sig := <-ch:
				l.log.Info("interrupt received, shutting down", zap.String("signal", sig.String()))
				l.Shutdown()
			case <-l.ctx.Done():
			}
		}()
	})
}

// Shutdown stops every producer and enqueuer, wakes any goroutine parked
// on a full or empty queue, joins the workers with a bounded wait, and
// drains the queues. Idempotent: concurrent and repeated calls run one
// teardown.
func (l *Loader) Shutdown() {
	l.shutdownOnce.Do(func() {
		l.setState(StateShuttingDown)
		l.log.Info("shutting down data loader")

		l.cancel()
		l.minibatchQ.Close()
		for _, dq := range l.devices {
			dq.q.Close()
		}

		done := make(chan struct{})
		go func() {
			l.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(l.cfg.JoinTimeout):
			l.log.Warn("worker join timed out", zap.Duration("timeout", l.cfg.JoinTimeout))
		}

		dropped := len(l.minibatchQ.Drain())
		for _, dq := range l.devices {
			dropped += len(dq.q.Drain())
		}

		l.setState(StateStopped)
		l.log.Info("data loader stopped",
			zap.Int64("minibatches_produced", l.produced.Load()),
			zap.Int64("assembly_failures", l.assemblyFailures.Load()),
			zap.Int("discarded", dropped),
		)
	})
}

// Stats is a point-in-time snapshot of pipeline counters.
type Stats struct {
	State               State
	MinibatchesProduced int64
	AssemblyFailures    int64
	MinibatchQueueLen   int
	MinibatchQueueCap   int
	DeviceQueueLens     []int
}

// Stats returns a snapshot of the pipeline counters and occupancies.
func (l *Loader) Stats() Stats {
	s := Stats{
		State:               l.State(),
		MinibatchesProduced: l.produced.Load(),
		AssemblyFailures:    l.assemblyFailures.Load(),
		MinibatchQueueLen:   l.minibatchQ.Len(),
		MinibatchQueueCap:   l.minibatchQ.Cap(),
	}
	s.DeviceQueueLens = make([]int, len(l.devices))
	for i, dq := range l.devices {
		s.DeviceQueueLens[i] = dq.Len()
	}
	return s
}
