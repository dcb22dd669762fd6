// Package bench measures the steady-state throughput of the prefetch
// pipeline under simulated consumer latency.
//
// Two modes mirror the two stages of interest. Direct-call mode times the
// synchronous GetNextMinibatch accessor, measuring CPU-side assembly
// throughput without the device-queue stage. End-to-end mode prefills the
// device queues, then times consumer-adapter dequeues with an injectable
// sleep emulating downstream compute, reporting minibatch-queue occupancy
// each iteration. Both modes shut the pipeline down on exit, including on
// interrupt; iterations recorded after shutdown begins are discarded.
package bench

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gonum.org/v1/gonum/stat"

	"github.com/mlpipe/prefetch/internal/loader"
	"github.com/mlpipe/prefetch/internal/logging"
)

// Options configures a benchmark run.
type Options struct {
	Iterations int           // measured iterations
	Sleep      time.Duration // per-iteration simulated compute (end-to-end mode)
	XFactor    int           // dequeues per iteration, emulating extra consumers
	Window     int           // moving-average window size
	Pace       rate.Limit    // optional iteration pacing; 0 disables

	// Sleeper performs the simulated-compute delay. Tests substitute a
	// deterministic stand-in; nil means time.Sleep.
	Sleeper func(time.Duration)
}

func (o Options) withDefaults() Options {
	if o.Iterations <= 0 {
		o.Iterations = 100
	}
	if o.XFactor <= 0 {
		o.XFactor = 1
	}
	if o.Window <= 0 {
		o.Window = 25
	}
	if o.Sleeper == nil {
		o.Sleeper = time.Sleep
	}
	return o
}

// Result summarizes one benchmark run.
type Result struct {
	Mode             string  `json:"mode"`
	Iterations       int     `json:"iterations"`
	XFactor          int     `json:"x_factor,omitempty"`
	MeanSeconds      float64 `json:"mean_seconds"`
	StdDevSeconds    float64 `json:"stddev_seconds"`
	MovingAvgSeconds float64 `json:"moving_avg_seconds"`
	Interrupted      bool    `json:"interrupted,omitempty"`
}

// Harness drives the pipeline through one measurement mode.
type Harness struct {
	loader *loader.Loader
	log    *logging.Logger
	opts   Options
}

// New creates a harness over a constructed, unstarted loader.
func New(l *loader.Loader, opts Options, log *logging.Logger) *Harness {
	if log == nil {
		log = logging.NewNop()
	}
	return &Harness{loader: l, log: log, opts: opts.withDefaults()}
}

// RunDirect starts the pipeline without prefill and times Iterations
// consecutive GetNextMinibatch calls.
func (h *Harness) RunDirect() (*Result, error) {
	defer h.loader.Shutdown()

	if err := h.loader.Start(false); err != nil {
		return nil, err
	}

	avg := newMovingAverage(h.opts.Window)
	latencies := make([]float64, 0, h.opts.Iterations)
	for i := 0; i < h.opts.Iterations; i++ {
		start := time.Now()
		if _, err := h.loader.GetNextMinibatch(); err != nil {
			if errors.Is(err, loader.ErrStopped) {
				return h.summarize("direct", latencies, avg, true), nil
			}
			return nil, err
		}
		elapsed := time.Since(start).Seconds()
		latencies = append(latencies, elapsed)
		avg.add(elapsed)

		h.log.Info("get_next_minibatch",
			zap.Int("iter", i+1),
			zap.Int("total", h.opts.Iterations),
			zap.Float64("avg_seconds", avg.value()),
		)
	}
	return h.summarize("direct", latencies, avg, false), nil
}

// RunEndToEnd prefills the device queues, then times Iterations rounds of
// XFactor consumer-adapter dequeues, sleeping between rounds to emulate
// downstream compute and reporting minibatch-queue occupancy.
func (h *Harness) RunEndToEnd() (*Result, error) {
	defer h.loader.Shutdown()

	if err := h.loader.Start(true); err != nil {
		return nil, err
	}

	adapters := make([]*loader.Adapter, 0, len(h.loader.DeviceQueues()))
	for _, dq := range h.loader.DeviceQueues() {
		adapter, err := loader.NewAdapter(h.loader, dq.ID())
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, adapter)
	}

	var limiter *rate.Limiter
	if h.opts.Pace > 0 {
		limiter = rate.NewLimiter(h.opts.Pace, 1)
	}

	avg := newMovingAverage(h.opts.Window)
	latencies := make([]float64, 0, h.opts.Iterations)
	for i := 0; i < h.opts.Iterations; i++ {
		if limiter != nil {
			if err := limiter.Wait(context.Background()); err != nil {
				return nil, err
			}
		}

		start := time.Now()
		for x := 0; x < h.opts.XFactor; x++ {
			if err := adapters[x%len(adapters)].Dequeue(); err != nil {
				if errors.Is(err, loader.ErrStopped) {
					return h.summarize("end_to_end", latencies, avg, true), nil
				}
				return nil, err
			}
		}
		elapsed := time.Since(start).Seconds() / float64(h.opts.XFactor)
		latencies = append(latencies, elapsed)
		avg.add(elapsed)

		h.log.Info("dequeue",
			zap.Int("iter", i+1),
			zap.Int("total", h.opts.Iterations),
			zap.Float64("avg_seconds", avg.value()),
			zap.Int("minibatch_queue", h.loader.MinibatchQueueLen()),
			zap.Int("minibatch_queue_size", h.loader.MinibatchQueueCap()),
		)

		h.opts.Sleeper(h.opts.Sleep)
	}
	return h.summarize("end_to_end", latencies, avg, false), nil
}

func (h *Harness) summarize(mode string, latencies []float64, avg *movingAverage, interrupted bool) *Result {
	res := &Result{
		Mode:             mode,
		Iterations:       len(latencies),
		XFactor:          h.opts.XFactor,
		MovingAvgSeconds: avg.value(),
		Interrupted:      interrupted,
	}
	if len(latencies) > 0 {
		res.MeanSeconds = stat.Mean(latencies, nil)
	}
	if len(latencies) > 1 {
		res.StdDevSeconds = stat.StdDev(latencies, nil)
	}
	return res
}
