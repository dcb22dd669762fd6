// Command loader-bench measures prefetch pipeline throughput.
//
// Direct-call mode (-direct) times the synchronous minibatch accessor;
// the default end-to-end mode prefills the device queues and times
// consumer dequeues with a simulated per-iteration compute sleep.
package main

import (
	"errors"
	"flag"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mlpipe/prefetch/internal/bench"
	"github.com/mlpipe/prefetch/internal/config"
	"github.com/mlpipe/prefetch/internal/dataset"
	"github.com/mlpipe/prefetch/internal/loader"
	"github.com/mlpipe/prefetch/internal/logging"
	"github.com/mlpipe/prefetch/internal/monitoring"
)

func main() {
	numBatches := flag.Int("num-batches", 200, "Number of minibatches to run")
	sleep := flag.Duration("sleep", 100*time.Millisecond, "Sleep per iteration to emulate a network running")
	xFactor := flag.Int("x-factor", 1, "Simulates x-factor more consumer devices")
	pace := flag.Float64("pace", 0, "Maximum measured iterations per second, 0 for unpaced")
	direct := flag.Bool("direct", false, "Measure direct get-next-minibatch calls instead of device dequeues")
	profiler := flag.String("profiler", "", "Write a CPU profile to this file")
	cfgFile := flag.String("cfg", "", "Optional YAML config file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *cfgFile != "" {
		if err := cfg.MergeFile(*cfgFile); err != nil {
			log.Fatalf("Failed to merge config file: %v", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ds := dataset.NewSynthetic(cfg.Dataset.Size, cfg.Dataset.ImageSize, cfg.Dataset.NumClasses)
	logger.Info("dataset ready", zap.Int("examples", ds.Len()))

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
	l, err := loader.New(ds, ds, cfg.LoaderConfig(), logger, metrics)
	if err != nil {
		if errors.Is(err, loader.ErrInvalidConfig) {
			log.Fatalf("Invalid configuration: %v", err)
		}
		log.Fatalf("Failed to construct loader: %v", err)
	}
	logger.Info("output schema", zap.Strings("blobs", l.OutputNames()))

	l.RegisterInterruptHandler()

	if *profiler != "" {
		f, err := os.Create(*profiler)
		if err != nil {
			log.Fatalf("Failed to create profile file: %v", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatalf("Failed to start CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
	}

	harness := bench.New(l, bench.Options{
		Iterations: *numBatches,
		Sleep:      *sleep,
		XFactor:    *xFactor,
		Pace:       rate.Limit(*pace),
	}, logger)

	var result *bench.Result
	if *direct {
		result, err = harness.RunDirect()
	} else {
		result, err = harness.RunEndToEnd()
	}
	if err != nil {
		logger.Error("benchmark failed", zap.Error(err))
		os.Exit(1)
	}

	if err := bench.WriteReport(os.Stdout, result); err != nil {
		logger.Error("failed to write report", zap.Error(err))
		os.Exit(1)
	}
}
