package bench

import "gonum.org/v1/gonum/stat"

// movingAverage keeps the last windowSize samples and averages them,
// smoothing out per-iteration jitter in the reported latency.
type movingAverage struct {
	window []float64
	next   int
	count  int
}

func newMovingAverage(windowSize int) *movingAverage {
	return &movingAverage{window: make([]float64, windowSize)}
}

func (m *movingAverage) add(v float64) {
	m.window[m.next] = v
	m.next = (m.next + 1) % len(m.window)
	if m.count < len(m.window) {
		m.count++
	}
}

func (m *movingAverage) value() float64 {
	if m.count == 0 {
		return 0
	}
	return stat.Mean(m.window[:m.count], nil)
}
