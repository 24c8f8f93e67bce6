package metrics

import "sync/atomic"

// Gauge is a named value that can move up or down, such as a queue depth.
type Gauge struct {
	name  string
	value int64
}

// NewGauge returns a zeroed Gauge with the given name.
func NewGauge(name string) *Gauge {
	return &Gauge{name: name}
}

// Name returns the gauge's registered name.
func (g *Gauge) Name() string { return g.name }

// Set atomically sets the gauge to val.
func (g *Gauge) Set(val int64) {
	atomic.StoreInt64(&g.value, val)
}

// Value returns the gauge's current value.
func (g *Gauge) Value() int64 {
	return atomic.LoadInt64(&g.value)
}
