package metrics

import "sync/atomic"

// Counter is a monotonically increasing named value.
type Counter struct {
	name  string
	value int64
}

// NewCounter returns a zeroed Counter with the given name.
func NewCounter(name string) *Counter {
	return &Counter{name: name}
}

// Name returns the counter's registered name.
func (c *Counter) Name() string { return c.name }

// Add atomically adds val to the counter.
func (c *Counter) Add(val int64) {
	atomic.AddInt64(&c.value, val)
}

// Value returns the counter's current value.
func (c *Counter) Value() int64 {
	return atomic.LoadInt64(&c.value)
}
