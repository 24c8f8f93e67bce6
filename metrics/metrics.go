// Package metrics tracks the small set of counters and gauges the engine
// exposes about itself: frame traffic, queue depth, retry attempts and
// listener-side auth/health-check outcomes. It pushes them to StatsD on an
// interval the way the teacher's metrics package does, but the counter set
// is sized to this domain rather than carried over wholesale.
package metrics

import "sync"

const (
	FramesSent         = "frames_sent"
	FramesReceived     = "frames_received"
	FramesMalformed    = "frames_malformed"
	QueueDepth         = "queue_depth"
	RetryAttempts      = "retry_attempts"
	AuthFailures       = "auth_failures"
	HealthCheckCloses  = "health_check_closes"
	SessionsAccepted   = "sessions_accepted"
)

// Registry holds named counters and gauges and is safe for concurrent use
// from any number of Communicators and Listeners.
type Registry struct {
	mu       sync.Mutex
	counters map[string]*Counter
	gauges   map[string]*Gauge
}

// NewRegistry builds a Registry pre-populated with the engine's known
// metric names, so each of them appears in Snapshot (at zero) before its
// first update.
func NewRegistry() *Registry {
	r := &Registry{
		counters: make(map[string]*Counter),
		gauges:   make(map[string]*Gauge),
	}
	for _, name := range []string{FramesSent, FramesReceived, FramesMalformed, RetryAttempts, AuthFailures, HealthCheckCloses, SessionsAccepted} {
		r.counters[name] = NewCounter(name)
	}
	r.gauges[QueueDepth] = NewGauge(QueueDepth)
	return r
}

// CounterIncrement increments the named counter by one, creating it on
// first use if it was not pre-registered.
func (r *Registry) CounterIncrement(name string) {
	r.CounterAdd(name, 1)
}

// CounterAdd adds val to the named counter.
func (r *Registry) CounterAdd(name string, val int64) {
	r.mu.Lock()
	c, ok := r.counters[name]
	if !ok {
		c = NewCounter(name)
		r.counters[name] = c
	}
	r.mu.Unlock()
	c.Add(val)
}

// GaugeSet sets the named gauge to val.
func (r *Registry) GaugeSet(name string, val int64) {
	r.mu.Lock()
	g, ok := r.gauges[name]
	if !ok {
		g = NewGauge(name)
		r.gauges[name] = g
	}
	r.mu.Unlock()
	g.Set(val)
}

// Snapshot returns the current value of every counter and gauge, keyed by
// name, for a StatsdWriter push or a debug dump.
func (r *Registry) Snapshot() map[string]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]int64, len(r.counters)+len(r.gauges))
	for name, c := range r.counters {
		out[name] = c.Value()
	}
	for name, g := range r.gauges {
		out[name] = g.Value()
	}
	return out
}
