package metrics

import (
	"time"

	"github.com/apex/log"
	"github.com/smira/go-statsd"
)

// StatsdConfig controls the StatsD push destination.
type StatsdConfig struct {
	Host     string
	Prefix   string
	Interval time.Duration
	Tags     map[string]string
}

// NewStatsdConfig returns the defaults.
func NewStatsdConfig() StatsdConfig {
	return StatsdConfig{
		Host:     "localhost:8125",
		Prefix:   "ocpp_core.",
		Interval: 15 * time.Second,
	}
}

// StatsdWriter periodically flushes a Registry's counters and gauges to a
// StatsD daemon. It owns the push loop; the caller only needs to Start and
// Stop it.
type StatsdWriter struct {
	cfg      StatsdConfig
	registry *Registry
	client   *statsd.Client
	done     chan struct{}
}

// NewStatsdWriter builds a writer for registry using cfg, without starting
// the push loop.
func NewStatsdWriter(cfg StatsdConfig, registry *Registry) *StatsdWriter {
	opts := []statsd.Option{statsd.MetricPrefix(cfg.Prefix)}
	if len(cfg.Tags) > 0 {
		tags := make([]statsd.Tag, 0, len(cfg.Tags))
		for k, v := range cfg.Tags {
			tags = append(tags, statsd.StringTag(k, v))
		}
		opts = append(opts, statsd.TagStyle(statsd.TagFormatDatadog), statsd.DefaultTags(tags...))
	}
	client := statsd.NewClient(cfg.Host, opts...)
	return &StatsdWriter{cfg: cfg, registry: registry, client: client, done: make(chan struct{})}
}

// Start runs the push loop until Stop is called.
func (w *StatsdWriter) Start() {
	logger := log.WithField("context", "metrics")
	ticker := time.NewTicker(w.cfg.Interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.push()
			case <-w.done:
				logger.Debug("statsd writer stopped")
				return
			}
		}
	}()
}

// Stop halts the push loop and closes the underlying StatsD client.
func (w *StatsdWriter) Stop() {
	close(w.done)
	_ = w.client.Close()
}

func (w *StatsdWriter) push() {
	for name, val := range w.registry.Snapshot() {
		if name == QueueDepth {
			w.client.Gauge(name, val)
		} else {
			w.client.Incr(name, val)
		}
	}
}
