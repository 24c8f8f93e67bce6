package metrics

import (
	"testing"
	"time"
)

func TestStatsdWriterStartStopLifecycle(t *testing.T) {
	registry := NewRegistry()
	registry.CounterIncrement(FramesSent)

	cfg := NewStatsdConfig()
	cfg.Interval = 10 * time.Millisecond
	w := NewStatsdWriter(cfg, registry)

	w.Start()
	time.Sleep(30 * time.Millisecond)
	w.Stop()
}
