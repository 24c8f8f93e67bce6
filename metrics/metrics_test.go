package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryCounterIncrementAndAdd(t *testing.T) {
	r := NewRegistry()

	r.CounterIncrement(FramesSent)
	r.CounterAdd(FramesSent, 4)

	snap := r.Snapshot()
	assert.EqualValues(t, 5, snap[FramesSent])
}

func TestRegistryCounterCreatesUnregisteredNames(t *testing.T) {
	r := NewRegistry()

	r.CounterIncrement("custom_counter")

	assert.EqualValues(t, 1, r.Snapshot()["custom_counter"])
}

func TestRegistryGaugeSet(t *testing.T) {
	r := NewRegistry()

	r.GaugeSet(QueueDepth, 7)
	r.GaugeSet(QueueDepth, 3)

	assert.EqualValues(t, 3, r.Snapshot()[QueueDepth])
}

func TestRegistrySnapshotIncludesPreregisteredNames(t *testing.T) {
	r := NewRegistry()
	snap := r.Snapshot()

	for _, name := range []string{FramesSent, FramesReceived, FramesMalformed, RetryAttempts, AuthFailures, HealthCheckCloses, SessionsAccepted, QueueDepth} {
		_, ok := snap[name]
		assert.True(t, ok, "expected %s to be pre-registered", name)
	}
}
