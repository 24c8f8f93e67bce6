package session

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryRunnerDrainsUntilQueueEmpty(t *testing.T) {
	q := newOfflineQueue()
	q.Enqueue([]byte("one"))

	var sent atomic.Int32
	r := newRetryRunner(q, func(wire []byte) error {
		sent.Add(1)
		return nil
	}, func(wire []byte) {}, log.WithField("test", "retry"))
	defer r.Shutdown()

	r.Trigger()

	require.Eventually(t, func() bool { return sent.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return q.Empty() }, 2*time.Second, 10*time.Millisecond)
}

func TestRetryRunnerCoalescesTriggers(t *testing.T) {
	q := newOfflineQueue()

	r := newRetryRunner(q, func(wire []byte) error { return nil }, func(wire []byte) {}, log.WithField("test", "retry"))
	defer r.Shutdown()

	// Multiple triggers with an empty queue must not panic or block; the
	// buffered wake channel coalesces bursts into a single pending drain.
	for i := 0; i < 5; i++ {
		r.Trigger()
	}

	time.Sleep(50 * time.Millisecond)
	assert.True(t, q.Empty())
}

func TestRetryRunnerShutdownStopsLoop(t *testing.T) {
	q := newOfflineQueue()
	q.Enqueue([]byte("stuck"))

	blocking := make(chan struct{})
	var attempts atomic.Int32
	r := newRetryRunner(q, func(wire []byte) error {
		attempts.Add(1)
		<-blocking
		return nil
	}, func(wire []byte) {}, log.WithField("test", "retry"))

	r.Trigger()
	require.Eventually(t, func() bool { return attempts.Load() == 1 }, time.Second, 5*time.Millisecond)

	r.Shutdown()
	close(blocking)

	// loop() has exited; a further Trigger is a no-op send into a channel
	// nobody drains anymore, which must not block the caller.
	r.Trigger()
}
