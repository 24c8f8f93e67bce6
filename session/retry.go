package session

import (
	"sync/atomic"
	"time"

	"github.com/apex/log"
)

// retryDelay is the fixed wait between a transmit and checking whether it
// was acknowledged (spec.md §4.D).
const retryDelay = 1000 * time.Millisecond

// retryRunner resends the head of a session's offline queue until it is
// acknowledged. Per spec.md REDESIGN FLAGS, this replaces the original's
// one-shot-Thread-restarted-by-nulling design with a single long-lived
// goroutine woken by a channel: a start trigger (connect, or enqueueing
// while already connected with a non-empty queue) sends on wake; shutdown
// closes done. Because there is exactly one goroutine, two activations can
// never run concurrently for the same session.
type retryRunner struct {
	queue        *offlineQueue
	send         func(wire []byte) error
	notify       func(wire []byte)
	onQueueDepth func(depth int)

	failed atomic.Bool

	wake chan struct{}
	done chan struct{}
	log  *log.Entry
}

func newRetryRunner(queue *offlineQueue, send func(wire []byte) error, notify func(wire []byte), logger *log.Entry) *retryRunner {
	r := &retryRunner{
		queue:        queue,
		send:         send,
		notify:       notify,
		onQueueDepth: func(int) {},
		wake:         make(chan struct{}, 1),
		done:         make(chan struct{}),
		log:          logger,
	}

	go r.loop()

	return r
}

// Trigger schedules a drain pass. Safe to call from any goroutine; a
// pending trigger is coalesced if the worker hasn't picked it up yet.
func (r *retryRunner) Trigger() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Fail marks the in-flight head as not (yet) acknowledged. Called when a
// CallError arrives for any id on the session (spec.md §9 Open Question a:
// the flag is shared across all in-flight ids, preserved as specified).
func (r *retryRunner) Fail() {
	r.failed.Store(true)
}

// Shutdown stops the worker goroutine permanently.
func (r *retryRunner) Shutdown() {
	close(r.done)
}

func (r *retryRunner) loop() {
	for {
		select {
		case <-r.wake:
			r.drain()
		case <-r.done:
			return
		}
	}
}

func (r *retryRunner) drain() {
	for {
		head := r.queue.Peek()
		if head == nil {
			return
		}

		r.failed.Store(false)

		if err := r.send(head); err != nil {
			r.log.Debugf("retry send failed, will resume on next reconnect: %v", err)
			return
		}

		r.notify(head)

		select {
		case <-time.After(retryDelay):
		case <-r.done:
			return
		}

		if !r.failed.Load() {
			r.queue.Pop()
			r.onQueueDepth(r.queue.Len())
		}
	}
}
