package workerpool

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduleRunsAllTasks(t *testing.T) {
	p := New(4)

	var mu sync.Mutex
	var count int
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		p.Schedule(func() {
			defer wg.Done()
			mu.Lock()
			count++
			mu.Unlock()
		})
	}

	wg.Wait()
	assert.Equal(t, 20, count)
}

func TestScheduleTimeoutReturnsErrWhenExhausted(t *testing.T) {
	p := New(1)

	block := make(chan struct{})
	defer close(block)

	// Occupy the one pre-warmed worker, then fill the one-slot queue behind
	// it, so a third schedule has nowhere to go until something unblocks.
	p.Schedule(func() { <-block })
	p.Schedule(func() { <-block })

	err := p.ScheduleTimeout(10*time.Millisecond, func() {})
	assert.ErrorIs(t, err, ErrScheduleTimeout)
}
