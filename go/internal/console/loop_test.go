package console

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopRunsJobsInOrder(t *testing.T) {
	loop := NewLoop(8)

	var got []int
	for i := 0; i < 5; i++ {
		require.True(t, loop.Post(func() { got = append(got, i) }))
	}
	assert.Equal(t, 5, drain(loop))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestLoopRun(t *testing.T) {
	loop := NewLoop(0)
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(stopped)
	}()

	ran := make(chan struct{})
	require.True(t, loop.Post(func() { close(ran) }))
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("job did not run")
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
	assert.False(t, loop.Post(func() {}))
}

func TestSchedulerTimers(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testStart)
	loop := NewLoop(0)
	sched := NewScheduler(clock, loop)
	assert.Equal(t, testStart, sched.Now())

	fired := 0
	timer := sched.AfterFunc(time.Second, func() { fired++ })
	assert.True(t, timer.Active())

	clock.Advance(time.Second)
	drain(loop)
	assert.Equal(t, 1, fired)
	assert.False(t, timer.Active())

	stopped := sched.AfterFunc(time.Second, func() { fired++ })
	stopped.Stop()
	assert.False(t, stopped.Active())
	clock.Advance(time.Second)
	drain(loop)
	assert.Equal(t, 1, fired)

	var nilTimer *Timer
	nilTimer.Stop()
	assert.False(t, nilTimer.Active())
}

func TestSchedulerDropsQueuedCallbackAfterStop(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testStart)
	loop := NewLoop(0)
	sched := NewScheduler(clock, loop)

	fired := false
	timer := sched.AfterFunc(time.Second, func() { fired = true })
	clock.Advance(time.Second)
	timer.Stop()
	drain(loop)

	assert.False(t, fired)
}
