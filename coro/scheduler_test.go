package coro_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigcore/inputproxy/coro"
)

func TestSchedulerRunsCoroutinesToCompletion(t *testing.T) {
	sched := coro.NewScheduler()
	var order []int

	sched.Spawn(func(co *coro.Coroutine) {
		order = append(order, 1)
		co.Yield()
		order = append(order, 3)
	})
	sched.Spawn(func(co *coro.Coroutine) {
		order = append(order, 2)
		co.Yield()
		order = append(order, 4)
	})

	require.NoError(t, sched.Run())
	assert.Equal(t, []int{1, 2, 3, 4}, order)
}

func TestSchedulerDetectsDeadlock(t *testing.T) {
	sched := coro.NewScheduler()
	ch := coro.NewChannel[int](sched, 0)

	sched.Spawn(func(co *coro.Coroutine) {
		ch.Receive(co) // nothing will ever send
	})

	err := sched.Run()
	assert.ErrorIs(t, err, coro.ErrDeadlock)
}

func TestSchedulerSleepOrdering(t *testing.T) {
	sched := coro.NewScheduler()
	var order []string

	sched.Spawn(func(co *coro.Coroutine) {
		co.Sleep(20 * time.Millisecond)
		order = append(order, "slow")
	})
	sched.Spawn(func(co *coro.Coroutine) {
		co.Sleep(5 * time.Millisecond)
		order = append(order, "fast")
	})

	require.NoError(t, sched.Run())
	assert.Equal(t, []string{"fast", "slow"}, order)
}

func TestChannelSendReceiveRoundTrip(t *testing.T) {
	sched := coro.NewScheduler()
	ch := coro.NewChannel[int](sched, 1)
	var got int

	sched.Spawn(func(co *coro.Coroutine) {
		ch.Send(co, 42)
	})
	sched.Spawn(func(co *coro.Coroutine) {
		v, closed := ch.Receive(co)
		require.False(t, closed)
		got = v
	})

	require.NoError(t, sched.Run())
	assert.Equal(t, 42, got)
}

func TestChannelExternalRingDropsNewestWhenFull(t *testing.T) {
	sched := coro.NewScheduler()
	ch := coro.NewChannelWithExternalRing[int](sched, 1, 2)

	assert.True(t, ch.SendExternalNoBlock(1))
	assert.True(t, ch.SendExternalNoBlock(2))
	assert.False(t, ch.SendExternalNoBlock(3))

	v, ok, closed := ch.TryReceive()
	require.True(t, ok)
	require.False(t, closed)
	assert.Equal(t, 1, v)
}

// TestSelectObservesCloseThenContinuesWaiting implements the two-channel
// select/close scenario: a coroutine selecting on c1 and c2 must observe c2
// closing without returning, then return the closed sentinel only once c1
// also closes.
func TestSelectObservesCloseThenContinuesWaiting(t *testing.T) {
	sched := coro.NewScheduler()
	c1 := coro.NewChannel[int](sched, 1)
	c2 := coro.NewChannel[int](sched, 1)

	var result int
	var h1, h2 int

	sched.Spawn(func(co *coro.Coroutine) {
		result = coro.Select(co, []coro.SelectCase{
			coro.Recv(c1, func(v int, closed bool) { h1++ }),
			coro.Recv(c2, func(v int, closed bool) { h2++ }),
		}, nil)
	})
	sched.Spawn(func(co *coro.Coroutine) {
		co.Yield()
		c2.Close()
		co.Yield()
		co.Yield()
		c1.Close()
	})

	require.NoError(t, sched.Run())
	assert.Equal(t, coro.SelectClosed, result)
	assert.Zero(t, h1)
	assert.Zero(t, h2)
}

func TestExecThreadRunsOffSchedulerAndReturnsResult(t *testing.T) {
	sched := coro.NewScheduler()
	var got any

	sched.Spawn(func(co *coro.Coroutine) {
		got = co.ExecThread(func() any {
			time.Sleep(time.Millisecond)
			return "done"
		})
	})

	require.NoError(t, sched.Run())
	assert.Equal(t, "done", got)
}
