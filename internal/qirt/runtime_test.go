package qirt

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntimeSpawnAwait(t *testing.T) {
	r := Init(Config{Workers: 4})
	defer r.Shutdown()

	h := r.Spawn(func(arg any) (any, error) {
		n := arg.(int)
		return n * 2, nil
		}, 21, PriorityNormal)

	v, err := r.Await(h)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestRuntimePropagatesError(t *testing.T) {
	r := Init(Config{Workers: 2})
	defer r.Shutdown()

	boom := errors.New("boom")
	h := r.Spawn(func(any) (any, error) { return nil, boom }, nil, PriorityNormal)

	_, err := r.Await(h)
	assert.ErrorIs(t, err, boom)
}

func TestRuntimeManyTasksAllComplete(t *testing.T) {
	r := Init(Config{Workers: 8})
	defer r.Shutdown()

	const n = 500
	var completed int64
	handles := make([]Handle, n)
	for i := 0; i < n; i++ {
		handles[i] = r.Spawn(func(arg any) (any, error) {
			atomic.AddInt64(&completed, 1)
			return arg, nil
			}, i, PriorityNormal)
	}
	for _, h := range handles {
		_, err := r.Join(h)
		require.NoError(t, err)
	}
	assert.EqualValues(t, n, completed)
}

func TestRuntimeCancelMakesAwaitReturnErrCancelled(t *testing.T) {
	r := Init(Config{Workers: 1})
	defer r.Shutdown()

	var ran int32
	h := r.Spawn(func(any) (any, error) {
		atomic.AddInt32(&ran, 1)
		return nil, nil
		}, nil, PriorityLow)
	r.Cancel(h)

	_, err := r.Await(h)
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestRuntimePriorityDrainsHighFirst(t *testing.T) {
	r := Init(Config{Workers: 1})
	defer r.Shutdown()

	var order []int
	done := make(chan struct{})
	block := r.Spawn(func(any) (any, error) {
		<-done
		return nil, nil
		}, nil, PriorityNormal)

	low := r.Spawn(func(any) (any, error) { order = append(order, 0); return nil, nil }, nil, PriorityLow)
	high := r.Spawn(func(any) (any, error) { order = append(order, 1); return nil, nil }, nil, PriorityHigh)
	close(done)

	_, _ = r.Await(block)
	_, _ = r.Await(low)
	_, _ = r.Await(high)
	require.Len(t, order, 2)
	assert.Equal(t, 1, order[0])
}

func TestTimerWheelFires(t *testing.T) {
	w := newTimerWheel()
	stop := make(chan struct{})
	defer close(stop)
	go w.run(stop)

	fired := make(chan struct{})
	w.schedule(20*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestStackPoolReuse(t *testing.T) {
	sp := newStackPool(4096)
	slot := sp.acquire()
	assert.Len(t, slot, 4096)
	sp.release(slot)
}
