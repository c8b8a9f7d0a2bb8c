package qirt

import "sync"

// defaultStackSize is the reserved size of one coroutine's stack slot
// (, "default 2 MiB stacks").
const defaultStackSize = 2 << 20

// stackPool recycles fixed-size stack slots across task executions
// instead of allocating and freeing one per task, the same way a native
// M:N runtime reuses a bounded set of OS-thread stacks for its green
// threads. Go doesn't expose raw goroutine stacks, so a slot here
// stands in for whatever scratch memory a lowered coroutine's state
// machine needs while it runs.
type stackPool struct {
	pool sync.Pool
	size int
}

func newStackPool(size int) *stackPool {
	if size <= 0 {
		size = defaultStackSize
	}
	sp := &stackPool{size: size}
	sp.pool.New = func() any {
		return make([]byte, sp.size)
	}
	return sp
}

func (sp *stackPool) acquire() []byte {
	return sp.pool.Get().([]byte)
}

func (sp *stackPool) release(slot []byte) {
	sp.pool.Put(slot)
}
