// Package qirt is Qi's M:N async runtime: a fixed pool
// of OS-thread workers scheduling many lightweight tasks, an event loop
// for I/O readiness, and the public runtime_init/spawn/await/cancel/join
// entry points codegen's IR calls against.
//
// Tasks are ordinary Go closures here; a real ahead-of-time Qi backend
// would instead resume a hand-written state machine per §4.4's
// async lowering, but the scheduling policy above that boundary -
// priority levels, work stealing, cancellation - is identical either
// way, and this package implements exactly that policy.
package qirt

import (
	"sync"

	"github.com/google/uuid"
)

// Priority is one of the four scheduling classes §4.5 assigns
// tasks (highest first: Realtime, High, Normal, Low).
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityRealtime
)

const numPriorities = 4

// TaskFunc is a spawned unit of work: it receives its argument and
// returns a result or an error, mirroring the C-ABI's `runtime_spawn(fn,
// arg, priority)` taking an opaque function pointer and argument.
type TaskFunc func(arg any) (any, error)

type taskState int32

const (
	taskQueued taskState = iota
	taskRunning
	taskSuspended
	taskDone
	taskCancelled
)

// Task is one scheduled unit of work and its completion state. Awaiting
// a Task blocks the caller (runtime_await's "suspend the calling task
// until the future completes") until its done channel closes.
type Task struct {
	ID       uuid.UUID
	Priority Priority
	fn       TaskFunc
	arg      any

	mu     sync.Mutex
	state  taskState
	result any
	err    error
	done   chan struct{}
}

func newTask(fn TaskFunc, arg any, pri Priority) *Task {
	return &Task{
		ID:       uuid.New(),
		Priority: pri,
		fn:       fn,
		arg:      arg,
		state:    taskQueued,
		done:     make(chan struct{}),
	}
}

func (t *Task) finish(result any, err error) {
	t.mu.Lock()
	if t.state == taskCancelled {
		t.mu.Unlock()
		return
	}
	t.state = taskDone
	t.result, t.err = result, err
	t.mu.Unlock()
	close(t.done)
}

func (t *Task) cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == taskDone || t.state == taskCancelled {
		return false
	}
	t.state = taskCancelled
	close(t.done)
	return true
}

// Handle is the opaque reference callers hold to a spawned task,
// mirroring the C-ABI's future/task-handle pointer.
type Handle struct {
	task *Task
}

func (h Handle) ID() uuid.UUID { return h.task.ID }
