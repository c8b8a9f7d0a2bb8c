package qirt

import (
	"sync"

	"github.com/google/uuid"
)

// taskRegistry is the concurrent id -> task lookup table the scheduler
// requires so runtime_cancel and runtime_join can find a task given
// only the opaque handle a prior runtime_spawn returned.
type taskRegistry struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*Task
}

func newTaskRegistry() *taskRegistry {
	return &taskRegistry{tasks: make(map[uuid.UUID]*Task)}
}

func (r *taskRegistry) put(t *Task) {
	r.mu.Lock()
	r.tasks[t.ID] = t
	r.mu.Unlock()
}

func (r *taskRegistry) get(id uuid.UUID) (*Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	return t, ok
}

func (r *taskRegistry) remove(id uuid.UUID) {
	r.mu.Lock()
	delete(r.tasks, id)
	r.mu.Unlock()
}

func (r *taskRegistry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}
