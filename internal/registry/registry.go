// Package registry implements Qi's module registry: a
// process-local map from qualified module name to its exported symbols
// and import state. Import resolution is strictly acyclic; a cycle
// among modules is a semantic error the analyzer reports through
// diag.CodeImportCycle.
package registry

import ("fmt"
	"sync"

	"github.com/qi-lang/qi/internal/symbols"
)

// ResolveState tracks a module's position in the cycle-detection
// traversal (phase 2): "mark modules as 'resolving' /
// 'resolved'; revisiting a resolving module is a cycle error."
type ResolveState int

const (Unresolved ResolveState = iota
	Resolving
	Resolved
)

// Module is (qualified name, exported symbols, resolved imports, source
// file path),.
type Module struct {
	QualifiedName string
	SourcePath string
	Exports map[string]*symbols.Symbol
	Imports []string // qualified names of modules this one imports
	State ResolveState
}

// Registry is the process-local qualified-name -> Module map. It is
// safe for concurrent reads/writes, mirroring the teacher's pattern of
// guarding shared maps with a single RWMutex (see internal/qirt for the
// scheduler's analogous task registry).
type Registry struct {
	mu sync.RWMutex
	modules map[string]*Module
}

// New constructs an empty registry.
func New() *Registry {
	return &Registry{modules: map[string]*Module{}}
}

// Register inserts a module record, keyed by its qualified name.
// Registering the same name twice overwrites the previous record — the
// CLI layer (out of core scope,) is responsible for
// preventing duplicate source files from claiming the same module name
// across a build.
func (r *Registry) Register(m *Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[m.QualifiedName] = m
}

// Lookup returns the module registered under name, if any.
func (r *Registry) Lookup(name string) (*Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[name]
	return m, ok
}

// BeginResolve marks a module as currently being resolved. It reports
// an error if the module is already mid-resolution — the cycle case —
// and is a no-op (returning nil) if the module is already fully
// resolved, supporting re-entrant resolution of a diamond import graph.
func (r *Registry) BeginResolve(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.modules[name]
	if !ok {
		return fmt.Errorf("registry: module %q not registered", name)
	}
	if m.State == Resolving {
		return fmt.Errorf("registry: import cycle detected at module %q", name)
	}
	if m.State == Unresolved {
		m.State = Resolving
	}
	return nil
}

// EndResolve marks a module fully resolved.
func (r *Registry) EndResolve(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.modules[name]; ok {
		m.State = Resolved
	}
}

// All returns every registered module, for tooling that needs a full
// snapshot.
func (r *Registry) All() []*Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Module, 0, len(r.modules))
	for _, m := range r.modules {
		out = append(out, m)
	}
	return out
}
