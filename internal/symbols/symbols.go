// Package symbols implements Qi's scoped symbol table: a
// Symbol (name, kind, type, visibility, declaration span, scope id) and
// a Scope (id, parent id, kind) tree that lookup walks from leaf to
// root. Symbols, once inserted, are never mutated in place except to
// fill in their resolved Type during the two-pass type-resolution phase
// (phase 3).
package symbols

import ("github.com/qi-lang/qi/internal/ast"
	"github.com/qi-lang/qi/internal/span"
	"github.com/qi-lang/qi/internal/types"
)

// Kind partitions a Symbol by what it names.
type Kind int

const (KindVariable Kind = iota
	KindConstant
	KindFunction
	KindType // struct / enum / trait / alias
	KindModule
)

func (k Kind) String() string {
	switch k {
	case KindVariable:
		return "variable"
	case KindConstant:
		return "constant"
	case KindFunction:
		return "function"
	case KindType:
		return "type"
	case KindModule:
		return "module"
	}
	return "?"
}

// kindClass groups kinds that may not collide within one scope:
// variable and constant share a namespace (: "a name
// resolves to at most one symbol of each kind-class"); function and
// type each have their own.
func (k Kind) kindClass() int {
	switch k {
	case KindVariable, KindConstant:
		return 0
	case KindFunction:
		return 1
	case KindType:
		return 2
	case KindModule:
		return 3
	}
	return -1
}

// ID uniquely identifies a Symbol within a Table.
type ID int

// Symbol is (name, kind, type, visibility, declaration span, scope id),
//. Once inserted, a symbol's ScopeID never changes and
// the symbol outlives the analysis pass that created it.
type Symbol struct {
	ID ID
	Name string
	Kind Kind
	Type types.Type
	Visibility ast.Visibility
	DeclSpan span.Span
	ScopeID ScopeID

	// Decl points back at the declaring AST item/statement/param, used
	// by sema to recover an imported struct's declaration without a
	// second table.
	Decl any
}

// ScopeKind discriminates the four scope shapes names.
type ScopeKind int

const (ScopeModule ScopeKind = iota
	ScopeFunction
	ScopeBlock
	ScopeLoop
)

// ScopeID uniquely identifies a Scope within a Table.
type ScopeID int

// Scope is (id, parent id, kind); the root module scope has Parent ==
// -1.
type Scope struct {
	ID ScopeID
	Parent ScopeID
	Kind ScopeKind
	// Label names this scope for break/continue/goto, when the source
	// attached one (loop scopes and labeled blocks).
	Label string

	symbols map[string][]ID // keyed by name; multiple entries across kind-classes
}

// NoParent marks the root scope, which has no enclosing scope.
const NoParent ScopeID = -1

// Table owns every Scope and Symbol created during one analysis pass.
// Table is not safe for concurrent use (: compiler stages are
// single-threaded).
type Table struct {
	scopes []*Scope
	symbols []*Symbol
}

// NewTable constructs an empty table with a single root module scope.
func NewTable() *Table {
	t := &Table{}
	t.scopes = append(t.scopes, &Scope{ID: 0, Parent: NoParent, Kind: ScopeModule, symbols: map[string][]ID{}})
	return t
}

// RootScope returns the id of the top-level module scope.
func (t *Table) RootScope() ScopeID { return 0 }

// PushScope creates a new child scope and returns its id.
func (t *Table) PushScope(parent ScopeID, kind ScopeKind, label string) ScopeID {
	id := ScopeID(len(t.scopes))
	t.scopes = append(t.scopes, &Scope{ID: id, Parent: parent, Kind: kind, Label: label, symbols: map[string][]ID{}})
	return id
}

// Scope returns the Scope record for id, or nil if unknown.
func (t *Table) Scope(id ScopeID) *Scope {
	if int(id) < 0 || int(id) >= len(t.scopes) {
		return nil
	}
	return t.scopes[id]
}

// Symbol returns the Symbol record for id, or nil if unknown.
func (t *Table) Symbol(id ID) *Symbol {
	if int(id) < 0 || int(id) >= len(t.symbols) {
		return nil
	}
	return t.symbols[id]
}

// Declare inserts a new symbol into scope. It returns the new symbol's
// id and ok=false (without inserting) if a symbol of the same
// kind-class and name already exists directly in that scope —
// §3.5's "within a single scope, a name resolves to at most one symbol
// of each kind-class" invariant. Shadowing across nested scopes is
// always permitted; this check is scope-local only.
func (t *Table) Declare(scope ScopeID, sym Symbol) (ID, bool) {
	sc := t.Scope(scope)
	if sc == nil {
		return -1, false
	}
	for _, existingID := range sc.symbols[sym.Name] {
		if t.symbols[existingID].Kind.kindClass() == sym.Kind.kindClass() {
			return existingID, false
		}
	}
	id := ID(len(t.symbols))
	sym.ID = id
	sym.ScopeID = scope
	t.symbols = append(t.symbols, &sym)
	sc.symbols[sym.Name] = append(sc.symbols[sym.Name], id)
	return id, true
}

// Lookup walks scope to root looking for name, returning the nearest
// match (: "lookup walks parents until hit or root").
func (t *Table) Lookup(scope ScopeID, name string) (*Symbol, bool) {
	for s := t.Scope(scope); s != nil; s = t.Scope(s.Parent) {
		if ids, ok := s.symbols[name]; ok && len(ids) > 0 {
			return t.symbols[ids[len(ids)-1]], true
		}
		if s.Parent == NoParent {
			break
		}
	}
	return nil, false
}

// LookupKind is like Lookup but restricted to symbols in kind's
// kind-class, used when a name might be shadowed by a different
// kind-class binding in an intervening scope (e.g. a variable named
// the same as an outer type).
func (t *Table) LookupKind(scope ScopeID, name string, kind Kind) (*Symbol, bool) {
	class := kind.kindClass()
	for s := t.Scope(scope); s != nil; s = t.Scope(s.Parent) {
		for _, id := range s.symbols[name] {
			if t.symbols[id].Kind.kindClass() == class {
				return t.symbols[id], true
			}
		}
		if s.Parent == NoParent {
			break
		}
	}
	return nil, false
}

// Names returns every distinct name declared directly in this scope, in
// no particular order. Used by module-export collection, which then
// filters by visibility and kind-class itself.
func (s *Scope) Names() []string {
	out := make([]string, 0, len(s.symbols))
	for name := range s.symbols {
		out = append(out, name)
	}
	return out
}

// EnclosingLoop walks scope to root and returns the nearest loop scope,
// used to validate break/continue targets.
func (t *Table) EnclosingLoop(scope ScopeID, label string) (ScopeID, bool) {
	for s := t.Scope(scope); s != nil; s = t.Scope(s.Parent) {
		if s.Kind == ScopeLoop && (label == "" || s.Label == label) {
			return s.ID, true
		}
		if s.Parent == NoParent {
			break
		}
	}
	return NoParent, false
}
