// Package sema implements Qi's semantic analyzer: scoped
// symbol resolution, two-pass type resolution, body type-checking,
// visibility enforcement, and module-import cycle detection. Analysis
// is deterministic and re-entrant — analyzing the same Program twice
// produces identical diagnostics (public contract).
package sema

import ("fmt"

	"github.com/qi-lang/qi/internal/ast"
	"github.com/qi-lang/qi/internal/diag"
	"github.com/qi-lang/qi/internal/registry"
	"github.com/qi-lang/qi/internal/span"
	"github.com/qi-lang/qi/internal/symbols"
	"github.com/qi-lang/qi/internal/types"
)

// Result bundles the outputs of a successful analysis pass.
type Result struct {
	Program *ast.Program
	Table *symbols.Table
	Module *registry.Module
}

// Analyzer runs the five ordered phases defines over one
// Program, given the registry that already holds every module it might
// import.
type Analyzer struct {
	reg *registry.Registry
	file span.FileID
	modName string

	tbl *symbols.Table
	diags []diag.Diagnostic

	// structs/enums/traits by name, resolved during type resolution
	// (phase 3), consulted during body checking (phase 4).
	structs map[string]*ast.StructDecl
	enums map[string]*ast.EnumDecl

	curFunc *ast.FuncDecl // non-nil while checking a function body
	inAsync bool
}

// New constructs an Analyzer for one module's Program.
func New(reg *registry.Registry, file span.FileID, modName string) *Analyzer {
	return &Analyzer{
		reg: reg,
		file: file,
		modName: modName,
		tbl: symbols.NewTable(),
		structs: map[string]*ast.StructDecl{},
		enums: map[string]*ast.EnumDecl{},
	}
}

// Analyze runs all five phases in order and returns the annotated
// Program plus the populated symbol table, or a non-empty diagnostic
// list (public contract). The pipeline halts at phase
// boundaries with errors exactly the way requires of the
// whole compiler: a later phase never runs over a tree phase N already
// rejected, to avoid cascading noise.
func (a *Analyzer) Analyze(prog *ast.Program) (*Result, []diag.Diagnostic) {
	mod := &registry.Module{QualifiedName: a.modName, Exports: map[string]*symbols.Symbol{}}
	a.reg.Register(mod)

	a.collectTopLevel(prog)
	if diag.HasErrors(a.diags) {
		return nil, a.diags
	}

	a.resolveImports(prog, mod)
	if diag.HasErrors(a.diags) {
		return nil, a.diags
	}

	a.resolveTypes(prog)
	if diag.HasErrors(a.diags) {
		return nil, a.diags
	}

	a.checkBodies(prog)
	if diag.HasErrors(a.diags) {
		return nil, a.diags
	}

	a.enforceVisibility(prog)

	for name, sym := range a.exportedSymbols() {
		mod.Exports[name] = sym
	}

	if diag.HasErrors(a.diags) {
		return nil, a.diags
	}
	return &Result{Program: prog, Table: a.tbl, Module: mod}, a.diags
}

func (a *Analyzer) errorf(sp span.Span, code diag.Code, format string, args ...any) {
	a.diags = append(a.diags, diag.Diagnostic{
		Severity: diag.SeverityError,
		Code: code,
		Message: fmt.Sprintf(format, args...),
		Primary: sp,
	})
}

func (a *Analyzer) exportedSymbols() map[string]*symbols.Symbol {
	out := map[string]*symbols.Symbol{}
	rootID := a.tbl.RootScope()
	root := a.tbl.Scope(rootID)
	for _, name := range root.Names() {
		for _, kind := range []symbols.Kind{symbols.KindFunction, symbols.KindType, symbols.KindVariable, symbols.KindConstant} {
			if sym, ok := a.tbl.LookupKind(rootID, name, kind); ok && sym.Visibility == ast.Public {
				out[name] = sym
			}
		}
	}
	return out
}

// ---- phase 1: top-level declaration collection ----

func (a *Analyzer) collectTopLevel(prog *ast.Program) {
	root := a.tbl.RootScope()
	for _, item := range prog.Items {
		var kind symbols.Kind
		var name string
		switch it := item.(type) {
		case *ast.FuncDecl:
			kind, name = symbols.KindFunction, it.Name
		case *ast.StructDecl:
			kind, name = symbols.KindType, it.Name
			a.structs[it.Name] = it
		case *ast.EnumDecl:
			kind, name = symbols.KindType, it.Name
			a.enums[it.Name] = it
		case *ast.TraitDecl:
			kind, name = symbols.KindType, it.Name
		case *ast.TypeAliasDecl:
			kind, name = symbols.KindType, it.Name
		case *ast.ConstDecl:
			kind, name = symbols.KindConstant, it.Name
		case *ast.StaticDecl:
			kind, name = symbols.KindVariable, it.Name
		case *ast.ImplDecl:
			continue // impl blocks contribute no module-scope symbol of their own
		default:
			continue
		}
		if _, ok := a.tbl.Declare(root, symbols.Symbol{
			Name: name, Kind: kind, Type: types.Unknown,
			Visibility: item.Vis(), DeclSpan: item.Span(), Decl: item,
		}); !ok {
			a.errorf(item.Span(), diag.CodeDuplicateDecl, "duplicate declaration of %q at module scope", name)
		}
	}
}

// ---- phase 2: import resolution ----

func (a *Analyzer) resolveImports(prog *ast.Program, mod *registry.Module) {
	if err := a.reg.BeginResolve(a.modName); err != nil {
		a.errorf(prog.Span(), diag.CodeImportCycle, "%s", err)
		return
	}
	defer a.reg.EndResolve(a.modName)

	for _, imp := range prog.Imports {
		qualified := dottedName(imp.Path)
		mod.Imports = append(mod.Imports, qualified)
		target, ok := a.reg.Lookup(qualified)
		if !ok {
			a.errorf(imp.Span(), diag.CodeModuleNotFound, "module %q not found", qualified)
			continue
		}
		if err := a.reg.BeginResolve(qualified); err != nil {
			a.errorf(imp.Span(), diag.CodeImportCycle, "import cycle between %q and %q", a.modName, qualified)
			continue
		}
		a.reg.EndResolve(qualified)

		root := a.tbl.RootScope()
		for name, sym := range target.Exports {
			localName := name
			if imp.Alias != "" {
				localName = imp.Alias + "." + name
			}
			a.tbl.Declare(root, symbols.Symbol{
				Name: localName, Kind: sym.Kind, Type: sym.Type,
				Visibility: ast.Public, DeclSpan: imp.Span(), Decl: sym.Decl,
			})
		}
	}
}

func dottedName(path []string) string {
	out := ""
	for i, seg := range path {
		if i > 0 {
			out += "."
		}
		out += seg
	}
	return out
}

// ---- phase 3: type resolution ----

func (a *Analyzer) resolveTypes(prog *ast.Program) {
	root := a.tbl.RootScope()
	for _, item := range prog.Items {
		switch it := item.(type) {
		case *ast.FuncDecl:
			sym, _ := a.tbl.LookupKind(root, it.Name, symbols.KindFunction)
			params := make([]types.Type, len(it.Params))
			for i, p := range it.Params {
				params[i] = a.resolveTypeExpr(p.Type)
				it.Params[i].ResolvedType = params[i]
			}
			ret := types.NewPrimitive(types.Void)
			if it.ReturnType != nil {
				ret = a.resolveTypeExpr(it.ReturnType)
			}
			it.ResolvedReturn = ret
			if it.Async {
				ret = types.NewAwaitable(ret)
			}
			ft := types.NewFunction(params, ret)
			if sym != nil {
				sym.Type = ft
			}
		case *ast.ConstDecl:
			if it.Type != nil {
				if sym, ok := a.tbl.LookupKind(root, it.Name, symbols.KindConstant); ok {
					sym.Type = a.resolveTypeExpr(it.Type)
				}
			}
		case *ast.StaticDecl:
			if it.Type != nil {
				if sym, ok := a.tbl.LookupKind(root, it.Name, symbols.KindVariable); ok {
					sym.Type = a.resolveTypeExpr(it.Type)
				}
			}
		}
	}
}

// resolveTypeExpr converts a written TypeExpr into a concrete Type.
// User-defined names that forward-reference a later item in the same
// module resolve fine because phase 1 already inserted every top-level
// symbol before this phase runs (phase 3: "two-pass").
func (a *Analyzer) resolveTypeExpr(te *ast.TypeExpr) types.Type {
	if te == nil {
		return types.NewPrimitive(types.Void)
	}
	switch {
	case te.Ref != nil:
		return types.NewReference(a.resolveTypeExpr(te.Ref))
	case te.MutRef != nil:
		return types.NewMutReference(a.resolveTypeExpr(te.MutRef))
	case te.Ptr != nil:
		return types.NewPointer(a.resolveTypeExpr(te.Ptr))
	case te.ArrayElem != nil:
		return types.NewArray(a.resolveTypeExpr(te.ArrayElem), te.ArrayLen)
	case te.Primitive != "":
		return types.NewPrimitive(primitiveFromLexeme(te.Primitive))
	}
	switch te.Name {
	case "列表":
		return types.Type{Kind: types.KindList, Elem: elemOf(a, te)}
	case "集合":
		return types.Type{Kind: types.KindSet, Elem: elemOf(a, te)}
	case "选项":
		return types.Type{Kind: types.KindOption, Elem: elemOf(a, te)}
	case "字典":
		if len(te.Args) == 2 {
			k := a.resolveTypeExpr(te.Args[0])
			v := a.resolveTypeExpr(te.Args[1])
			return types.Type{Kind: types.KindDict, Key: &k, Elem: &v}
		}
		return types.ErrorType
	case "结果":
		if len(te.Args) == 2 {
			ok := a.resolveTypeExpr(te.Args[0])
			errT := a.resolveTypeExpr(te.Args[1])
			return types.Type{Kind: types.KindResult, Elem: &ok, Err: &errT}
		}
		return types.ErrorType
	}
	if sym, ok := a.tbl.LookupKind(a.tbl.RootScope(), te.Name, symbols.KindType); ok {
		return types.NewNamed(int(sym.ID), te.Name)
	}
	a.errorf(te.Span(), diag.CodeUnresolvedName, "unresolved type %q", te.Name)
	return types.ErrorType
}

func elemOf(a *Analyzer, te *ast.TypeExpr) *types.Type {
	if len(te.Args) != 1 {
		e := types.ErrorType
		return &e
	}
	e := a.resolveTypeExpr(te.Args[0])
	return &e
}

func primitiveFromLexeme(lex string) types.Primitive {
	switch lex {
	case "整数":
		return types.Int
	case "长整数":
		return types.Long
	case "短整数":
		return types.Short
	case "字节":
		return types.Byte
	case "浮点数":
		return types.Float
	case "布尔":
		return types.Bool
	case "字符":
		return types.Char
	case "字符串":
		return types.String
	default:
		return types.Void
	}
}
