package sema

import ("fmt"

	"github.com/qi-lang/qi/internal/ast"
	"github.com/qi-lang/qi/internal/diag"
	"github.com/qi-lang/qi/internal/registry"
	"github.com/qi-lang/qi/internal/span"
	"github.com/qi-lang/qi/internal/symbols"
	"github.com/qi-lang/qi/internal/types"
)

// ---- phase 4: body checking ----

// checkBodies type-checks every function body against its declared
// signature (phase 4). A struct's or enum's own
// declaration carries no body to check; only funcs and impl methods do.
func (a *Analyzer) checkBodies(prog *ast.Program) {
	for _, item := range prog.Items {
		switch it := item.(type) {
		case *ast.FuncDecl:
			a.checkFunc(it, "")
		case *ast.ImplDecl:
			for _, m := range it.Methods {
				a.checkFunc(m, it.Type)
			}
		}
	}
}

func (a *Analyzer) checkFunc(fn *ast.FuncDecl, receiverType string) {
	if fn.Body == nil {
		return // trait method signature with no default body
	}
	scope := a.tbl.PushScope(a.tbl.RootScope(), symbols.ScopeFunction, "")
	if receiverType != "" && fn.Receiver != nil {
		a.tbl.Declare(scope, symbols.Symbol{
			Name: fn.Receiver.Name, Kind: symbols.KindVariable,
			Type: types.NewNamed(0, receiverType), DeclSpan: fn.Receiver.Span(),
		})
	}
	for _, p := range fn.Params {
		a.tbl.Declare(scope, symbols.Symbol{
			Name: p.Name, Kind: symbols.KindVariable,
			Type: a.resolveTypeExpr(p.Type), DeclSpan: p.Span(),
		})
	}
	prevFunc, prevAsync := a.curFunc, a.inAsync
	a.curFunc, a.inAsync = fn, fn.Async
	a.checkBlock(fn.Body, scope)
	a.curFunc, a.inAsync = prevFunc, prevAsync
}

func (a *Analyzer) checkBlock(b *ast.BlockStmt, parent symbols.ScopeID) symbols.ScopeID {
	scope := a.tbl.PushScope(parent, symbols.ScopeBlock, "")
	for _, s := range b.Stmts {
		a.checkStmt(s, scope)
	}
	return scope
}

func (a *Analyzer) checkStmt(s ast.Stmt, scope symbols.ScopeID) {
	switch st := s.(type) {
	case *ast.VarDecl:
		var declared types.Type
		if st.Type != nil {
			declared = a.resolveTypeExpr(st.Type)
		}
		var initTy types.Type = types.Unknown
		if st.Init != nil {
			initTy = a.checkExpr(st.Init, scope)
		}
		resolved := declared
		if resolved.Kind == types.KindUnknown {
			resolved = initTy
		} else if st.Init != nil && initTy.IsConcrete() && !resolved.Equal(initTy) {
			a.errorf(st.Init.Span(), diag.CodeTypeMismatch, "cannot initialize %q of type %s with value of type %s", st.Name, resolved, initTy)
		}
		st.ResolvedType = resolved
		kind := symbols.KindConstant
		if st.Mutable {
			kind = symbols.KindVariable
		}
		if _, ok := a.tbl.Declare(scope, symbols.Symbol{
			Name: st.Name, Kind: kind, Type: resolved, DeclSpan: st.Span(),
		}); !ok {
			a.errorf(st.Span(), diag.CodeDuplicateDecl, "duplicate declaration of %q", st.Name)
		}
	case *ast.ExprStmt:
		a.checkExpr(st.X, scope)
	case *ast.ReturnStmt:
		var got types.Type = types.NewPrimitive(types.Void)
		if st.Value != nil {
			got = a.checkExpr(st.Value, scope)
		}
		if a.curFunc != nil && got.IsConcrete() && a.curFunc.ResolvedReturn.IsConcrete() && !got.Equal(a.curFunc.ResolvedReturn) {
			a.errorf(st.Span(), diag.CodeTypeMismatch, "return type %s does not match declared return type %s", got, a.curFunc.ResolvedReturn)
		}
	case *ast.BreakStmt:
		if _, ok := a.tbl.EnclosingLoop(scope, st.Label); !ok {
			a.errorf(st.Span(), diag.CodeUnknownLabel, "break outside of a loop")
		}
	case *ast.ContinueStmt:
		if _, ok := a.tbl.EnclosingLoop(scope, st.Label); !ok {
			a.errorf(st.Span(), diag.CodeUnknownLabel, "continue outside of a loop")
		}
	case *ast.GotoStmt, *ast.LabeledStmt:
		// label resolution is deferred to codegen's single block-local
		// pass; sema only ensures the construct parses.
		if ls, ok := s.(*ast.LabeledStmt); ok {
			a.checkStmt(ls.Stmt, scope)
		}
	case *ast.IfStmt:
		cond := a.checkExpr(st.Cond, scope)
		a.requireBool(st.Cond.Span(), cond)
		a.checkBlock(st.Then, scope)
		if st.Else != nil {
			a.checkStmt(st.Else, scope)
		}
	case *ast.WhileStmt:
		cond := a.checkExpr(st.Cond, scope)
		a.requireBool(st.Cond.Span(), cond)
		loopScope := a.tbl.PushScope(scope, symbols.ScopeLoop, "")
		a.checkBlock(st.Body, loopScope)
	case *ast.ForInStmt:
		iterTy := a.checkExpr(st.Iter, scope)
		loopScope := a.tbl.PushScope(scope, symbols.ScopeLoop, "")
		elemTy := types.Unknown
		if iterTy.Kind == types.KindList || iterTy.Kind == types.KindSet || iterTy.Kind == types.KindArray {
			elemTy = *iterTy.Elem
		}
		a.tbl.Declare(loopScope, symbols.Symbol{Name: st.Var, Kind: symbols.KindVariable, Type: elemTy, DeclSpan: st.Span()})
		a.checkBlock(st.Body, loopScope)
	case *ast.LoopStmt:
		loopScope := a.tbl.PushScope(scope, symbols.ScopeLoop, "")
		a.checkBlock(st.Body, loopScope)
	case *ast.MatchStmt:
		a.checkExpr(st.Subject, scope)
		for i := range st.Arms {
			arm := &st.Arms[i]
			armScope := a.tbl.PushScope(scope, symbols.ScopeBlock, "")
			a.declarePatternBindings(arm.Pattern, armScope)
			if arm.Guard != nil {
				g := a.checkExpr(arm.Guard, armScope)
				a.requireBool(arm.Guard.Span(), g)
			}
			a.checkBlock(arm.Body, armScope)
		}
	case *ast.BlockStmt:
		a.checkBlock(st, scope)
	case *ast.BadStmt:
		// already diagnosed during parsing
	}
}

func (a *Analyzer) declarePatternBindings(p ast.Pattern, scope symbols.ScopeID) {
	if p.Ident != "" {
		a.tbl.Declare(scope, symbols.Symbol{Name: p.Ident, Kind: symbols.KindConstant, Type: types.Unknown, DeclSpan: p.Span()})
	}
	for _, b := range p.Binds {
		a.tbl.Declare(scope, symbols.Symbol{Name: b, Kind: symbols.KindConstant, Type: types.Unknown, DeclSpan: p.Span()})
	}
}

// requireBool reports a type error when got is a concrete non-boolean
// type, used for if/while conditions and match-arm guards.
func (a *Analyzer) requireBool(sp span.Span, got types.Type) {
	if got.IsConcrete() && !(got.Kind == types.KindPrimitive && got.Primitive == types.Bool) {
		a.errorf(sp, diag.CodeTypeMismatch, "expected a boolean expression, got %s", got)
	}
}

// checkExpr type-checks an expression, recording its resolved type
// before returning it (invariant: every expression carries
// a concrete type after analysis completes successfully).
func (a *Analyzer) checkExpr(e ast.Expr, scope symbols.ScopeID) types.Type {
	var result types.Type
	switch ex := e.(type) {
	case *ast.LiteralExpr:
		switch ex.Kind {
		case ast.LitInt:
			result = types.NewPrimitive(types.Int)
		case ast.LitFloat:
			result = types.NewPrimitive(types.Float)
		case ast.LitString:
			result = types.NewPrimitive(types.String)
		case ast.LitChar:
			result = types.NewPrimitive(types.Char)
		case ast.LitBool:
			result = types.NewPrimitive(types.Bool)
		}
	case *ast.IdentExpr:
		sym, ok := a.tbl.Lookup(scope, ex.Name)
		if !ok {
			d := diag.Diagnostic{
				Severity: diag.SeverityError,
				Code: diag.CodeUnresolvedName,
				Message: fmt.Sprintf("unresolved name %q", ex.Name),
				Primary: ex.Span(),
			}
			if near, found := a.nearestName(scope, ex.Name); found {
				d = d.WithSuggestedReplacement("", ex.Name, near)
			}
			a.diags = append(a.diags, d)
			result = types.ErrorType
		} else {
			ex.SymbolID = int(sym.ID)
			result = sym.Type
		}
	case *ast.AssignExpr:
		valTy := a.checkExpr(ex.Value, scope)
		targetTy := a.checkExpr(ex.Target, scope)
		if id, ok := ex.Target.(*ast.IdentExpr); ok {
			if sym, found := a.tbl.Lookup(scope, id.Name); found && sym.Kind == symbols.KindConstant {
				a.errorf(ex.Span(), diag.CodeNotMutable, "cannot assign to immutable binding %q", id.Name)
			}
		}
		if targetTy.IsConcrete() && valTy.IsConcrete() && !targetTy.Equal(valTy) {
			a.errorf(ex.Span(), diag.CodeTypeMismatch, "cannot assign value of type %s to target of type %s", valTy, targetTy)
		}
		result = targetTy
	case *ast.BinaryExpr:
		lt := a.checkExpr(ex.Left, scope)
		rt := a.checkExpr(ex.Right, scope)
		result = a.checkBinary(ex, lt, rt)
	case *ast.UnaryExpr:
		if ex.Op == ast.OpYield {
			if !a.inAsync {
				a.errorf(ex.Span(), diag.CodeUnsupportedConstruct, "yield is only valid inside an async function")
			}
			result = types.NewPrimitive(types.Void)
			break
		}
		xt := a.checkExpr(ex.X, scope)
		switch ex.Op {
		case ast.OpNot:
			result = types.NewPrimitive(types.Bool)
		case ast.OpNeg:
			result = xt
		case ast.OpAwait:
			if !a.inAsync {
				a.errorf(ex.Span(), diag.CodeUnsupportedConstruct, "await is only valid inside an async function")
			}
			if xt.Kind != types.KindAwaitable {
				a.errorf(ex.X.Span(), diag.CodeNotAwaitable, "expression of type %s is not awaitable", xt)
				result = types.ErrorType
			} else {
				result = *xt.Elem
			}
		}
	case *ast.CallExpr:
		calleeTy := a.checkExpr(ex.Callee, scope)
		argTys := make([]types.Type, len(ex.Args))
		for i, arg := range ex.Args {
			argTys[i] = a.checkExpr(arg, scope)
		}
		if calleeTy.Kind != types.KindFunction {
			result = types.ErrorType
			break
		}
		if len(calleeTy.Params) != len(argTys) {
			a.errorf(ex.Span(), diag.CodeWrongArity, "expected %d argument(s), got %d", len(calleeTy.Params), len(argTys))
		} else {
			for i, pt := range calleeTy.Params {
				if pt.IsConcrete() && argTys[i].IsConcrete() && !pt.Equal(argTys[i]) {
					a.errorf(ex.Args[i].Span(), diag.CodeTypeMismatch, "argument %d: expected %s, got %s", i+1, pt, argTys[i])
				}
			}
		}
		result = *calleeTy.Result
	case *ast.IndexExpr:
		xt := a.checkExpr(ex.X, scope)
		a.checkExpr(ex.Index, scope)
		switch xt.Kind {
		case types.KindArray, types.KindList:
			result = *xt.Elem
		case types.KindDict:
			result = *xt.Elem
		default:
			result = types.ErrorType
		}
	case *ast.FieldExpr:
		xt := a.checkExpr(ex.X, scope)
		result = a.fieldType(xt, ex.Field, ex.Span())
	case *ast.ClosureExpr:
		closureScope := a.tbl.PushScope(scope, symbols.ScopeFunction, "")
		params := make([]types.Type, len(ex.Params))
		for i, p := range ex.Params {
			pt := a.resolveTypeExpr(p.Type)
			params[i] = pt
			a.tbl.Declare(closureScope, symbols.Symbol{Name: p.Name, Kind: symbols.KindVariable, Type: pt, DeclSpan: p.Span()})
		}
		ret := types.NewPrimitive(types.Void)
		if ex.ReturnType != nil {
			ret = a.resolveTypeExpr(ex.ReturnType)
		}
		a.checkBlock(ex.Body, closureScope)
		result = types.NewFunction(params, ret)
	case *ast.StructLiteralExpr:
		decl, ok := a.structs[ex.TypeName]
		if !ok {
			a.errorf(ex.Span(), diag.CodeUnresolvedName, "unresolved struct type %q", ex.TypeName)
			result = types.ErrorType
			break
		}
		// A field omitted from the literal is filled from the struct's
		// own default expression; when the declaration gives none the
		// field stays absent from the literal. An omission is never an
		// arity error (SPEC_FULL.md §4, "Struct field default values").
		for _, f := range decl.Fields {
			val, has := ex.Fields[f.Name]
			if !has {
				if f.Default != nil {
					ex.Fields[f.Name] = f.Default
					ex.FieldOrder = append(ex.FieldOrder, f.Name)
					a.checkExpr(f.Default, scope)
				}
				continue
			}
			ft := a.resolveTypeExpr(f.Type)
			vt := a.checkExpr(val, scope)
			if ft.IsConcrete() && vt.IsConcrete() && !ft.Equal(vt) {
				a.errorf(val.Span(), diag.CodeTypeMismatch, "field %q: expected %s, got %s", f.Name, ft, vt)
			}
		}
		if sym, ok := a.tbl.LookupKind(a.tbl.RootScope(), ex.TypeName, symbols.KindType); ok {
			result = types.NewNamed(int(sym.ID), ex.TypeName)
		} else {
			result = types.ErrorType
		}
	case *ast.ArrayLiteralExpr:
		var elem types.Type = types.Unknown
		for _, el := range ex.Elems {
			t := a.checkExpr(el, scope)
			if elem.Kind == types.KindUnknown {
				elem = t
			}
		}
		result = types.NewArray(elem, len(ex.Elems))
	case *ast.BadExpr:
		result = types.ErrorType
	default:
		result = types.Unknown
	}
	e.SetType(result)
	return result
}

func (a *Analyzer) fieldType(structTy types.Type, field string, sp span.Span) types.Type {
	if structTy.Kind != types.KindNamed {
		return types.ErrorType
	}
	decl, foreign, ok := a.lookupStructDecl(structTy.Name)
	if !ok {
		return types.ErrorType
	}
	for _, f := range decl.Fields {
		if f.Name != field {
			continue
		}
		if foreign && f.Visibility == ast.Private {
			a.errorf(sp, diag.CodeVisibilityViolation, "field %q of %q is private to its defining module", field, structTy.Name)
			return types.ErrorType
		}
		return a.resolveTypeExpr(f.Type)
	}
	a.errorf(sp, diag.CodeUnresolvedName, "struct %q has no field %q", structTy.Name, field)
	return types.ErrorType
}

// lookupStructDecl resolves a named type to its struct declaration,
// reporting whether it was declared in this module (foreign=false) or
// reached through an import (foreign=true). Field-level visibility
// only matters for the foreign case: every field of a struct declared
// in the current module is reachable from the current module's own
// code, private or not.
func (a *Analyzer) lookupStructDecl(name string) (decl *ast.StructDecl, foreign, ok bool) {
	if d, found := a.structs[name]; found {
		return d, false, true
	}
	if sym, found := a.tbl.LookupKind(a.tbl.RootScope(), name, symbols.KindType); found {
		if d, isStruct := sym.Decl.(*ast.StructDecl); isStruct {
			return d, true, true
		}
	}
	return nil, false, false
}

// checkBinary applies the operator type table requires:
// arithmetic needs two equal numeric operands, comparison needs two
// equal ordered operands, equality accepts any equal pair, and
// logical and/or require booleans.
func (a *Analyzer) checkBinary(ex *ast.BinaryExpr, lt, rt types.Type) types.Type {
	switch ex.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		if !lt.IsNumeric() || !rt.IsNumeric() || !lt.Equal(rt) {
			if lt.IsConcrete() && rt.IsConcrete() {
				a.errorf(ex.Span(), diag.CodeTypeMismatch, "arithmetic requires matching numeric operands, got %s and %s", lt, rt)
			}
			return types.ErrorType
		}
		return lt
	case ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe:
		if !lt.Equal(rt) {
			if lt.IsConcrete() && rt.IsConcrete() {
				a.errorf(ex.Span(), diag.CodeTypeMismatch, "comparison requires matching operand types, got %s and %s", lt, rt)
			}
			return types.ErrorType
		}
		return types.NewPrimitive(types.Bool)
	case ast.OpEq, ast.OpNeq:
		if lt.IsConcrete() && rt.IsConcrete() && !lt.Equal(rt) {
			a.errorf(ex.Span(), diag.CodeTypeMismatch, "equality requires matching operand types, got %s and %s", lt, rt)
		}
		return types.NewPrimitive(types.Bool)
	case ast.OpAnd, ast.OpOr:
		lok := lt.Kind == types.KindPrimitive && lt.Primitive == types.Bool
		rok := rt.Kind == types.KindPrimitive && rt.Primitive == types.Bool
		if lt.IsConcrete() && !lok || rt.IsConcrete() && !rok {
			a.errorf(ex.Span(), diag.CodeTypeMismatch, "&& and || require boolean operands, got %s and %s", lt, rt)
		}
		return types.NewPrimitive(types.Bool)
	}
	return types.ErrorType
}

// ---- phase 5: visibility enforcement ----

// enforceVisibility is the final backstop before codegen (phase 5).
// It re-flags any module stuck in Resolving state (resolveImports
// bailed early on a cycle it already reported; re-flagging it here
// would only duplicate that diagnostic, so this only catches modules
// resolveImports did not already visit because the import list changed
// in the meantime, i.e. the caller re-ran Analyze with an amended
// Program), then walks every public function's signature to make sure a
// private symbol never leaks into another module's reach through it.
// A private struct or enum named in a public function's parameter or
// return type would otherwise be referenceable from any importer, even
// though it is only ever declared accessible from its defining module.
func (a *Analyzer) enforceVisibility(prog *ast.Program) {
	for _, imp := range prog.Imports {
		name := dottedName(imp.Path)
		mod, ok := a.reg.Lookup(name)
		if ok && mod.State == registry.Resolving {
			a.errorf(imp.Span(), diag.CodeImportCycle, "module %q left mid-resolution", name)
		}
	}
	for _, item := range prog.Items {
		fn, ok := item.(*ast.FuncDecl)
		if !ok || fn.Vis() != ast.Public {
			continue
		}
		for _, p := range fn.Params {
			a.checkPublicSurface(p.Type, fn.Span())
		}
		a.checkPublicSurface(fn.ReturnType, fn.Span())
	}
}

// checkPublicSurface reports a visibility violation when te names a
// private struct or enum declared in this module, unwrapping the
// reference/pointer/array wrappers a written type may carry.
func (a *Analyzer) checkPublicSurface(te *ast.TypeExpr, sp span.Span) {
	if te == nil {
		return
	}
	switch {
	case te.Ref != nil:
		a.checkPublicSurface(te.Ref, sp)
		return
	case te.MutRef != nil:
		a.checkPublicSurface(te.MutRef, sp)
		return
	case te.Ptr != nil:
		a.checkPublicSurface(te.Ptr, sp)
		return
	case te.ArrayElem != nil:
		a.checkPublicSurface(te.ArrayElem, sp)
		return
	}
	if te.Name == "" {
		return
	}
	if decl, ok := a.structs[te.Name]; ok && decl.Vis() == ast.Private {
		a.errorf(sp, diag.CodeVisibilityViolation, "public function exposes private type %q", te.Name)
	}
	if decl, ok := a.enums[te.Name]; ok && decl.Vis() == ast.Private {
		a.errorf(sp, diag.CodeVisibilityViolation, "public function exposes private type %q", te.Name)
	}
}
