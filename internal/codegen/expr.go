package codegen

import ("fmt"

	"github.com/qi-lang/qi/internal/ast"
	"github.com/qi-lang/qi/internal/ir"
	"github.com/qi-lang/qi/internal/types"
)

// genExpr lowers one expression to a sequence of instructions appended
// to the current block, returning the SSA value holding its result.
func (g *Generator) genExpr(e ast.Expr) ir.Value {
	switch ex := e.(type) {
	case *ast.LiteralExpr:
		return g.genLiteral(ex)
	case *ast.IdentExpr:
		if slot, ok := g.locals[ex.Name]; ok {
			v := g.newReg(irType(e.Type()))
			g.emit(ir.Instr{Result: v, Op: ir.OpLoad, Args: []ir.Value{slot}})
			return v
		}
		return ir.Reg("@"+Mangle(ex.Name), irType(e.Type()))
	case *ast.AssignExpr:
		v := g.genExpr(ex.Value)
		if id, ok := ex.Target.(*ast.IdentExpr); ok {
			if slot, ok := g.locals[id.Name]; ok {
				g.emit(ir.Instr{Op: ir.OpStore, Args: []ir.Value{slot, v}})
			}
		}
		return v
	case *ast.BinaryExpr:
		return g.genBinary(ex)
	case *ast.UnaryExpr:
		return g.genUnary(ex)
	case *ast.CallExpr:
		return g.genCall(ex)
	case *ast.IndexExpr:
		x := g.genExpr(ex.X)
		idx := g.genExpr(ex.Index)
		addr := g.newReg("ptr")
		g.emit(ir.Instr{Result: addr, Op: ir.OpGEP, Args: []ir.Value{x, idx}})
		v := g.newReg(irType(e.Type()))
		g.emit(ir.Instr{Result: v, Op: ir.OpLoad, Args: []ir.Value{addr}})
		return v
	case *ast.FieldExpr:
		x := g.genExpr(ex.X)
		addr := g.newReg("ptr")
		g.emit(ir.Instr{Result: addr, Op: ir.OpGEP, Args: []ir.Value{x}, Field: ex.Field})
		v := g.newReg(irType(e.Type()))
		g.emit(ir.Instr{Result: v, Op: ir.OpLoad, Args: []ir.Value{addr}})
		return v
	case *ast.StructLiteralExpr:
		return g.genStructLiteral(ex)
	case *ast.ArrayLiteralExpr:
		return g.genArrayLiteral(ex)
	case *ast.ClosureExpr:
		// Closures lower to a hidden top-level function plus a capture
		// struct; full capture-environment lowering is out of scope for
		// this generator pass, so a closure expression yields an opaque
		// handle to its (already-registered) function value.
		return ir.Reg("@closure", "ptr")
	case *ast.BadExpr:
		return ir.Const("0", "i64")
	}
	return ir.Const("0", "i64")
}

func (g *Generator) genLiteral(ex *ast.LiteralExpr) ir.Value {
	switch ex.Kind {
	case ast.LitInt:
		return ir.Const(fmt.Sprintf("%d", ex.Int), "i64")
	case ast.LitFloat:
		return ir.Const(fmt.Sprintf("%g", ex.Float), "f64")
	case ast.LitString:
		lit := ir.Const(fmt.Sprintf("%q", ex.Str), "ptr")
		return lit
	case ast.LitChar:
		return ir.Const(fmt.Sprintf("%d", ex.Char), "i32")
	case ast.LitBool:
		if ex.Bool {
			return ir.Const("1", "i1")
		}
		return ir.Const("0", "i1")
	}
	return ir.Const("0", "i64")
}

func (g *Generator) genUnary(ex *ast.UnaryExpr) ir.Value {
	if ex.Op == ast.OpYield {
		g.need("await")
		v := g.newReg("ptr")
		g.emit(ir.Instr{Result: v, Op: ir.OpCall, Callee: "runtime_await", Args: []ir.Value{ir.Const("null", "ptr")}})
		return v
	}
	x := g.genExpr(ex.X)
	switch ex.Op {
	case ast.OpNot:
		v := g.newReg("i1")
		g.emit(ir.Instr{Result: v, Op: ir.OpNot, Args: []ir.Value{x}})
		return v
	case ast.OpNeg:
		v := g.newReg(x.Type)
		g.emit(ir.Instr{Result: v, Op: ir.OpNeg, Args: []ir.Value{x}})
		return v
	case ast.OpAwait:
		g.need("await")
		v := g.newReg(irType(ex.Type()))
		g.emit(ir.Instr{Result: v, Op: ir.OpCall, Callee: "runtime_await", Args: []ir.Value{x}})
		return v
	}
	return x
}

// genBinary lowers arithmetic/comparison directly, and short-circuits
// `&&`/`||` into two basic blocks joined by a phi ("short-
// circuit evaluation").
func (g *Generator) genBinary(ex *ast.BinaryExpr) ir.Value {
	if ex.Op == ast.OpAnd || ex.Op == ast.OpOr {
		return g.genShortCircuit(ex)
	}
	l := g.genExpr(ex.Left)
	r := g.genExpr(ex.Right)
	op, resultType := binOpInstr(ex.Op, l.Type)
	v := g.newReg(resultType)
	g.emit(ir.Instr{Result: v, Op: op, Args: []ir.Value{l, r}})
	return v
}

func binOpInstr(op ast.BinOp, operandType string) (ir.Op, string) {
	switch op {
	case ast.OpAdd:
		return ir.OpAdd, operandType
	case ast.OpSub:
		return ir.OpSub, operandType
	case ast.OpMul:
		return ir.OpMul, operandType
	case ast.OpDiv:
		return ir.OpDiv, operandType
	case ast.OpMod:
		return ir.OpMod, operandType
	case ast.OpEq:
		return ir.OpCmpEq, "i1"
	case ast.OpNeq:
		return ir.OpCmpNe, "i1"
	case ast.OpLt:
		return ir.OpCmpLt, "i1"
	case ast.OpGt:
		return ir.OpCmpGt, "i1"
	case ast.OpLe:
		return ir.OpCmpLe, "i1"
	case ast.OpGe:
		return ir.OpCmpGe, "i1"
	}
	return ir.OpAdd, operandType
}

func (g *Generator) genShortCircuit(ex *ast.BinaryExpr) ir.Value {
	l := g.genExpr(ex.Left)
	rhsBlock := g.newNamedBlock(g.newLabel("sc_rhs"))
	mergeBlock := g.newNamedBlock(g.newLabel("sc_merge"))

	headBlock := g.block
	if ex.Op == ast.OpAnd {
		g.setTermOn(headBlock, ir.Terminator{Kind: ir.TermBranch, Cond: l, Targets: []string{rhsBlock.Label, mergeBlock.Label}})
	} else {
		g.setTermOn(headBlock, ir.Terminator{Kind: ir.TermBranch, Cond: l, Targets: []string{mergeBlock.Label, rhsBlock.Label}})
	}

	g.block = rhsBlock
	r := g.genExpr(ex.Right)
	g.finishBlockInto(mergeBlock)

	g.block = mergeBlock
	v := g.newReg("i1")
	g.emit(ir.Instr{Result: v, Op: ir.OpPhi, PhiIncoming: map[string]ir.Value{
		headBlock.Label: l,
		rhsBlock.Label: r,
	}})
	return v
}

func (g *Generator) genCall(ex *ast.CallExpr) ir.Value {
	if id, ok := ex.Callee.(*ast.IdentExpr); ok && id.Name == "println" && len(ex.Args) == 1 {
		return g.genPrintln(ex.Args[0])
	}
	callee := ""
	if id, ok := ex.Callee.(*ast.IdentExpr); ok {
		callee = "@" + Mangle(id.Name)
	}
	args := make([]ir.Value, len(ex.Args))
	for i, a := range ex.Args {
		args[i] = g.genExpr(a)
	}
	v := g.newReg(irType(ex.Type()))
	g.emit(ir.Instr{Result: v, Op: ir.OpCall, Callee: callee, Args: args})
	return v
}

// genPrintln dispatches to the runtime println variant matching the
// argument's statically inferred type ("runtime dispatch
// for overloaded operations"), resolved here at code-gen time.
func (g *Generator) genPrintln(arg ast.Expr) ir.Value {
	v := g.genExpr(arg)
	var runtimeFn, need string
	switch arg.Type().Kind {
	case types.KindPrimitive:
		switch arg.Type().Primitive {
		case types.String:
			runtimeFn, need = "runtime_println_string", "println_string"
		case types.Float:
			runtimeFn, need = "runtime_println_float", "println_float"
		default:
			runtimeFn, need = "runtime_println_int", "println_int"
		}
	default:
		runtimeFn, need = "runtime_println_int", "println_int"
	}
	g.need(need)
	v2 := g.newReg("i32")
	g.emit(ir.Instr{Result: v2, Op: ir.OpCall, Callee: runtimeFn, Args: []ir.Value{v}})
	return v2
}

func (g *Generator) genStructLiteral(ex *ast.StructLiteralExpr) ir.Value {
	heap := g.structHasHeapFields(ex.TypeName)
	slot := g.newReg("ptr")
	if heap {
		g.emitMaybeGC(len(ex.FieldOrder) * 8)
		g.need("alloc")
		g.emit(ir.Instr{Result: slot, Op: ir.OpCall, Callee: "runtime_alloc", Args: []ir.Value{ir.Const(fmt.Sprintf("%d", len(ex.FieldOrder)*8), "i64")}})
	} else {
		g.emit(ir.Instr{Result: slot, Op: ir.OpAlloc, Args: []ir.Value{ir.Const("struct", "type")}})
	}
	for _, name := range ex.FieldOrder {
		val := g.genExpr(ex.Fields[name])
		addr := g.newReg("ptr")
		g.emit(ir.Instr{Result: addr, Op: ir.OpGEP, Args: []ir.Value{slot}, Field: name})
		g.emit(ir.Instr{Op: ir.OpStore, Args: []ir.Value{addr, val}})
	}
	return slot
}

// structHasHeapFields is a conservative placeholder: without the
// resolved struct declaration threaded through from sema at this layer,
// every struct literal takes the heap path, matching
// "structs containing heap fields -> heap" rule for the case that
// actually needs the stronger guarantee.
func (g *Generator) structHasHeapFields(name string) bool { return true }

// genArrayLiteral applies array placement table: small
// fixed arrays on the stack, larger or dynamically-sized ones on the
// heap with a GC-pressure check.
func (g *Generator) genArrayLiteral(ex *ast.ArrayLiteralExpr) ir.Value {
	n := len(ex.Elems)
	elemSize := 8
	totalSize := n * elemSize
	var base ir.Value
	if n <= fixedArrayStackLimit {
		base = g.newReg("ptr")
		g.emit(ir.Instr{Result: base, Op: ir.OpAlloc, Args: []ir.Value{ir.Const(fmt.Sprintf("%d", totalSize), "i64")}})
	} else {
		g.emitMaybeGC(totalSize)
		g.need("alloc")
		base = g.newReg("ptr")
		g.emit(ir.Instr{Result: base, Op: ir.OpCall, Callee: "runtime_alloc", Args: []ir.Value{ir.Const(fmt.Sprintf("%d", totalSize), "i64")}})
	}
	for i, el := range ex.Elems {
		v := g.genExpr(el)
		addr := g.newReg("ptr")
		g.emit(ir.Instr{Result: addr, Op: ir.OpGEP, Args: []ir.Value{base, ir.Const(fmt.Sprintf("%d", i), "i64")}})
		g.emit(ir.Instr{Op: ir.OpStore, Args: []ir.Value{addr, v}})
	}
	return base
}

// emitMaybeGC emits the should-collect/collect pair
// requires ahead of any heap allocation strictly above the 1 MiB
// threshold; an allocation of exactly 1 MiB emits no check.
func (g *Generator) emitMaybeGC(size int) {
	if size <= heapAllocThreshold {
		return
	}
	g.need("gc_should_collect")
	g.need("gc_collect")
	should := g.newReg("i64")
	g.emit(ir.Instr{Result: should, Op: ir.OpCall, Callee: "runtime_gc_should_collect"})
	collectBlock := g.newNamedBlock(g.newLabel("gc_collect"))
	afterBlock := g.newNamedBlock(g.newLabel("gc_after"))
	head := g.block
	g.setTermOn(head, ir.Terminator{Kind: ir.TermBranch, Cond: should, Targets: []string{collectBlock.Label, afterBlock.Label}})
	g.block = collectBlock
	g.emit(ir.Instr{Op: ir.OpCall, Callee: "runtime_gc_collect"})
	g.finishBlockInto(afterBlock)
	g.block = afterBlock
}
