// Package codegen lowers a type-checked Qi AST to Qi's textual SSA IR
// and drives the external toolchain that turns that IR
// into a native executable. Lowering is deterministic: the same
// annotated Program always yields byte-identical IR text.
package codegen

import ("fmt"

	"github.com/qi-lang/qi/internal/ast"
	"github.com/qi-lang/qi/internal/ir"
	"github.com/qi-lang/qi/internal/types"
)

// runtimeDecls is the full prologue of qirt entry points a module might
// call ("IR module prologue"). Generate emits only the
// subset a given module's body actually references, keeping small
// programs' IR text free of unused declarations.
var runtimeDecls = map[string]string{
	"alloc": "declare ptr @runtime_alloc(i64)",
	"free": "declare void @runtime_free(ptr)",
	"retain": "declare void @runtime_retain(ptr)",
	"release": "declare void @runtime_release(ptr)",
	"println_int": "declare i32 @runtime_println_int(i64)",
	"println_float": "declare i32 @runtime_println_float(f64)",
	"println_string": "declare i32 @runtime_println_string(ptr)",
	"string_concat": "declare ptr @runtime_string_concat(ptr, ptr)",
	"string_length": "declare i64 @runtime_string_length(ptr)",
	"string_free": "declare void @runtime_string_free(ptr)",
	"gc_should_collect": "declare i64 @runtime_gc_should_collect",
	"gc_collect": "declare void @runtime_gc_collect",
	"init": "declare void @runtime_init(ptr)",
	"shutdown": "declare void @runtime_shutdown",
	"spawn": "declare ptr @runtime_spawn(ptr, ptr, i32)",
	"await": "declare ptr @runtime_await(ptr)",
	"cancel": "declare void @runtime_cancel(ptr)",
	"join": "declare ptr @runtime_join(ptr)",
}

// heapAllocThreshold is the byte count above which an allocation is
// preceded by a GC-should-collect check (, "1 MiB").
const heapAllocThreshold = 1 << 20

// fixedArrayStackLimit is the element count at or below which a
// fixed-size array is stack-allocated (placement table).
const fixedArrayStackLimit = 64

// Generator lowers one sema-checked Program into an ir.Module.
type Generator struct {
	mod *ir.Module
	needed map[string]bool
	regNum int
	labelNum int

	fn *ir.Function
	block *ir.Block
	locals map[string]ir.Value // variable name -> current SSA value
	loopExit []string
	loopHead []string
}

// New constructs a Generator that will emit into a module named after
// the qualified module path being compiled.
func New(moduleName string) *Generator {
	return &Generator{
		mod: &ir.Module{Name: moduleName},
		needed: map[string]bool{},
		locals: map[string]ir.Value{},
	}
}

func (g *Generator) need(name string) { g.needed[name] = true }

func (g *Generator) newReg(typ string) ir.Value {
	v := ir.Reg(fmt.Sprintf("%%%d", g.regNum), typ)
	g.regNum++
	return v
}

func (g *Generator) newLabel(prefix string) string {
	l := fmt.Sprintf("%s%d", prefix, g.labelNum)
	g.labelNum++
	return l
}

// Generate lowers every item in prog into g's module and returns the
// finished ir.Module (public contract: "given an annotated
// Program... produce... SSA IR").
func (g *Generator) Generate(prog *ast.Program) *ir.Module {
	for _, item := range prog.Items {
		switch it := item.(type) {
		case *ast.FuncDecl:
			g.genFunc(it, "")
		case *ast.ImplDecl:
			for _, m := range it.Methods {
				g.genFunc(m, it.Type)
			}
		}
	}
	for _, name := range sortedNeeded(g.needed) {
		g.mod.RuntimeDecls = append(g.mod.RuntimeDecls, runtimeDecls[name])
	}
	return g.mod
}

func sortedNeeded(needed map[string]bool) []string {
	// Fixed iteration order keeps IR text byte-stable across runs
	// ("the generator is deterministic").
	order := []string{"init", "shutdown", "spawn", "await", "cancel", "join",
		"alloc", "free", "retain", "release", "gc_should_collect", "gc_collect",
		"println_int", "println_float", "println_string",
		"string_concat", "string_length", "string_free"}
	var out []string
	for _, name := range order {
		if needed[name] {
			out = append(out, name)
		}
	}
	return out
}

func irType(t types.Type) string {
	switch t.Kind {
	case types.KindPrimitive:
		switch t.Primitive {
		case types.Int, types.Long:
			return "i64"
		case types.Short:
			return "i16"
		case types.Byte:
			return "i8"
		case types.Float:
			return "f64"
		case types.Bool:
			return "i1"
		case types.Char:
			return "i32"
		case types.String:
			return "ptr"
		case types.Void:
			return "void"
		}
	case types.KindAwaitable:
		return "ptr" // future handle
	}
	return "ptr"
}

func (g *Generator) genFunc(fn *ast.FuncDecl, receiverType string) {
	mangled := Mangle(fn.Name)
	if receiverType != "" {
		mangled = MangleMethod(receiverType, fn.Name)
	}
	retType := irType(fn.ResolvedReturn)
	if mangled == "main" {
		retType = "i32" // POSIX main signature (mangling note)
	}

	irFn := &ir.Function{Name: mangled, ReturnType: retType, Async: fn.Async}
	for _, p := range fn.Params {
		irFn.Params = append(irFn.Params, ir.Param{Name: "%" + p.Name, Type: irType(g.paramType(p))})
	}

	prevFn, prevBlock, prevLocals := g.fn, g.block, g.locals
	g.fn = irFn
	g.locals = map[string]ir.Value{}
	for _, p := range fn.Params {
		g.locals[p.Name] = ir.Reg("%"+p.Name, irType(g.paramType(p)))
	}
	g.block = g.startBlock("entry")

	if fn.Body != nil {
		g.genBlock(fn.Body)
	}
	g.terminateFallthrough(retType)

	if fn.Async {
		irFn.StateFields = g.asyncStateFields(fn)
		g.need("init")
		g.need("await")
		g.need("spawn")
	}

	g.mod.Functions = append(g.mod.Functions, irFn)
	g.fn, g.block, g.locals = prevFn, prevBlock, prevLocals
}

// asyncStateFields approximates "async state-machine
// lowering": every local declared in an async function's body is a
// candidate for living across a suspension point, so each becomes a
// field of the function's resumption state rather than a stack slot.
// A real optimizer would restrict this to locals actually live across
// an await; this generator takes the conservative superset instead.
func (g *Generator) asyncStateFields(fn *ast.FuncDecl) []ir.Param {
	var fields []ir.Param
	for _, p := range fn.Params {
		fields = append(fields, ir.Param{Name: p.Name, Type: irType(g.paramType(p))})
	}
	collectVarDecls(fn.Body, &fields)
	return fields
}

// collectVarDecls walks a statement tree collecting every VarDecl it
// contains, recursing into the compound statement forms that can
// nest a block.
func collectVarDecls(s ast.Stmt, out *[]ir.Param) {
	switch st := s.(type) {
	case *ast.VarDecl:
		*out = append(*out, ir.Param{Name: st.Name, Type: irType(st.ResolvedType)})
	case *ast.BlockStmt:
		for _, inner := range st.Stmts {
			collectVarDecls(inner, out)
		}
	case *ast.IfStmt:
		collectVarDecls(st.Then, out)
		if st.Else != nil {
			collectVarDecls(st.Else, out)
		}
	case *ast.WhileStmt:
		collectVarDecls(st.Body, out)
	case *ast.ForInStmt:
		collectVarDecls(st.Body, out)
	case *ast.LoopStmt:
		collectVarDecls(st.Body, out)
	case *ast.LabeledStmt:
		collectVarDecls(st.Stmt, out)
	case *ast.MatchStmt:
		for i := range st.Arms {
			collectVarDecls(st.Arms[i].Body, out)
		}
	}
}

// paramType returns the type sema resolved for p during type
// resolution (phase 3); genFunc and asyncStateFields lower it to an IR
// type rather than re-deriving it from the written TypeExpr.
func (g *Generator) paramType(p ast.Param) types.Type { return p.ResolvedType }

func (g *Generator) startBlock(label string) *ir.Block {
	b := &ir.Block{Label: label}
	g.fn.Blocks = append(g.fn.Blocks, b)
	return b
}

func (g *Generator) emit(in ir.Instr) {
	g.block.Instrs = append(g.block.Instrs, in)
}

// terminateFallthrough closes a function whose body fell off the end
// without an explicit return: void functions return void, 主 returns 0.
func (g *Generator) terminateFallthrough(retType string) {
	if g.block.Terminated {
		return
	}
	if retType == "void" {
		g.setTerm(ir.Terminator{Kind: ir.TermReturn})
	} else if g.fn.Name == "main" {
		g.setTerm(ir.Terminator{Kind: ir.TermReturn, Value: ir.Const("0", "i32")})
	} else {
		g.setTerm(ir.Terminator{Kind: ir.TermUnreachable})
	}
}

func (g *Generator) setTerm(t ir.Terminator) {
	g.block.Term = t
	g.block.Terminated = true
}

func (g *Generator) genBlock(b *ast.BlockStmt) {
	for _, s := range b.Stmts {
		g.genStmt(s)
	}
}
