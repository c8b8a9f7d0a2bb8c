// Package ast defines Qi's abstract syntax tree. The AST
// is total: parse errors never leave a nil child, they leave an explicit
// *BadExpr or *BadStmt carrying the span where recovery happened, so a
// file with several syntax errors still yields one fully navigable tree.
package ast

import ("github.com/qi-lang/qi/internal/span"
	"github.com/qi-lang/qi/internal/types"
)

// Visibility is an item's exported-ness (: "visibility
// (public / private-default)").
type Visibility int

const (Private Visibility = iota
	Public
)

// Node is implemented by every AST node; it exposes the node's span for
// diagnostics and tooling.
type Node interface {
	Span() span.Span
}

// Program is the top-level node: an optional package name, a resolved
// import list, and the item declarations.
type Program struct {
	Package *PackageDecl
	Imports []*ImportDecl
	Items []Item
	SpanVal span.Span
}

func (p *Program) Span() span.Span { return p.SpanVal }

// PackageDecl is the optional `包 name;` declaration.
type PackageDecl struct {
	Name string
	SpanVal span.Span
}

func (p *PackageDecl) Span() span.Span { return p.SpanVal }

// ImportDecl is one `导入 a.b.c 别名 x;` declaration: a dotted module
// path and an optional local alias.
type ImportDecl struct {
	Path []string // dotted segments, e.g. ["std", "io"]
	Alias string // "" when no alias was given
	SpanVal span.Span
}

func (i *ImportDecl) Span() span.Span { return i.SpanVal }

// Item is any top-level declaration: function, struct, enum, trait,
// impl block, type alias, constant, or static.
type Item interface {
	Node
	itemNode()
	Vis() Visibility
}

type ItemBase struct {
	Visibility Visibility
	SpanVal span.Span
}

func (b ItemBase) itemNode() {}
func (b ItemBase) Span() span.Span { return b.SpanVal }
func (b ItemBase) Vis() Visibility { return b.Visibility }

// FuncDecl is a function declaration, `异步? 函数 name(params) -> type block`.
type FuncDecl struct {
	ItemBase
	Async bool
	Name string
	Params []Param
	ReturnType *TypeExpr // nil means void
	Body *BlockStmt
	ResolvedReturn types.Type
	Receiver *Param // non-nil for impl-block methods
}

// Param is one `name: type` function parameter.
type Param struct {
	Name string
	Type *TypeExpr
	ResolvedType types.Type
	SpanVal span.Span
}

func (p Param) Span() span.Span { return p.SpanVal }

// StructDecl declares a struct's fields.
type StructDecl struct {
	ItemBase
	Name string
	Fields []FieldDecl
}

// FieldDecl is one struct field, with an optional default-value
// expression used to fill partially-specified struct literals.
type FieldDecl struct {
	Visibility Visibility
	Name string
	Type *TypeExpr
	Default Expr // nil when the field has no default
	SpanVal span.Span
}

func (f FieldDecl) Span() span.Span { return f.SpanVal }

// EnumDecl declares an enum's variants.
type EnumDecl struct {
	ItemBase
	Name string
	Variants []EnumVariant
}

// EnumVariant is one enum case, optionally carrying typed payload fields
// (a tuple-like variant) used by match-arm patterns.
type EnumVariant struct {
	Name string
	Payload []*TypeExpr
	SpanVal span.Span
}

func (v EnumVariant) Span() span.Span { return v.SpanVal }

// TraitDecl declares a trait's method signatures.
type TraitDecl struct {
	ItemBase
	Name string
	Methods []*FuncDecl // bodies are nil for abstract signatures
}

// ImplDecl is an `实现 Trait 对于 Type {... }` or `实现 Type {... }` block.
type ImplDecl struct {
	ItemBase
	Trait string // "" for an inherent impl
	Type string
	Methods []*FuncDecl
}

// TypeAliasDecl is `类型 Name = Type;`.
type TypeAliasDecl struct {
	ItemBase
	Name string
	Type *TypeExpr
}

// ConstDecl and StaticDecl are module-scope constant/static bindings.
type ConstDecl struct {
	ItemBase
	Name string
	Type *TypeExpr // may be nil, inferred from Value
	Value Expr
}

type StaticDecl struct {
	ItemBase
	Name string
	Type *TypeExpr
	Value Expr
}

func (d *FuncDecl) Span() span.Span { return d.ItemBase.Span() }
func (d *StructDecl) Span() span.Span { return d.ItemBase.Span() }
func (d *EnumDecl) Span() span.Span { return d.ItemBase.Span() }
func (d *TraitDecl) Span() span.Span { return d.ItemBase.Span() }
func (d *ImplDecl) Span() span.Span { return d.ItemBase.Span() }
func (d *TypeAliasDecl) Span() span.Span { return d.ItemBase.Span() }
func (d *ConstDecl) Span() span.Span { return d.ItemBase.Span() }
func (d *StaticDecl) Span() span.Span { return d.ItemBase.Span() }

func (d *FuncDecl) itemNode() {}
func (d *StructDecl) itemNode() {}
func (d *EnumDecl) itemNode() {}
func (d *TraitDecl) itemNode() {}
func (d *ImplDecl) itemNode() {}
func (d *TypeAliasDecl) itemNode() {}
func (d *ConstDecl) itemNode() {}
func (d *StaticDecl) itemNode() {}

func (d *FuncDecl) Vis() Visibility { return d.ItemBase.Vis() }
func (d *StructDecl) Vis() Visibility { return d.ItemBase.Vis() }
func (d *EnumDecl) Vis() Visibility { return d.ItemBase.Vis() }
func (d *TraitDecl) Vis() Visibility { return d.ItemBase.Vis() }
func (d *ImplDecl) Vis() Visibility { return d.ItemBase.Vis() }
func (d *TypeAliasDecl) Vis() Visibility { return d.ItemBase.Vis() }
func (d *ConstDecl) Vis() Visibility { return d.ItemBase.Vis() }
func (d *StaticDecl) Vis() Visibility { return d.ItemBase.Vis() }

// NewItem constructs the shared ItemBase embedded by every Item.
func NewItem(vis Visibility, sp span.Span) ItemBase { return ItemBase{Visibility: vis, SpanVal: sp} }

// TypeExpr is a type reference as written in source, before resolution
// (grammar rule `type`).
type TypeExpr struct {
	// Exactly one of the following describes the written form.
	Primitive string // "整数", "浮点数",... or "" when not primitive
	Name string // user-defined type name, or container name (列表/字典/集合/选项/结果)
	Args []*TypeExpr // type-arguments for parameterized containers
	Ref *TypeExpr // non-nil for `引用 T`
	MutRef *TypeExpr // non-nil for `可变引用 T`
	Ptr *TypeExpr // non-nil for `指针 T`
	ArrayElem *TypeExpr // non-nil for `[T]` / `[T; N]`
	ArrayLen int // -1 when unspecified
	SpanVal span.Span
}

func (t *TypeExpr) Span() span.Span { return t.SpanVal }

// ---- Statements ----

// Stmt is any statement node.
type Stmt interface {
	Node
	stmtNode()
}

type StmtBase struct{ SpanVal span.Span }

func (b StmtBase) stmtNode() {}
func (b StmtBase) Span() span.Span { return b.SpanVal }

// VarDecl is `变量|常量 name (: type)? (= expr)?;`.
type VarDecl struct {
	StmtBase
	Mutable bool
	Name string
	Type *TypeExpr
	Init Expr // nil when uninitialized
	ResolvedType types.Type
}

// ExprStmt wraps a bare expression statement.
type ExprStmt struct {
	StmtBase
	X Expr
}

// ReturnStmt is `返回 expr?;`.
type ReturnStmt struct {
	StmtBase
	Value Expr // nil for bare `return;`
}

// BreakStmt and ContinueStmt optionally name an enclosing loop label.
type BreakStmt struct {
	StmtBase
	Label string
}

type ContinueStmt struct {
	StmtBase
	Label string
}

// GotoStmt and LabeledStmt implement the goto/label construct SPEC_FULL
// restores to the grammar (lists `goto` as a keyword; the
// grammar outline in §4.2 never finishes specifying it).
type GotoStmt struct {
	StmtBase
	Label string
}

type LabeledStmt struct {
	StmtBase
	Label string
	Stmt Stmt
}

// IfStmt is `如果 cond block (否则 (if | block))?`.
type IfStmt struct {
	StmtBase
	Cond Expr
	Then *BlockStmt
	Else Stmt // *IfStmt, *BlockStmt, or nil
}

// WhileStmt is `当 cond block`.
type WhileStmt struct {
	StmtBase
	Cond Expr
	Body *BlockStmt
}

// ForInStmt is `对于 name 属于 iter block`.
type ForInStmt struct {
	StmtBase
	Var string
	Iter Expr
	Body *BlockStmt
}

// LoopStmt is an unconditional `循环 block`, exited only via break.
type LoopStmt struct {
	StmtBase
	Body *BlockStmt
}

// MatchStmt is `匹配 expr { arm* }`.
type MatchStmt struct {
	StmtBase
	Subject Expr
	Arms []MatchArm
}

// MatchArm is one `case pattern (如果 guard)?: block` arm. Guard is
// SPEC_FULL's restoration of conditional arms (see SPEC_FULL.md §4).
type MatchArm struct {
	Pattern Pattern
	Guard Expr // nil when the arm is unguarded
	Body *BlockStmt
	SpanVal span.Span
}

func (a MatchArm) Span() span.Span { return a.SpanVal }

// Pattern is a match-arm pattern: a literal, a binding identifier, a
// wildcard `_`, or an enum-variant deconstruction.
type Pattern struct {
	Wildcard bool
	Ident string // binding name, or "" for Wildcard/EnumVariant-only
	Literal Expr // non-nil for a literal pattern
	Variant string // non-nil (non-empty) for an enum-variant pattern
	Binds []string // sub-bindings for a variant's payload fields
	SpanVal span.Span
}

func (p Pattern) Span() span.Span { return p.SpanVal }

// BlockStmt is a `{ stmt* }` sequence introducing a new scope.
type BlockStmt struct {
	StmtBase
	Stmts []Stmt
}

// BadStmt is the explicit error node parser recovery inserts in place of
// a statement it could not parse ("Error recovery").
type BadStmt struct {
	StmtBase
	Reason string
}

func (*VarDecl) stmtNode() {}
func (*ExprStmt) stmtNode() {}
func (*ReturnStmt) stmtNode() {}
func (*BreakStmt) stmtNode() {}
func (*ContinueStmt) stmtNode() {}
func (*GotoStmt) stmtNode() {}
func (*LabeledStmt) stmtNode() {}
func (*IfStmt) stmtNode() {}
func (*WhileStmt) stmtNode() {}
func (*ForInStmt) stmtNode() {}
func (*LoopStmt) stmtNode() {}
func (*MatchStmt) stmtNode() {}
func (*BlockStmt) stmtNode() {}
func (*BadStmt) stmtNode() {}

// NewStmt constructs the shared StmtBase embedded by every Stmt.
func NewStmt(sp span.Span) StmtBase { return StmtBase{SpanVal: sp} }

// ---- Expressions ----

// Expr is any expression node (operator-precedence tree).
// Every Expr carries a resolved Type once the semantic analyzer has run
// (invariant: "every expression... has a concrete type").
type Expr interface {
	Node
	exprNode()
	Type() types.Type
	SetType(types.Type)
}

type ExprBase struct {
	SpanVal span.Span
	Typ types.Type
}

func (b ExprBase) exprNode() {}
func (b ExprBase) Span() span.Span { return b.SpanVal }
func (b *ExprBase) Type() types.Type { return b.Typ }
func (b *ExprBase) SetType(t types.Type) { b.Typ = t }

// NewExpr constructs the shared ExprBase embedded by every Expr.
func NewExpr(sp span.Span) ExprBase { return ExprBase{SpanVal: sp, Typ: types.Unknown} }

// LiteralExpr is an integer, float, string, char, or boolean constant.
type LiteralExpr struct {
	ExprBase
	Kind LiteralKind
	Int int64
	Float float64
	Str string
	Char rune
	Bool bool
}

type LiteralKind int

const (LitInt LiteralKind = iota
	LitFloat
	LitString
	LitChar
	LitBool
)

// IdentExpr is a bare identifier reference, resolved to a symbol by sema.
type IdentExpr struct {
	ExprBase
	Name string
	SymbolID int // filled in by sema; 0 when unresolved
}

// AssignExpr is `target = value` (right-associative,).
type AssignExpr struct {
	ExprBase
	Target Expr
	Value Expr
}

// BinaryExpr covers every binary operator level (logical, equality,
// comparison, additive, multiplicative).
type BinaryExpr struct {
	ExprBase
	Op BinOp
	Left Expr
	Right Expr
}

type BinOp int

const (OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNeq
	OpLt
	OpGt
	OpLe
	OpGe
	OpAnd
	OpOr
)

// UnaryExpr covers `!x`, `-x`, and `等待 x` (await binds as a unary
// prefix operator, grammar rule `unary`).
type UnaryExpr struct {
	ExprBase
	Op UnaryOp
	X Expr
}

type UnaryOp int

const (OpNot UnaryOp = iota
	OpNeg
	OpAwait
	OpYield
)

// CallExpr is `callee(args...)`.
type CallExpr struct {
	ExprBase
	Callee Expr
	Args []Expr
}

// IndexExpr is `x[index]`.
type IndexExpr struct {
	ExprBase
	X Expr
	Index Expr
}

// FieldExpr is `x.field`.
type FieldExpr struct {
	ExprBase
	X Expr
	Field string
}

// ClosureExpr is an anonymous `闭包 (params) -> type block` (or bare
// `闭包 (params) block` with inferred return type) expression.
type ClosureExpr struct {
	ExprBase
	Params []ast_Param
	ReturnType *TypeExpr
	Body *BlockStmt
	Captures []string // filled in by sema: free variables captured by value
}

// ast_Param avoids importing this package from itself; identical shape
// to Param, used only inside ClosureExpr literals.
type ast_Param = Param

// StructLiteralExpr is `TypeName { field: value,... }`. Fields omitted
// here are filled from the struct declaration's defaults by sema; an
// omitted field whose declaration has no default stays absent
// (SPEC_FULL.md §4, "Struct field default values").
type StructLiteralExpr struct {
	ExprBase
	TypeName string
	Fields map[string]Expr
	FieldOrder []string
}

// ArrayLiteralExpr is `[e1, e2,...]`.
type ArrayLiteralExpr struct {
	ExprBase
	Elems []Expr
}

// BadExpr is the explicit error node inserted by parser recovery in
// place of an expression it could not parse.
type BadExpr struct {
	ExprBase
	Reason string
}

func (*LiteralExpr) exprNode() {}
func (*IdentExpr) exprNode() {}
func (*AssignExpr) exprNode() {}
func (*BinaryExpr) exprNode() {}
func (*UnaryExpr) exprNode() {}
func (*CallExpr) exprNode() {}
func (*IndexExpr) exprNode() {}
func (*FieldExpr) exprNode() {}
func (*ClosureExpr) exprNode() {}
func (*StructLiteralExpr) exprNode() {}
func (*ArrayLiteralExpr) exprNode() {}
func (*BadExpr) exprNode() {}
