// Package types implements Qi's type sum domain: every
// typed AST node carries exactly one of these shapes. Unknown is used
// transiently during inference; Error propagates without triggering
// cascading diagnostics ("Error recovery").
package types

import ("fmt"
	"strings"
)

// Primitive enumerates the built-in scalar and void kinds.
type Primitive int

const (Int Primitive = iota
	Long
	Short
	Byte
	Float
	Bool
	Char
	String
	Void
)

func (p Primitive) String() string {
	return [...]string{"integer", "long", "short", "byte", "float", "boolean", "char", "string", "void"}[p]
}

// Kind discriminates the Type sum domain.
type Kind int

const (KindUnknown Kind = iota
	KindError
	KindPrimitive
	KindFunction
	KindArray
	KindList
	KindDict
	KindSet
	KindOption
	KindResult
	KindAwaitable
	KindNamed // struct / enum / trait handle, resolved by symbol id
	KindReference
	KindMutReference
	KindPointer
)

// Type is an immutable value describing the shape of an expression,
// variable, or function signature. The zero Type is KindUnknown.
type Type struct {
	Kind Kind

	Primitive Primitive // valid when Kind == KindPrimitive

	// KindFunction
	Params []Type
	Result *Type

	// KindArray: Elem + (Len >= 0 for fixed-size arrays, -1 otherwise)
	// KindList/KindDict/KindSet/KindOption/KindResult/KindAwaitable/
	// KindReference/KindMutReference/KindPointer: Elem is the element type.
	Elem *Type
	Len int

	// KindDict: Key is the key type (Elem is the value type).
	Key *Type

	// KindResult: Err is the error-channel type (Elem is the ok type).
	Err *Type

	// KindNamed: SymbolID identifies the struct/enum/trait declaration.
	SymbolID int
	Name string // for diagnostics only; not part of identity
}

// Unknown is the transient placeholder type used before inference runs.
var Unknown = Type{Kind: KindUnknown}

// ErrorType is the marker that suppresses cascading type errors.
var ErrorType = Type{Kind: KindError}

// NewPrimitive constructs a primitive Type.
func NewPrimitive(p Primitive) Type { return Type{Kind: KindPrimitive, Primitive: p} }

// NewArray constructs a fixed- or unknown-length array type. length < 0
// means "not known at compile time" (allocation table).
func NewArray(elem Type, length int) Type {
	return Type{Kind: KindArray, Elem: &elem, Len: length}
}

// NewFunction constructs a function type.
func NewFunction(params []Type, result Type) Type {
	return Type{Kind: KindFunction, Params: params, Result: &result}
}

// NewAwaitable wraps a result type as Awaitable<T> (glossary).
func NewAwaitable(elem Type) Type { return Type{Kind: KindAwaitable, Elem: &elem} }

// NewNamed constructs a handle to a user-defined struct/enum/trait.
func NewNamed(symbolID int, name string) Type {
	return Type{Kind: KindNamed, SymbolID: symbolID, Name: name}
}

// NewReference, NewMutReference, and NewPointer wrap elem in the
// corresponding indirection kind.
func NewReference(elem Type) Type { return Type{Kind: KindReference, Elem: &elem} }
func NewMutReference(elem Type) Type { return Type{Kind: KindMutReference, Elem: &elem} }
func NewPointer(elem Type) Type { return Type{Kind: KindPointer, Elem: &elem} }

// IsConcrete reports whether t is neither Unknown nor Error — the
// invariant requires of every node in a valid AST.
func (t Type) IsConcrete() bool {
	return t.Kind != KindUnknown && t.Kind != KindError
}

// IsNumeric reports whether t is one of the numeric primitives.
func (t Type) IsNumeric() bool {
	if t.Kind != KindPrimitive {
		return false
	}
	switch t.Primitive {
	case Int, Long, Short, Byte, Float:
		return true
	}
	return false
}

// Equal reports structural equality. Assignability in is
// strict structural equality for primitives and named types — no
// implicit numeric widening.
func (t Type) Equal(other Type) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KindUnknown, KindError:
		return true
	case KindPrimitive:
		return t.Primitive == other.Primitive
	case KindFunction:
		if len(t.Params) != len(other.Params) {
			return false
		}
		for i := range t.Params {
			if !t.Params[i].Equal(other.Params[i]) {
				return false
			}
		}
		return t.Result.Equal(*other.Result)
	case KindArray:
		return t.Len == other.Len && t.Elem.Equal(*other.Elem)
	case KindList, KindSet, KindOption, KindAwaitable, KindReference, KindMutReference, KindPointer:
		return t.Elem.Equal(*other.Elem)
	case KindDict:
		return t.Key.Equal(*other.Key) && t.Elem.Equal(*other.Elem)
	case KindResult:
		return t.Elem.Equal(*other.Elem) && t.Err.Equal(*other.Err)
	case KindNamed:
		return t.SymbolID == other.SymbolID
	}
	return false
}

func (t Type) String() string {
	switch t.Kind {
	case KindUnknown:
		return "<unknown>"
	case KindError:
		return "<error>"
	case KindPrimitive:
		return t.Primitive.String()
	case KindFunction:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		return fmt.Sprintf("(%s) -> %s", strings.Join(parts, ", "), t.Result.String())
	case KindArray:
		if t.Len >= 0 {
			return fmt.Sprintf("[%s; %d]", t.Elem.String(), t.Len)
		}
		return fmt.Sprintf("[%s]", t.Elem.String())
	case KindList:
		return fmt.Sprintf("列表<%s>", t.Elem.String())
	case KindDict:
		return fmt.Sprintf("字典<%s, %s>", t.Key.String(), t.Elem.String())
	case KindSet:
		return fmt.Sprintf("集合<%s>", t.Elem.String())
	case KindOption:
		return fmt.Sprintf("选项<%s>", t.Elem.String())
	case KindResult:
		return fmt.Sprintf("结果<%s, %s>", t.Elem.String(), t.Err.String())
	case KindAwaitable:
		return fmt.Sprintf("Awaitable<%s>", t.Elem.String())
	case KindNamed:
		return t.Name
	case KindReference:
		return "引用 " + t.Elem.String()
	case KindMutReference:
		return "可变引用 " + t.Elem.String()
	case KindPointer:
		return "指针 " + t.Elem.String()
	}
	return "?"
}
