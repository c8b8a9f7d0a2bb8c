package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueStringConstVsReg(t *testing.T) {
	assert.Equal(t, "42", Const("42", "i64").String())
	assert.Equal(t, "%3", Reg("%3", "i64").String())
}

func TestInstrStringCallFormatsArgs(t *testing.T) {
	in := Instr{
		Result: Reg("%0", "i64"),
		Op:     OpCall,
		Callee: "runtime_println_int",
		Args:   []Value{Const("1", "i64")},
	}
	assert.Equal(t, "%0 = call runtime_println_int(1)", in.String())
}

func TestTerminatorStringVariants(t *testing.T) {
	assert.Equal(t, "ret void", Terminator{Kind: TermReturn}.String())
	assert.Equal(t, "ret 7", Terminator{Kind: TermReturn, Value: Const("7", "i64")}.String())
	assert.Equal(t, "jmp L1", Terminator{Kind: TermJump, Targets: []string{"L1"}}.String())
	assert.Equal(t, "br %0, then, else", Terminator{Kind: TermBranch, Cond: Reg("%0", "i1"), Targets: []string{"then", "else"}}.String())
}

func TestModuleTextIncludesRuntimeDeclsAndFunctions(t *testing.T) {
	mod := &Module{
		Name:         "demo",
		RuntimeDecls: []string{"declare i32 @runtime_println_int(i64)"},
		Functions: []*Function{
			{
				Name:       "main",
				ReturnType: "i32",
				Blocks: []*Block{
					{Label: "entry", Term: Terminator{Kind: TermReturn, Value: Const("0", "i32")}, Terminated: true},
				},
			},
		},
	}
	text := mod.Text()
	assert.Contains(t, text, "; module demo")
	assert.Contains(t, text, "declare i32 @runtime_println_int(i64)")
	assert.Contains(t, text, "func main(")
	assert.Contains(t, text, "ret 0")
}

func TestBlockTerminatedDefaultsFalse(t *testing.T) {
	b := &Block{Label: "entry"}
	assert.False(t, b.Terminated)
}
