package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMangleMainException(t *testing.T) {
	assert.Equal(t, "main", Mangle("主"))
}

func TestMangleASCIIPassthrough(t *testing.T) {
	assert.Equal(t, "add", Mangle("add"))
}

func TestMangleNonASCIIPassthrough(t *testing.T) {
	assert.Equal(t, "你好", Mangle("你好"))
}

func TestMangleMethodQualifiesByReceiver(t *testing.T) {
	a := MangleMethod("盒子", "打开")
	b := MangleMethod("门", "打开")
	assert.NotEqual(t, a, b)
	assert.Equal(t, "盒子.打开", a)
	assert.Equal(t, "门.打开", b)
}
