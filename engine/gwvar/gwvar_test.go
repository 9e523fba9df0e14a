package gwvar

import (
	"expvar"
	"testing"

	"github.com/bmizerany/assert"
)

func TestVars(t *testing.T) {
	b := NewBool("TestVarsBool")
	assert.T(t, !b.Value())
	b.Set(true)
	assert.T(t, b.Value())
	assert.Equal(t, "1", expvar.Get("TestVarsBool").String())

	i := NewInt("TestVarsInt")
	i.Set(5)
	i.Add(-2)
	assert.Equal(t, int64(3), i.Value())
}
