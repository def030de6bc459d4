package autodiff_test

import (
	"testing"

	"github.com/born-ml/dagrad/internal/autodiff"
	"github.com/born-ml/dagrad/internal/autodiff/ops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTape_Wiring(t *testing.T) {
	tape := autodiff.NewTape()
	a := tape.Input("a", 1)
	b := tape.Input("b", 2)
	s := tape.Sum(a, b)

	assert.Equal(t, 3, tape.Len())
	assert.Equal(t, []autodiff.NodeID{a, b}, tape.Operands(s))
	assert.Equal(t, []autodiff.NodeID{s}, tape.Consumers(a))
	assert.Equal(t, []autodiff.NodeID{s}, tape.Consumers(b))
	assert.Empty(t, tape.Consumers(s))
	assert.Equal(t, autodiff.KindInput, tape.Kind(a))
	assert.Equal(t, autodiff.KindOperation, tape.Kind(s))
	assert.Equal(t, "sum", tape.Operation(s).Name())
	assert.Nil(t, tape.Operation(a))
}

func TestTape_WireErrors(t *testing.T) {
	tape := autodiff.NewTape()
	x := tape.Input("x", 1)
	p := tape.Param("p", 1)

	prod, err := tape.Declare("prod", ops.NewProduct())
	require.NoError(t, err)
	assert.ErrorIs(t, tape.Wire(prod, x), autodiff.ErrInvalidNode, "wrong arity")
	assert.ErrorIs(t, tape.Wire(prod, x, 42), autodiff.ErrInvalidNode, "unknown operand")
	require.NoError(t, tape.Wire(prod, x, p))
	assert.ErrorIs(t, tape.Wire(prod, x, p), autodiff.ErrInvalidNode, "wired twice")

	sum, err := tape.Declare("sum", ops.NewSum())
	require.NoError(t, err)
	assert.ErrorIs(t, tape.Wire(sum), autodiff.ErrInvalidNode, "empty sum")

	scale, err := tape.Declare("scale", ops.NewMulParam())
	require.NoError(t, err)
	err = tape.Wire(scale, p, x)
	require.ErrorIs(t, err, autodiff.ErrInvalidNode, "input in parameter slot")
	assert.Contains(t, err.Error(), `mul_param "scale"`)

	assert.ErrorIs(t, tape.Wire(x, p), autodiff.ErrInvalidNode, "wiring a leaf")

	_, err = tape.DeclareLeaf("bad", autodiff.KindOperation, 0)
	assert.ErrorIs(t, err, autodiff.ErrInvalidNode)
	_, err = tape.Declare("nil", nil)
	assert.ErrorIs(t, err, autodiff.ErrInvalidNode)
}

func TestTape_ConstructorPanics(t *testing.T) {
	tape := autodiff.NewTape()
	x := tape.Input("x", 1)

	assert.Panics(t, func() { tape.AddParam(x, x) })
	assert.Panics(t, func() { tape.Sum() })
	assert.Panics(t, func() { tape.Sin(autodiff.NodeID(100)) })
}

func TestTape_SetValue(t *testing.T) {
	tape := autodiff.NewTape()
	x := tape.Input("x", 1)
	s := tape.Sin(x)

	require.NoError(t, tape.SetValue(x, 3))
	v, err := tape.LeafValue(x)
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)

	assert.ErrorIs(t, tape.SetValue(s, 1), autodiff.ErrInvalidNode)
	_, err = tape.LeafValue(s)
	assert.ErrorIs(t, err, autodiff.ErrInvalidNode)
}

func TestTape_Lookup(t *testing.T) {
	tape := autodiff.NewTape()
	x := tape.Input("x", 1)
	s := tape.SetName(tape.Sin(x), "s")

	id, ok := tape.Lookup("s")
	require.True(t, ok)
	assert.Equal(t, s, id)
	assert.Equal(t, "s", tape.Name(s))

	_, ok = tape.Lookup("missing")
	assert.False(t, ok)
}

func TestKindAndStateStrings(t *testing.T) {
	assert.Equal(t, "parameter", autodiff.KindParameter.String())
	assert.Equal(t, "input", autodiff.KindInput.String())
	assert.Equal(t, "operation", autodiff.KindOperation.String())
	assert.True(t, autodiff.KindParameter.IsLeaf())
	assert.False(t, autodiff.KindOperation.IsLeaf())

	assert.Equal(t, "forward-pending", autodiff.StateForwardPending.String())
	assert.Equal(t, "forward-done", autodiff.StateForwardDone.String())
	assert.Equal(t, "backward-done", autodiff.StateBackwardDone.String())
}
