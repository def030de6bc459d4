package autodiff_test

import (
	"testing"

	"github.com/born-ml/dagrad/internal/autodiff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaves(ids ...autodiff.NodeID) []autodiff.NodeID { return ids }

// TestEndToEnd_PowerLoss tests L = p² at p = 2.
func TestEndToEnd_PowerLoss(t *testing.T) {
	tape := autodiff.NewTape()
	p := tape.Param("p", 2)
	sq := tape.Power(p, 2)
	loss := tape.Loss(sq)

	g, err := autodiff.NewGraph(tape, leaves(p), leaves(sq), loss)
	require.NoError(t, err)
	require.NoError(t, g.Run())

	v, err := g.LossValue()
	require.NoError(t, err)
	assert.InDelta(t, 4.0, v, 1e-12)

	params := g.Parameters()
	require.Len(t, params, 1)
	assert.Equal(t, "p", params[0].Name())
	assert.InDelta(t, 4.0, params[0].Grad(), 1e-12)

	lossGrad, err := g.Grad(loss)
	require.NoError(t, err)
	assert.Equal(t, 1.0, lossGrad)
}

// TestFanOutAccumulation tests L = p*2 + p*3 at p = 1: both contributions add up.
func TestFanOutAccumulation(t *testing.T) {
	tape := autodiff.NewTape()
	p := tape.Param("p", 1)
	two := tape.Input("two", 2)
	three := tape.Input("three", 3)
	a := tape.Product(p, two)
	b := tape.Product(p, three)
	loss := tape.Loss(tape.Sum(a, b))

	g, err := autodiff.NewGraph(tape, leaves(p, two, three), nil, loss)
	require.NoError(t, err)
	require.NoError(t, g.Run())

	assert.InDelta(t, 5.0, g.Parameters()[0].Grad(), 1e-12)

	// Each edge keeps its own contribution
	ga, err := tape.EdgeGrad(a, 0)
	require.NoError(t, err)
	gb, err := tape.EdgeGrad(b, 0)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, ga, 1e-12)
	assert.InDelta(t, 3.0, gb, 1e-12)
}

// TestSameOperandTwice tests Product(x, x) registers two edges: d(x²)/dx = 2x.
func TestSameOperandTwice(t *testing.T) {
	tape := autodiff.NewTape()
	x := tape.Param("x", 3)
	sq := tape.Product(x, x)
	loss := tape.Loss(sq)

	assert.Equal(t, []autodiff.NodeID{sq, sq}, tape.Consumers(x))

	g, err := autodiff.NewGraph(tape, leaves(x), nil, loss)
	require.NoError(t, err)
	require.NoError(t, g.Run())

	assert.InDelta(t, 6.0, g.Parameters()[0].Grad(), 1e-12)
}

// TestParamOps tests AddParam and MulParam push gradients to both operands.
func TestParamOps(t *testing.T) {
	tape := autodiff.NewTape()
	x := tape.Input("x", 4)
	w := tape.Param("w", 0.5)
	b := tape.Param("b", 1)
	y := tape.AddParam(tape.MulParam(x, w), b) // y = x*w + b
	loss := tape.Loss(tape.Power(y, 2))        // L = y²

	g, err := autodiff.NewGraph(tape, leaves(x, w, b), leaves(y), loss)
	require.NoError(t, err)
	require.NoError(t, g.Run())

	yv, err := g.Value(y)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, yv, 1e-12)

	params := g.Parameters()
	require.Len(t, params, 2)
	assert.Equal(t, "w", params[0].Name())
	assert.Equal(t, "b", params[1].Name())
	assert.InDelta(t, 2*3.0*4, params[0].Grad(), 1e-12) // dL/dw = 2y·x
	assert.InDelta(t, 2*3.0, params[1].Grad(), 1e-12)   // dL/db = 2y

	xGrad, err := g.Grad(x)
	require.NoError(t, err)
	assert.InDelta(t, 2*3.0*0.5, xGrad, 1e-12) // inputs get gradients too, nobody reads them
}

// TestIdempotentRun tests two runs with unchanged leaves give identical results.
func TestIdempotentRun(t *testing.T) {
	tape := autodiff.NewTape()
	x := tape.Input("x", 0.7)
	w := tape.Param("w", 1.3)
	s := tape.Sin(tape.MulParam(x, w))
	loss := tape.Loss(tape.Sum(s, tape.Power(s, 3)))

	g, err := autodiff.NewGraph(tape, leaves(x, w), leaves(s), loss)
	require.NoError(t, err)

	snapshot := func() []float64 {
		require.NoError(t, g.Run())
		var out []float64
		for _, id := range g.Order() {
			v, err := g.Value(id)
			require.NoError(t, err)
			gr, err := g.Grad(id)
			require.NoError(t, err)
			out = append(out, v, gr)
		}
		return out
	}

	first := snapshot()
	second := snapshot()
	assert.Equal(t, first, second)
	assert.Equal(t, 2, g.Runs())
}

// TestInputRebinding tests a new sample takes effect on the next run.
func TestInputRebinding(t *testing.T) {
	tape := autodiff.NewTape()
	x := tape.Input("x", 1)
	w := tape.Param("w", 2)
	loss := tape.Loss(tape.MulParam(x, w))

	g, err := autodiff.NewGraph(tape, leaves(x, w), nil, loss)
	require.NoError(t, err)
	require.NoError(t, g.Run())
	assert.InDelta(t, 1.0, g.Parameters()[0].Grad(), 1e-12)

	in, ok := g.Input("x")
	require.True(t, ok)
	in.SetValue(5)
	require.NoError(t, g.Run())

	v, err := g.LossValue()
	require.NoError(t, err)
	assert.InDelta(t, 10.0, v, 1e-12)
	assert.InDelta(t, 5.0, g.Parameters()[0].Grad(), 1e-12)
}

// TestNoResultYet tests reads before any run fail.
func TestNoResultYet(t *testing.T) {
	tape := autodiff.NewTape()
	p := tape.Param("p", 2)
	loss := tape.Loss(p)

	g, err := autodiff.NewGraph(tape, leaves(p), nil, loss)
	require.NoError(t, err)

	_, err = g.LossValue()
	assert.ErrorIs(t, err, autodiff.ErrNoResultYet)
	_, err = g.Grad(p)
	assert.ErrorIs(t, err, autodiff.ErrNoResultYet)
	assert.Equal(t, 0.0, g.Parameters()[0].Grad())
	assert.Equal(t, 2.0, g.Parameters()[0].Value())
}

// TestOutputs tests any node can be an output, including the loss itself and
// nodes that do not feed the loss.
func TestOutputs(t *testing.T) {
	tape := autodiff.NewTape()
	p := tape.Param("p", 3)
	side := tape.Sin(p) // not an ancestor of the loss
	loss := tape.Loss(tape.Power(p, 2))

	g, err := autodiff.NewGraph(tape, leaves(p), leaves(side, loss), loss)
	require.NoError(t, err)
	require.NoError(t, g.Run())

	sv, err := g.Value(side)
	require.NoError(t, err)
	assert.InDelta(t, 0.1411200080598672, sv, 1e-12)

	sg, err := g.Grad(side)
	require.NoError(t, err)
	assert.Equal(t, 0.0, sg)
	assert.InDelta(t, 6.0, g.Parameters()[0].Grad(), 1e-12)
	assert.Equal(t, []autodiff.NodeID{side, loss}, g.Outputs())
}

// TestLossWithConsumer tests the loss stays its own seed when something reads it.
func TestLossWithConsumer(t *testing.T) {
	tape := autodiff.NewTape()
	p := tape.Param("p", 2)
	loss := tape.Loss(tape.Power(p, 2))
	report := tape.Power(loss, 0.5)

	g, err := autodiff.NewGraph(tape, leaves(p), leaves(report), loss)
	require.NoError(t, err)
	require.NoError(t, g.Run())

	lg, err := g.Grad(loss)
	require.NoError(t, err)
	assert.Equal(t, 1.0, lg)
	assert.InDelta(t, 4.0, g.Parameters()[0].Grad(), 1e-12)

	rv, err := g.Value(report)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, rv, 1e-12)
}
