// Package ops defines the local rules of every scalar operation kind.
//
// An Operation knows nothing about graph wiring or pass ordering; it maps the
// cached values of its operands to an output value (Forward) and maps the
// upstream gradient of its output to one contribution per operand slot
// (Backward). The autodiff package owns the state machine that decides when
// each of them may run.
//
// Supported operations:
//   - SumOp: variadic addition (d(Σx)/dxᵢ = 1)
//   - ProductOp: a·b (d/da = b, d/db = a)
//   - PowerOp: xᵖ with a constant exponent (d/dx = p·x^(p-1))
//   - SinOp: sin(x) (d/dx = cos(x))
//   - AddParamOp: x + param (d/dx = d/dparam = 1)
//   - MulParamOp: x · param (d/dx = param, d/dparam = x)
//   - LossOp: identity marker that seeds the backward pass with 1
package ops

// Variadic is the Arity of operations that accept any positive number of operands.
const Variadic = -1

// Operation is the local forward and derivative rule of a node kind.
type Operation interface {
	// Name returns the kind name used in descriptions and error messages.
	Name() string

	// Arity returns the exact operand count, or Variadic.
	Arity() int

	// Forward computes the output from the operands' cached values.
	Forward(inputs []float64) float64

	// Backward writes d(loss)/d(operand) for every operand slot into dst,
	// given the operands' values, this node's output and its accumulated
	// upstream gradient. len(dst) == len(inputs).
	//
	// Example for ProductOp:
	//   inputs: [a, b]
	//   grad:   dL/d(a·b)
	//   dst:    [grad·b, grad·a]
	Backward(inputs []float64, output, grad float64, dst []float64)
}

// Seeder is implemented by operations whose own upstream gradient is fixed
// rather than pulled from their consumers. The loss marker is the only one.
type Seeder interface {
	Seed() float64
}
