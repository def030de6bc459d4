package ops

import (
	"fmt"
	"math"
)

// PowerOp raises its operand to a constant exponent: output = x^p.
//
// Backward pass:
//   - d(x^p)/dx = p * x^(p-1)
type PowerOp struct {
	exponent float64
}

// NewPower creates a new PowerOp with the given constant exponent.
func NewPower(exponent float64) *PowerOp {
	return &PowerOp{exponent: exponent}
}

// Exponent returns the constant exponent p.
func (op *PowerOp) Exponent() float64 {
	return op.exponent
}

// Name returns "pow(p)".
func (op *PowerOp) Name() string { return fmt.Sprintf("pow(%g)", op.exponent) }

// Arity returns 1.
func (op *PowerOp) Arity() int { return 1 }

// Forward returns x^p.
func (op *PowerOp) Forward(inputs []float64) float64 {
	return math.Pow(inputs[0], op.exponent)
}

// Backward computes grad * p * x^(p-1).
func (op *PowerOp) Backward(inputs []float64, _, grad float64, dst []float64) {
	dst[0] = grad * op.exponent * math.Pow(inputs[0], op.exponent-1)
}
