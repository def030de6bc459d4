package ops

import "math"

// SinOp represents the sine operation: y = sin(x).
//
// Backward pass:
//   - d(sin(x))/dx = cos(x)
//   - grad_input = grad_output * cos(input)
type SinOp struct{}

// NewSin creates a new SinOp.
func NewSin() *SinOp {
	return &SinOp{}
}

// Name returns "sin".
func (op *SinOp) Name() string { return "sin" }

// Arity returns 1.
func (op *SinOp) Arity() int { return 1 }

// Forward returns sin(x).
func (op *SinOp) Forward(inputs []float64) float64 {
	return math.Sin(inputs[0])
}

// Backward computes input gradient for sin.
//
// Since d(sin(x))/dx = cos(x):
// grad_input = grad_output * cos(input).
func (op *SinOp) Backward(inputs []float64, _, grad float64, dst []float64) {
	dst[0] = grad * math.Cos(inputs[0])
}
