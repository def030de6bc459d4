package ops

// SumOp represents variadic addition: output = x₁ + x₂ + ... + xₙ.
//
// Backward pass:
//   - d(Σx)/dxᵢ = 1, so every operand receives the upstream gradient unchanged
type SumOp struct{}

// NewSum creates a new SumOp.
func NewSum() *SumOp {
	return &SumOp{}
}

// Name returns "sum".
func (op *SumOp) Name() string { return "sum" }

// Arity returns Variadic.
func (op *SumOp) Arity() int { return Variadic }

// Forward returns the sum of all inputs.
func (op *SumOp) Forward(inputs []float64) float64 {
	var sum float64
	for _, x := range inputs {
		sum += x
	}
	return sum
}

// Backward passes grad through to every operand.
func (op *SumOp) Backward(_ []float64, _, grad float64, dst []float64) {
	for i := range dst {
		dst[i] = grad
	}
}
