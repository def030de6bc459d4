package ops

// LossOp marks the node every gradient is taken with respect to: output = x.
//
// The loss is its own gradient seed: its upstream gradient is always 1,
// whatever consumes it, and it pushes 1 to its operand.
type LossOp struct{}

// NewLoss creates a new LossOp.
func NewLoss() *LossOp {
	return &LossOp{}
}

// Name returns "loss".
func (op *LossOp) Name() string { return "loss" }

// Arity returns 1.
func (op *LossOp) Arity() int { return 1 }

// Seed returns 1 (dL/dL).
func (op *LossOp) Seed() float64 { return 1 }

// Forward returns its operand unchanged.
func (op *LossOp) Forward(inputs []float64) float64 {
	return inputs[0]
}

// Backward pushes 1 to the operand.
func (op *LossOp) Backward(_ []float64, _, _ float64, dst []float64) {
	dst[0] = 1
}
