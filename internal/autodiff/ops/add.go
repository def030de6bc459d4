package ops

// AddParamOp shifts a node by a trainable parameter: output = x + param.
//
// The second operand must be a Parameter leaf; the tape enforces this when
// the node is wired.
//
// Backward pass:
//   - d(x+param)/dx = 1, so grad_x = grad
//   - d(x+param)/dparam = 1, so grad_param = grad
type AddParamOp struct{}

// NewAddParam creates a new AddParamOp.
func NewAddParam() *AddParamOp {
	return &AddParamOp{}
}

// Name returns "add_param".
func (op *AddParamOp) Name() string { return "add_param" }

// Arity returns 2.
func (op *AddParamOp) Arity() int { return 2 }

// ParamSlot returns the operand slot that must hold a Parameter.
func (op *AddParamOp) ParamSlot() int { return 1 }

// Forward returns x + param.
func (op *AddParamOp) Forward(inputs []float64) float64 {
	return inputs[0] + inputs[1]
}

// Backward passes grad through to both operands.
func (op *AddParamOp) Backward(_ []float64, _, grad float64, dst []float64) {
	dst[0] = grad
	dst[1] = grad
}
