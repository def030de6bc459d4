package ops

// MulParamOp scales a node by a trainable parameter: output = x * param.
//
// The second operand must be a Parameter leaf; the tape enforces this when
// the node is wired.
//
// Backward pass:
//   - d(x*param)/dx = param, so grad_x = grad * param
//   - d(x*param)/dparam = x, so grad_param = grad * x
type MulParamOp struct{}

// NewMulParam creates a new MulParamOp.
func NewMulParam() *MulParamOp {
	return &MulParamOp{}
}

// Name returns "mul_param".
func (op *MulParamOp) Name() string { return "mul_param" }

// Arity returns 2.
func (op *MulParamOp) Arity() int { return 2 }

// ParamSlot returns the operand slot that must hold a Parameter.
func (op *MulParamOp) ParamSlot() int { return 1 }

// Forward returns x * param.
func (op *MulParamOp) Forward(inputs []float64) float64 {
	return inputs[0] * inputs[1]
}

// Backward computes input gradients for the scaling.
func (op *MulParamOp) Backward(inputs []float64, _, grad float64, dst []float64) {
	x, param := inputs[0], inputs[1]
	dst[0] = grad * param
	dst[1] = grad * x
}
