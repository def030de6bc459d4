package ops

// ProductOp represents multiplication of two nodes: output = a * b.
//
// Backward pass:
//   - d(a*b)/da = b, so grad_a = grad * b
//   - d(a*b)/db = a, so grad_b = grad * a
type ProductOp struct{}

// NewProduct creates a new ProductOp.
func NewProduct() *ProductOp {
	return &ProductOp{}
}

// Name returns "product".
func (op *ProductOp) Name() string { return "product" }

// Arity returns 2.
func (op *ProductOp) Arity() int { return 2 }

// Forward returns a * b.
func (op *ProductOp) Forward(inputs []float64) float64 {
	return inputs[0] * inputs[1]
}

// Backward computes input gradients for multiplication.
func (op *ProductOp) Backward(inputs []float64, _, grad float64, dst []float64) {
	a, b := inputs[0], inputs[1]
	dst[0] = grad * b
	dst[1] = grad * a
}
