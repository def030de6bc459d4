package autodiff

import "fmt"

// Reset returns a node to StateForwardPending and clears its accumulated
// gradient. It must be applied to every node before each new run.
func (t *Tape) Reset(id NodeID) {
	t.mustValid(id)
	n := &t.nodes[id]
	n.state = StateForwardPending
	n.grad = 0
	for i := range n.edgeGrads {
		n.edgeGrads[i] = 0
	}
}

// Forward computes and caches the node's value.
//
// It is only legal from StateForwardPending, and only once every operand has
// a forward result; otherwise it fails with ErrOrderViolation.
func (t *Tape) Forward(id NodeID) error {
	t.mustValid(id)
	n := &t.nodes[id]
	if n.state != StateForwardPending {
		return fmt.Errorf("%w: forward on %s in state %s", ErrOrderViolation, t.label(id), n.state)
	}
	if n.kind.IsLeaf() {
		n.out = n.value
		n.state = StateForwardDone
		return nil
	}
	if !n.wired {
		return fmt.Errorf("%w: forward on unwired %s", ErrOrderViolation, t.label(id))
	}
	for i, operand := range n.operands {
		o := &t.nodes[operand]
		if o.state == StateForwardPending {
			return fmt.Errorf("%w: forward on %s before operand %s", ErrOrderViolation, t.label(id), t.label(operand))
		}
		n.in[i] = o.out
	}
	n.out = n.op.Forward(n.in)
	n.state = StateForwardDone
	return nil
}

// Value returns the node's cached forward result.
func (t *Tape) Value(id NodeID) (float64, error) {
	t.mustValid(id)
	n := &t.nodes[id]
	if n.state == StateForwardPending {
		return 0, fmt.Errorf("%w: %s has no forward result", ErrNoResultYet, t.label(id))
	}
	return n.out, nil
}

// LeafValue returns the value currently held by a leaf, which the next
// forward pass will read.
func (t *Tape) LeafValue(id NodeID) (float64, error) {
	t.mustValid(id)
	n := &t.nodes[id]
	if !n.kind.IsLeaf() {
		return 0, fmt.Errorf("%w: %s is not a leaf", ErrInvalidNode, t.label(id))
	}
	return n.value, nil
}

// SetValue rebinds a leaf. Parameters are rewritten by optimizers and inputs
// by the caller feeding a new sample; either way it takes effect on the next
// run.
func (t *Tape) SetValue(id NodeID, v float64) error {
	t.mustValid(id)
	n := &t.nodes[id]
	if !n.kind.IsLeaf() {
		return fmt.Errorf("%w: %s is not a leaf", ErrInvalidNode, t.label(id))
	}
	n.value = v
	return nil
}
