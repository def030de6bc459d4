package autodiff

import (
	"fmt"

	"github.com/born-ml/dagrad/internal/autodiff/ops"
)

// Backward completes the node's upstream gradient and writes its
// contribution to each operand slot.
//
// It is only legal from StateForwardDone, and only once every consumer has
// completed its own backward step; otherwise it fails with
// ErrOrderViolation. A node that was already backwarded must be Reset first,
// so a contribution can never be counted twice.
//
// Algorithm:
//  1. Seeders (the loss) take their fixed seed as upstream gradient
//  2. Every other node sums consumer.edgeGrads[slot] over its consumer edges
//  3. The operation's local rule fills this node's edgeGrads
func (t *Tape) Backward(id NodeID) error {
	t.mustValid(id)
	n := &t.nodes[id]
	if n.state != StateForwardDone {
		return fmt.Errorf("%w: backward on %s in state %s", ErrOrderViolation, t.label(id), n.state)
	}

	var grad float64
	for _, e := range n.consumers {
		c := &t.nodes[e.node]
		if c.state != StateBackwardDone {
			return fmt.Errorf("%w: backward on %s before consumer %s", ErrOrderViolation, t.label(id), t.label(e.node))
		}
		grad += c.edgeGrads[e.slot]
	}
	if seeder, ok := n.op.(ops.Seeder); ok {
		grad = seeder.Seed()
	}

	n.grad = grad
	if n.op != nil {
		n.op.Backward(n.in, n.out, grad, n.edgeGrads)
	}
	n.state = StateBackwardDone
	return nil
}

// Grad returns d(loss)/d(node output) from the last backward pass.
func (t *Tape) Grad(id NodeID) (float64, error) {
	t.mustValid(id)
	n := &t.nodes[id]
	if n.state != StateBackwardDone {
		return 0, fmt.Errorf("%w: %s has no backward result", ErrNoResultYet, t.label(id))
	}
	return n.grad, nil
}

// EdgeGrad returns the contribution consumer made to its operand slot during
// its last backward step.
func (t *Tape) EdgeGrad(consumer NodeID, slot int) (float64, error) {
	t.mustValid(consumer)
	n := &t.nodes[consumer]
	if slot < 0 || slot >= len(n.edgeGrads) {
		return 0, fmt.Errorf("%w: %s has no operand slot %d", ErrInvalidNode, t.label(consumer), slot)
	}
	if n.state != StateBackwardDone {
		return 0, fmt.Errorf("%w: %s has no backward result", ErrNoResultYet, t.label(consumer))
	}
	return n.edgeGrads[slot], nil
}
