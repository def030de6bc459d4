// Package autodiff implements reverse-mode automatic differentiation over an
// explicit DAG of scalar operations.
//
// Architecture:
//   - Tape: arena owning every node; nodes are addressed by NodeID
//   - Operation (see ops): local forward/derivative rule of a node kind
//   - Per-node state machine: ForwardPending → ForwardDone → BackwardDone
//   - Graph: discovers the DAG reachable from a leaf set once, then drives
//     reset, forward and backward passes over the cached topological order
//
// Usage:
//
//	tape := autodiff.NewTape()
//	p := tape.Param("p", 2)
//	loss := tape.Loss(tape.Power(p, 2)) // L = p²
//
//	g, err := autodiff.NewGraph(tape, []autodiff.NodeID{p}, nil, loss)
//	if err != nil { ... }
//	if err := g.Run(); err != nil { ... }
//
//	fmt.Println(g.Parameters()[0].Grad()) // dL/dp = 2p = 4
package autodiff

import "fmt"

// NodeID addresses a node inside the Tape that created it.
type NodeID int

// Kind distinguishes the two leaf kinds from operation nodes.
type Kind uint8

const (
	// KindOperation is a node computed from its operands.
	KindOperation Kind = iota
	// KindParameter is a trainable leaf.
	KindParameter
	// KindInput is a constant leaf, rebound by the caller between runs.
	KindInput
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindOperation:
		return "operation"
	case KindParameter:
		return "parameter"
	case KindInput:
		return "input"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// IsLeaf reports whether nodes of this kind have no operands.
func (k Kind) IsLeaf() bool {
	return k == KindParameter || k == KindInput
}

// State is the position of a node in the per-run pass state machine.
type State uint8

const (
	// StateForwardPending is the state after Reset (and of a never-run node).
	StateForwardPending State = iota
	// StateForwardDone means the cached value is valid and the backward step is pending.
	StateForwardDone
	// StateBackwardDone means the upstream gradient is fully accumulated.
	StateBackwardDone
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateForwardPending:
		return "forward-pending"
	case StateForwardDone:
		return "forward-done"
	case StateBackwardDone:
		return "backward-done"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}
