package autodiff

import (
	"fmt"

	"github.com/born-ml/dagrad/internal/autodiff/ops"
)

// Tape is the arena that owns every node of an expression graph.
//
// Nodes are appended in construction order and addressed by NodeID. Building
// an operation node registers it as a consumer of each of its operands, so a
// node learns about its consumers only once they exist. Once a Graph has been
// built from the tape it is sealed: the DAG may no longer change.
//
// Usage:
//
//	tape := NewTape()
//	x := tape.Input("x", 1.5)
//	w := tape.Param("w", 0.3)
//	y := tape.Sin(tape.MulParam(x, w))
//	loss := tape.Loss(tape.Power(y, 2))
type Tape struct {
	nodes  []node
	sealed bool
}

// node is the common state shared by every node kind.
type node struct {
	name      string
	kind      Kind
	op        ops.Operation // nil for leaves
	value     float64       // leaf value
	operands  []NodeID
	consumers []edge
	wired     bool

	in        []float64 // operand values gathered by the forward step
	edgeGrads []float64 // contribution to each operand slot from the last backward step
	out       float64   // cached forward result
	grad      float64   // accumulated upstream gradient
	state     State
}

// edge is a consumer back reference: operand slot `slot` of node `node`.
type edge struct {
	node NodeID
	slot int
}

// NewTape creates an empty tape.
func NewTape() *Tape {
	return &Tape{
		nodes: make([]node, 0, 64), // Pre-allocate for common case
	}
}

// Len returns the number of nodes on the tape.
func (t *Tape) Len() int {
	return len(t.nodes)
}

// Sealed reports whether a Graph has been built from the tape.
func (t *Tape) Sealed() bool {
	return t.sealed
}

// Param adds a trainable leaf holding v.
func (t *Tape) Param(name string, v float64) NodeID {
	return t.mustLeaf(name, KindParameter, v)
}

// Input adds a constant leaf holding v.
func (t *Tape) Input(name string, v float64) NodeID {
	return t.mustLeaf(name, KindInput, v)
}

// Sum adds a node computing the sum of xs (at least one operand).
func (t *Tape) Sum(xs ...NodeID) NodeID {
	return t.mustOp(ops.NewSum(), xs...)
}

// Product adds a node computing a * b.
func (t *Tape) Product(a, b NodeID) NodeID {
	return t.mustOp(ops.NewProduct(), a, b)
}

// Power adds a node computing x^p for a constant p.
func (t *Tape) Power(x NodeID, p float64) NodeID {
	return t.mustOp(ops.NewPower(p), x)
}

// Sin adds a node computing sin(x).
func (t *Tape) Sin(x NodeID) NodeID {
	return t.mustOp(ops.NewSin(), x)
}

// AddParam adds a node computing x + param; param must be a Parameter.
func (t *Tape) AddParam(x, param NodeID) NodeID {
	return t.mustOp(ops.NewAddParam(), x, param)
}

// MulParam adds a node computing x * param; param must be a Parameter.
func (t *Tape) MulParam(x, param NodeID) NodeID {
	return t.mustOp(ops.NewMulParam(), x, param)
}

// Loss adds the loss marker over x.
func (t *Tape) Loss(x NodeID) NodeID {
	return t.mustOp(ops.NewLoss(), x)
}

// SetName names a node for error messages and lookups and returns id.
func (t *Tape) SetName(id NodeID, name string) NodeID {
	t.mustValid(id)
	t.nodes[id].name = name
	return id
}

// Declare adds an operation node without operands. It must be wired with
// Wire before a Graph is built over it. Declaring every node first and
// wiring them afterwards lets external descriptions reference nodes in any
// order.
func (t *Tape) Declare(name string, op ops.Operation) (NodeID, error) {
	if t.sealed {
		return 0, ErrSealed
	}
	if op == nil {
		return 0, fmt.Errorf("%w: nil operation for %q", ErrInvalidNode, name)
	}
	t.nodes = append(t.nodes, node{name: name, kind: KindOperation, op: op})
	return NodeID(len(t.nodes) - 1), nil
}

// DeclareLeaf adds a Parameter or Input leaf.
func (t *Tape) DeclareLeaf(name string, kind Kind, v float64) (NodeID, error) {
	if t.sealed {
		return 0, ErrSealed
	}
	if !kind.IsLeaf() {
		return 0, fmt.Errorf("%w: %s is not a leaf kind", ErrInvalidNode, kind)
	}
	t.nodes = append(t.nodes, node{name: name, kind: kind, value: v, wired: true})
	return NodeID(len(t.nodes) - 1), nil
}

// Wire sets the operands of a declared operation node and registers it as a
// consumer of each of them. A node can be wired only once.
func (t *Tape) Wire(id NodeID, operands ...NodeID) error {
	if t.sealed {
		return ErrSealed
	}
	if !t.valid(id) {
		return fmt.Errorf("%w: unknown node %d", ErrInvalidNode, id)
	}
	n := &t.nodes[id]
	if n.kind.IsLeaf() {
		return fmt.Errorf("%w: cannot wire leaf %s", ErrInvalidNode, t.label(id))
	}
	if n.wired {
		return fmt.Errorf("%w: %s is already wired", ErrInvalidNode, t.label(id))
	}
	if err := t.checkOperands(id, operands); err != nil {
		return err
	}

	n.operands = append([]NodeID(nil), operands...)
	n.in = make([]float64, len(operands))
	n.edgeGrads = make([]float64, len(operands))
	n.wired = true
	for slot, operand := range operands {
		o := &t.nodes[operand]
		o.consumers = append(o.consumers, edge{node: id, slot: slot})
	}
	return nil
}

// checkOperands validates an operand list against the node's operation.
func (t *Tape) checkOperands(id NodeID, operands []NodeID) error {
	op := t.nodes[id].op
	switch arity := op.Arity(); {
	case arity == ops.Variadic && len(operands) == 0:
		return fmt.Errorf("%w: %s needs at least one operand", ErrInvalidNode, t.label(id))
	case arity != ops.Variadic && len(operands) != arity:
		return fmt.Errorf("%w: %s takes %d operands, got %d", ErrInvalidNode, t.label(id), arity, len(operands))
	}
	for _, operand := range operands {
		if !t.valid(operand) {
			return fmt.Errorf("%w: %s references unknown node %d", ErrInvalidNode, t.label(id), operand)
		}
	}
	if slotter, ok := op.(ops.ParamSlotter); ok {
		p := operands[slotter.ParamSlot()]
		if t.nodes[p].kind != KindParameter {
			return fmt.Errorf("%w: %s needs a parameter in slot %d, got %s %s",
				ErrInvalidNode, t.label(id), slotter.ParamSlot(), t.nodes[p].kind, t.label(p))
		}
	}
	return nil
}

// Name returns the node name ("" if unnamed).
func (t *Tape) Name(id NodeID) string {
	t.mustValid(id)
	return t.nodes[id].name
}

// Kind returns the node kind.
func (t *Tape) Kind(id NodeID) Kind {
	t.mustValid(id)
	return t.nodes[id].kind
}

// Operation returns the node's operation, or nil for leaves.
func (t *Tape) Operation(id NodeID) ops.Operation {
	t.mustValid(id)
	return t.nodes[id].op
}

// State returns the node's current pass state.
func (t *Tape) State(id NodeID) State {
	t.mustValid(id)
	return t.nodes[id].state
}

// Operands returns a copy of the node's operand list.
func (t *Tape) Operands(id NodeID) []NodeID {
	t.mustValid(id)
	return append([]NodeID(nil), t.nodes[id].operands...)
}

// Consumers returns the nodes reading this node's output, one entry per
// operand slot (a node used twice by the same consumer appears twice).
func (t *Tape) Consumers(id NodeID) []NodeID {
	t.mustValid(id)
	consumers := make([]NodeID, len(t.nodes[id].consumers))
	for i, e := range t.nodes[id].consumers {
		consumers[i] = e.node
	}
	return consumers
}

// Lookup returns the first node with the given name.
func (t *Tape) Lookup(name string) (NodeID, bool) {
	for i := range t.nodes {
		if t.nodes[i].name == name {
			return NodeID(i), true
		}
	}
	return 0, false
}

func (t *Tape) mustLeaf(name string, kind Kind, v float64) NodeID {
	id, err := t.DeclareLeaf(name, kind, v)
	if err != nil {
		panic(fmt.Sprintf("autodiff: %v", err))
	}
	return id
}

func (t *Tape) mustOp(op ops.Operation, operands ...NodeID) NodeID {
	id, err := t.Declare("", op)
	if err == nil {
		err = t.Wire(id, operands...)
	}
	if err != nil {
		panic(fmt.Sprintf("autodiff: %v", err))
	}
	return id
}

func (t *Tape) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

func (t *Tape) mustValid(id NodeID) {
	if !t.valid(id) {
		panic(fmt.Sprintf("autodiff: unknown node %d", id))
	}
}

// label renders a node for error messages: its name, or kind and index.
func (t *Tape) label(id NodeID) string {
	if !t.valid(id) {
		return fmt.Sprintf("#%d", id)
	}
	n := &t.nodes[id]
	kind := n.kind.String()
	if n.op != nil {
		kind = n.op.Name()
	}
	if n.name != "" {
		return fmt.Sprintf("%s %q", kind, n.name)
	}
	return fmt.Sprintf("%s #%d", kind, id)
}
