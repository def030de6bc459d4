package autodiff

import (
	"fmt"
	"log/slog"

	"github.com/born-ml/dagrad/internal/autodiff/ops"
)

// Graph drives forward and backward passes over the DAG reachable from a set
// of leaves.
//
// Discovery happens once, in NewGraph; Run then only resets flags and
// accumulators and walks the cached order. A Graph is not safe for
// concurrent use and Run is not re-entrant.
type Graph struct {
	tape    *Tape
	leaves  []NodeID
	outputs []NodeID
	loss    NodeID
	order   []NodeID // forward order: every node precedes all its consumers
	params  []Param
	inputs  []Input
	logger  *slog.Logger
	runs    int
}

// Option configures optional behavior for NewGraph.
type Option func(*graphOptions)

type graphOptions struct {
	logger *slog.Logger
}

func defaultOptions() graphOptions {
	return graphOptions{logger: slog.New(slog.DiscardHandler)}
}

// WithLogger sets the logger used for construction diagnostics.
// Passing nil has no effect.
func WithLogger(logger *slog.Logger) Option {
	return func(o *graphOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Traversal colours used by discovery.
const (
	white = iota // not visited
	grey         // on the current DFS path
	black        // fully discovered
)

// NewGraph discovers the DAG reachable from leaves along consumer edges and
// returns a ready-to-run Graph. The tape is sealed on success.
//
// Errors:
//   - ErrInvalidNode: a leaf is not a leaf kind, or loss is not a loss node
//   - ErrSealed: the tape already backs another Graph
//   - ErrCycleOrUnreachable: a cycle, an operand not reachable from leaves,
//     an unwired operation, or loss/outputs not reachable from leaves
func NewGraph(t *Tape, leaves, outputs []NodeID, loss NodeID, options ...Option) (*Graph, error) {
	opts := defaultOptions()
	for _, opt := range options {
		opt(&opts)
	}
	if t.sealed {
		return nil, ErrSealed
	}
	if err := validateRoles(t, leaves, outputs, loss); err != nil {
		return nil, err
	}

	d := &discovery{
		tape:  t,
		color: make([]uint8, len(t.nodes)),
		post:  make([]NodeID, 0, len(t.nodes)),
	}
	for _, leaf := range leaves {
		if err := d.visit(leaf); err != nil {
			return nil, err
		}
	}
	// Reverse post-order to produce forward order
	order := d.post
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	if err := d.checkReachable(order, outputs, loss); err != nil {
		return nil, err
	}

	g := &Graph{
		tape:    t,
		leaves:  append([]NodeID(nil), leaves...),
		outputs: append([]NodeID(nil), outputs...),
		loss:    loss,
		order:   order,
		logger:  opts.logger,
	}
	for _, id := range d.params {
		g.params = append(g.params, Param{tape: t, id: id})
	}
	seen := make(map[NodeID]bool, len(leaves))
	for _, id := range g.leaves {
		if t.nodes[id].kind == KindInput && !seen[id] {
			g.inputs = append(g.inputs, Input{tape: t, id: id})
		}
		seen[id] = true
	}
	t.sealed = true

	g.logger.Debug("Graph discovered.",
		"nodes", len(order),
		"parameters", len(g.params),
		"inputs", len(g.inputs),
		"outputs", len(outputs),
		"loss", t.label(loss))
	return g, nil
}

func validateRoles(t *Tape, leaves, outputs []NodeID, loss NodeID) error {
	for _, leaf := range leaves {
		if !t.valid(leaf) {
			return fmt.Errorf("%w: unknown leaf %d", ErrInvalidNode, leaf)
		}
		if !t.nodes[leaf].kind.IsLeaf() {
			return fmt.Errorf("%w: %s declared as leaf", ErrInvalidNode, t.label(leaf))
		}
	}
	for _, out := range outputs {
		if !t.valid(out) {
			return fmt.Errorf("%w: unknown output %d", ErrInvalidNode, out)
		}
	}
	if !t.valid(loss) {
		return fmt.Errorf("%w: unknown loss %d", ErrInvalidNode, loss)
	}
	if _, ok := t.nodes[loss].op.(*ops.LossOp); !ok {
		return fmt.Errorf("%w: %s declared as loss", ErrInvalidNode, t.label(loss))
	}
	return nil
}

// discovery holds traversal-local state, so independent graphs can be
// built concurrently from independent tapes.
type discovery struct {
	tape   *Tape
	color  []uint8
	post   []NodeID // post-order: a node follows all of its consumers
	params []NodeID
}

// visit walks consumer edges depth-first, appending id after every consumer
// has been fully discovered. Reaching a grey node means id depends on itself.
func (d *discovery) visit(id NodeID) error {
	switch d.color[id] {
	case grey:
		return fmt.Errorf("%w: cycle through %s", ErrCycleOrUnreachable, d.tape.label(id))
	case black:
		return nil
	}
	d.color[id] = grey

	n := &d.tape.nodes[id]
	if n.kind == KindParameter {
		d.params = append(d.params, id)
	}
	for _, e := range n.consumers {
		if err := d.visit(e.node); err != nil {
			return err
		}
	}

	d.color[id] = black
	d.post = append(d.post, id)
	return nil
}

// checkReachable verifies that every discovered node can actually be
// computed from the declared leaves.
func (d *discovery) checkReachable(order, outputs []NodeID, loss NodeID) error {
	t := d.tape
	for _, id := range order {
		n := &t.nodes[id]
		if !n.wired {
			return fmt.Errorf("%w: %s was declared but never wired", ErrCycleOrUnreachable, t.label(id))
		}
		for _, operand := range n.operands {
			if d.color[operand] != black {
				return fmt.Errorf("%w: operand %s of %s is not reachable from the declared leaves",
					ErrCycleOrUnreachable, t.label(operand), t.label(id))
			}
		}
	}
	if d.color[loss] != black {
		return fmt.Errorf("%w: %s is not reachable from the declared leaves", ErrCycleOrUnreachable, t.label(loss))
	}
	for _, out := range outputs {
		if d.color[out] != black {
			return fmt.Errorf("%w: output %s is not reachable from the declared leaves", ErrCycleOrUnreachable, t.label(out))
		}
	}
	return nil
}

// Run performs one full pass: reset every node, forward in topological
// order, then backward in reverse order. Afterwards every Parameter holds
// d(loss)/d(parameter) and every node holds its forward value.
//
// A failed run leaves node states indeterminate; the next Run resets them.
func (g *Graph) Run() error {
	t := g.tape
	for _, id := range g.order {
		t.Reset(id)
	}
	for _, id := range g.order {
		if err := t.Forward(id); err != nil {
			return fmt.Errorf("forward pass: %w", err)
		}
	}
	for i := len(g.order) - 1; i >= 0; i-- {
		if err := t.Backward(g.order[i]); err != nil {
			return fmt.Errorf("backward pass: %w", err)
		}
	}
	g.runs++
	return nil
}

// Tape returns the sealed tape backing the graph.
func (g *Graph) Tape() *Tape {
	return g.tape
}

// Order returns a copy of the forward order.
func (g *Graph) Order() []NodeID {
	return append([]NodeID(nil), g.order...)
}

// Parameters returns the trainable parameters reachable from the leaves, in
// discovery order.
func (g *Graph) Parameters() []Param {
	return append([]Param(nil), g.params...)
}

// Inputs returns the constant leaves among the declared leaves.
func (g *Graph) Inputs() []Input {
	return append([]Input(nil), g.inputs...)
}

// Input returns the declared constant leaf with the given name.
func (g *Graph) Input(name string) (Input, bool) {
	for _, in := range g.inputs {
		if in.Name() == name {
			return in, true
		}
	}
	return Input{}, false
}

// Outputs returns a copy of the declared outputs.
func (g *Graph) Outputs() []NodeID {
	return append([]NodeID(nil), g.outputs...)
}

// Loss returns the loss node.
func (g *Graph) Loss() NodeID {
	return g.loss
}

// LossValue returns the loss computed by the last run.
func (g *Graph) LossValue() (float64, error) {
	return g.tape.Value(g.loss)
}

// Value returns the forward value of any node from the last run.
func (g *Graph) Value(id NodeID) (float64, error) {
	return g.tape.Value(id)
}

// Grad returns d(loss)/d(node) from the last run.
func (g *Graph) Grad(id NodeID) (float64, error) {
	return g.tape.Grad(id)
}

// Runs returns the number of completed runs.
func (g *Graph) Runs() int {
	return g.runs
}
