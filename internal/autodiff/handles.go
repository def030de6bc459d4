package autodiff

// Param is a handle to a trainable leaf. It is what optimizers consume.
type Param struct {
	tape *Tape
	id   NodeID
}

// ID returns the node address.
func (p Param) ID() NodeID { return p.id }

// Name returns the parameter name.
func (p Param) Name() string { return p.tape.nodes[p.id].name }

// Value returns the value the next forward pass will read.
func (p Param) Value() float64 { return p.tape.nodes[p.id].value }

// SetValue rewrites the parameter. Call it between runs only.
func (p Param) SetValue(v float64) { p.tape.nodes[p.id].value = v }

// Grad returns d(loss)/d(parameter) from the last backward pass, or 0 if
// there was none.
func (p Param) Grad() float64 {
	n := &p.tape.nodes[p.id]
	if n.state != StateBackwardDone {
		return 0
	}
	return n.grad
}

// Input is a handle to a constant leaf.
type Input struct {
	tape *Tape
	id   NodeID
}

// ID returns the node address.
func (in Input) ID() NodeID { return in.id }

// Name returns the input name.
func (in Input) Name() string { return in.tape.nodes[in.id].name }

// Value returns the value the next forward pass will read.
func (in Input) Value() float64 { return in.tape.nodes[in.id].value }

// SetValue binds a new sample value for the next run.
func (in Input) SetValue(v float64) { in.tape.nodes[in.id].value = v }
