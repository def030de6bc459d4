package checkpoint

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/born-ml/dagrad/internal/optim"
)

// Value is one saved parameter.
type Value struct {
	Name  string
	Value float64
}

// Checkpoint is the in-memory form of a checkpoint file.
type Checkpoint struct {
	CreatedAt time.Time
	Params    []Value
	Optimizer *OptimizerState
	Metadata  map[string]string
}

// OptimizerState is the saved running state of one optimizer.
type OptimizerState struct {
	Name  string
	LR    float64
	State map[string]float64
}

// Capture snapshots params and, when opt keeps running state, its state.
// name is the optimizer name as accepted by optim.New.
func Capture(params []optim.Parameter, name string, opt optim.Optimizer) *Checkpoint {
	c := &Checkpoint{
		CreatedAt: time.Now().UTC(),
		Params:    make([]Value, len(params)),
		Metadata:  make(map[string]string),
	}
	for i, p := range params {
		c.Params[i] = Value{Name: p.Name(), Value: p.Value()}
	}
	if opt != nil {
		state := &OptimizerState{Name: name, LR: opt.GetLR(), State: map[string]float64{}}
		if s, ok := opt.(optim.Stateful); ok {
			state.State = s.StateDict()
		}
		c.Optimizer = state
	}
	return c
}

// Restore writes the saved values into params. The saved and the given
// parameter names must be the same set.
func (c *Checkpoint) Restore(params []optim.Parameter) error {
	saved := make(map[string]float64, len(c.Params))
	for _, v := range c.Params {
		saved[v.Name] = v.Value
	}

	var missing []string
	seen := make(map[string]bool, len(params))
	for _, p := range params {
		seen[p.Name()] = true
		if _, ok := saved[p.Name()]; !ok {
			missing = append(missing, p.Name())
		}
	}
	var extra []string
	for _, v := range c.Params {
		if !seen[v.Name] {
			extra = append(extra, v.Name)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		return fmt.Errorf("%w: not in checkpoint %q, not in graph %q", ErrParamMismatch, missing, extra)
	}

	for _, p := range params {
		p.SetValue(saved[p.Name()])
	}
	return nil
}

// RestoreOptimizer loads the saved optimizer state into opt, which must be
// the optimizer the checkpoint was captured with, built over params. State
// is stored per parameter position, so params must be in the saved order.
// Optimizers without running state only need the names to agree.
func (c *Checkpoint) RestoreOptimizer(params []optim.Parameter, name string, opt optim.Optimizer) error {
	if c.Optimizer == nil {
		return fmt.Errorf("%w: checkpoint has no optimizer state", ErrOptimizerMismatch)
	}
	if c.Optimizer.Name != name {
		return fmt.Errorf("%w: saved %q, have %q", ErrOptimizerMismatch, c.Optimizer.Name, name)
	}
	if len(params) != len(c.Params) {
		return fmt.Errorf("%w: saved %d parameters, have %d", ErrOptimizerMismatch, len(c.Params), len(params))
	}
	for i, p := range params {
		if p.Name() != c.Params[i].Name {
			return fmt.Errorf("%w: parameter %d is %q, saved as %q", ErrOptimizerMismatch, i, p.Name(), c.Params[i].Name)
		}
	}
	s, ok := opt.(optim.Stateful)
	if !ok {
		return nil
	}
	if err := s.LoadStateDict(c.Optimizer.State); err != nil {
		return errors.Join(ErrOptimizerMismatch, err)
	}
	return nil
}

// header builds the JSON header and the data section.
func (c *Checkpoint) header() (Header, []float64) {
	h := Header{
		FormatVersion: FormatVersion,
		DagradVersion: Version,
		CreatedAt:     c.CreatedAt,
		Params:        make([]string, len(c.Params)),
		Metadata:      c.Metadata,
	}
	if h.Metadata == nil {
		h.Metadata = make(map[string]string)
	}
	data := make([]float64, 0, len(c.Params))
	for i, v := range c.Params {
		h.Params[i] = v.Name
		data = append(data, v.Value)
	}
	if c.Optimizer != nil {
		keys := slices.Sorted(maps.Keys(c.Optimizer.State))
		h.Optimizer = &OptimizerMeta{Name: c.Optimizer.Name, LR: c.Optimizer.LR, State: keys}
		for _, k := range keys {
			data = append(data, c.Optimizer.State[k])
		}
	}
	return h, data
}

// fromHeader rebuilds a Checkpoint from a decoded header and data section.
func fromHeader(h Header, data []float64) (*Checkpoint, error) {
	want := len(h.Params)
	if h.Optimizer != nil {
		want += len(h.Optimizer.State)
	}
	if len(data) != want {
		return nil, fmt.Errorf("%w: %d values for %d entries", ErrCorrupt, len(data), want)
	}

	c := &Checkpoint{
		CreatedAt: h.CreatedAt,
		Params:    make([]Value, len(h.Params)),
		Metadata:  h.Metadata,
	}
	for i, name := range h.Params {
		c.Params[i] = Value{Name: name, Value: data[i]}
	}
	if h.Optimizer != nil {
		state := make(map[string]float64, len(h.Optimizer.State))
		for i, key := range h.Optimizer.State {
			state[key] = data[len(h.Params)+i]
		}
		c.Optimizer = &OptimizerState{Name: h.Optimizer.Name, LR: h.Optimizer.LR, State: state}
	}
	return c, nil
}
