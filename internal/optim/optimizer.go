// Package optim implements update rules that consume the gradients computed
// by an autodiff run.
//
// This package provides:
//   - Parameter: capability an optimizer needs from a trainable leaf
//   - Optimizer: base interface for all update rules
//   - SGD: plain gradient descent, with optional momentum
//   - RMSNorm: gradient step normalized by a running average of |gradient|
//   - Adam: Adaptive Moment Estimation
//
// Example usage:
//
//	optimizer := optim.NewSGD(optim.Params(graph.Parameters()), optim.SGDConfig{
//	    LR: 0.1,
//	})
//
//	for epoch := range epochs {
//	    if err := graph.Run(); err != nil {
//	        return err
//	    }
//	    optimizer.Step()
//	}
package optim

import (
	"fmt"
	"strconv"
	"strings"
)

// Parameter is a trainable scalar: its value, the gradient accumulated by the
// last run, and a way to write the updated value back.
type Parameter interface {
	Name() string
	Value() float64
	SetValue(v float64)
	Grad() float64
}

// Params adapts a slice of concrete parameter handles.
func Params[P Parameter](ps []P) []Parameter {
	out := make([]Parameter, len(ps))
	for i, p := range ps {
		out[i] = p
	}
	return out
}

// Optimizer is the base interface for all optimization algorithms.
//
// All optimizers must implement:
//   - Step: Apply gradient updates to every parameter
//   - GetLR: Get current learning rate (for monitoring/scheduling)
//
// Gradients are not cleared by the optimizer: every run of the graph resets
// them before the backward pass.
type Optimizer interface {
	// Step reads each parameter's gradient from the last run and rewrites
	// its value. Call it between runs only.
	Step()

	// GetLR returns the current learning rate.
	GetLR() float64
}

// Stateful is implemented by optimizers that keep per-parameter running state.
type Stateful interface {
	// StateDict exports the running state, keyed "<buffer>.<param index>".
	StateDict() map[string]float64

	// LoadStateDict restores state exported by StateDict.
	LoadStateDict(state map[string]float64) error
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float64 // Learning rate
}

// exportBuffer writes buf into state under "<prefix>.<i>".
func exportBuffer(state map[string]float64, prefix string, buf []float64) {
	for i, v := range buf {
		state[prefix+"."+strconv.Itoa(i)] = v
	}
}

// importBuffer reads "<prefix>.<i>" entries from state into buf. Keys that
// are absent keep their current value; keys naming a missing parameter are
// rejected.
func importBuffer(state map[string]float64, prefix string, buf []float64) error {
	for key, v := range state {
		rest, ok := strings.CutPrefix(key, prefix+".")
		if !ok {
			continue
		}
		i, err := strconv.Atoi(rest)
		if err != nil {
			return fmt.Errorf("invalid state key %q: %w", key, err)
		}
		if i < 0 || i >= len(buf) {
			return fmt.Errorf("state key %q: parameter index out of range (have %d parameters)", key, len(buf))
		}
		buf[i] = v
	}
	return nil
}
