// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation over
// explicit graphs of scalar operations.
//
// Nodes are created on a Tape and addressed by NodeID. A Graph discovers
// everything reachable from a set of leaves once and then runs reset,
// forward and backward passes over the cached order.
//
// Example:
//
//	import "github.com/born-ml/dagrad/autodiff"
//
//	func main() {
//	    tape := autodiff.NewTape()
//	    w := tape.Param("w", 0.5)
//	    x := tape.Input("x", 3)
//	    loss := tape.Loss(tape.Power(tape.MulParam(x, w), 2))
//
//	    g, err := autodiff.NewGraph(tape, []autodiff.NodeID{w, x}, nil, loss)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := g.Run(); err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(g.Parameters()[0].Grad()) // 2·(w·x)·x = 9
//	}
package autodiff

import (
	"github.com/born-ml/dagrad/internal/autodiff"
	"github.com/born-ml/dagrad/internal/autodiff/ops"
)

// Tape owns every node of a graph.
type Tape = autodiff.Tape

// NodeID addresses a node inside its Tape.
type NodeID = autodiff.NodeID

// Kind distinguishes parameters, inputs and operation nodes.
type Kind = autodiff.Kind

// State is a node's position in the per-run pass state machine.
type State = autodiff.State

// Graph drives passes over the nodes reachable from a leaf set.
type Graph = autodiff.Graph

// Param is a handle to a trainable leaf.
type Param = autodiff.Param

// Input is a handle to a constant leaf.
type Input = autodiff.Input

// Option configures a Graph.
type Option = autodiff.Option

// Operation is the local forward/derivative rule of a node kind.
type Operation = ops.Operation

// Node kinds.
const (
	KindOperation = autodiff.KindOperation
	KindParameter = autodiff.KindParameter
	KindInput     = autodiff.KindInput
)

// Node states.
const (
	StateForwardPending = autodiff.StateForwardPending
	StateForwardDone    = autodiff.StateForwardDone
	StateBackwardDone   = autodiff.StateBackwardDone
)

// Errors returned by graph construction and passes.
var (
	ErrOrderViolation     = autodiff.ErrOrderViolation
	ErrCycleOrUnreachable = autodiff.ErrCycleOrUnreachable
	ErrNoResultYet        = autodiff.ErrNoResultYet
	ErrInvalidNode        = autodiff.ErrInvalidNode
	ErrSealed             = autodiff.ErrSealed
)

// NewTape creates an empty tape.
func NewTape() *Tape {
	return autodiff.NewTape()
}

// NewGraph discovers the graph reachable from leaves and seals the tape.
// outputs may be empty; loss must be a loss node.
func NewGraph(t *Tape, leaves, outputs []NodeID, loss NodeID, options ...Option) (*Graph, error) {
	return autodiff.NewGraph(t, leaves, outputs, loss, options...)
}

// WithLogger sets the logger used for graph diagnostics.
var WithLogger = autodiff.WithLogger

// LookupOperation returns the operation registered under kind. exponent is
// only used by "pow".
func LookupOperation(kind string, exponent float64) (Operation, error) {
	return ops.Lookup(kind, exponent)
}
