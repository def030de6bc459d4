// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for graph parameters.
//
// # Overview
//
// This package contains:
//   - SGD: plain gradient descent, with optional momentum
//   - RMSNorm: steps scaled by a running average of squared gradients
//   - Adam: Adaptive Moment Estimation with bias correction
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/dagrad/autodiff"
//	    "github.com/born-ml/dagrad/optim"
//	)
//
//	func main() {
//	    g, _ := autodiff.NewGraph(tape, leaves, nil, loss)
//
//	    optimizer := optim.NewAdam(
//	        optim.Params(g.Parameters()),
//	        optim.AdamConfig{LR: 0.01},
//	    )
//
//	    for range 100 {
//	        if err := g.Run(); err != nil {
//	            log.Fatal(err)
//	        }
//	        optimizer.Step()
//	    }
//	}
//
// # Choosing by name
//
// New builds an optimizer from a name and settings, as the CLI does:
//
//	optimizer, err := optim.New(optim.Settings{Name: "rms", LR: 0.05}, params)
//
// # State
//
// Optimizers with running state implement Stateful. StateDict exports it as
// a flat map keyed "<buffer>.<param index>" and LoadStateDict restores it.
package optim
