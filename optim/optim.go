// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/dagrad/internal/optim"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// Parameter is anything an optimizer can update.
type Parameter = optim.Parameter

// Stateful is implemented by optimizers with exportable running state.
type Stateful = optim.Stateful

// Config represents the base configuration for optimizers.
type Config = optim.Config

// Settings selects an optimizer by name.
type Settings = optim.Settings

// ErrUnknownOptimizer is returned by New for an unsupported name.
var ErrUnknownOptimizer = optim.ErrUnknownOptimizer

// Names lists the optimizer names accepted by New.
var Names = optim.Names

// Params converts a slice of concrete parameter handles.
func Params[P Parameter](ps []P) []Parameter {
	return optim.Params(ps)
}

// New builds the optimizer described by settings.
func New(settings Settings, params []Parameter) (Optimizer, error) {
	return optim.New(settings, params)
}

// SGD (Stochastic Gradient Descent)

// SGD represents the SGD optimizer with optional momentum.
type SGD = optim.SGD

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	optimizer := optim.NewSGD(
//	    optim.Params(graph.Parameters()),
//	    optim.SGDConfig{
//	        LR:       0.01,
//	        Momentum: 0.9,
//	    },
//	)
func NewSGD(params []Parameter, config SGDConfig) *SGD {
	return optim.NewSGD(params, config)
}

// RMSNorm

// RMSNorm scales each step by a running average of squared gradients.
type RMSNorm = optim.RMSNorm

// RMSNormConfig contains configuration for RMSNorm optimizer.
type RMSNormConfig = optim.RMSNormConfig

// NewRMSNorm creates a new RMSNorm optimizer.
func NewRMSNorm(params []Parameter, config RMSNormConfig) *RMSNorm {
	return optim.NewRMSNorm(params, config)
}

// Adam (Adaptive Moment Estimation)

// Adam represents the Adam optimizer.
type Adam = optim.Adam

// AdamConfig contains configuration for Adam optimizer.
type AdamConfig = optim.AdamConfig

// NewAdam creates a new Adam optimizer with bias correction.
//
// Example:
//
//	optimizer := optim.NewAdam(
//	    optim.Params(graph.Parameters()),
//	    optim.AdamConfig{
//	        LR:    0.001,
//	        Betas: [2]float64{0.9, 0.999},
//	    },
//	)
func NewAdam(params []Parameter, config AdamConfig) *Adam {
	return optim.NewAdam(params, config)
}
