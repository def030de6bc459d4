package optim

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownOptimizer is returned by New for an unsupported optimizer name.
var ErrUnknownOptimizer = errors.New("optim: unknown optimizer")

// Settings selects and configures an optimizer by name. Zero fields take the
// defaults of the chosen optimizer.
type Settings struct {
	Name     string     // "sgd", "rms" or "adam"
	LR       float64    // all
	Momentum float64    // sgd
	Rho      float64    // rms
	Eps      float64    // rms, adam
	Betas    [2]float64 // adam
}

// Names lists the optimizer names accepted by New.
var Names = []string{"sgd", "rms", "adam"}

// New builds the optimizer described by settings over params.
func New(settings Settings, params []Parameter) (Optimizer, error) {
	switch strings.ToLower(settings.Name) {
	case "", "sgd":
		return NewSGD(params, SGDConfig{LR: settings.LR, Momentum: settings.Momentum}), nil
	case "rms":
		return NewRMSNorm(params, RMSNormConfig{LR: settings.LR, Rho: settings.Rho, Eps: settings.Eps}), nil
	case "adam":
		return NewAdam(params, AdamConfig{LR: settings.LR, Betas: settings.Betas, Eps: settings.Eps}), nil
	default:
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownOptimizer, settings.Name, strings.Join(Names, ", "))
	}
}
