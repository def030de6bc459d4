package optim

import "math"

// RMSNorm scales each gradient step by a running average of the gradient
// magnitude, so parameters with consistently large gradients take
// proportionally smaller steps.
//
// Update rule, applied to every parameter:
//
//	avg   = rho * avg + (1 - rho) * |gradient|
//	param = param - gradient * lr / (avg + eps)
//
// Every running average is updated before any parameter is rewritten. There
// is no momentum term.
type RMSNorm struct {
	params []Parameter
	lr     float64
	rho    float64
	eps    float64
	avg    []float64
	grads  []float64 // gradients read at the start of the current step
}

// RMSNormConfig holds configuration for the RMSNorm optimizer. A zero field
// selects its default, so Rho 0, Eps 0 and InitAvg 0 cannot be requested.
type RMSNormConfig struct {
	LR      float64 // Learning rate (default when 0: 0.01)
	Rho     float64 // Decay of the running average (default when 0: 0.9)
	Eps     float64 // Added to the denominator (default when 0: 1)
	InitAvg float64 // Starting running average (default when 0: 1)
}

// NewRMSNorm creates a new RMSNorm optimizer.
func NewRMSNorm(params []Parameter, config RMSNormConfig) *RMSNorm {
	if config.LR == 0 {
		config.LR = 0.01
	}
	if config.Rho == 0 {
		config.Rho = 0.9
	}
	if config.Eps == 0 {
		config.Eps = 1
	}
	if config.InitAvg == 0 {
		config.InitAvg = 1
	}

	avg := make([]float64, len(params))
	for i := range avg {
		avg[i] = config.InitAvg
	}
	return &RMSNorm{
		params: params,
		lr:     config.LR,
		rho:    config.Rho,
		eps:    config.Eps,
		avg:    avg,
		grads:  make([]float64, len(params)),
	}
}

// Step performs a single optimization step.
func (r *RMSNorm) Step() {
	for i, param := range r.params {
		r.grads[i] = param.Grad()
		r.avg[i] = r.rho*r.avg[i] + (1-r.rho)*math.Abs(r.grads[i])
	}
	for i, param := range r.params {
		param.SetValue(param.Value() - r.grads[i]*r.lr/(r.avg[i]+r.eps))
	}
}

// GetLR returns the current learning rate.
func (r *RMSNorm) GetLR() float64 {
	return r.lr
}

// SetLR updates the learning rate.
func (r *RMSNorm) SetLR(lr float64) {
	r.lr = lr
}

// Average returns the running average of |gradient| for parameter i.
func (r *RMSNorm) Average(i int) float64 {
	return r.avg[i]
}

// StateDict exports the running averages ("avg.{param_index}").
func (r *RMSNorm) StateDict() map[string]float64 {
	state := make(map[string]float64, len(r.avg))
	exportBuffer(state, "avg", r.avg)
	return state
}

// LoadStateDict restores running averages exported by StateDict.
func (r *RMSNorm) LoadStateDict(state map[string]float64) error {
	return importBuffer(state, "avg", r.avg)
}
