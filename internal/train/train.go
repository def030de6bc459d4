// Package train drives repeated run/step cycles over a graph: bind a sample
// to the graph inputs, run forward and backward, let the optimizer update the
// parameters.
package train

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/born-ml/dagrad/internal/autodiff"
	"github.com/born-ml/dagrad/internal/optim"
)

// ErrUnknownInput is returned when a sample names an input the graph does not declare.
var ErrUnknownInput = errors.New("train: unknown input")

// Sample binds input names to values for one run.
type Sample map[string]float64

// History records the mean loss of every completed epoch.
type History struct {
	Losses []float64
}

// Final returns the mean loss of the last epoch, or 0 when no epoch completed.
func (h History) Final() float64 {
	if len(h.Losses) == 0 {
		return 0
	}
	return h.Losses[len(h.Losses)-1]
}

// Trainer couples a graph with an optimizer.
type Trainer struct {
	graph     *autodiff.Graph
	optimizer optim.Optimizer
	logger    *slog.Logger
	inputs    map[string]autodiff.Input
}

// New creates a trainer. A nil logger discards all records.
func New(graph *autodiff.Graph, optimizer optim.Optimizer, logger *slog.Logger) *Trainer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	inputs := make(map[string]autodiff.Input)
	for _, in := range graph.Inputs() {
		inputs[in.Name()] = in
	}
	return &Trainer{
		graph:     graph,
		optimizer: optimizer,
		logger:    logger,
		inputs:    inputs,
	}
}

// Fit trains for the given number of epochs. Every sample in an epoch gets
// one run followed by one optimizer step; with no samples an epoch is a
// single run on the inputs' current values. The context is checked between
// steps, never inside a run.
func (tr *Trainer) Fit(ctx context.Context, samples []Sample, epochs int) (History, error) {
	var history History
	steps := samples
	if len(steps) == 0 {
		steps = []Sample{nil}
	}

	for epoch := 1; epoch <= epochs; epoch++ {
		var total float64
		for i, sample := range steps {
			if err := ctx.Err(); err != nil {
				return history, err
			}
			loss, err := tr.run(sample)
			if err != nil {
				return history, fmt.Errorf("epoch %d, sample %d: %w", epoch, i, err)
			}
			tr.logStep(ctx, epoch, i, loss)
			tr.optimizer.Step()
			total += loss
		}
		mean := total / float64(len(steps))
		history.Losses = append(history.Losses, mean)
		tr.logger.Info("Epoch finished.", "epoch", epoch, "loss", mean, "lr", tr.optimizer.GetLR())
	}
	return history, nil
}

// Evaluate returns the mean loss over samples without updating parameters.
func (tr *Trainer) Evaluate(samples []Sample) (float64, error) {
	steps := samples
	if len(steps) == 0 {
		steps = []Sample{nil}
	}
	var total float64
	for i, sample := range steps {
		loss, err := tr.run(sample)
		if err != nil {
			return 0, fmt.Errorf("sample %d: %w", i, err)
		}
		total += loss
	}
	return total / float64(len(steps)), nil
}

func (tr *Trainer) run(sample Sample) (float64, error) {
	if err := tr.bind(sample); err != nil {
		return 0, err
	}
	if err := tr.graph.Run(); err != nil {
		return 0, err
	}
	return tr.graph.LossValue()
}

// bind writes sample values into the graph inputs. Nothing is written if
// any name is unknown.
func (tr *Trainer) bind(sample Sample) error {
	names := make([]string, 0, len(sample))
	for name := range sample {
		if _, ok := tr.inputs[name]; !ok {
			names = append(names, name)
		}
	}
	if len(names) > 0 {
		sort.Strings(names)
		return fmt.Errorf("%w: %q", ErrUnknownInput, names)
	}
	for name, v := range sample {
		tr.inputs[name].SetValue(v)
	}
	return nil
}

func (tr *Trainer) logStep(ctx context.Context, epoch, i int, loss float64) {
	if !tr.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	attrs := []any{"epoch", epoch, "sample", i, "loss", loss}
	if params := tr.graph.Parameters(); len(params) > 0 {
		attrs = append(attrs, "param", params[0].Name(), "grad", params[0].Grad())
	}
	tr.logger.DebugContext(ctx, "Step.", attrs...)
}
