package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/born-ml/dagrad/internal/checkpoint"
	"github.com/born-ml/dagrad/internal/ctxlog"
	"github.com/born-ml/dagrad/internal/hclgraph"
	"github.com/born-ml/dagrad/internal/optim"
	"github.com/born-ml/dagrad/internal/parallel"
	"github.com/born-ml/dagrad/internal/train"
)

// Run loads the graph file named by config, trains it and writes the final
// training loss, the loss of an evaluation pass over the trained parameters,
// the parameter values and the output values to outW. Log records go to logW.
func Run(ctx context.Context, config *Config, outW, logW io.Writer) error {
	logger := NewLogger(config.LogLevel, config.LogFormat, logW)
	ctx = ctxlog.WithLogger(ctx, logger)

	if config.Compare {
		return compare(ctx, config, outW)
	}

	model, err := load(ctx, config, "")
	if err != nil {
		return err
	}
	history, opt, err := fit(ctx, config, model)
	if err != nil {
		return err
	}

	if config.Save != "" {
		c := checkpoint.Capture(optim.Params(model.Graph.Parameters()), model.Training.Optimizer, opt)
		c.Metadata["graph"] = config.GraphPath
		c.Metadata["epochs"] = strconv.Itoa(model.Training.Epochs)
		if err := checkpoint.Save(config.Save, c); err != nil {
			return fmt.Errorf("failed to save checkpoint: %w", err)
		}
		logger.Info("Checkpoint saved.", "path", config.Save)
	}

	eval, err := train.New(model.Graph, opt, logger).Evaluate(model.Samples)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}
	logger.Info("Evaluation finished.", "loss", eval)

	return report(outW, model, history, eval)
}

// load reads the graph file and applies flag overrides. A non-empty
// optimizer replaces both the file's and the flag's choice.
func load(ctx context.Context, config *Config, optimizer string) (*hclgraph.Model, error) {
	model, err := hclgraph.Load(ctx, config.GraphPath)
	if err != nil {
		return nil, err
	}
	if config.Epochs > 0 {
		model.Training.Epochs = config.Epochs
	}
	if config.Optimizer != "" {
		model.Training.Optimizer = config.Optimizer
	}
	if optimizer != "" {
		model.Training.Optimizer = optimizer
	}
	if config.LR > 0 {
		model.Training.LR = config.LR
	}
	return model, nil
}

// fit builds the optimizer, restores a checkpoint if asked to and trains.
func fit(ctx context.Context, config *Config, model *hclgraph.Model) (train.History, optim.Optimizer, error) {
	logger := ctxlog.FromContext(ctx)

	opt, err := model.Optimizer()
	if err != nil {
		return train.History{}, nil, &ExitError{Code: 2, Message: err.Error()}
	}
	if config.Resume != "" {
		if err := resume(logger, config.Resume, model, opt); err != nil {
			return train.History{}, nil, err
		}
	}

	logger.Info("Training started.",
		"graph", config.GraphPath,
		"optimizer", model.Training.Optimizer,
		"lr", opt.GetLR(),
		"epochs", model.Training.Epochs,
		"samples", len(model.Samples))

	history, err := train.New(model.Graph, opt, logger).Fit(ctx, model.Samples, model.Training.Epochs)
	if err != nil {
		return history, nil, fmt.Errorf("training failed: %w", err)
	}
	logger.Info("Training finished.", "loss", history.Final())
	return history, opt, nil
}

// resume restores parameters from a checkpoint. Optimizer state is restored
// only when it was saved by the same optimizer.
func resume(logger *slog.Logger, path string, model *hclgraph.Model, opt optim.Optimizer) error {
	c, err := checkpoint.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}
	params := optim.Params(model.Graph.Parameters())
	if err := c.Restore(params); err != nil {
		return err
	}
	err = c.RestoreOptimizer(params, model.Training.Optimizer, opt)
	switch {
	case errors.Is(err, checkpoint.ErrOptimizerMismatch):
		logger.Warn("Optimizer state not restored.", "path", path, "error", err)
	case err != nil:
		return err
	}
	logger.Info("Checkpoint restored.", "path", path, "parameters", len(c.Params))
	return nil
}

// compare trains one independently loaded copy of the graph per optimizer.
func compare(ctx context.Context, config *Config, outW io.Writer) error {
	logger := ctxlog.FromContext(ctx)
	finals := make([]float64, len(optim.Names))

	err := parallel.Run(ctx, len(optim.Names), func(ctx context.Context, i int) error {
		name := optim.Names[i]
		ctx = ctxlog.WithLogger(ctx, logger.With("run", name))
		model, err := load(ctx, config, name)
		if err != nil {
			return err
		}
		history, _, err := fit(ctx, config, model)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		finals[i] = history.Final()
		return nil
	}, parallel.DefaultConfig())
	if err != nil {
		return err
	}

	for i, name := range optim.Names {
		if _, err := fmt.Fprintf(outW, "optimizer %s loss %g\n", name, finals[i]); err != nil {
			return err
		}
	}
	return nil
}

// report prints the trained state. Output values are those of the evaluation
// pass, for its last sample.
func report(w io.Writer, model *hclgraph.Model, history train.History, eval float64) error {
	if _, err := fmt.Fprintf(w, "loss %g\n", history.Final()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "eval %g\n", eval); err != nil {
		return err
	}
	for _, p := range model.Graph.Parameters() {
		if _, err := fmt.Fprintf(w, "param %s %g\n", p.Name(), p.Value()); err != nil {
			return err
		}
	}
	for _, id := range model.Graph.Outputs() {
		v, err := model.Graph.Value(id)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "output %s %g\n", model.Tape.Name(id), v); err != nil {
			return err
		}
	}
	return nil
}
