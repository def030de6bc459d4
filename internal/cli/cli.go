package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/born-ml/dagrad/internal/optim"
)

// ExitError is an error carrying a process exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Config is the validated command line. Zero training fields defer to the
// graph file's training block.
type Config struct {
	GraphPath string
	Epochs    int
	Optimizer string
	LR        float64
	LogLevel  string
	LogFormat string
	Resume    string // checkpoint restored before training
	Save      string // checkpoint written after training
	Compare   bool   // train one copy per optimizer instead
}

// Parse processes command-line arguments. It returns the Config, whether the
// program should exit cleanly (help was printed), or an *ExitError.
func Parse(args []string, output io.Writer) (*Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("dagrad", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
dagrad - reverse-mode automatic differentiation over scalar expression graphs.

Usage:
  dagrad [options] GRAPH_PATH
  dagrad version

Arguments:
  GRAPH_PATH
    Path to an .hcl graph description.

Options:
`)
		flagSet.PrintDefaults()
	}

	epochsFlag := flagSet.Int("epochs", 0, "Number of training epochs. 0 uses the graph file's training block.")
	optimizerFlag := flagSet.String("optimizer", "", "Optimizer: "+strings.Join(optim.Names, ", ")+". Empty uses the graph file's training block.")
	lrFlag := flagSet.Float64("lr", 0, "Learning rate. 0 uses the graph file's training block.")
	resumeFlag := flagSet.String("resume", "", "Checkpoint to restore parameters and optimizer state from.")
	saveFlag := flagSet.String("save", "", "Path to write a checkpoint to after training.")
	compareFlag := flagSet.Bool("compare", false, "Train one copy of the graph per optimizer concurrently and report each final loss.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if flagSet.NArg() == 0 {
		slog.Debug("No graph path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}
	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: "expected exactly one graph path"}
	}

	if *epochsFlag < 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid epochs: must not be negative"}
	}
	if *lrFlag < 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid lr: must not be negative"}
	}

	optimizer := strings.ToLower(*optimizerFlag)
	if optimizer != "" && !contains(optim.Names, optimizer) {
		return nil, false, &ExitError{Code: 2, Message: "invalid optimizer: must be one of " + strings.Join(optim.Names, ", ")}
	}

	if *compareFlag && *saveFlag != "" {
		return nil, false, &ExitError{Code: 2, Message: "invalid flags: -save cannot be combined with -compare"}
	}
	if *compareFlag && optimizer != "" {
		return nil, false, &ExitError{Code: 2, Message: "invalid flags: -optimizer cannot be combined with -compare"}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config := &Config{
		GraphPath: flagSet.Arg(0),
		Epochs:    *epochsFlag,
		Optimizer: optimizer,
		LR:        *lrFlag,
		LogLevel:  logLevel,
		LogFormat: logFormat,
		Resume:    *resumeFlag,
		Save:      *saveFlag,
		Compare:   *compareFlag,
	}
	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// NewLogger creates a logger writing to w. It does not set the global logger.
func NewLogger(levelStr, formatStr string, w io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if formatStr == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(handler)
}
