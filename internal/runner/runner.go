// Package runner orchestrates a single tool operation end to end.
//
// The pipeline is strictly linear: translate parameters to CLI
// arguments, invoke the tool under its timeout, scrape metrics from the
// captured output, merge in any structured result files from disk, and
// list the produced artifacts. A failed or timed-out run does not
// short-circuit the pipeline; whatever output and files exist are still
// collected, because partial results from a broken run are the main
// diagnostic the caller gets.
package runner

import (
	"context"
	"log/slog"
	"strings"

	"github.com/visionops/yolobridge/internal/args"
	"github.com/visionops/yolobridge/internal/executor"
	"github.com/visionops/yolobridge/internal/metrics"
	"github.com/visionops/yolobridge/internal/outputs"
)

// Result is the unified record returned for any task invocation.
// It is created fresh per call and never retained here; persistence is
// the server layer's concern.
type Result struct {
	// Command is the full invocation string, for display and audit.
	Command string `json:"command"`

	// ReturnCode is the tool's exit code, or -1 for timeout and
	// launch failures.
	ReturnCode int `json:"return_code"`

	// Stdout and Stderr are the complete captured streams.
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`

	// Metrics maps metric names to scraped or file-derived values.
	Metrics metrics.Map `json:"metrics"`

	// Artifacts lists every produced file, sorted, relative to the
	// tool's working directory.
	Artifacts []string `json:"artifacts"`

	// Success is true exactly when ReturnCode is zero.
	Success bool `json:"success"`
}

// Runner composes translation, execution, and collection into the
// single entry point the server layer calls.
type Runner struct {
	translator *args.Translator
	exec       *executor.Runner
	collector  *outputs.Collector
	scanner    *outputs.Scanner
	logger     *slog.Logger
}

// New creates a Runner from its collaborators.
func New(t *args.Translator, e *executor.Runner, c *outputs.Collector, s *outputs.Scanner, logger *slog.Logger) *Runner {
	return &Runner{
		translator: t,
		exec:       e,
		collector:  c,
		scanner:    s,
		logger:     logger,
	}
}

// Execute runs one task with the given parameters and returns the
// unified result record. It never returns an error: every failure mode
// is folded into the record's return_code/stderr fields.
func (r *Runner) Execute(ctx context.Context, task string, params *args.ParameterSet) *Result {
	argv := append([]string{task}, r.translator.Translate(params)...)

	r.logger.Info("executing task",
		slog.String("task", task),
		slog.Int("args", len(argv)-1),
	)

	inv := r.exec.Run(ctx, argv)

	m := metrics.Extract(inv.Stdout, inv.Stderr)
	m.Merge(r.collector.Collect())

	result := &Result{
		Command:    r.exec.Tool + " " + strings.Join(argv, " "),
		ReturnCode: inv.ExitCode,
		Stdout:     inv.Stdout,
		Stderr:     inv.Stderr,
		Metrics:    m,
		Artifacts:  r.scanner.Scan(),
		Success:    inv.ExitCode == 0,
	}

	r.logger.Info("task completed",
		slog.String("task", task),
		slog.Int("exit_code", inv.ExitCode),
		slog.Bool("timed_out", inv.TimedOut),
		slog.Int64("duration_ms", inv.DurationMs()),
		slog.Int("metrics", len(m)),
		slog.Int("artifacts", len(result.Artifacts)),
	)

	return result
}
