// result.go defines the tool invocation record.
// It captures everything observed from a single run of the external tool:
// exit code, both output streams, timing, and whether the run hit the
// wall-clock budget.
package executor

import "time"

// Invocation holds the raw outcome of a single tool run.
type Invocation struct {
	// ExitCode is the process exit code. -1 indicates timeout,
	// signal death, or a failure to launch at all.
	ExitCode int `json:"exit_code"`

	// Stdout contains the complete standard output of the tool.
	Stdout string `json:"stdout"`

	// Stderr contains the complete standard error output, or the
	// diagnostic message for timeouts and launch failures.
	Stderr string `json:"stderr"`

	// TimedOut is true if the run was killed at the wall-clock budget.
	TimedOut bool `json:"timed_out"`

	// StartedAt is when the invocation began.
	StartedAt time.Time `json:"started_at"`

	// Duration is how long the invocation took.
	Duration time.Duration `json:"-"`
}

// Success reports whether the tool exited cleanly.
func (i *Invocation) Success() bool {
	return i.ExitCode == 0
}

// DurationMs returns the duration in milliseconds for reporting.
func (i *Invocation) DurationMs() int64 {
	return i.Duration.Milliseconds()
}
