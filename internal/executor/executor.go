// executor.go implements tool invocation with timeout and process group management.
// It ensures all child processes are killed on timeout using process groups,
// preventing orphaned workers from accumulating after abandoned runs.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"syscall"
	"time"
)

// DefaultTimeout is the wall-clock budget for a single tool invocation.
const DefaultTimeout = time.Hour

// Runner invokes the external tool with timeout and output capture.
type Runner struct {
	// Tool is the executable to invoke. May be a bare name resolved
	// via PATH or an absolute path.
	Tool string

	// Dir is the working directory for the invocation. Empty means
	// the current working directory.
	Dir string

	// Timeout is the wall-clock budget per invocation.
	Timeout time.Duration
}

// NewRunner creates a Runner for the given tool.
// A non-positive timeout falls back to DefaultTimeout.
func NewRunner(tool, dir string, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{Tool: tool, Dir: dir, Timeout: timeout}
}

// Run invokes the tool with the given arguments and waits for completion.
// Output is captured in full; nothing is streamed to the caller.
//
// Run never returns an error. Every failure mode resolves to a populated
// Invocation:
//   - timeout: ExitCode -1, TimedOut set, diagnostic message in Stderr
//   - launch failure (tool missing, permission denied): ExitCode -1,
//     error text in Stderr
//   - signal death: ExitCode -1 with whatever output was captured
//   - non-zero exit: exit code and streams taken verbatim
//
// On timeout the whole process group is killed, so the tool's workers
// do not keep running in the background.
func (r *Runner) Run(ctx context.Context, arguments []string) *Invocation {
	execCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, r.Tool, arguments...)
	cmd.Dir = r.Dir

	// New process group so timeout kills the tool's children too
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Kill the entire process group (negative PID) on cancellation
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	// WaitDelay ensures orphaned pipe holders don't block Wait()
	cmd.WaitDelay = 5 * time.Second

	inv := &Invocation{
		StartedAt: time.Now(),
	}

	err := cmd.Run()
	inv.Duration = time.Since(inv.StartedAt)
	inv.Stdout = stdout.String()
	inv.Stderr = stderr.String()

	if err != nil {
		if execCtx.Err() == context.DeadlineExceeded {
			inv.ExitCode = -1
			inv.TimedOut = true
			inv.Stderr = fmt.Sprintf("command timed out after %s", r.Timeout)
			return inv
		}

		if exitErr, ok := err.(*exec.ExitError); ok {
			// Non-zero exit, or -1 for signal death
			inv.ExitCode = exitErr.ExitCode()
			return inv
		}

		// Launch failure: tool not found, permission denied, etc.
		// Fold the error into the record rather than raising it.
		inv.ExitCode = -1
		if inv.Stderr != "" {
			inv.Stderr += "\n"
		}
		inv.Stderr += err.Error()
		return inv
	}

	inv.ExitCode = 0
	return inv
}
