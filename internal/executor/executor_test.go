// executor_test.go tests tool invocation behavior.
// It validates clean exits, non-zero exits, bounded timeouts with the
// sentinel exit code, and launch failures folding into the record.
package executor

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestRun_CleanExit(t *testing.T) {
	r := NewRunner("/bin/echo", "", time.Minute)
	inv := r.Run(context.Background(), []string{"hello", "world"})

	if inv.ExitCode != 0 {
		t.Fatalf("expected exit 0, got %d (stderr: %s)", inv.ExitCode, inv.Stderr)
	}
	if !inv.Success() {
		t.Error("expected Success() for exit 0")
	}
	if !strings.Contains(inv.Stdout, "hello world") {
		t.Errorf("stdout missing echoed text: %q", inv.Stdout)
	}
	if inv.TimedOut {
		t.Error("unexpected TimedOut")
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	r := NewRunner("/bin/sh", "", time.Minute)
	inv := r.Run(context.Background(), []string{"-c", "echo partial; echo oops >&2; exit 3"})

	if inv.ExitCode != 3 {
		t.Fatalf("expected exit 3, got %d", inv.ExitCode)
	}
	if inv.Success() {
		t.Error("Success() must agree with exit code")
	}
	if !strings.Contains(inv.Stdout, "partial") {
		t.Errorf("stdout not captured on failure: %q", inv.Stdout)
	}
	if !strings.Contains(inv.Stderr, "oops") {
		t.Errorf("stderr not captured on failure: %q", inv.Stderr)
	}
}

func TestRun_Timeout(t *testing.T) {
	r := NewRunner("/bin/sleep", "", 200*time.Millisecond)

	start := time.Now()
	inv := r.Run(context.Background(), []string{"30"})
	elapsed := time.Since(start)

	if inv.ExitCode != -1 {
		t.Errorf("expected sentinel -1, got %d", inv.ExitCode)
	}
	if !inv.TimedOut {
		t.Error("expected TimedOut")
	}
	if !strings.Contains(inv.Stderr, "timed out") {
		t.Errorf("expected timeout diagnostic in stderr, got %q", inv.Stderr)
	}
	// Must return in bounded time, not wait out the sleep
	if elapsed > 10*time.Second {
		t.Errorf("timeout not enforced within bounds: took %s", elapsed)
	}
}

func TestRun_ToolNotFound(t *testing.T) {
	r := NewRunner("/nonexistent/tool-binary", "", time.Minute)
	inv := r.Run(context.Background(), []string{"train"})

	if inv.ExitCode != -1 {
		t.Errorf("expected sentinel -1, got %d", inv.ExitCode)
	}
	if inv.Stderr == "" {
		t.Error("expected launch error recorded in stderr")
	}
	if inv.TimedOut {
		t.Error("launch failure must not be reported as timeout")
	}
}

func TestRun_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	r := NewRunner("/bin/sh", dir, time.Minute)
	inv := r.Run(context.Background(), []string{"-c", "pwd"})

	if inv.ExitCode != 0 {
		t.Fatalf("expected exit 0, got %d", inv.ExitCode)
	}
	if !strings.Contains(inv.Stdout, dir) {
		t.Errorf("expected pwd %q, got %q", dir, inv.Stdout)
	}
}

func TestNewRunner_DefaultTimeout(t *testing.T) {
	r := NewRunner("yolo", "", 0)
	if r.Timeout != DefaultTimeout {
		t.Errorf("expected default timeout %s, got %s", DefaultTimeout, r.Timeout)
	}
}
