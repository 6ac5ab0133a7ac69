// Package exec runs the external just binary on behalf of tools/call, per
// spec.md §4.E: a bounded subprocess with a default 300s timeout, graceful
// SIGTERM followed by a hard SIGKILL after a 5s grace period, and stdout
// and stderr captured separately.
package exec

import (
	"bytes"
	"context"
	"os/exec"
	"syscall"
	"time"

	"github.com/justmcp/justmcp/internal/errs"
)

// DefaultTimeout bounds how long a single tool invocation may run before it
// is terminated.
const DefaultTimeout = 300 * time.Second

// KillGrace is how long a terminated process is given to exit after SIGTERM
// before it is sent SIGKILL.
const KillGrace = 5 * time.Second

// Result is the outcome of one Run.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner invokes the just binary for a single recipe, with its resolved
// arguments.
type Runner struct {
	binary  string
	timeout time.Duration
}

// New creates a Runner. A zero timeout uses DefaultTimeout.
func New(binary string, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{binary: binary, timeout: timeout}
}

// Run invokes `just --justfile <justfilePath> <recipe> <args...>`, enforcing
// the runner's timeout. On timeout the process is sent SIGTERM and, if it is
// still alive after KillGrace, SIGKILL.
func (r *Runner) Run(ctx context.Context, justfilePath, recipe string, args []string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmdArgs := append([]string{"--justfile", justfilePath, recipe}, args...)
	cmd := exec.CommandContext(ctx, r.binary, cmdArgs...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = KillGrace

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if ctx.Err() == context.DeadlineExceeded {
		return res, &errs.ToolCallError{Kind: errs.Timeout, Msg: "recipe " + recipe + " timed out after " + r.timeout.String()}
	}
	if err != nil {
		if res.ExitCode != 0 {
			return res, &errs.ToolCallError{Kind: errs.NonZeroExit, Code: res.ExitCode, Stderr: res.Stderr}
		}
		return res, &errs.ToolCallError{Kind: errs.SpawnFailed, Msg: err.Error()}
	}
	return res, nil
}
