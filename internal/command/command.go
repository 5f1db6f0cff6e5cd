// Package command runs external programs and captures their output.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"
)

// Result is the captured outcome of a finished process
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Success reports whether the process exited with status zero
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Runner executes a program to completion
type Runner interface {
	// Run starts name with args and waits for it to exit.
	// A nonzero exit is reported through Result.ExitCode, not as an error;
	// an error means the process could not be started or waited on.
	Run(ctx context.Context, name string, args ...string) (*Result, error)
}

// ExecRunner runs programs with os/exec
type ExecRunner struct {
	// Env overrides the process environment when non-nil
	Env []string
}

// Run implements Runner
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if r.Env != nil {
		cmd.Env = r.Env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &Result{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}
	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			result.ExitCode = status.ExitStatus()
		} else {
			result.ExitCode = -1
		}
		return result, nil
	}
	return nil, fmt.Errorf("run %s: %w", name, err)
}

// Verify ExecRunner implements the Runner interface.
var _ Runner = (*ExecRunner)(nil)
