package clang

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// RunResult captures one tool invocation. A nonzero exit code is not an
// error at this layer; clang-tidy exits 1 whenever it has findings, so the
// callers decide which codes are fatal for their tool.
type RunResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner executes a tool binary in a working directory. Tests substitute a
// canned implementation; production uses ExecRunner.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (RunResult, error)
}

// ExecRunner runs tools through os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (RunResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := RunResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		if ctx.Err() != nil {
			return result, fmt.Errorf("%s: %w", name, ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		// The binary could not be started at all.
		return result, fmt.Errorf("%s: %w", name, err)
	}
	return result, nil
}
