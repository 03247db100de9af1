// Package execproc runs external collaborator processes (the fetcher
// container, docker compose) as a typed capability instead of ad hoc shell
// strings.
package execproc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// Result captures one finished external process.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Runner abstracts process execution for tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// Local runs processes on the host. Calls block until the process exits;
// there is no internal timeout, a hung collaborator is a hang.
type Local struct{}

// Run executes name with args, capturing stdout/stderr and the exit code.
// A non-zero exit is returned as an error alongside the populated Result.
func (Local) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.ExitCode = 0
		return res, nil
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		return res, fmt.Errorf("%s exited with code %d", name, res.ExitCode)
	default:
		res.ExitCode = -1
		return res, fmt.Errorf("run %s: %w", name, err)
	}
}
