package helpers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// CommandRunner runs external tools. It is an interface so commands can
// be tested without the tools installed.
type CommandRunner interface {
	// CommandExists reports whether name resolves in PATH
	CommandExists(name string) bool

	// RunCommandWithOutput runs name and returns what it wrote to
	// stdout and stderr, whether or not it succeeded
	RunCommandWithOutput(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)

	// GetExitCode returns the exit status carried by a RunCommandWithOutput
	// error: 0 for nil, -1 when the process never exited normally
	GetExitCode(err error) int
}

// OSCommandRunner runs commands with os/exec. PATH lookups are cached.
type OSCommandRunner struct {
	lookups sync.Map // name -> bool
}

// NewOSCommandRunner creates a runner backed by os/exec
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// CommandExists implements CommandRunner.CommandExists
func (r *OSCommandRunner) CommandExists(name string) bool {
	if found, ok := r.lookups.Load(name); ok {
		return found.(bool)
	}

	_, err := exec.LookPath(name)
	r.lookups.Store(name, err == nil)
	return err == nil
}

// RunCommandWithOutput implements CommandRunner.RunCommandWithOutput.
// Arguments are passed to the process as-is, never through a shell.
func (r *OSCommandRunner) RunCommandWithOutput(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return stdout.String(), stderr.String(), fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}

	return stdout.String(), stderr.String(), nil
}

// GetExitCode implements CommandRunner.GetExitCode
func (r *OSCommandRunner) GetExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
