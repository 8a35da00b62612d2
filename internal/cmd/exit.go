package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/quantmind-br/pkgkit/internal/core"
	"github.com/quantmind-br/pkgkit/internal/native"
	"github.com/quantmind-br/pkgkit/internal/packagekit"
	"github.com/quantmind-br/pkgkit/internal/ui"
)

// ExitError carries the process exit code for a command failure
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

func invalidArgs(err error) error {
	return withExitCode(core.ExitInvalidArgs, err)
}

func invalidArgsf(format string, args ...any) error {
	return invalidArgs(fmt.Errorf(format, args...))
}

// ExitCode maps a command error onto a process exit code
func ExitCode(err error) int {
	if err == nil {
		return core.ExitSuccess
	}

	// Ctrl-C inside a prompt is read as a keystroke, not a signal
	if errors.Is(err, context.Canceled) || errors.Is(err, ui.ErrCancelled) {
		return core.ExitInterrupted
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var pkErr *packagekit.Error
	if errors.As(err, &pkErr) || errors.Is(err, native.ErrUnavailable) {
		return core.ExitBackend
	}

	return core.ExitGeneral
}
