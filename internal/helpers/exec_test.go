package helpers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSCommandRunner_CommandExists(t *testing.T) {
	runner := NewOSCommandRunner()

	assert.True(t, runner.CommandExists("sh"))
	assert.False(t, runner.CommandExists("pkgkit-no-such-tool"))

	// Cached lookups answer the same
	assert.True(t, runner.CommandExists("sh"))
	assert.False(t, runner.CommandExists("pkgkit-no-such-tool"))
}

func TestOSCommandRunner_RunCommandWithOutput(t *testing.T) {
	runner := NewOSCommandRunner()
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		stdout, stderr, err := runner.RunCommandWithOutput(ctx, "sh", "-c", "echo 1.2.8")
		require.NoError(t, err)
		assert.Equal(t, "1.2.8\n", stdout)
		assert.Empty(t, stderr)
		assert.Equal(t, 0, runner.GetExitCode(err))
	})

	t.Run("failure keeps stderr and exit status", func(t *testing.T) {
		stdout, stderr, err := runner.RunCommandWithOutput(ctx, "sh", "-c", "echo partial; echo 'daemon not running' >&2; exit 3")
		require.Error(t, err)
		assert.Equal(t, "partial\n", stdout)
		assert.Equal(t, "daemon not running\n", stderr)
		assert.Contains(t, err.Error(), "sh -c")
		assert.Equal(t, 3, runner.GetExitCode(err))
	})

	t.Run("arguments are not interpreted by a shell", func(t *testing.T) {
		stdout, _, err := runner.RunCommandWithOutput(ctx, "echo", "$HOME;", "|", "true")
		require.NoError(t, err)
		assert.Equal(t, "$HOME; | true\n", stdout)
	})

	t.Run("timeout", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		_, _, err := runner.RunCommandWithOutput(ctx, "sleep", "5")
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("missing command", func(t *testing.T) {
		_, _, err := runner.RunCommandWithOutput(ctx, "pkgkit-no-such-tool")
		require.Error(t, err)
		assert.Equal(t, -1, runner.GetExitCode(err))
	})
}

func TestOSCommandRunner_GetExitCode(t *testing.T) {
	runner := NewOSCommandRunner()

	assert.Equal(t, 0, runner.GetExitCode(nil))
	assert.Equal(t, -1, runner.GetExitCode(errors.New("not an exit error")))
}

func TestMockCommandRunner(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		mock := &MockCommandRunner{}
		assert.False(t, mock.CommandExists("pkcon"))

		stdout, stderr, err := mock.RunCommandWithOutput(context.Background(), "pkcon", "--version")
		assert.NoError(t, err)
		assert.Empty(t, stdout)
		assert.Empty(t, stderr)

		assert.Equal(t, 0, mock.GetExitCode(nil))
		assert.Equal(t, 1, mock.GetExitCode(errors.New("failed")))
	})

	t.Run("scripted", func(t *testing.T) {
		mock := &MockCommandRunner{
			CommandExistsFunc: func(name string) bool { return name == "pkcon" },
			RunCommandWithOutputFunc: func(_ context.Context, name string, args ...string) (string, string, error) {
				return name + " " + args[0], "warn", nil
			},
			GetExitCodeFunc: func(error) int { return 42 },
		}

		assert.True(t, mock.CommandExists("pkcon"))
		assert.False(t, mock.CommandExists("dnf"))

		stdout, stderr, err := mock.RunCommandWithOutput(context.Background(), "pkcon", "--version")
		require.NoError(t, err)
		assert.Equal(t, "pkcon --version", stdout)
		assert.Equal(t, "warn", stderr)
		assert.Equal(t, 42, mock.GetExitCode(errors.New("x")))
	})
}

func TestCommandRunnerInterface(_ *testing.T) {
	var _ CommandRunner = &OSCommandRunner{}
	var _ CommandRunner = &MockCommandRunner{}
}
