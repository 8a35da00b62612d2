package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/quantmind-br/pkgkit/internal/core"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHome = "/home/tester"

// isolate pins HOME and clears the XDG overrides
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", testHome)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")
}

func writeConfig(t *testing.T, fs afero.Fs, content string) {
	t.Helper()
	path := filepath.Join(testHome, ".config", "pkgkit", "config.toml")
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
}

func TestLoad(t *testing.T) {
	// Test loading config (will use defaults if file doesn't exist)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg == nil {
		t.Fatal("expected config, got nil")
	}

	if cfg.Logging.Level == "" {
		t.Error("expected default log level, got empty")
	}

	if cfg.Paths.DataDir == "" {
		t.Error("expected default data_dir, got empty")
	}
}

func TestLoadFrom_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadFrom(afero.NewMemMapFs())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(testHome, ".local", "share", "pkgkit"), cfg.Paths.DataDir)
	assert.Equal(t, filepath.Join(testHome, ".local", "share", "pkgkit", "history.db"), cfg.Paths.DBFile)
	assert.Equal(t, filepath.Join(testHome, ".local", "share", "pkgkit", "pkgkit.log"), cfg.Paths.LogFile)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "auto", cfg.Logging.Color)

	assert.Equal(t, []string{"not-installed"}, cfg.PackageKit.Filters)
	assert.Zero(t, cfg.PackageKit.Timeout)
	assert.True(t, cfg.PackageKit.Progress)
	assert.Equal(t, runtime.GOARCH, cfg.PackageKit.Arch)

	filters, err := cfg.PackageKit.ParsedFilters()
	require.NoError(t, err)
	assert.Equal(t, []core.Filter{core.FilterNotInstalled}, filters)
}

func TestLoadFrom_File(t *testing.T) {
	isolate(t)
	fs := afero.NewMemMapFs()
	writeConfig(t, fs, `
[paths]
db_file = "~/pkgkit/history.db"

[logging]
level = "debug"
color = "never"

[packagekit]
filters = ["not-installed", "arch", "newest"]
timeout = "90s"
progress = false
arch = "x86_64"
`)

	cfg, err := LoadFrom(fs)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(testHome, "pkgkit", "history.db"), cfg.Paths.DBFile)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "never", cfg.Logging.Color)
	assert.Equal(t, 90*time.Second, cfg.PackageKit.Timeout)
	assert.False(t, cfg.PackageKit.Progress)
	assert.Equal(t, "x86_64", cfg.PackageKit.Arch)

	filters, err := cfg.PackageKit.ParsedFilters()
	require.NoError(t, err)
	assert.Equal(t, []core.Filter{core.FilterNotInstalled, core.FilterArch, core.FilterNewest}, filters)
}

func TestLoadFrom_Env(t *testing.T) {
	isolate(t)
	t.Setenv("PKGKIT_LOGGING_LEVEL", "trace")
	t.Setenv("PKGKIT_PACKAGEKIT_TIMEOUT", "2m")
	t.Setenv("PKGKIT_PACKAGEKIT_FILTERS", "installed;gui")

	cfg, err := LoadFrom(afero.NewMemMapFs())
	require.NoError(t, err)

	assert.Equal(t, "trace", cfg.Logging.Level)
	assert.Equal(t, 2*time.Minute, cfg.PackageKit.Timeout)
	assert.Equal(t, []string{"installed", "gui"}, cfg.PackageKit.Filters)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown filter",
			content: "[packagekit]\nfilters = [\"shiny\"]\n",
			wantErr: "packagekit.filters",
		},
		{
			name:    "negative timeout",
			content: "[packagekit]\ntimeout = \"-5s\"\n",
			wantErr: "packagekit.timeout",
		},
		{
			name:    "bad color",
			content: "[logging]\ncolor = \"sometimes\"\n",
			wantErr: "logging.color",
		},
		{
			name:    "malformed toml",
			content: "[packagekit\n",
			wantErr: "read config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			fs := afero.NewMemMapFs()
			writeConfig(t, fs, tt.content)

			_, err := LoadFrom(fs)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExpandPath(t *testing.T) {
	homeDir, _ := os.UserHomeDir()
	t.Setenv("PKGKIT_TEST_DIR", "/srv/pkgkit")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty path",
			input: "",
			want:  "",
		},
		{
			name:  "absolute path",
			input: "/usr/local/bin",
			want:  "/usr/local/bin",
		},
		{
			name:  "home expansion",
			input: "~/test",
			want:  filepath.Join(homeDir, "test"),
		},
		{
			name:  "env expansion",
			input: "$PKGKIT_TEST_DIR/history.db",
			want:  "/srv/pkgkit/history.db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := expandPath(tt.input)
			if got != tt.want {
				t.Errorf("expandPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
