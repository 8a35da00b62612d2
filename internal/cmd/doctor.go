package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/quantmind-br/pkgkit/internal/config"
	"github.com/quantmind-br/pkgkit/internal/db"
	"github.com/quantmind-br/pkgkit/internal/helpers"
	"github.com/quantmind-br/pkgkit/internal/packagekit"
	"github.com/quantmind-br/pkgkit/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewDoctorCmd creates the doctor command
func NewDoctorCmd(cfg *config.Config, log *zerolog.Logger, deps Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check PackageKit availability and local setup",
		Long:  `Check the PackageKit daemon, the pkcon tool, the configuration, the data directories and the history database.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ui.PrintHeader("System Diagnostics")

			ctx := commandContext(cmd)
			var issues []string
			var warnings []string

			// 1. PackageKit daemon
			ui.PrintSubheader("PackageKit")
			opts, err := providerOptions(cfg, nil, nil)
			if err != nil {
				ui.PrintError("Configuration: %v", err)
				issues = append(issues, fmt.Sprintf("Invalid packagekit.filters: %v", err))
				opts = packagekit.DefaultOptions()
			}
			provider, err := deps.OpenProvider(opts, log)
			if err != nil {
				ui.PrintError("Daemon: NOT AVAILABLE (%v)", err)
				issues = append(issues, fmt.Sprintf("PackageKit not available: %v", err))
			} else {
				ui.PrintSuccess("Daemon: available (backend %s)", provider.Backend())
				provider.Close()
			}

			// 2. Tools
			ui.PrintSubheader("Tools")
			pkcon := checkPkcon(ctx, deps.Runner)
			switch {
			case !pkcon.Found:
				ui.PrintWarning("pkcon: not found (optional - PackageKit console client)")
				warnings = append(warnings, "Optional tool missing: pkcon")
			case pkcon.Err != nil:
				ui.PrintWarning("pkcon: found, but --version exited with status %d: %s", pkcon.ExitCode, pkcon.Stderr)
				warnings = append(warnings, fmt.Sprintf("pkcon --version failed with status %d", pkcon.ExitCode))
			case pkcon.Version != "":
				ui.PrintSuccess("pkcon: version %s", pkcon.Version)
			default:
				ui.PrintSuccess("pkcon: found")
			}

			// 3. Configuration
			ui.PrintSubheader("Configuration")
			printConfig(cfg)

			// 4. Directories
			ui.PrintSubheader("Directory Structure")
			dirs := []struct {
				path string
				name string
			}{
				{cfg.Paths.DataDir, "Data directory"},
				{filepath.Dir(cfg.Paths.DBFile), "Database directory"},
				{filepath.Dir(cfg.Paths.LogFile), "Log directory"},
			}
			for _, dir := range dirs {
				if checkDirectory(dir.path) {
					ui.PrintSuccess("%s: %s", dir.name, dir.path)
				} else {
					ui.PrintError("%s: NOT ACCESSIBLE (%s)", dir.name, dir.path)
					issues = append(issues, fmt.Sprintf("Directory not accessible: %s", dir.path))
				}
			}

			// 5. Database
			ui.PrintSubheader("Database")
			if count, err := checkDatabase(ctx, cfg.Paths.DBFile); err != nil {
				ui.PrintError("Database: NOT ACCESSIBLE")
				issues = append(issues, fmt.Sprintf("Cannot open database: %v", err))
			} else {
				ui.PrintSuccess("Database: accessible (%s)", cfg.Paths.DBFile)
				ui.PrintInfo("Recorded transactions: %d", count)
			}

			// Summary
			ui.PrintHeader("Summary")

			if len(issues) == 0 {
				ui.PrintSuccess("All critical checks passed!")
			} else {
				ui.PrintError("Found %d issue(s):", len(issues))
				ui.PrintList(issues)
			}

			if len(warnings) > 0 {
				ui.PrintWarning("Found %d warning(s):", len(warnings))
				ui.PrintList(warnings)
			}

			if len(issues) > 0 {
				return fmt.Errorf("system check failed with %d issue(s)", len(issues))
			}

			return nil
		},
	}

	return cmd
}

// pkconStatus is the outcome of probing the PackageKit console client
type pkconStatus struct {
	Found    bool
	Version  string
	Err      error
	ExitCode int    // exit status of a failed probe, -1 if it never exited
	Stderr   string // first line pkcon wrote to stderr
}

// checkPkcon runs pkcon --version when the tool is installed
func checkPkcon(ctx context.Context, runner helpers.CommandRunner) pkconStatus {
	if !runner.CommandExists("pkcon") {
		return pkconStatus{}
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := pkconStatus{Found: true}
	stdout, stderr, err := runner.RunCommandWithOutput(ctx, "pkcon", "--version")
	if err != nil {
		status.Err = err
		status.ExitCode = runner.GetExitCode(err)
		status.Stderr, _, _ = strings.Cut(strings.TrimSpace(stderr), "\n")
		if status.Stderr == "" {
			status.Stderr = err.Error()
		}
		return status
	}

	status.Version = strings.TrimSpace(stdout)
	return status
}

func printConfig(cfg *config.Config) {
	timeout := "none"
	if cfg.PackageKit.Timeout > 0 {
		timeout = cfg.PackageKit.Timeout.String()
	}

	ui.PrintKeyValue("Filters", strings.Join(cfg.PackageKit.Filters, ", "))
	ui.PrintKeyValue("Timeout", timeout)
	ui.PrintKeyValue("Architecture", cfg.PackageKit.Arch)
	ui.PrintKeyValue("Progress", fmt.Sprintf("%t", cfg.PackageKit.Progress))
	ui.PrintKeyValue("Log level", cfg.Logging.Level)
	ui.PrintKeyValue("Colors", fmt.Sprintf("%s (%s)", cfg.Logging.Color, onOff(ui.AreColorsEnabled())))
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}

// checkDirectory checks if a directory exists and is writable, creating it
// when missing
func checkDirectory(path string) bool {
	if path == "" {
		return false
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(path, 0755) == nil
		}
		return false
	}

	if !info.IsDir() {
		return false
	}

	testFile := filepath.Join(path, ".pkgkit-test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		return false
	}
	os.Remove(testFile)

	return true
}

// checkDatabase opens the history database and counts its transactions
func checkDatabase(ctx context.Context, path string) (int, error) {
	database, err := db.New(ctx, path)
	if err != nil {
		return 0, err
	}
	defer database.Close()

	if err := database.Ping(ctx); err != nil {
		return 0, err
	}

	txs, err := database.List(ctx, 0)
	if err != nil {
		return 0, err
	}
	return len(txs), nil
}

