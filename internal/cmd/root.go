package cmd

import (
	"github.com/quantmind-br/pkgkit/internal/config"
	"github.com/quantmind-br/pkgkit/internal/core"
	"github.com/quantmind-br/pkgkit/internal/helpers"
	"github.com/quantmind-br/pkgkit/internal/packagekit"
	"github.com/quantmind-br/pkgkit/internal/syspkg"
	"github.com/quantmind-br/pkgkit/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// ProviderFactory opens the package backend with the given options
type ProviderFactory func(opts packagekit.Options, log *zerolog.Logger) (syspkg.Provider, error)

// Deps are the collaborators commands reach outside the process with
type Deps struct {
	OpenProvider ProviderFactory
	Runner       helpers.CommandRunner
	Confirm      func(label string) (bool, error)
	Select       func(label string, pkgs []core.Package) (core.Package, error)
}

// DefaultDeps talks to the PackageKit daemon and the terminal
func DefaultDeps() Deps {
	return Deps{
		OpenProvider: openPackageKit,
		Runner:       helpers.NewOSCommandRunner(),
		Confirm:      ui.ConfirmPrompt,
		Select:       ui.SelectPackage,
	}
}

func openPackageKit(opts packagekit.Options, log *zerolog.Logger) (syspkg.Provider, error) {
	return packagekit.Open(opts, log)
}

// NewRootCmd creates the root command
func NewRootCmd(cfg *config.Config, log *zerolog.Logger, version string) *cobra.Command {
	return NewRootCmdWithDeps(cfg, log, version, DefaultDeps())
}

// NewRootCmdWithDeps creates the root command with explicit collaborators
func NewRootCmdWithDeps(cfg *config.Config, log *zerolog.Logger, version string, deps Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pkgkit",
		Short:         "Search and install system packages through PackageKit",
		Long:          `Search the distribution repositories and install packages through the PackageKit daemon, whatever the backend (apt, dnf, zypper, ...).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewSearchCmd(cfg, log, deps))
	cmd.AddCommand(NewInstallCmd(cfg, log, deps))
	cmd.AddCommand(NewHistoryCmd(cfg, log))
	cmd.AddCommand(NewDoctorCmd(cfg, log, deps))
	cmd.AddCommand(NewCompletionCmd(cfg, log))
	cmd.AddCommand(NewVersionCmd(version))

	return cmd
}

// providerOptions builds client options from the configuration. Non-empty
// filterFlags replace the configured filters.
func providerOptions(cfg *config.Config, filterFlags []string, progress core.ProgressFunc) (packagekit.Options, error) {
	values := cfg.PackageKit.Filters
	if len(filterFlags) > 0 {
		values = filterFlags
	}

	filters, err := core.ParseFilters(values)
	if err != nil {
		return packagekit.Options{}, invalidArgs(err)
	}

	return packagekit.Options{
		Filters:  filters,
		Timeout:  cfg.PackageKit.Timeout,
		Progress: progress,
	}, nil
}
