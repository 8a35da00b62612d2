package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/quantmind-br/pkgkit/internal/config"
	"github.com/quantmind-br/pkgkit/internal/core"
	"github.com/quantmind-br/pkgkit/internal/db"
	"github.com/quantmind-br/pkgkit/internal/security"
	"github.com/quantmind-br/pkgkit/internal/syspkg"
	"github.com/quantmind-br/pkgkit/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewInstallCmd creates the install command
func NewInstallCmd(cfg *config.Config, log *zerolog.Logger, deps Deps) *cobra.Command {
	var (
		arch    string
		anyArch bool
		byID    bool
		yes     bool
	)

	cmd := &cobra.Command{
		Use:   "install NAME...",
		Short: "Install packages",
		Long: `Install packages through PackageKit in a single transaction.

Each NAME is resolved first and the candidates are narrowed to the target
architecture. When several candidates remain you are asked to pick one.
With --id the arguments are full package ids (name;version;arch;data).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			validate := validateNames
			if byID {
				validate = validateIDs
			}
			if err := validate(args); err != nil {
				ui.PrintError("%v", err)
				return err
			}

			target := arch
			if target == "" {
				target = cfg.PackageKit.Arch
			}
			if target == "" {
				target = core.HostArch()
			}

			progress := newProgress(cmd, cfg)
			opts, err := providerOptions(cfg, nil, progress.Func())
			if err != nil {
				ui.PrintError("%v", err)
				return err
			}

			ctx := commandContext(cmd)

			database, err := db.New(ctx, cfg.Paths.DBFile)
			if err != nil {
				ui.PrintError("failed to open database: %v", err)
				return withExitCode(core.ExitDatabase, fmt.Errorf("open database: %w", err))
			}
			defer database.Close()

			provider, err := deps.OpenProvider(opts, log)
			if err != nil {
				ui.PrintError("PackageKit is not available: %v", err)
				return withExitCode(core.ExitBackend, err)
			}
			defer provider.Close()

			var pkgs []core.Package
			if byID {
				pkgs, err = packagesFromIDs(args)
			} else {
				sel := &selector{
					provider: provider,
					progress: progress,
					deps:     deps,
					log:      log,
					arch:     target,
					anyArch:  anyArch,
					yes:      yes,
				}
				pkgs, err = sel.resolve(ctx, args)
			}
			if err != nil {
				ui.PrintError("%v", err)
				return err
			}

			ui.PrintInfo("Packages to install (%s backend):", provider.Backend())
			printPackageTable(cmd.OutOrStdout(), pkgs)

			if !yes {
				ok, err := deps.Confirm(fmt.Sprintf("Install %d package(s)", len(pkgs)))
				if err != nil {
					return err
				}
				if !ok {
					ui.PrintWarning("Installation cancelled")
					return nil
				}
			}

			return installAndRecord(ctx, provider, database, progress, log, pkgs)
		},
	}

	cmd.Flags().StringVar(&arch, "arch", "", "target architecture (default packagekit.arch)")
	cmd.Flags().BoolVar(&anyArch, "any-arch", false, "do not filter candidates by architecture")
	cmd.Flags().BoolVar(&byID, "id", false, "treat arguments as full package ids")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not prompt; pick the first candidate and install")

	return cmd
}

func validateIDs(ids []string) error {
	for _, id := range ids {
		if err := security.ValidatePackageID(id); err != nil {
			return invalidArgs(err)
		}
	}
	return nil
}

func packagesFromIDs(ids []string) ([]core.Package, error) {
	pkgs := make([]core.Package, 0, len(ids))
	for _, id := range ids {
		pkg, err := core.PackageFromID(id)
		if err != nil {
			return nil, invalidArgs(err)
		}
		pkgs = append(pkgs, pkg)
	}
	return pkgs, nil
}

// selector turns package names into install candidates
type selector struct {
	provider syspkg.Provider
	progress *ui.TransactionProgress
	deps     Deps
	log      *zerolog.Logger
	arch     string
	anyArch  bool
	yes      bool
}

func (s *selector) resolve(ctx context.Context, names []string) ([]core.Package, error) {
	pkgs := make([]core.Package, 0, len(names))
	for _, name := range names {
		pkg, err := s.pick(ctx, name)
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, pkg)
	}
	return pkgs, nil
}

func (s *selector) pick(ctx context.Context, name string) (core.Package, error) {
	s.progress.Start(fmt.Sprintf("Resolving %s", name))
	found, err := s.provider.SearchPackage(ctx, name)
	s.progress.Finish()
	if err != nil {
		return core.Package{}, fmt.Errorf("search %s: %w", name, err)
	}

	candidates := found
	if !s.anyArch {
		candidates = core.FilterByArch(found, s.arch)
	}

	s.log.Debug().
		Str("name", name).
		Int("found", len(found)).
		Int("candidates", len(candidates)).
		Str("arch", s.arch).
		Msg("resolved install candidates")

	switch {
	case len(candidates) == 0 && len(found) > 0:
		return core.Package{}, withExitCode(core.ExitInstallFailed,
			fmt.Errorf("no %s build of %s (found %d for other architectures, use --any-arch)", s.arch, name, len(found)))
	case len(candidates) == 0:
		return core.Package{}, withExitCode(core.ExitInstallFailed, fmt.Errorf("package %s not found", name))
	case len(candidates) == 1 || s.yes:
		return candidates[0], nil
	}

	pkg, err := s.deps.Select(fmt.Sprintf("Several candidates for %s", name), candidates)
	if err != nil {
		return core.Package{}, err
	}
	return pkg, nil
}

// installAndRecord installs pkgs in one transaction and records the
// outcome in the history database
func installAndRecord(ctx context.Context, provider syspkg.Provider, database *db.DB, progress *ui.TransactionProgress, log *zerolog.Logger, pkgs []core.Package) error {
	tx := db.NewTransaction(db.OpInstall, provider.Backend(), pkgs)
	if err := database.Create(ctx, tx); err != nil {
		ui.PrintError("failed to record transaction: %v", err)
		return withExitCode(core.ExitDatabase, fmt.Errorf("record transaction: %w", err))
	}

	progress.Start(fmt.Sprintf("Installing %d package(s)", len(pkgs)))
	installErr := provider.InstallPackages(ctx, pkgs)
	progress.Finish()

	tx.Finish(installErr)
	// The context may be cancelled already; the outcome is still recorded
	if err := database.Update(context.WithoutCancel(ctx), tx); err != nil {
		log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("failed to update transaction record")
	}

	if installErr != nil {
		ui.PrintError("installation failed: %v", installErr)
		if errors.Is(installErr, context.Canceled) {
			return installErr
		}
		return withExitCode(core.ExitInstallFailed, fmt.Errorf("install: %w", installErr))
	}

	ui.PrintSuccess("Installed %s", joinNames(tx.Names()))
	log.Info().
		Str("transaction_id", tx.ID).
		Strs("package_ids", tx.PackageIDs).
		Msg("installation completed successfully")
	return nil
}
