package cmd

import (
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/quantmind-br/pkgkit/internal/config"
	"github.com/quantmind-br/pkgkit/internal/core"
	"github.com/quantmind-br/pkgkit/internal/security"
	"github.com/quantmind-br/pkgkit/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewSearchCmd creates the search command
func NewSearchCmd(cfg *config.Config, log *zerolog.Logger, deps Deps) *cobra.Command {
	var (
		output  string
		filters []string
		ranked  bool
	)

	cmd := &cobra.Command{
		Use:   "search NAME...",
		Short: "Search packages by name",
		Long: `Resolve package names against the configured repositories.

By default only packages that are not installed yet are reported; use
--filter to change that (installed, not-installed, arch, newest, gui, ...).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			if err := validateNames(args); err != nil {
				ui.PrintError("%v", err)
				return err
			}

			progress := newProgress(cmd, cfg)
			opts, err := providerOptions(cfg, filters, progress.Func())
			if err != nil {
				ui.PrintError("%v", err)
				return err
			}

			provider, err := deps.OpenProvider(opts, log)
			if err != nil {
				ui.PrintError("PackageKit is not available: %v", err)
				return withExitCode(core.ExitBackend, err)
			}
			defer provider.Close()

			ctx := commandContext(cmd)
			pkgs := []core.Package{}
			for _, name := range args {
				log.Debug().Str("name", name).Msg("searching package")

				progress.Start(fmt.Sprintf("Resolving %s", name))
				found, err := provider.SearchPackage(ctx, name)
				progress.Finish()
				if err != nil {
					ui.PrintError("search %s: %v", name, err)
					return fmt.Errorf("search %s: %w", name, err)
				}
				pkgs = append(pkgs, found...)
			}

			if ranked {
				pkgs = rankPackages(args, pkgs)
			}

			if output != outputTable {
				return writeStructured(cmd.OutOrStdout(), output, pkgs)
			}

			if len(pkgs) == 0 {
				ui.PrintInfo("No packages found for %s", joinNames(args))
				return nil
			}

			printPackageTable(cmd.OutOrStdout(), pkgs)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json, yaml")
	cmd.Flags().StringSliceVarP(&filters, "filter", "f", nil, "PackageKit filter, repeatable (overrides packagekit.filters)")
	cmd.Flags().BoolVar(&ranked, "fuzzy", false, "order results by fuzzy closeness to the searched names")

	return cmd
}

// validateNames rejects names that cannot be package names before any
// of them reaches the backend
func validateNames(names []string) error {
	for _, name := range names {
		if err := security.ValidatePackageName(name); err != nil {
			return invalidArgs(err)
		}
	}
	return nil
}

// rankPackages orders pkgs by their best fuzzy distance to any of terms.
// Packages that match no term keep their relative order at the end.
func rankPackages(terms []string, pkgs []core.Package) []core.Package {
	targets := make([]string, len(pkgs))
	for i, pkg := range pkgs {
		targets[i] = pkg.Name
	}

	best := make(map[int]int, len(pkgs))
	for _, term := range terms {
		for _, rank := range fuzzy.RankFindNormalizedFold(term, targets) {
			if d, ok := best[rank.OriginalIndex]; !ok || rank.Distance < d {
				best[rank.OriginalIndex] = rank.Distance
			}
		}
	}

	order := make([]int, len(pkgs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		da, oka := best[order[a]]
		db, okb := best[order[b]]
		if oka != okb {
			return oka
		}
		return da < db
	})

	ranked := make([]core.Package, 0, len(pkgs))
	for _, i := range order {
		ranked = append(ranked, pkgs[i])
	}
	return ranked
}
