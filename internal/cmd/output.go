package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/quantmind-br/pkgkit/internal/config"
	"github.com/quantmind-br/pkgkit/internal/core"
	"github.com/quantmind-br/pkgkit/internal/ui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func validateOutput(format string) error {
	switch format {
	case outputTable, outputJSON, outputYAML:
		return nil
	default:
		return invalidArgsf("invalid output format %q (expected table, json or yaml)", format)
	}
}

// writeStructured encodes v as JSON or YAML
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// printPackageTable prints packages as a table
func printPackageTable(w io.Writer, pkgs []core.Package) {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Name", "Version", "Arch", "Repository", "Summary"}),
		tablewriter.WithAlignment(tw.MakeAlign(5, tw.AlignLeft)),
		tablewriter.WithSymbols(tw.NewSymbols(tw.StyleNone)),
	)

	for _, pkg := range pkgs {
		table.Append(
			pkg.Name,
			pkg.Version,
			pkg.Arch,
			ui.ColorizeData(pkg.Data),
			truncate(pkg.Summary, 60),
		)
	}

	table.Render()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

// newProgress returns the progress sink for a command: drawn on stderr
// when enabled in the configuration and stderr is a terminal
func newProgress(cmd *cobra.Command, cfg *config.Config) *ui.TransactionProgress {
	enabled := false
	if cfg.PackageKit.Progress {
		if f, ok := cmd.ErrOrStderr().(*os.File); ok {
			enabled = ui.IsTerminal(f)
		}
	}
	return ui.NewTransactionProgress(cmd.ErrOrStderr(), enabled)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func joinNames(names []string) string {
	return strings.Join(names, ", ")
}
