package cmd

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/quantmind-br/pkgkit/internal/config"
	"github.com/quantmind-br/pkgkit/internal/core"
	"github.com/quantmind-br/pkgkit/internal/db"
	"github.com/quantmind-br/pkgkit/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command
func NewHistoryCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var (
		output string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show install history",
		Long:  `List the install transactions recorded by pkgkit, newest first.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			if limit < 0 {
				return invalidArgsf("--limit must not be negative")
			}

			ctx := commandContext(cmd)

			database, err := db.New(ctx, cfg.Paths.DBFile)
			if err != nil {
				ui.PrintError("failed to open database: %v", err)
				return withExitCode(core.ExitDatabase, fmt.Errorf("open database: %w", err))
			}
			defer database.Close()

			txs, err := database.List(ctx, limit)
			if err != nil {
				ui.PrintError("failed to list transactions: %v", err)
				return withExitCode(core.ExitDatabase, fmt.Errorf("list transactions: %w", err))
			}
			log.Debug().Int("count", len(txs)).Msg("listed transactions")

			if output != outputTable {
				return writeStructured(cmd.OutOrStdout(), output, txs)
			}

			if len(txs) == 0 {
				ui.PrintInfo("No transactions recorded")
				return nil
			}

			printHistoryTable(cmd.OutOrStdout(), txs)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json, yaml")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "show at most N transactions (0 for all)")

	return cmd
}

// printHistoryTable prints transactions as a table
func printHistoryTable(w io.Writer, txs []db.Transaction) {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"ID", "Date", "Status", "Backend", "Packages", "Error"}),
		tablewriter.WithAlignment(tw.MakeAlign(6, tw.AlignLeft)),
		tablewriter.WithSymbols(tw.NewSymbols(tw.StyleLight)),
	)

	for _, tx := range txs {
		id := tx.ID
		if len(id) > 8 {
			id = id[:8]
		}

		table.Append(
			id,
			tx.StartedAt.Local().Format("2006-01-02 15:04"),
			ui.ColorizeStatus(tx.Status),
			tx.Backend,
			truncate(joinNames(tx.Names()), 40),
			truncate(tx.Error, 40),
		)
	}

	table.Render()
}
