package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wager-reconciliation-service/internal/lifecycle"
)

// summaryCmd represents the summary command
var summaryCmd = &cobra.Command{
	Use:   "summary <batch-id>",
	Short: "Show a batch's validation counts and import readiness",
	Long: `Summary prints the batch's lifecycle state and the pre-import partition:
which rows are ready to import, which are blocked and why, and which have
already been imported. It is a dry run and changes nothing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		handler := NewCLIErrorHandler()

		e, err := buildEnv()
		if err != nil {
			os.Exit(handler.HandleError(err))
		}

		batch, err := e.store.Batches().Get(cmd.Context(), args[0])
		if err != nil {
			os.Exit(handler.HandleError(err))
		}
		svc := lifecycle.NewService(e.store, e.log)
		summary, err := svc.Summarize(cmd.Context(), args[0])
		if err != nil {
			os.Exit(handler.HandleError(err))
		}

		if jsonOutput {
			return printJSON(map[string]interface{}{
				"batch":   batch,
				"summary": summary,
			})
		}

		fmt.Printf("Batch %s (%s): %s\n", batch.ID, batch.Filename, batch.Status)
		fmt.Printf("Rows: %d total, %d correct, %d flagged, %d uncertain, %d corrected, %d imported\n",
			batch.TotalRows, batch.CorrectCount, batch.FlaggedCount,
			batch.UncertainCount, batch.CorrectedCount, batch.ImportedCount)

		fmt.Printf("\nImport readiness:\n")
		fmt.Printf("  ready:            %d (wager total %s)\n", len(summary.Ready), summary.ReadyWagerTotal.StringFixed(2))
		fmt.Printf("  not ready:        %d\n", len(summary.NotReady))
		fmt.Printf("  already imported: %d\n", len(summary.AlreadyImported))

		if len(summary.OutcomeDistribution) > 0 {
			fmt.Printf("\nReady outcomes:\n")
			for outcome, count := range summary.OutcomeDistribution {
				fmt.Printf("  %-8s %d\n", outcome, count)
			}
		}
		for _, nr := range summary.NotReady {
			fmt.Printf("  row %d: %s\n", nr.RowNumber, nr.Reason)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}
