package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// revalidateCmd represents the revalidate command
var revalidateCmd = &cobra.Command{
	Use:   "revalidate <batch-id>",
	Short: "Re-run validation for a batch's uncertain rows",
	Long: `Revalidate re-runs the validation pipeline for rows currently marked
UNCERTAIN, typically after more game results have become available. Batch
counters are adjusted incrementally.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		handler := NewCLIErrorHandler()

		e, err := buildEnv()
		if err != nil {
			os.Exit(handler.HandleError(err))
		}

		batch, err := e.orchestrator().RevalidateUncertain(cmd.Context(), args[0])
		if err != nil {
			os.Exit(handler.HandleError(err))
		}

		if jsonOutput {
			return printJSON(batch)
		}
		fmt.Printf("Batch %s: %d correct, %d flagged, %d uncertain, %d corrected\n",
			batch.ID, batch.CorrectCount, batch.FlaggedCount, batch.UncertainCount, batch.CorrectedCount)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(revalidateCmd)
}
