package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wager-reconciliation-service/internal/lifecycle"
)

var correctRowIDs []string

// correctCmd represents the correct command
var correctCmd = &cobra.Command{
	Use:   "correct <batch-id>",
	Short: "Replace rows' trusted values with their computed actuals",
	Long: `Correct applies the analyst-approved override: each listed row's trusted
outcome is replaced with the outcome the validation passes computed from the
matched game, and the row moves to CORRECTED. Correcting an already
corrected row is a no-op. Imported rows cannot be corrected.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		handler := NewCLIErrorHandler()

		e, err := buildEnv()
		if err != nil {
			os.Exit(handler.HandleError(err))
		}

		svc := lifecycle.NewService(e.store, e.log)
		result, err := svc.CorrectRows(cmd.Context(), args[0], correctRowIDs, e.cfg.Actor)
		if err != nil {
			os.Exit(handler.HandleError(err))
		}

		if jsonOutput {
			return printJSON(result)
		}
		fmt.Printf("Corrected %d row(s); %d unchanged\n", len(result.Corrected), len(result.Unchanged))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(correctCmd)
	correctCmd.Flags().StringSliceVar(&correctRowIDs, "rows", nil, "row ids to correct (required)")
	correctCmd.MarkFlagRequired("rows")
}
