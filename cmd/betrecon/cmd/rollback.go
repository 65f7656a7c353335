package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wager-reconciliation-service/internal/lifecycle"
)

// rollbackCmd represents the rollback command
var rollbackCmd = &cobra.Command{
	Use:   "rollback <batch-id>",
	Short: "Reverse a batch's import in full",
	Long: `Rollback deletes every bet created for the batch (legs before parents),
clears the imported link on each row, and resets the batch to VALIDATED.
Rollback is total for a batch; it cannot undo a subset.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		handler := NewCLIErrorHandler()

		e, err := buildEnv()
		if err != nil {
			os.Exit(handler.HandleError(err))
		}

		svc := lifecycle.NewService(e.store, e.log)
		result, err := svc.RollbackBatch(cmd.Context(), args[0], e.cfg.Actor)
		if err != nil {
			os.Exit(handler.HandleError(err))
		}

		if jsonOutput {
			return printJSON(result)
		}
		fmt.Printf("Rolled back %d bet record(s)\n", result.RolledBack)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rollbackCmd)
}
