package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wager-reconciliation-service/internal/lifecycle"
)

var importRowIDs []string

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <batch-id>",
	Short: "Convert a batch's ready rows into bet records",
	Long: `Import converts every ready row (status CORRECT or CORRECTED, matched
game, selected team, positive wager, not yet imported) into one immutable
bet with a single leg. All creations, row links, the batch status change,
and the audit entry commit in one transaction.

Examples:
  betrecon import 4f1c...-batch-id
  betrecon import 4f1c...-batch-id --rows r1,r2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		handler := NewCLIErrorHandler()

		e, err := buildEnv()
		if err != nil {
			os.Exit(handler.HandleError(err))
		}

		svc := lifecycle.NewService(e.store, e.log)
		result, err := svc.ImportBatch(cmd.Context(), args[0], importRowIDs, e.cfg.Actor)
		if err != nil {
			os.Exit(handler.HandleError(err))
		}

		if jsonOutput {
			return printJSON(result)
		}
		fmt.Printf("Imported %d row(s), skipped %d\n", result.Imported, result.Skipped)
		for _, msg := range result.Errors {
			fmt.Printf("  skipped %s\n", msg)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringSliceVar(&importRowIDs, "rows", nil, "narrow the import to these row ids")
}
