package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"wager-reconciliation-service/internal/ingest"
)

var ingestSkipValidation bool

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Ingest a wager spreadsheet and validate it",
	Long: `Ingest parses a CSV or XLSX spreadsheet of wagers, detects its columns,
normalizes every row, persists the batch, and runs the validation pipeline.

Examples:
  betrecon ingest wagers.xlsx
  betrecon ingest wagers.csv --skip-validation
  betrecon ingest wagers.csv --games-file results.json --db-driver sqlite`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		handler := NewCLIErrorHandler()
		if err := runIngest(cmd.Context(), args[0]); err != nil {
			os.Exit(handler.HandleError(err))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVar(&ingestSkipValidation, "skip-validation", false, "persist the batch without running validation")
}

func runIngest(ctx context.Context, path string) error {
	e, err := buildEnv()
	if err != nil {
		return err
	}

	svc := ingest.NewService(e.store, e.registry, e.log)
	result, err := svc.IngestFile(ctx, path)
	if err != nil {
		return err
	}

	batch := result.Batch
	if !ingestSkipValidation {
		batch, err = e.orchestrator().ValidateBatch(ctx, batch.ID)
		if err != nil {
			return err
		}
	}

	if jsonOutput {
		return printJSON(map[string]interface{}{
			"batch":     batch,
			"detection": result.Detection,
		})
	}

	fmt.Printf("Batch %s ingested from %s (%d rows)\n", batch.ID, batch.Filename, result.Rows)
	printDetection(result.Detection)
	if !ingestSkipValidation {
		fmt.Printf("\nValidation: %d correct, %d flagged, %d uncertain\n",
			batch.CorrectCount, batch.FlaggedCount, batch.UncertainCount)
	}
	return nil
}

func printDetection(report *ingest.DetectionReport) {
	fmt.Printf("Column detection (overall confidence %.2f):\n", report.OverallConfidence)

	headers := make([]string, 0, len(report.Columns))
	for h := range report.Columns {
		headers = append(headers, h)
	}
	sort.Strings(headers)
	for _, h := range headers {
		m := report.Columns[h]
		fmt.Printf("  %-20s -> %-14s %.2f (%s)\n", h, m.Field, m.Confidence, m.Method)
	}
	for _, a := range report.Ambiguous {
		fmt.Printf("  %-20s ambiguous: %v\n", a.Header, a.Candidates)
	}
	for _, u := range report.Unmapped {
		fmt.Printf("  %-20s unmapped\n", u)
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
