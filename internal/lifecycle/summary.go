package lifecycle

import (
	"context"

	"github.com/shopspring/decimal"

	"wager-reconciliation-service/internal/models"
)

// NotReadyRow pairs a row with the human-readable reason it cannot be
// imported yet.
type NotReadyRow struct {
	RowID     string `json:"row_id"`
	RowNumber int    `json:"row_number"`
	Reason    string `json:"reason"`
}

// PreImportSummary is the dry-run partition of a batch ahead of import. It
// never mutates anything.
type PreImportSummary struct {
	BatchID             string                 `json:"batch_id"`
	Ready               []string               `json:"ready"`
	NotReady            []NotReadyRow          `json:"not_ready"`
	AlreadyImported     []string               `json:"already_imported"`
	ReadyWagerTotal     decimal.Decimal        `json:"ready_wager_total"`
	OutcomeDistribution map[models.Outcome]int `json:"outcome_distribution"`
}

// Summarize partitions the batch's rows into ready, not-ready, and
// already-imported, totalling wagers and outcomes over the ready set.
func (s *Service) Summarize(ctx context.Context, batchID string) (*PreImportSummary, error) {
	rows, err := s.store.Rows().ListByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	summary := &PreImportSummary{
		BatchID:             batchID,
		ReadyWagerTotal:     decimal.Zero,
		OutcomeDistribution: make(map[models.Outcome]int),
	}

	for _, row := range rows {
		if row.IsImported() {
			summary.AlreadyImported = append(summary.AlreadyImported, row.ID)
			continue
		}
		if reason := importBlockReason(row); reason != "" {
			summary.NotReady = append(summary.NotReady, NotReadyRow{
				RowID:     row.ID,
				RowNumber: row.RowNumber,
				Reason:    reason,
			})
			continue
		}

		summary.Ready = append(summary.Ready, row.ID)
		summary.ReadyWagerTotal = summary.ReadyWagerTotal.Add(*row.Normalized.Wager)
		summary.OutcomeDistribution[settlementOutcome(row)]++
	}
	return summary, nil
}

// importBlockReason returns why a non-imported row is not importable, or ""
// when it is ready.
func importBlockReason(row *models.Row) string {
	switch row.ValidationStatus {
	case models.StatusCorrect, models.StatusCorrected:
	case models.StatusFlagged:
		return "row is flagged; resolve or correct it first"
	case models.StatusUncertain:
		return "row could not be verified"
	default:
		return "row has not been validated"
	}
	if row.MatchedGameID == "" {
		return "no matched game"
	}
	if row.Normalized == nil || row.Normalized.TeamSelected == "" {
		return "no selected team"
	}
	if row.Normalized.Wager == nil || !row.Normalized.Wager.IsPositive() {
		return "wager amount missing or not positive"
	}
	return ""
}

// settlementOutcome is the outcome an import would record: the computed
// actual outcome when the passes produced one, otherwise the row's own
// trusted outcome.
func settlementOutcome(row *models.Row) models.Outcome {
	if row.ActualValue != nil && row.ActualValue.ComputedOutcome != "" {
		return row.ActualValue.ComputedOutcome
	}
	return row.TrustedOutcome()
}
