package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wager-reconciliation-service/internal/models"
	"wager-reconciliation-service/internal/store"
	"wager-reconciliation-service/pkg/errors"
	"wager-reconciliation-service/pkg/logger"
)

// ImportResult reports the outcome of an import run. Skipped rows failed an
// eligibility check at execution time and are listed in Errors without
// aborting the run.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	BetIDs   []string `json:"bet_ids"`
	Errors   []string `json:"errors,omitempty"`
}

// ImportBatch converts the batch's ready rows into immutable bets, one bet
// with exactly one leg per row. When rowIDs is non-empty the ready set is
// narrowed to that subset. Bet creation, row links, the batch status
// transition, and the audit entry all commit in one transaction.
func (s *Service) ImportBatch(ctx context.Context, batchID string, rowIDs []string, actor string) (*ImportResult, error) {
	summary, err := s.Summarize(ctx, batchID)
	if err != nil {
		return nil, err
	}

	eligible := summary.Ready
	if len(rowIDs) > 0 {
		requested := make(map[string]bool, len(rowIDs))
		for _, id := range rowIDs {
			requested[id] = true
		}
		narrowed := eligible[:0]
		for _, id := range eligible {
			if requested[id] {
				narrowed = append(narrowed, id)
			}
		}
		eligible = narrowed
	}
	if len(eligible) == 0 {
		return nil, errors.LifecycleError(errors.CodeNothingToImport, batchID, nil).
			WithSuggestion("run the pre-import summary to see why rows are not ready")
	}

	result := &ImportResult{}

	err = s.store.WithinTx(ctx, func(tx store.Store) error {
		batch, err := tx.Batches().Get(ctx, batchID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, rowID := range eligible {
			row, err := tx.Rows().Get(ctx, rowID)
			if err != nil {
				return err
			}

			// Re-check under the transaction: a concurrent correction may
			// have changed the row since the summary was taken.
			if row.IsImported() {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: already imported", row.RowNumber))
				continue
			}
			if reason := importBlockReason(row); reason != "" {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: %s", row.RowNumber, reason))
				continue
			}

			game, err := tx.Games().Get(ctx, row.MatchedGameID)
			if err != nil {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: matched game missing", row.RowNumber))
				continue
			}

			betType := row.Normalized.BetType
			if betType == "" {
				betType = models.BetMoneyLine
			}
			status := settlementOutcome(row)

			placedAt := game.StartTime
			if row.Normalized.Date != nil {
				placedAt = *row.Normalized.Date
			}
			var settledAt *time.Time
			if game.IsFinal() {
				t := game.CapturedAt
				settledAt = &t
			}

			bet := &models.Bet{
				ID:        uuid.NewString(),
				BatchID:   batchID,
				RowID:     row.ID,
				GameID:    game.ID,
				BetType:   betType,
				Status:    status,
				Wager:     *row.Normalized.Wager,
				Payout:    row.Normalized.Payout,
				Odds:      row.Normalized.Odds,
				PlacedAt:  placedAt,
				SettledAt: settledAt,
				CreatedAt: now,
				Legs: []models.BetLeg{{
					ID:           uuid.NewString(),
					GameID:       game.ID,
					TeamSelected: row.Normalized.TeamSelected,
					Line:         row.Normalized.Line,
					Outcome:      status,
				}},
			}
			bet.Legs[0].BetID = bet.ID

			if err := tx.Bets().Create(ctx, bet); err != nil {
				return err
			}
			row.ImportedBetID = bet.ID
			if err := tx.Rows().Update(ctx, row); err != nil {
				return err
			}

			result.Imported++
			result.BetIDs = append(result.BetIDs, bet.ID)
		}

		if result.Imported == 0 {
			return errors.LifecycleError(errors.CodeNothingToImport, batchID, nil).
				WithContext("skipped", result.Skipped)
		}

		batch.Status = models.BatchImported
		batch.ImportedCount += result.Imported
		batch.UpdatedAt = now
		if err := tx.Batches().Update(ctx, batch); err != nil {
			return err
		}

		return tx.Audit().Append(ctx, &models.AuditEntry{
			ID:         uuid.NewString(),
			Actor:      actor,
			Action:     models.AuditActionImport,
			EntityType: "batch",
			EntityID:   batchID,
			After: map[string]interface{}{
				"imported": result.Imported,
				"skipped":  result.Skipped,
				"bet_ids":  result.BetIDs,
			},
			CreatedAt: now,
		})
	})
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.LifecycleError(errors.CodeImportFailed, batchID, err)
	}

	s.log.WithFields(logger.Fields{
		"batch_id": batchID,
		"imported": result.Imported,
		"skipped":  result.Skipped,
	}).Info("batch imported")
	return result, nil
}
