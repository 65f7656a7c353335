// Package lifecycle moves validated rows toward the system of record:
// analyst corrections, the pre-import dry run, the import transaction, and
// its rollback inverse.
package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"

	"wager-reconciliation-service/internal/models"
	"wager-reconciliation-service/internal/store"
	"wager-reconciliation-service/pkg/errors"
	"wager-reconciliation-service/pkg/logger"
)

// Service exposes the correction/import/rollback operations for a batch.
type Service struct {
	store store.Store
	log   logger.Logger
}

// NewService wires the lifecycle operations.
func NewService(st store.Store, log logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{store: st, log: log.WithComponent("lifecycle")}
}

// CorrectionResult reports what a correction run changed.
type CorrectionResult struct {
	Corrected []string `json:"corrected"`
	Unchanged []string `json:"unchanged"`
}

// CorrectRows replaces each row's trusted values with its computed actual
// values and marks it CORRECTED, then recomputes the batch counters.
// Idempotent per row: re-correcting a CORRECTED row is a no-op success.
// Imported rows are immutable and rejected. Rows without computed actuals
// cannot be corrected.
func (s *Service) CorrectRows(ctx context.Context, batchID string, rowIDs []string, actor string) (*CorrectionResult, error) {
	result := &CorrectionResult{}

	err := s.store.WithinTx(ctx, func(tx store.Store) error {
		batch, err := tx.Batches().Get(ctx, batchID)
		if err != nil {
			return err
		}

		for _, id := range rowIDs {
			row, err := tx.Rows().Get(ctx, id)
			if err != nil {
				return err
			}
			if row.BatchID != batchID {
				return errors.LifecycleError(errors.CodeBatchNotReady, batchID, nil).
					WithContext("row_id", id).
					WithSuggestion("the row belongs to a different batch")
			}
			if row.IsImported() {
				return errors.LifecycleError(errors.CodeRowImmutable, batchID, nil).
					WithContext("row_id", id)
			}
			if row.ValidationStatus == models.StatusCorrected {
				result.Unchanged = append(result.Unchanged, id)
				continue
			}
			if row.ActualValue == nil || row.ActualValue.ComputedOutcome == "" {
				result.Unchanged = append(result.Unchanged, id)
				continue
			}

			prior := row.ValidationStatus
			row.CorrectedValue = &models.CorrectedValues{
				Outcome:     row.ActualValue.ComputedOutcome,
				HomeScore:   row.ActualValue.HomeScore,
				AwayScore:   row.ActualValue.AwayScore,
				Actor:       actor,
				CorrectedAt: time.Now().UTC(),
			}
			row.ValidationStatus = models.StatusCorrected
			if err := tx.Rows().Update(ctx, row); err != nil {
				return err
			}
			result.Corrected = append(result.Corrected, id)

			switch prior {
			case models.StatusCorrect:
				// Corrected rows count as correct, so the aggregate is
				// unchanged; only the corrected tally moves.
			case models.StatusFlagged:
				batch.FlaggedCount--
				batch.CorrectCount++
			case models.StatusUncertain:
				batch.UncertainCount--
				batch.CorrectCount++
			}
			batch.CorrectedCount++
		}

		batch.UpdatedAt = time.Now().UTC()
		return tx.Batches().Update(ctx, batch)
	})
	if err != nil {
		return nil, err
	}

	if len(result.Corrected) > 0 {
		entry := &models.AuditEntry{
			ID:         uuid.NewString(),
			Actor:      actor,
			Action:     models.AuditActionCorrect,
			EntityType: "batch",
			EntityID:   batchID,
			After:      map[string]interface{}{"corrected_rows": result.Corrected},
			CreatedAt:  time.Now().UTC(),
		}
		if err := s.store.Audit().Append(ctx, entry); err != nil {
			s.log.WithError(err).Warn("correction audit entry could not be written")
		}
	}
	return result, nil
}
