package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"

	"wager-reconciliation-service/internal/models"
	"wager-reconciliation-service/internal/store"
	"wager-reconciliation-service/pkg/errors"
)

// RollbackResult reports how many imported records a rollback removed.
type RollbackResult struct {
	RolledBack int `json:"rolled_back"`
}

// RollbackBatch reverses a prior import in full: deletes every bet created
// for the batch (legs before parents), clears each row's imported link,
// resets the batch to VALIDATED with an imported-count of zero, and writes
// an audit entry, all in one transaction. Rollback is total; it cannot
// undo a subset.
func (s *Service) RollbackBatch(ctx context.Context, batchID string, actor string) (*RollbackResult, error) {
	result := &RollbackResult{}

	err := s.store.WithinTx(ctx, func(tx store.Store) error {
		batch, err := tx.Batches().Get(ctx, batchID)
		if err != nil {
			return err
		}
		rows, err := tx.Rows().ListByBatch(ctx, batchID)
		if err != nil {
			return err
		}

		var linked []*models.Row
		for _, row := range rows {
			if row.IsImported() {
				linked = append(linked, row)
			}
		}
		if len(linked) == 0 {
			return errors.LifecycleError(errors.CodeBatchNotReady, batchID, nil).
				WithSuggestion("the batch has no imported rows to roll back")
		}

		deleted, err := tx.Bets().DeleteByBatch(ctx, batchID)
		if err != nil {
			return err
		}
		result.RolledBack = deleted

		for _, row := range linked {
			row.ImportedBetID = ""
			if err := tx.Rows().Update(ctx, row); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		batch.Status = models.BatchValidated
		batch.ImportedCount = 0
		batch.UpdatedAt = now
		if err := tx.Batches().Update(ctx, batch); err != nil {
			return err
		}

		return tx.Audit().Append(ctx, &models.AuditEntry{
			ID:         uuid.NewString(),
			Actor:      actor,
			Action:     models.AuditActionRollback,
			EntityType: "batch",
			EntityID:   batchID,
			Before:     map[string]interface{}{"imported_count": len(linked)},
			After:      map[string]interface{}{"deleted_bets": deleted},
			CreatedAt:  now,
		})
	})
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.LifecycleError(errors.CodeRollbackFailed, batchID, err)
	}

	s.log.WithField("batch_id", batchID).
		WithField("rolled_back", result.RolledBack).
		Info("batch rolled back")
	return result, nil
}
