// Package store defines the persistence contract for the reconciliation
// service. Implementations live in the gormstore and memstore subpackages.
package store

import (
	"context"
	"time"

	"wager-reconciliation-service/internal/models"
)

// GameQuery filters persisted game records. Teams restricts matches to
// games where at least one listed canonical name appears as a side.
type GameQuery struct {
	SportKey string
	Start    time.Time
	End      time.Time
	Teams    []string
}

// BatchRepo persists upload batches.
type BatchRepo interface {
	Create(ctx context.Context, batch *models.Batch) error
	Get(ctx context.Context, id string) (*models.Batch, error)
	Update(ctx context.Context, batch *models.Batch) error
	List(ctx context.Context, limit int) ([]*models.Batch, error)
}

// RowRepo persists batch rows.
type RowRepo interface {
	CreateMany(ctx context.Context, rows []*models.Row) error
	Get(ctx context.Context, id string) (*models.Row, error)
	Update(ctx context.Context, row *models.Row) error
	ListByBatch(ctx context.Context, batchID string) ([]*models.Row, error)
	ListByBatchAndStatus(ctx context.Context, batchID string, status models.ValidationStatus) ([]*models.Row, error)
}

// GameRepo persists locally mirrored game records.
type GameRepo interface {
	Find(ctx context.Context, q GameQuery) ([]*models.Game, error)
	// UpsertByExternalID inserts games that are new and refreshes ones
	// already mirrored, keyed by (sport key, external id).
	UpsertByExternalID(ctx context.Context, games []*models.Game) error
	Get(ctx context.Context, id string) (*models.Game, error)
}

// BetRepo persists imported financial records.
type BetRepo interface {
	Create(ctx context.Context, bet *models.Bet) error
	Get(ctx context.Context, id string) (*models.Bet, error)
	ListByBatch(ctx context.Context, batchID string) ([]*models.Bet, error)
	// DeleteByBatch removes every bet for the batch, legs before parents.
	// Returns how many bets were deleted.
	DeleteByBatch(ctx context.Context, batchID string) (int, error)
}

// AuditRepo appends to the audit log. Entries are never updated or deleted.
type AuditRepo interface {
	Append(ctx context.Context, entry *models.AuditEntry) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]*models.AuditEntry, error)
}

// Store aggregates the repositories and the unit-of-work contract.
type Store interface {
	Batches() BatchRepo
	Rows() RowRepo
	Games() GameRepo
	Bets() BetRepo
	Audit() AuditRepo

	// WithinTx runs fn against a transactional view of the store. All
	// writes made through the view commit together or not at all; fn
	// returning an error rolls everything back.
	WithinTx(ctx context.Context, fn func(Store) error) error
}
