// Package gormstore implements the persistence contract over gorm, with
// postgres for deployments and sqlite for local files. Structured row
// payloads (receipts, flags, raw cells) are stored as JSON columns.
package gormstore

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"wager-reconciliation-service/internal/models"
	"wager-reconciliation-service/internal/store"
	"wager-reconciliation-service/pkg/errors"
)

// Store is the gorm-backed implementation of store.Store.
type Store struct {
	db *gorm.DB
}

// Open connects to the database named by driver ("postgres" or "sqlite")
// and runs migrations.
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, errors.ConfigError(errors.CodeInvalidConfig, "db.driver", nil).
			WithSuggestion("use postgres, sqlite, or memory").
			WithContext("driver", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryStorage, errors.CodeTxFailed, "database connection failed").
			WithContext("driver", driver)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing gorm connection. Used by tests.
func NewWithDB(db *gorm.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	err := s.db.AutoMigrate(
		&batchRecord{},
		&rowRecord{},
		&gameRecord{},
		&betRecord{},
		&betLegRecord{},
		&auditRecord{},
	)
	if err != nil {
		return errors.Wrap(err, errors.CategoryStorage, errors.CodeTxFailed, "schema migration failed")
	}
	return nil
}

func (s *Store) Batches() store.BatchRepo { return &batchRepo{db: s.db} }
func (s *Store) Rows() store.RowRepo      { return &rowRepo{db: s.db} }
func (s *Store) Games() store.GameRepo    { return &gameRepo{db: s.db} }
func (s *Store) Bets() store.BetRepo      { return &betRepo{db: s.db} }
func (s *Store) Audit() store.AuditRepo   { return &auditRepo{db: s.db} }

// WithinTx runs fn inside a database transaction. gorm rolls back when fn
// returns an error and commits otherwise, which is exactly the
// all-or-nothing contract validation and import depend on.
func (s *Store) WithinTx(ctx context.Context, fn func(store.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

type batchRepo struct{ db *gorm.DB }

func (r *batchRepo) Create(ctx context.Context, batch *models.Batch) error {
	if err := r.db.WithContext(ctx).Create(toBatchRecord(batch)).Error; err != nil {
		return errors.StorageError(errors.CodeTxFailed, "batch", err)
	}
	return nil
}

func (r *batchRepo) Get(ctx context.Context, id string) (*models.Batch, error) {
	var rec batchRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.StorageError(errors.CodeNotFound, "batch", nil).
			WithContext("batch_id", id)
	}
	if err != nil {
		return nil, errors.StorageError(errors.CodeTxFailed, "batch", err)
	}
	return rec.toModel(), nil
}

func (r *batchRepo) Update(ctx context.Context, batch *models.Batch) error {
	res := r.db.WithContext(ctx).Save(toBatchRecord(batch))
	if res.Error != nil {
		return errors.StorageError(errors.CodeTxFailed, "batch", res.Error)
	}
	return nil
}

func (r *batchRepo) List(ctx context.Context, limit int) ([]*models.Batch, error) {
	var recs []batchRecord
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, errors.StorageError(errors.CodeTxFailed, "batch", err)
	}
	out := make([]*models.Batch, len(recs))
	for i := range recs {
		out[i] = recs[i].toModel()
	}
	return out, nil
}

type rowRepo struct{ db *gorm.DB }

func (r *rowRepo) CreateMany(ctx context.Context, rows []*models.Row) error {
	if len(rows) == 0 {
		return nil
	}
	recs := make([]*rowRecord, len(rows))
	for i, row := range rows {
		recs[i] = toRowRecord(row)
	}
	if err := r.db.WithContext(ctx).CreateInBatches(recs, 200).Error; err != nil {
		return errors.StorageError(errors.CodeTxFailed, "row", err)
	}
	return nil
}

func (r *rowRepo) Get(ctx context.Context, id string) (*models.Row, error) {
	var rec rowRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.StorageError(errors.CodeNotFound, "row", nil).
			WithContext("row_id", id)
	}
	if err != nil {
		return nil, errors.StorageError(errors.CodeTxFailed, "row", err)
	}
	return rec.toModel(), nil
}

func (r *rowRepo) Update(ctx context.Context, row *models.Row) error {
	if err := r.db.WithContext(ctx).Save(toRowRecord(row)).Error; err != nil {
		return errors.StorageError(errors.CodeTxFailed, "row", err)
	}
	return nil
}

func (r *rowRepo) ListByBatch(ctx context.Context, batchID string) ([]*models.Row, error) {
	var recs []rowRecord
	err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("row_number ASC").
		Find(&recs).Error
	if err != nil {
		return nil, errors.StorageError(errors.CodeTxFailed, "row", err)
	}
	out := make([]*models.Row, len(recs))
	for i := range recs {
		out[i] = recs[i].toModel()
	}
	return out, nil
}

func (r *rowRepo) ListByBatchAndStatus(ctx context.Context, batchID string, status models.ValidationStatus) ([]*models.Row, error) {
	var recs []rowRecord
	err := r.db.WithContext(ctx).
		Where("batch_id = ? AND validation_status = ?", batchID, string(status)).
		Order("row_number ASC").
		Find(&recs).Error
	if err != nil {
		return nil, errors.StorageError(errors.CodeTxFailed, "row", err)
	}
	out := make([]*models.Row, len(recs))
	for i := range recs {
		out[i] = recs[i].toModel()
	}
	return out, nil
}

type gameRepo struct{ db *gorm.DB }

func (r *gameRepo) Find(ctx context.Context, q store.GameQuery) ([]*models.Game, error) {
	query := r.db.WithContext(ctx).Model(&gameRecord{})
	if q.SportKey != "" {
		query = query.Where("sport_key = ?", q.SportKey)
	}
	if !q.Start.IsZero() {
		query = query.Where("start_time >= ?", q.Start)
	}
	if !q.End.IsZero() {
		query = query.Where("start_time <= ?", q.End)
	}
	if len(q.Teams) > 0 {
		query = query.Where("home_team IN ? OR away_team IN ?", q.Teams, q.Teams)
	}

	var recs []gameRecord
	if err := query.Order("start_time ASC").Find(&recs).Error; err != nil {
		return nil, errors.StorageError(errors.CodeTxFailed, "game", err)
	}
	out := make([]*models.Game, len(recs))
	for i := range recs {
		out[i] = recs[i].toModel()
	}
	return out, nil
}

func (r *gameRepo) UpsertByExternalID(ctx context.Context, games []*models.Game) error {
	if len(games) == 0 {
		return nil
	}
	recs := make([]*gameRecord, len(games))
	for i, g := range games {
		if g.ID == "" {
			g.ID = uuid.NewString()
		}
		recs[i] = toGameRecord(g)
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "sport_key"}, {Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"home_team", "away_team", "home_score", "away_score",
			"status", "start_time", "home_moneyline", "away_moneyline",
			"captured_at",
		}),
	}).Create(recs).Error
	if err != nil {
		return errors.StorageError(errors.CodeTxFailed, "game", err)
	}
	return nil
}

func (r *gameRepo) Get(ctx context.Context, id string) (*models.Game, error) {
	var rec gameRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.StorageError(errors.CodeNotFound, "game", nil).
			WithContext("game_id", id)
	}
	if err != nil {
		return nil, errors.StorageError(errors.CodeTxFailed, "game", err)
	}
	return rec.toModel(), nil
}

type betRepo struct{ db *gorm.DB }

func (r *betRepo) Create(ctx context.Context, bet *models.Bet) error {
	rec, legs := toBetRecords(bet)
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return errors.StorageError(errors.CodeTxFailed, "bet", err)
	}
	if len(legs) > 0 {
		if err := r.db.WithContext(ctx).Create(legs).Error; err != nil {
			return errors.StorageError(errors.CodeTxFailed, "bet_leg", err)
		}
	}
	return nil
}

func (r *betRepo) Get(ctx context.Context, id string) (*models.Bet, error) {
	var rec betRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.StorageError(errors.CodeNotFound, "bet", nil).
			WithContext("bet_id", id)
	}
	if err != nil {
		return nil, errors.StorageError(errors.CodeTxFailed, "bet", err)
	}
	var legs []*betLegRecord
	if err := r.db.WithContext(ctx).Where("bet_id = ?", id).Find(&legs).Error; err != nil {
		return nil, errors.StorageError(errors.CodeTxFailed, "bet_leg", err)
	}
	return toBetModel(&rec, legs), nil
}

func (r *betRepo) ListByBatch(ctx context.Context, batchID string) ([]*models.Bet, error) {
	var recs []betRecord
	err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, errors.StorageError(errors.CodeTxFailed, "bet", err)
	}

	out := make([]*models.Bet, 0, len(recs))
	for i := range recs {
		var legs []*betLegRecord
		if err := r.db.WithContext(ctx).Where("bet_id = ?", recs[i].ID).Find(&legs).Error; err != nil {
			return nil, errors.StorageError(errors.CodeTxFailed, "bet_leg", err)
		}
		out = append(out, toBetModel(&recs[i], legs))
	}
	return out, nil
}

func (r *betRepo) DeleteByBatch(ctx context.Context, batchID string) (int, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&betRecord{}).
		Where("batch_id = ?", batchID).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, errors.StorageError(errors.CodeTxFailed, "bet", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	// Legs first so foreign keys never dangle mid-delete.
	if err := r.db.WithContext(ctx).Where("bet_id IN ?", ids).Delete(&betLegRecord{}).Error; err != nil {
		return 0, errors.StorageError(errors.CodeTxFailed, "bet_leg", err)
	}
	res := r.db.WithContext(ctx).Where("batch_id = ?", batchID).Delete(&betRecord{})
	if res.Error != nil {
		return 0, errors.StorageError(errors.CodeTxFailed, "bet", res.Error)
	}
	return int(res.RowsAffected), nil
}

type auditRepo struct{ db *gorm.DB }

func (r *auditRepo) Append(ctx context.Context, entry *models.AuditEntry) error {
	if err := r.db.WithContext(ctx).Create(toAuditRecord(entry)).Error; err != nil {
		return errors.StorageError(errors.CodeTxFailed, "audit_entry", err)
	}
	return nil
}

func (r *auditRepo) ListByEntity(ctx context.Context, entityType, entityID string) ([]*models.AuditEntry, error) {
	var recs []auditRecord
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, errors.StorageError(errors.CodeTxFailed, "audit_entry", err)
	}
	out := make([]*models.AuditEntry, len(recs))
	for i := range recs {
		out[i] = recs[i].toModel()
	}
	return out, nil
}
