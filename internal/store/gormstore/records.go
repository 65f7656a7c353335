package gormstore

import (
	"time"

	"github.com/shopspring/decimal"

	"wager-reconciliation-service/internal/models"
)

// batchRecord is the gorm row mapping for a batch.
type batchRecord struct {
	ID             string `gorm:"primaryKey;size:36"`
	Filename       string
	Status         string `gorm:"index"`
	TotalRows      int
	CorrectCount   int
	FlaggedCount   int
	UncertainCount int
	CorrectedCount int
	ImportedCount  int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (batchRecord) TableName() string { return "batches" }

func toBatchRecord(b *models.Batch) *batchRecord {
	return &batchRecord{
		ID:             b.ID,
		Filename:       b.Filename,
		Status:         string(b.Status),
		TotalRows:      b.TotalRows,
		CorrectCount:   b.CorrectCount,
		FlaggedCount:   b.FlaggedCount,
		UncertainCount: b.UncertainCount,
		CorrectedCount: b.CorrectedCount,
		ImportedCount:  b.ImportedCount,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

func (r *batchRecord) toModel() *models.Batch {
	return &models.Batch{
		ID:             r.ID,
		Filename:       r.Filename,
		Status:         models.BatchStatus(r.Status),
		TotalRows:      r.TotalRows,
		CorrectCount:   r.CorrectCount,
		FlaggedCount:   r.FlaggedCount,
		UncertainCount: r.UncertainCount,
		CorrectedCount: r.CorrectedCount,
		ImportedCount:  r.ImportedCount,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// rowRecord stores the structured row payloads as JSON columns.
type rowRecord struct {
	ID               string `gorm:"primaryKey;size:36"`
	BatchID          string `gorm:"index;size:36"`
	RowNumber        int
	OriginalValue    models.RawRow                 `gorm:"serializer:json"`
	Normalized       *models.NormalizedBet         `gorm:"serializer:json"`
	Warnings         []models.NormalizationWarning `gorm:"serializer:json"`
	CorrectedValue   *models.CorrectedValues       `gorm:"serializer:json"`
	ActualValue      *models.ActualValues          `gorm:"serializer:json"`
	MatchedGameID    string                        `gorm:"size:36"`
	ValidationStatus string                        `gorm:"index"`
	UncertainReasons []models.UncertainReason      `gorm:"serializer:json"`
	Flags            []models.ValidationFlag       `gorm:"serializer:json"`
	Receipt          []models.ReceiptStep          `gorm:"serializer:json"`
	FieldConfidences []models.FieldConfidence      `gorm:"serializer:json"`
	ImportedBetID    string                        `gorm:"size:36"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (rowRecord) TableName() string { return "batch_rows" }

func toRowRecord(r *models.Row) *rowRecord {
	return &rowRecord{
		ID:               r.ID,
		BatchID:          r.BatchID,
		RowNumber:        r.RowNumber,
		OriginalValue:    r.OriginalValue,
		Normalized:       r.Normalized,
		Warnings:         r.Warnings,
		CorrectedValue:   r.CorrectedValue,
		ActualValue:      r.ActualValue,
		MatchedGameID:    r.MatchedGameID,
		ValidationStatus: string(r.ValidationStatus),
		UncertainReasons: r.UncertainReasons,
		Flags:            r.Flags,
		Receipt:          r.Receipt,
		FieldConfidences: r.FieldConfidences,
		ImportedBetID:    r.ImportedBetID,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func (r *rowRecord) toModel() *models.Row {
	return &models.Row{
		ID:               r.ID,
		BatchID:          r.BatchID,
		RowNumber:        r.RowNumber,
		OriginalValue:    r.OriginalValue,
		Normalized:       r.Normalized,
		Warnings:         r.Warnings,
		CorrectedValue:   r.CorrectedValue,
		ActualValue:      r.ActualValue,
		MatchedGameID:    r.MatchedGameID,
		ValidationStatus: models.ValidationStatus(r.ValidationStatus),
		UncertainReasons: r.UncertainReasons,
		Flags:            r.Flags,
		Receipt:          r.Receipt,
		FieldConfidences: r.FieldConfidences,
		ImportedBetID:    r.ImportedBetID,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

type gameRecord struct {
	ID            string `gorm:"primaryKey;size:36"`
	ExternalID    string `gorm:"index:idx_games_sport_external,unique"`
	SportKey      string `gorm:"index:idx_games_sport_external,unique;index"`
	HomeTeam      string `gorm:"index"`
	AwayTeam      string `gorm:"index"`
	HomeScore     *int
	AwayScore     *int
	Status        string
	StartTime     time.Time `gorm:"index"`
	HomeMoneyline *int
	AwayMoneyline *int
	CapturedAt    time.Time
}

func (gameRecord) TableName() string { return "games" }

func toGameRecord(g *models.Game) *gameRecord {
	return &gameRecord{
		ID:            g.ID,
		ExternalID:    g.ExternalID,
		SportKey:      g.SportKey,
		HomeTeam:      g.HomeTeam,
		AwayTeam:      g.AwayTeam,
		HomeScore:     g.HomeScore,
		AwayScore:     g.AwayScore,
		Status:        string(g.Status),
		StartTime:     g.StartTime,
		HomeMoneyline: g.HomeMoneyline,
		AwayMoneyline: g.AwayMoneyline,
		CapturedAt:    g.CapturedAt,
	}
}

func (r *gameRecord) toModel() *models.Game {
	return &models.Game{
		ID:            r.ID,
		ExternalID:    r.ExternalID,
		SportKey:      r.SportKey,
		HomeTeam:      r.HomeTeam,
		AwayTeam:      r.AwayTeam,
		HomeScore:     r.HomeScore,
		AwayScore:     r.AwayScore,
		Status:        models.GameStatus(r.Status),
		StartTime:     r.StartTime,
		HomeMoneyline: r.HomeMoneyline,
		AwayMoneyline: r.AwayMoneyline,
		CapturedAt:    r.CapturedAt,
	}
}

type betRecord struct {
	ID        string `gorm:"primaryKey;size:36"`
	BatchID   string `gorm:"index;size:36"`
	RowID     string `gorm:"size:36"`
	GameID    string `gorm:"size:36"`
	BetType   string
	Status    string
	Wager     decimal.Decimal  `gorm:"type:numeric"`
	Payout    *decimal.Decimal `gorm:"type:numeric"`
	Odds      *decimal.Decimal `gorm:"type:numeric"`
	PlacedAt  time.Time
	SettledAt *time.Time
	CreatedAt time.Time
}

func (betRecord) TableName() string { return "bets" }

type betLegRecord struct {
	ID           string `gorm:"primaryKey;size:36"`
	BetID        string `gorm:"index;size:36"`
	GameID       string `gorm:"size:36"`
	TeamSelected string
	Line         *decimal.Decimal `gorm:"type:numeric"`
	Outcome      string
}

func (betLegRecord) TableName() string { return "bet_legs" }

func toBetRecords(b *models.Bet) (*betRecord, []*betLegRecord) {
	rec := &betRecord{
		ID:        b.ID,
		BatchID:   b.BatchID,
		RowID:     b.RowID,
		GameID:    b.GameID,
		BetType:   string(b.BetType),
		Status:    string(b.Status),
		Wager:     b.Wager,
		Payout:    b.Payout,
		Odds:      b.Odds,
		PlacedAt:  b.PlacedAt,
		SettledAt: b.SettledAt,
		CreatedAt: b.CreatedAt,
	}
	legs := make([]*betLegRecord, len(b.Legs))
	for i, leg := range b.Legs {
		legs[i] = &betLegRecord{
			ID:           leg.ID,
			BetID:        b.ID,
			GameID:       leg.GameID,
			TeamSelected: leg.TeamSelected,
			Line:         leg.Line,
			Outcome:      string(leg.Outcome),
		}
	}
	return rec, legs
}

func toBetModel(rec *betRecord, legs []*betLegRecord) *models.Bet {
	b := &models.Bet{
		ID:        rec.ID,
		BatchID:   rec.BatchID,
		RowID:     rec.RowID,
		GameID:    rec.GameID,
		BetType:   models.BetType(rec.BetType),
		Status:    models.Outcome(rec.Status),
		Wager:     rec.Wager,
		Payout:    rec.Payout,
		Odds:      rec.Odds,
		PlacedAt:  rec.PlacedAt,
		SettledAt: rec.SettledAt,
		CreatedAt: rec.CreatedAt,
	}
	for _, leg := range legs {
		b.Legs = append(b.Legs, models.BetLeg{
			ID:           leg.ID,
			BetID:        leg.BetID,
			GameID:       leg.GameID,
			TeamSelected: leg.TeamSelected,
			Line:         leg.Line,
			Outcome:      models.Outcome(leg.Outcome),
		})
	}
	return b
}

type auditRecord struct {
	ID         string `gorm:"primaryKey;size:36"`
	Actor      string
	Action     string
	EntityType string                 `gorm:"index:idx_audit_entity"`
	EntityID   string                 `gorm:"index:idx_audit_entity;size:36"`
	Before     map[string]interface{} `gorm:"serializer:json"`
	After      map[string]interface{} `gorm:"serializer:json"`
	CreatedAt  time.Time
}

func (auditRecord) TableName() string { return "audit_entries" }

func toAuditRecord(a *models.AuditEntry) *auditRecord {
	return &auditRecord{
		ID:         a.ID,
		Actor:      a.Actor,
		Action:     a.Action,
		EntityType: a.EntityType,
		EntityID:   a.EntityID,
		Before:     a.Before,
		After:      a.After,
		CreatedAt:  a.CreatedAt,
	}
}

func (r *auditRecord) toModel() *models.AuditEntry {
	return &models.AuditEntry{
		ID:         r.ID,
		Actor:      r.Actor,
		Action:     r.Action,
		EntityType: r.EntityType,
		EntityID:   r.EntityID,
		Before:     r.Before,
		After:      r.After,
		CreatedAt:  r.CreatedAt,
	}
}
