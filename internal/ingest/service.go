package ingest

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"wager-reconciliation-service/internal/models"
	"wager-reconciliation-service/internal/sports"
	"wager-reconciliation-service/internal/store"
	"wager-reconciliation-service/pkg/errors"
	"wager-reconciliation-service/pkg/logger"
)

// Service ingests an uploaded spreadsheet: read, detect columns, normalize
// every row, and persist the new batch.
type Service struct {
	store      store.Store
	detector   *Detector
	normalizer *Normalizer
	log        logger.Logger
}

// NewService wires an ingest service against the given store and sport
// registry.
func NewService(st store.Store, registry *sports.Registry, log logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		store:      st,
		detector:   NewDetector(registry),
		normalizer: NewNormalizer(registry),
		log:        log.WithComponent("ingest"),
	}
}

// Result is what an ingest run produced: the created batch plus the column
// detection report for operator review.
type Result struct {
	Batch     *models.Batch    `json:"batch"`
	Detection *DetectionReport `json:"detection"`
	Rows      int              `json:"rows"`
}

// IngestFile reads the spreadsheet at path, creates a PROCESSING batch, and
// persists one row per data line with raw cells keyed by detected canonical
// field. Rows are never rejected at this stage; the validation run decides
// their fate.
func (s *Service) IngestFile(ctx context.Context, path string) (*Result, error) {
	sheet, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, errors.ParseError(errors.CodeEmptySheet, path, "no data rows below the header", nil)
	}

	report := s.detector.Detect(sheet)
	if len(report.MissingRequired) > 0 {
		return nil, errors.ParseError(errors.CodeMissingHeader, path,
			"required columns could not be detected: "+strings.Join(report.MissingRequired, ", "), nil).
			WithSuggestion("rename the missing columns or add them to the sheet")
	}

	now := time.Now().UTC()
	batch := &models.Batch{
		ID:        uuid.NewString(),
		Filename:  filepath.Base(path),
		Status:    models.BatchProcessing,
		TotalRows: len(sheet.Rows),
		CreatedAt: now,
		UpdatedAt: now,
	}

	rows := make([]*models.Row, 0, len(sheet.Rows))
	for i, record := range sheet.Rows {
		raw := keyCells(sheet.Headers, record, report)
		normalized, warnings := s.normalizer.Normalize(raw)

		rows = append(rows, &models.Row{
			ID:            uuid.NewString(),
			BatchID:       batch.ID,
			RowNumber:     i + 1,
			OriginalValue: raw,
			Normalized:    normalized,
			Warnings:      warnings,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}

	err = s.store.WithinTx(ctx, func(tx store.Store) error {
		if err := tx.Batches().Create(ctx, batch); err != nil {
			return err
		}
		return tx.Rows().CreateMany(ctx, rows)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logger.Fields{
		"batch_id":   batch.ID,
		"filename":   batch.Filename,
		"rows":       len(rows),
		"confidence": report.OverallConfidence,
	}).Info("batch ingested")

	return &Result{Batch: batch, Detection: report, Rows: len(rows)}, nil
}

// keyCells maps one record's cells by detected canonical field, falling
// back to the original header for unmapped columns.
func keyCells(headers []string, record []string, report *DetectionReport) models.RawRow {
	raw := make(models.RawRow, len(headers))
	for i, header := range headers {
		if i >= len(record) {
			break
		}
		value := strings.TrimSpace(record[i])
		if value == "" {
			continue
		}
		if field, ok := report.FieldFor(header); ok {
			raw[field] = value
		} else {
			raw[header] = value
		}
	}
	return raw
}
