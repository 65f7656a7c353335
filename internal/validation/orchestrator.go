package validation

import (
	"context"
	"time"

	"wager-reconciliation-service/internal/models"
	"wager-reconciliation-service/internal/sports"
	"wager-reconciliation-service/internal/store"
	"wager-reconciliation-service/pkg/errors"
	"wager-reconciliation-service/pkg/logger"
)

// Config tunes the validation run.
type Config struct {
	// TeamConfidenceThreshold gates which resolved team names may query
	// for games. Zero means the default of 0.7.
	TeamConfidenceThreshold float64
	// OddsDriftPoints is how far reported odds may sit from locked market
	// odds before the financial pass notes it. Zero means the default of 30.
	OddsDriftPoints int
}

// Orchestrator runs the four passes over a batch and reduces each row to a
// single validation status. Only the orchestrator writes row state during a
// run, and all of a run's writes commit in one transaction.
type Orchestrator struct {
	store    store.Store
	resolver sports.TeamResolver
	provider sports.ResultsProvider
	registry *sports.Registry
	cfg      Config
	log      logger.Logger
}

// NewOrchestrator wires the validation pipeline.
func NewOrchestrator(st store.Store, resolver sports.TeamResolver, provider sports.ResultsProvider, registry *sports.Registry, cfg Config, log logger.Logger) *Orchestrator {
	if registry == nil {
		registry = sports.DefaultRegistry()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Orchestrator{
		store:    st,
		resolver: resolver,
		provider: provider,
		registry: registry,
		cfg:      cfg,
		log:      log.WithComponent("orchestrator"),
	}
}

// rowRun carries one row through both phases of a validation run.
type rowRun struct {
	row      *models.Row
	skip     bool
	match    *GameMatchResult
	reasons  []models.UncertainReason
	flags    []models.ValidationFlag
	steps    []models.ReceiptStep
	outcome  OutcomeResult
	resolved bool
}

// ValidateBatch runs the full pipeline over every row of the batch.
// CORRECTED rows are skipped and counted as CORRECT. The batch moves to
// VALIDATED (or ERROR if the commit fails).
func (o *Orchestrator) ValidateBatch(ctx context.Context, batchID string) (*models.Batch, error) {
	batch, err := o.store.Batches().Get(ctx, batchID)
	if err != nil {
		return nil, err
	}
	rows, err := o.store.Rows().ListByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	o.log.WithFields(logger.Fields{"batch_id": batchID, "rows": len(rows)}).Info("validation run started")

	runs := o.runPipeline(ctx, rows)

	counts := struct{ correct, flagged, uncertain, corrected int }{}
	var dirty []*models.Row
	for _, run := range runs {
		if run.skip {
			counts.corrected++
			continue
		}
		o.reduce(run)
		switch run.row.ValidationStatus {
		case models.StatusCorrect:
			counts.correct++
		case models.StatusFlagged:
			counts.flagged++
		default:
			counts.uncertain++
		}
		dirty = append(dirty, run.row)
	}

	batch.Status = models.BatchValidated
	batch.TotalRows = len(rows)
	batch.CorrectCount = counts.correct + counts.corrected
	batch.FlaggedCount = counts.flagged
	batch.UncertainCount = counts.uncertain
	batch.CorrectedCount = counts.corrected
	batch.UpdatedAt = time.Now().UTC()

	if err := o.commit(ctx, batch, dirty); err != nil {
		batch.Status = models.BatchError
		return batch, err
	}

	o.log.WithFields(logger.Fields{
		"batch_id":  batchID,
		"correct":   batch.CorrectCount,
		"flagged":   batch.FlaggedCount,
		"uncertain": batch.UncertainCount,
	}).Info("validation run committed")
	return batch, nil
}

// RevalidateUncertain re-runs the pipeline for the batch's UNCERTAIN rows
// only, typically after more game data has become available. Counters are
// adjusted incrementally rather than recomputed batch-wide.
func (o *Orchestrator) RevalidateUncertain(ctx context.Context, batchID string) (*models.Batch, error) {
	batch, err := o.store.Batches().Get(ctx, batchID)
	if err != nil {
		return nil, err
	}
	uncertain, err := o.store.Rows().ListByBatchAndStatus(ctx, batchID, models.StatusUncertain)
	if err != nil {
		return nil, err
	}
	if len(uncertain) == 0 {
		return batch, nil
	}

	// The cross-row context still needs every sibling, not just the
	// uncertain subset.
	all, err := o.store.Rows().ListByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	o.log.WithFields(logger.Fields{"batch_id": batchID, "uncertain": len(uncertain)}).Info("re-validation started")

	runs := o.runPipelineSubset(ctx, all, uncertain)

	var dirty []*models.Row
	for _, run := range runs {
		if run.skip {
			continue
		}
		o.reduce(run)
		switch run.row.ValidationStatus {
		case models.StatusCorrect:
			batch.UncertainCount--
			batch.CorrectCount++
		case models.StatusFlagged:
			batch.UncertainCount--
			batch.FlaggedCount++
		}
		dirty = append(dirty, run.row)
	}
	batch.UpdatedAt = time.Now().UTC()

	if err := o.commit(ctx, batch, dirty); err != nil {
		return batch, err
	}
	return batch, nil
}

// runPipeline executes both phases for every row.
func (o *Orchestrator) runPipeline(ctx context.Context, rows []*models.Row) []*rowRun {
	return o.runPipelineSubset(ctx, rows, rows)
}

// runPipelineSubset runs phase one over all rows (the cross-row context
// must see every sibling's game linkage) but phases the checks only over
// the target subset.
func (o *Orchestrator) runPipelineSubset(ctx context.Context, all, targets []*models.Row) []*rowRun {
	matcher := NewGameMatcher(o.resolver, o.provider, o.registry, o.store.Games(), o.cfg.TeamConfidenceThreshold, o.log)

	targetSet := make(map[string]bool, len(targets))
	for _, row := range targets {
		targetSet[row.ID] = true
	}

	// Phase one: best-effort game matching for every targeted row, so the
	// batch context is fully populated before any check runs.
	var runs []*rowRun
	for _, row := range all {
		if !targetSet[row.ID] {
			continue
		}
		run := &rowRun{row: row}
		if row.ValidationStatus == models.StatusCorrected {
			run.skip = true
			runs = append(runs, run)
			continue
		}

		run.match = matcher.Run(ctx, row)
		run.reasons = append(run.reasons, run.match.Reasons...)
		run.steps = append(run.steps, run.match.Step)
		row.FieldConfidences = run.match.Confidences

		if run.match.Game != nil {
			row.MatchedGameID = run.match.Game.ID
			if run.match.Game.IsFinal() {
				row.ActualValue = &models.ActualValues{
					HomeScore:       *run.match.Game.HomeScore,
					AwayScore:       *run.match.Game.AwayScore,
					GameStatus:      string(run.match.Game.Status),
					RecordedOutcome: row.TrustedOutcome(),
					CapturedAt:      time.Now().UTC(),
				}
			}
		}
		runs = append(runs, run)
	}

	bc := BuildBatchContext(all)

	// Phase two: outcome, financial, and cross-row checks.
	for _, run := range runs {
		if run.skip {
			continue
		}
		var game *models.Game
		selected := ""
		if run.match != nil {
			game = run.match.Game
			selected = run.match.CanonicalSelected
		}

		run.outcome = EvaluateOutcome(run.row, game, selected)
		run.reasons = append(run.reasons, run.outcome.Reasons...)
		run.flags = append(run.flags, run.outcome.Flags...)
		run.steps = append(run.steps, run.outcome.Step)
		if run.outcome.Computed != "" && run.row.ActualValue != nil {
			run.row.ActualValue.ComputedOutcome = run.outcome.Computed
		}

		fin := EvaluateFinancials(run.row, game, selected, o.cfg.OddsDriftPoints)
		run.flags = append(run.flags, fin.Flags...)
		run.steps = append(run.steps, fin.Step)

		xr := EvaluateCrossRow(run.row, bc)
		run.flags = append(run.flags, xr.Flags...)
		run.steps = append(run.steps, xr.Step)
	}
	return runs
}

// reduce collapses a row's pass outputs into one validation status per the
// priority table: definite mismatch or any error flag wins FLAGGED; a
// definite match with no error flags is CORRECT; everything else is
// UNCERTAIN with at least one reason code.
func (o *Orchestrator) reduce(run *rowRun) {
	row := run.row
	row.Flags = run.flags
	row.AppendReceipt(run.steps...)

	mismatch := run.outcome.Match != nil && !*run.outcome.Match
	confirmed := run.outcome.Match != nil && *run.outcome.Match

	switch {
	case mismatch || models.HasErrorFlag(run.flags):
		row.ValidationStatus = models.StatusFlagged
		row.UncertainReasons = nil
	case confirmed:
		row.ValidationStatus = models.StatusCorrect
		row.UncertainReasons = nil
	default:
		row.ValidationStatus = models.StatusUncertain
		if len(run.reasons) == 0 {
			run.reasons = []models.UncertainReason{models.ReasonNoGameMatch}
		}
		row.UncertainReasons = dedupeReasons(run.reasons)
	}
}

func dedupeReasons(reasons []models.UncertainReason) []models.UncertainReason {
	seen := make(map[models.UncertainReason]bool, len(reasons))
	var out []models.UncertainReason
	for _, r := range reasons {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

// commit writes every dirty row and the batch counters in one transaction.
// A crash before this point leaves all prior row state untouched.
func (o *Orchestrator) commit(ctx context.Context, batch *models.Batch, rows []*models.Row) error {
	err := o.store.WithinTx(ctx, func(tx store.Store) error {
		for _, row := range rows {
			if err := tx.Rows().Update(ctx, row); err != nil {
				return err
			}
		}
		return tx.Batches().Update(ctx, batch)
	})
	if err != nil {
		o.log.WithError(err).WithField("batch_id", batch.ID).Error("validation commit failed")
		return errors.Wrap(err, errors.CategoryStorage, errors.CodeTxFailed, "validation run could not be committed")
	}
	return nil
}
