package lifecycle

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"wager-reconciliation-service/internal/models"
	"wager-reconciliation-service/internal/store/memstore"
	"wager-reconciliation-service/pkg/errors"
)

func seedGame(t *testing.T, st *memstore.Store) *models.Game {
	t.Helper()
	game := &models.Game{
		ID:         "game-1",
		ExternalID: "espn-401",
		SportKey:   "nfl",
		HomeTeam:   "Kansas City Chiefs",
		AwayTeam:   "Buffalo Bills",
		HomeScore:  models.IntPtr(27),
		AwayScore:  models.IntPtr(24),
		Status:     models.GameFinal,
		StartTime:  time.Date(2024, 7, 4, 19, 0, 0, 0, time.UTC),
		CapturedAt: time.Now().UTC(),
	}
	if err := st.Games().UpsertByExternalID(context.Background(), []*models.Game{game}); err != nil {
		t.Fatal(err)
	}
	return game
}

func validatedRow(number int, status models.ValidationStatus) *models.Row {
	date := time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC)
	wager := decimal.NewFromInt(100)
	payout := decimal.RequireFromString("166.67")
	odds := decimal.NewFromInt(-150)
	row := &models.Row{
		ID:               fmt.Sprintf("row-%d", number),
		BatchID:          "batch-1",
		RowNumber:        number,
		ValidationStatus: status,
		MatchedGameID:    "game-1",
		Normalized: &models.NormalizedBet{
			Date:         &date,
			Sport:        "nfl",
			HomeTeam:     "Kansas City Chiefs",
			AwayTeam:     "Buffalo Bills",
			TeamSelected: "Kansas City Chiefs",
			BetType:      models.BetMoneyLine,
			Outcome:      models.OutcomeWon,
			Wager:        &wager,
			Payout:       &payout,
			Odds:         &odds,
		},
		ActualValue: &models.ActualValues{
			HomeScore:       27,
			AwayScore:       24,
			GameStatus:      string(models.GameFinal),
			ComputedOutcome: models.OutcomeWon,
			CapturedAt:      time.Now().UTC(),
		},
	}
	return row
}

func seedValidatedBatch(t *testing.T, st *memstore.Store, rows ...*models.Row) {
	t.Helper()
	ctx := context.Background()
	seedGame(t, st)
	batch := &models.Batch{
		ID:        "batch-1",
		Filename:  "wagers.csv",
		Status:    models.BatchValidated,
		TotalRows: len(rows),
		CreatedAt: time.Now().UTC(),
	}
	for _, row := range rows {
		switch row.ValidationStatus {
		case models.StatusCorrect:
			batch.CorrectCount++
		case models.StatusFlagged:
			batch.FlaggedCount++
		case models.StatusUncertain:
			batch.UncertainCount++
		}
	}
	if err := st.Batches().Create(ctx, batch); err != nil {
		t.Fatal(err)
	}
	if err := st.Rows().CreateMany(ctx, rows); err != nil {
		t.Fatal(err)
	}
}

func TestSummarizePartitionsRows(t *testing.T) {
	st := memstore.New()
	flagged := validatedRow(2, models.StatusFlagged)
	uncertain := validatedRow(3, models.StatusUncertain)
	noWager := validatedRow(4, models.StatusCorrect)
	noWager.Normalized.Wager = nil
	imported := validatedRow(5, models.StatusCorrect)
	imported.ImportedBetID = "bet-existing"
	seedValidatedBatch(t, st,
		validatedRow(1, models.StatusCorrect), flagged, uncertain, noWager, imported)

	svc := NewService(st, nil)
	summary, err := svc.Summarize(context.Background(), "batch-1")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	if len(summary.Ready) != 1 || summary.Ready[0] != "row-1" {
		t.Errorf("ready = %v, want [row-1]", summary.Ready)
	}
	if len(summary.NotReady) != 3 {
		t.Errorf("not ready = %d rows, want 3", len(summary.NotReady))
	}
	if len(summary.AlreadyImported) != 1 || summary.AlreadyImported[0] != "row-5" {
		t.Errorf("already imported = %v, want [row-5]", summary.AlreadyImported)
	}
	if !summary.ReadyWagerTotal.Equal(decimal.NewFromInt(100)) {
		t.Errorf("ready wager total = %s, want 100", summary.ReadyWagerTotal)
	}
	if summary.OutcomeDistribution[models.OutcomeWon] != 1 {
		t.Errorf("outcome distribution = %v, want one WON", summary.OutcomeDistribution)
	}
}

func TestImportBatchCreatesOneBetPerRow(t *testing.T) {
	st := memstore.New()
	seedValidatedBatch(t, st, validatedRow(1, models.StatusCorrect), validatedRow(2, models.StatusCorrect))
	svc := NewService(st, nil)
	ctx := context.Background()

	result, err := svc.ImportBatch(ctx, "batch-1", nil, "tester")
	if err != nil {
		t.Fatalf("ImportBatch: %v", err)
	}
	if result.Imported != 2 || result.Skipped != 0 {
		t.Fatalf("imported %d skipped %d, want 2/0", result.Imported, result.Skipped)
	}

	bets, err := st.Bets().ListByBatch(ctx, "batch-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(bets) != 2 {
		t.Fatalf("bets = %d, want 2", len(bets))
	}
	for _, bet := range bets {
		if len(bet.Legs) != 1 {
			t.Errorf("bet %s has %d legs, want exactly 1", bet.ID, len(bet.Legs))
		}
		if bet.Status != models.OutcomeWon {
			t.Errorf("bet status = %s, want the computed WON", bet.Status)
		}
		if bet.Legs[0].BetID != bet.ID {
			t.Errorf("leg bet link = %s, want %s", bet.Legs[0].BetID, bet.ID)
		}
	}

	batch, _ := st.Batches().Get(ctx, "batch-1")
	if batch.Status != models.BatchImported || batch.ImportedCount != 2 {
		t.Errorf("batch = %s/%d, want IMPORTED/2", batch.Status, batch.ImportedCount)
	}

	for _, id := range []string{"row-1", "row-2"} {
		row, _ := st.Rows().Get(ctx, id)
		if !row.IsImported() {
			t.Errorf("%s not linked to its bet", id)
		}
	}

	audit, err := st.Audit().ListByEntity(ctx, "batch", "batch-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(audit) != 1 || audit[0].Action != models.AuditActionImport {
		t.Errorf("audit = %+v, want one import entry", audit)
	}
}

func TestImportBatchIsIdempotent(t *testing.T) {
	st := memstore.New()
	seedValidatedBatch(t, st, validatedRow(1, models.StatusCorrect))
	svc := NewService(st, nil)
	ctx := context.Background()

	if _, err := svc.ImportBatch(ctx, "batch-1", nil, "tester"); err != nil {
		t.Fatalf("first import: %v", err)
	}

	// The second run's ready set excludes the imported row entirely.
	_, err := svc.ImportBatch(ctx, "batch-1", nil, "tester")
	if !errors.Is(err, errors.CodeNothingToImport) {
		t.Fatalf("second import err = %v, want NOTHING_TO_IMPORT", err)
	}

	bets, _ := st.Bets().ListByBatch(ctx, "batch-1")
	if len(bets) != 1 {
		t.Errorf("bets after double import = %d, want 1", len(bets))
	}
}

func TestImportBatchNarrowsToRequestedRows(t *testing.T) {
	st := memstore.New()
	seedValidatedBatch(t, st, validatedRow(1, models.StatusCorrect), validatedRow(2, models.StatusCorrect))
	svc := NewService(st, nil)
	ctx := context.Background()

	result, err := svc.ImportBatch(ctx, "batch-1", []string{"row-2"}, "tester")
	if err != nil {
		t.Fatalf("ImportBatch: %v", err)
	}
	if result.Imported != 1 {
		t.Fatalf("imported = %d, want 1", result.Imported)
	}

	row1, _ := st.Rows().Get(ctx, "row-1")
	if row1.IsImported() {
		t.Error("row-1 was not requested and must stay unimported")
	}
	row2, _ := st.Rows().Get(ctx, "row-2")
	if !row2.IsImported() {
		t.Error("row-2 was requested and must be imported")
	}
}

func TestRollbackIsTrueInverseOfImport(t *testing.T) {
	st := memstore.New()
	seedValidatedBatch(t, st, validatedRow(1, models.StatusCorrect), validatedRow(2, models.StatusCorrect))
	svc := NewService(st, nil)
	ctx := context.Background()

	before, err := svc.Summarize(ctx, "batch-1")
	if err != nil {
		t.Fatal(err)
	}

	imported, err := svc.ImportBatch(ctx, "batch-1", nil, "tester")
	if err != nil {
		t.Fatal(err)
	}

	rolled, err := svc.RollbackBatch(ctx, "batch-1", "tester")
	if err != nil {
		t.Fatalf("RollbackBatch: %v", err)
	}
	if rolled.RolledBack != imported.Imported {
		t.Errorf("rolled back %d, want %d (every imported bet)", rolled.RolledBack, imported.Imported)
	}

	bets, _ := st.Bets().ListByBatch(ctx, "batch-1")
	if len(bets) != 0 {
		t.Errorf("bets after rollback = %d, want none", len(bets))
	}

	batch, _ := st.Batches().Get(ctx, "batch-1")
	if batch.Status != models.BatchValidated || batch.ImportedCount != 0 {
		t.Errorf("batch = %s/%d, want VALIDATED/0", batch.Status, batch.ImportedCount)
	}

	// The pre-import view is back to exactly where it started.
	after, err := svc.Summarize(ctx, "batch-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(after.Ready) != len(before.Ready) || len(after.AlreadyImported) != 0 {
		t.Errorf("summary after rollback: ready %d imported %d, want ready %d imported 0",
			len(after.Ready), len(after.AlreadyImported), len(before.Ready))
	}
	if !after.ReadyWagerTotal.Equal(before.ReadyWagerTotal) {
		t.Errorf("ready wager total %s, want %s", after.ReadyWagerTotal, before.ReadyWagerTotal)
	}
}

func TestRollbackWithoutImportFails(t *testing.T) {
	st := memstore.New()
	seedValidatedBatch(t, st, validatedRow(1, models.StatusCorrect))
	svc := NewService(st, nil)

	_, err := svc.RollbackBatch(context.Background(), "batch-1", "tester")
	if !errors.Is(err, errors.CodeBatchNotReady) {
		t.Fatalf("err = %v, want BATCH_NOT_READY for a never-imported batch", err)
	}
}

func TestCorrectRowsAdoptsComputedValues(t *testing.T) {
	st := memstore.New()
	flagged := validatedRow(1, models.StatusFlagged)
	seedValidatedBatch(t, st, flagged)
	svc := NewService(st, nil)
	ctx := context.Background()

	result, err := svc.CorrectRows(ctx, "batch-1", []string{"row-1"}, "analyst")
	if err != nil {
		t.Fatalf("CorrectRows: %v", err)
	}
	if len(result.Corrected) != 1 {
		t.Fatalf("corrected = %v, want [row-1]", result.Corrected)
	}

	row, _ := st.Rows().Get(ctx, "row-1")
	if row.ValidationStatus != models.StatusCorrected {
		t.Errorf("status = %s, want CORRECTED", row.ValidationStatus)
	}
	if row.CorrectedValue == nil || row.CorrectedValue.Outcome != models.OutcomeWon {
		t.Errorf("corrected value = %+v, want the computed WON", row.CorrectedValue)
	}
	if row.CorrectedValue.Actor != "analyst" {
		t.Errorf("actor = %q, want analyst", row.CorrectedValue.Actor)
	}

	batch, _ := st.Batches().Get(ctx, "batch-1")
	if batch.FlaggedCount != 0 || batch.CorrectCount != 1 || batch.CorrectedCount != 1 {
		t.Errorf("counters flagged/correct/corrected = %d/%d/%d, want 0/1/1",
			batch.FlaggedCount, batch.CorrectCount, batch.CorrectedCount)
	}
}

func TestCorrectRowsIsIdempotent(t *testing.T) {
	st := memstore.New()
	seedValidatedBatch(t, st, validatedRow(1, models.StatusFlagged))
	svc := NewService(st, nil)
	ctx := context.Background()

	if _, err := svc.CorrectRows(ctx, "batch-1", []string{"row-1"}, "analyst"); err != nil {
		t.Fatal(err)
	}
	result, err := svc.CorrectRows(ctx, "batch-1", []string{"row-1"}, "analyst")
	if err != nil {
		t.Fatalf("re-correcting: %v", err)
	}
	if len(result.Corrected) != 0 || len(result.Unchanged) != 1 {
		t.Errorf("result = %+v, want the row reported unchanged", result)
	}

	batch, _ := st.Batches().Get(ctx, "batch-1")
	if batch.CorrectedCount != 1 {
		t.Errorf("corrected count = %d, want 1 after a repeat run", batch.CorrectedCount)
	}
}

func TestCorrectRowsRejectsImportedRows(t *testing.T) {
	st := memstore.New()
	seedValidatedBatch(t, st, validatedRow(1, models.StatusCorrect))
	svc := NewService(st, nil)
	ctx := context.Background()

	if _, err := svc.ImportBatch(ctx, "batch-1", nil, "tester"); err != nil {
		t.Fatal(err)
	}
	_, err := svc.CorrectRows(ctx, "batch-1", []string{"row-1"}, "analyst")
	if !errors.Is(err, errors.CodeRowImmutable) {
		t.Fatalf("err = %v, want ROW_IMMUTABLE for an imported row", err)
	}
}

func TestCorrectRowsWithoutActualsIsUnchanged(t *testing.T) {
	st := memstore.New()
	row := validatedRow(1, models.StatusUncertain)
	row.ActualValue = nil
	seedValidatedBatch(t, st, row)
	svc := NewService(st, nil)

	result, err := svc.CorrectRows(context.Background(), "batch-1", []string{"row-1"}, "analyst")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Corrected) != 0 || len(result.Unchanged) != 1 {
		t.Errorf("result = %+v; a row with no computed actuals cannot be corrected", result)
	}
}
