package validation

import (
	"fmt"
	"strings"

	"wager-reconciliation-service/internal/models"
)

// Flag codes raised by the cross-row pass.
const (
	FlagProbableDuplicate = "PROBABLE_DUPLICATE"
	FlagScoreConflict     = "SCORE_CONFLICT"
)

// RowContext is the cross-row view of one row: its duplicate key fields and
// its game-match linkage as populated by phase one of the run.
type RowContext struct {
	RowNumber     int
	DuplicateKey  string
	MatchedGameID string
	HomeScore     *int
}

// BatchContext is the batch-wide snapshot the cross-row pass evaluates
// against. It is built once per run, from every row, before any row's
// cross-row check executes.
type BatchContext struct {
	rows []RowContext
}

// BuildBatchContext assembles the cross-row context from every row in the
// batch, whatever their individual pass outcomes.
func BuildBatchContext(rows []*models.Row) *BatchContext {
	bc := &BatchContext{rows: make([]RowContext, 0, len(rows))}
	for _, row := range rows {
		rc := RowContext{
			RowNumber:     row.RowNumber,
			DuplicateKey:  duplicateKey(row.Normalized),
			MatchedGameID: row.MatchedGameID,
		}
		if row.ActualValue != nil {
			score := row.ActualValue.HomeScore
			rc.HomeScore = &score
		}
		bc.rows = append(bc.rows, rc)
	}
	return bc
}

// duplicateKey builds the identity key for duplicate detection:
// (date, home team, away team, selected team, bet type, wager).
func duplicateKey(nb *models.NormalizedBet) string {
	if nb == nil {
		return ""
	}
	date := ""
	if nb.Date != nil {
		date = nb.Date.UTC().Format("2006-01-02")
	}
	wager := ""
	if nb.Wager != nil {
		wager = nb.Wager.String()
	}
	parts := []string{
		date,
		strings.ToLower(nb.HomeTeam),
		strings.ToLower(nb.AwayTeam),
		strings.ToLower(nb.TeamSelected),
		string(nb.BetType),
		wager,
	}
	// An all-empty key carries no identity; such rows never pair.
	if strings.Join(parts, "") == "" {
		return ""
	}
	return strings.Join(parts, "|")
}

// CrossRowResult is the typed output of the cross-row pass.
type CrossRowResult struct {
	Flags []models.ValidationFlag
	Step  models.ReceiptStep
}

// EvaluateCrossRow checks one row against the batch context. Duplicates are
// order-sensitive: only the row with the strictly larger row number is
// flagged, so legitimate re-bets keep one clean copy. The pass never fails
// a row; it only annotates.
func EvaluateCrossRow(row *models.Row, bc *BatchContext) CrossRowResult {
	res := CrossRowResult{}
	key := duplicateKey(row.Normalized)

	if key != "" {
		for _, other := range bc.rows {
			if other.RowNumber >= row.RowNumber {
				continue
			}
			if other.DuplicateKey == key {
				res.Flags = append(res.Flags, models.ValidationFlag{
					Pass:     PassCrossRow,
					Severity: models.SeverityWarning,
					Code:     FlagProbableDuplicate,
					Message:  fmt.Sprintf("identical to earlier row %d (may be a legitimate re-bet)", other.RowNumber),
				})
				break
			}
		}
	}

	if row.MatchedGameID != "" && row.ActualValue != nil {
		for _, other := range bc.rows {
			if other.RowNumber == row.RowNumber || other.MatchedGameID != row.MatchedGameID {
				continue
			}
			if other.HomeScore != nil && *other.HomeScore != row.ActualValue.HomeScore {
				res.Flags = append(res.Flags, models.ValidationFlag{
					Pass:     PassCrossRow,
					Severity: models.SeverityWarning,
					Code:     FlagScoreConflict,
					Message: fmt.Sprintf("row %d recorded home score %d for the same game (this row saw %d)",
						other.RowNumber, *other.HomeScore, row.ActualValue.HomeScore),
				})
				break
			}
		}
	}

	detail := "no cross-row inconsistencies"
	if len(res.Flags) > 0 {
		detail = fmt.Sprintf("cross-row check raised %d flag(s)", len(res.Flags))
	}
	res.Step = passStep(PassCrossRow, detail, nil)
	return res
}
