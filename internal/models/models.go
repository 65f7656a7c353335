// Package models defines the core entities of the wager reconciliation
// service: upload batches, rows, games, financial records, and the audit
// structures (receipts, flags, reason codes) produced by validation.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BatchStatus is the lifecycle state of an uploaded batch.
type BatchStatus string

const (
	BatchProcessing BatchStatus = "PROCESSING"
	BatchValidated  BatchStatus = "VALIDATED"
	BatchImported   BatchStatus = "IMPORTED"
	BatchError      BatchStatus = "ERROR"
)

// ValidationStatus is the per-row verdict produced by the validation run.
type ValidationStatus string

const (
	StatusCorrect   ValidationStatus = "CORRECT"
	StatusFlagged   ValidationStatus = "FLAGGED"
	StatusUncertain ValidationStatus = "UNCERTAIN"
	StatusCorrected ValidationStatus = "CORRECTED"
)

// IsValid checks if the validation status is one of the four known states.
func (s ValidationStatus) IsValid() bool {
	switch s {
	case StatusCorrect, StatusFlagged, StatusUncertain, StatusCorrected:
		return true
	}
	return false
}

// BetType classifies a wager.
type BetType string

const (
	BetMoneyLine   BetType = "MONEY_LINE"
	BetPointSpread BetType = "POINT_SPREAD"
	BetOverUnder   BetType = "OVER_UNDER"
	BetParlay      BetType = "PARLAY"
)

// Outcome is a wager settlement result.
type Outcome string

const (
	OutcomeWon     Outcome = "WON"
	OutcomeLost    Outcome = "LOST"
	OutcomePush    Outcome = "PUSH"
	OutcomeVoid    Outcome = "VOID"
	OutcomePending Outcome = "PENDING"
)

// NormalizeOutcomeToken maps a user-reported outcome token onto the
// canonical enum. Unrecognized tokens come back uppercased so mismatch
// flags can display what the user actually wrote.
func NormalizeOutcomeToken(token string) Outcome {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "WIN", "W", "WON", "WINNER":
		return OutcomeWon
	case "LOSS", "L", "LOST", "LOSER":
		return OutcomeLost
	case "PUSH", "TIE", "DRAW", "D", "T", "PK":
		return OutcomePush
	default:
		return Outcome(strings.ToUpper(strings.TrimSpace(token)))
	}
}

// UncertainReason explains why a row could not be confidently verified.
type UncertainReason string

const (
	ReasonNoGameMatch          UncertainReason = "NO_GAME_MATCH"
	ReasonGameNotFinal         UncertainReason = "GAME_NOT_FINAL"
	ReasonLowConfidenceTeam    UncertainReason = "LOW_CONFIDENCE_TEAM"
	ReasonESPNFetchFailed      UncertainReason = "ESPN_FETCH_FAILED"
	ReasonMissingRequiredField UncertainReason = "MISSING_REQUIRED_FIELD"
	ReasonAmbiguousSport       UncertainReason = "AMBIGUOUS_SPORT"
	ReasonMultipleGameMatches  UncertainReason = "MULTIPLE_GAME_MATCHES"
	ReasonTeamNotInGame        UncertainReason = "TEAM_NOT_IN_GAME"
	ReasonNoBetType            UncertainReason = "NO_BET_TYPE"
	ReasonNoOddsData           UncertainReason = "NO_ODDS_DATA"
)

// FlagSeverity ranks a validation flag. Only error-severity flags force a
// row into FLAGGED status.
type FlagSeverity string

const (
	SeverityError   FlagSeverity = "error"
	SeverityWarning FlagSeverity = "warning"
	SeverityInfo    FlagSeverity = "info"
)

// ValidationFlag is a concrete discrepancy raised by the outcome or
// financial pass.
type ValidationFlag struct {
	Pass     string       `json:"pass"`
	Severity FlagSeverity `json:"severity"`
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Expected string       `json:"expected,omitempty"`
	Actual   string       `json:"actual,omitempty"`
}

// HasErrorFlag reports whether any flag in the list is error severity.
func HasErrorFlag(flags []ValidationFlag) bool {
	for _, f := range flags {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ReceiptResult is the outcome of one pass execution.
type ReceiptResult string

const (
	ReceiptPass  ReceiptResult = "pass"
	ReceiptFail  ReceiptResult = "fail"
	ReceiptSkip  ReceiptResult = "skip"
	ReceiptError ReceiptResult = "error"
)

// ReceiptStep is one entry in a row's append-only validation receipt.
type ReceiptStep struct {
	Pass      string                 `json:"pass"`
	Timestamp time.Time              `json:"timestamp"`
	Result    ReceiptResult          `json:"result"`
	Detail    string                 `json:"detail"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// FieldConfidence records how confidently a field value was resolved and by
// what mechanism, so "resolved but low-confidence" stays distinguishable
// from "unresolved".
type FieldConfidence struct {
	Field      string  `json:"field"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// RawRow holds the verbatim parsed cells of one spreadsheet line, keyed by
// detected canonical field name (unmapped columns keep their original
// header as the key).
type RawRow map[string]string

// NormalizedBet is the canonicalized form of one wager row. Pointer fields
// are nil when the source cell was empty or could not be normalized.
type NormalizedBet struct {
	Date         *time.Time       `json:"date,omitempty"`
	Sport        string           `json:"sport,omitempty"`
	HomeTeam     string           `json:"home_team,omitempty"`
	AwayTeam     string           `json:"away_team,omitempty"`
	TeamSelected string           `json:"team_selected,omitempty"`
	BetType      BetType          `json:"bet_type,omitempty"`
	Outcome      Outcome          `json:"outcome,omitempty"`
	Odds         *decimal.Decimal `json:"odds,omitempty"`
	Line         *decimal.Decimal `json:"line,omitempty"`
	Wager        *decimal.Decimal `json:"wager,omitempty"`
	Payout       *decimal.Decimal `json:"payout,omitempty"`
}

// NormalizationWarning is a non-fatal annotation produced while
// canonicalizing a row. Normalization never rejects a row.
type NormalizationWarning struct {
	Field      string `json:"field"`
	Message    string `json:"message"`
	Original   string `json:"original"`
	Normalized string `json:"normalized,omitempty"`
}

// ActualValues is the computed truth for a row: the matched game's final
// score and the objectively correct settlement outcome. Set only by the
// validation run, never by the user.
type ActualValues struct {
	HomeScore       int       `json:"home_score"`
	AwayScore       int       `json:"away_score"`
	GameStatus      string    `json:"game_status"`
	ComputedOutcome Outcome   `json:"computed_outcome"`
	RecordedOutcome Outcome   `json:"recorded_outcome"`
	CapturedAt      time.Time `json:"captured_at"`
}

// CorrectedValues is the analyst-approved override replacing a row's
// trusted values with the computed actuals.
type CorrectedValues struct {
	Outcome     Outcome   `json:"outcome"`
	HomeScore   int       `json:"home_score"`
	AwayScore   int       `json:"away_score"`
	Actor       string    `json:"actor"`
	CorrectedAt time.Time `json:"corrected_at"`
}

// Row is one line of a batch, the unit of validation.
type Row struct {
	ID               string                 `json:"id"`
	BatchID          string                 `json:"batch_id"`
	RowNumber        int                    `json:"row_number"`
	OriginalValue    RawRow                 `json:"original_value"`
	Normalized       *NormalizedBet         `json:"normalized_data,omitempty"`
	Warnings         []NormalizationWarning `json:"warnings,omitempty"`
	CorrectedValue   *CorrectedValues       `json:"corrected_value,omitempty"`
	ActualValue      *ActualValues          `json:"actual_value,omitempty"`
	MatchedGameID    string                 `json:"matched_game_id,omitempty"`
	ValidationStatus ValidationStatus       `json:"validation_status,omitempty"`
	UncertainReasons []UncertainReason      `json:"uncertain_reasons,omitempty"`
	Flags            []ValidationFlag       `json:"flags,omitempty"`
	Receipt          []ReceiptStep          `json:"validation_receipt,omitempty"`
	FieldConfidences []FieldConfidence      `json:"field_confidence,omitempty"`
	ImportedBetID    string                 `json:"imported_bet_id,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// AppendReceipt adds a run's steps to the row's receipt. Past entries are
// never mutated.
func (r *Row) AppendReceipt(steps ...ReceiptStep) {
	r.Receipt = append(r.Receipt, steps...)
}

// IsImported reports whether this row was already converted into a
// financial record. Imported rows are immutable to correction and invisible
// to future import runs.
func (r *Row) IsImported() bool {
	return r.ImportedBetID != ""
}

// TrustedOutcome returns the outcome that should feed settlement: the
// corrected value when an analyst approved one, otherwise the normalized
// user-reported outcome.
func (r *Row) TrustedOutcome() Outcome {
	if r.CorrectedValue != nil {
		return r.CorrectedValue.Outcome
	}
	if r.Normalized != nil {
		return r.Normalized.Outcome
	}
	return ""
}

// Batch is one ingested spreadsheet and its lifecycle counters.
type Batch struct {
	ID             string      `json:"id"`
	Filename       string      `json:"filename"`
	Status         BatchStatus `json:"status"`
	TotalRows      int         `json:"total_rows"`
	CorrectCount   int         `json:"correct_count"`
	FlaggedCount   int         `json:"flagged_count"`
	UncertainCount int         `json:"uncertain_count"`
	CorrectedCount int         `json:"corrected_count"`
	ImportedCount  int         `json:"imported_count"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// GameStatus is the lifecycle state of an external game record.
type GameStatus string

const (
	GameScheduled  GameStatus = "SCHEDULED"
	GameInProgress GameStatus = "IN_PROGRESS"
	GameFinal      GameStatus = "FINAL"
)

// Game is a locally persisted game record, read-only to the reconciliation
// core except for the upsert performed during external sync.
type Game struct {
	ID            string     `json:"id"`
	ExternalID    string     `json:"external_id"`
	SportKey      string     `json:"sport_key"`
	HomeTeam      string     `json:"home_team"`
	AwayTeam      string     `json:"away_team"`
	HomeScore     *int       `json:"home_score,omitempty"`
	AwayScore     *int       `json:"away_score,omitempty"`
	Status        GameStatus `json:"status"`
	StartTime     time.Time  `json:"start_time"`
	HomeMoneyline *int       `json:"home_moneyline,omitempty"`
	AwayMoneyline *int       `json:"away_moneyline,omitempty"`
	CapturedAt    time.Time  `json:"captured_at"`
}

// IsFinal reports whether the game reached a terminal state with scores.
func (g *Game) IsFinal() bool {
	return g.Status == GameFinal && g.HomeScore != nil && g.AwayScore != nil
}

// HasSide reports whether the canonical team name is one of the game's two
// sides.
func (g *Game) HasSide(team string) bool {
	return team != "" && (team == g.HomeTeam || team == g.AwayTeam)
}

// LockedOddsFor returns the captured market odds for the given side, if
// present.
func (g *Game) LockedOddsFor(team string) *int {
	switch team {
	case g.HomeTeam:
		return g.HomeMoneyline
	case g.AwayTeam:
		return g.AwayMoneyline
	}
	return nil
}

// Bet is an immutable financial record created by import, one per eligible
// row.
type Bet struct {
	ID        string           `json:"id"`
	BatchID   string           `json:"batch_id"`
	RowID     string           `json:"row_id"`
	GameID    string           `json:"game_id"`
	BetType   BetType          `json:"bet_type"`
	Status    Outcome          `json:"status"`
	Wager     decimal.Decimal  `json:"wager"`
	Payout    *decimal.Decimal `json:"payout,omitempty"`
	Odds      *decimal.Decimal `json:"odds,omitempty"`
	PlacedAt  time.Time        `json:"placed_at"`
	SettledAt *time.Time       `json:"settled_at,omitempty"`
	Legs      []BetLeg         `json:"legs"`
	CreatedAt time.Time        `json:"created_at"`
}

// BetLeg is one selection within a bet. Imported spreadsheet rows always
// carry exactly one leg.
type BetLeg struct {
	ID           string           `json:"id"`
	BetID        string           `json:"bet_id"`
	GameID       string           `json:"game_id"`
	TeamSelected string           `json:"team_selected"`
	Line         *decimal.Decimal `json:"line,omitempty"`
	Outcome      Outcome          `json:"outcome"`
}

// AuditEntry is an append-only record of an import or rollback operation.
type AuditEntry struct {
	ID         string                 `json:"id"`
	Actor      string                 `json:"actor"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   string                 `json:"entity_id"`
	Before     map[string]interface{} `json:"before,omitempty"`
	After      map[string]interface{} `json:"after,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// Audit actions written by the lifecycle services.
const (
	AuditActionImport   = "IMPORT"
	AuditActionRollback = "ROLLBACK"
	AuditActionCorrect  = "CORRECT"
)

// ParseDecimal parses a money or odds cell, stripping currency symbols and
// thousand separators.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format %q: %w", s, err)
	}
	return d, nil
}

// ParseDate attempts to parse a date cell using the formats commonly seen
// in wager spreadsheets. The result is anchored in UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	formats := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
		"01/02/2006 15:04:05",
		"01/02/2006",
		"1/2/2006",
		"2006/01/02",
		"Jan 2, 2006",
		"January 2, 2006",
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.ParseInLocation(format, s, time.UTC); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date %q: %w", s, lastErr)
}

// UTCDayWindow returns the [00:00:00.000Z, 23:59:59.999Z] boundaries of the
// calendar day containing t, always computed in UTC so game matching cannot
// drift a day for users in other timezones.
func UTCDayWindow(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, 999000000, time.UTC)
	return start, end
}

// IntPtr is a convenience for literal score fixtures.
func IntPtr(v int) *int { return &v }

// DecimalPtr is a convenience for literal money fixtures.
func DecimalPtr(d decimal.Decimal) *decimal.Decimal { return &d }
