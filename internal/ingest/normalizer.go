package ingest

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"wager-reconciliation-service/internal/models"
	"wager-reconciliation-service/internal/sports"
)

// betTypeSynonyms maps raw bet-type tokens onto canonical bet types.
var betTypeSynonyms = map[string]models.BetType{
	"ml":           models.BetMoneyLine,
	"moneyline":    models.BetMoneyLine,
	"money line":   models.BetMoneyLine,
	"straight":     models.BetMoneyLine,
	"spread":       models.BetPointSpread,
	"point spread": models.BetPointSpread,
	"ps":           models.BetPointSpread,
	"ats":          models.BetPointSpread,
	"handicap":     models.BetPointSpread,
	"total":        models.BetOverUnder,
	"totals":       models.BetOverUnder,
	"over under":   models.BetOverUnder,
	"o u":          models.BetOverUnder,
	"ou":           models.BetOverUnder,
	"over":         models.BetOverUnder,
	"under":        models.BetOverUnder,
	"parlay":       models.BetParlay,
	"accumulator":  models.BetParlay,
	"acca":         models.BetParlay,
	"combo":        models.BetParlay,
}

// Normalizer converts raw cell values into a typed NormalizedBet. It never
// guesses outcomes and never invents values: anything it cannot interpret is
// left zero and reported as a warning.
type Normalizer struct {
	registry *sports.Registry
}

// NewNormalizer creates a normalizer using the given sport registry.
func NewNormalizer(registry *sports.Registry) *Normalizer {
	if registry == nil {
		registry = sports.DefaultRegistry()
	}
	return &Normalizer{registry: registry}
}

// Normalize converts one detected row into a NormalizedBet. The raw map is
// keyed by canonical field name. Warnings describe lossy or inferred
// conversions; they never block processing.
func (n *Normalizer) Normalize(raw models.RawRow) (*models.NormalizedBet, []models.NormalizationWarning) {
	bet := &models.NormalizedBet{}
	var warnings []models.NormalizationWarning

	warn := func(field, msg, original, normalized string) {
		warnings = append(warnings, models.NormalizationWarning{
			Field:      field,
			Message:    msg,
			Original:   original,
			Normalized: normalized,
		})
	}

	if v := strings.TrimSpace(raw[FieldDate]); v != "" {
		if t, err := models.ParseDate(v); err == nil {
			bet.Date = &t
		} else {
			warn(FieldDate, "unrecognized date format", v, "")
		}
	}

	if v := strings.TrimSpace(raw[FieldSport]); v != "" {
		if slug := n.registry.CanonicalKey(v); slug != "" {
			bet.Sport = slug
		} else {
			warn(FieldSport, "unrecognized sport", v, "")
		}
	}

	bet.HomeTeam = strings.TrimSpace(raw[FieldHomeTeam])
	bet.AwayTeam = strings.TrimSpace(raw[FieldAwayTeam])
	bet.TeamSelected = strings.TrimSpace(raw[FieldTeamSelected])

	n.normalizeBetType(raw, bet, warn)
	n.normalizeOutcome(raw, bet, warn)
	n.normalizeOdds(raw, bet, warn)
	n.normalizeFinancials(raw, bet, warn)

	return bet, warnings
}

func (n *Normalizer) normalizeBetType(raw models.RawRow, bet *models.NormalizedBet, warn func(field, msg, original, normalized string)) {
	v := strings.TrimSpace(raw[FieldBetType])
	if v != "" {
		if bt, ok := betTypeSynonyms[normalizeToken(v)]; ok {
			bet.BetType = bt
			return
		}
		warn(FieldBetType, "unrecognized bet type", v, "")
	}
	// A row with a line but no recognized bet type is treated as a point
	// spread, with a warning so the inference stays visible.
	if bet.BetType == "" && strings.TrimSpace(raw[FieldLine]) != "" {
		bet.BetType = models.BetPointSpread
		warn(FieldBetType, "bet type inferred from line value", v, string(models.BetPointSpread))
	}
}

func (n *Normalizer) normalizeOutcome(raw models.RawRow, bet *models.NormalizedBet, warn func(field, msg, original, normalized string)) {
	v := strings.TrimSpace(raw[FieldOutcome])
	if v == "" {
		return
	}
	token := models.NormalizeOutcomeToken(v)
	switch token {
	case models.OutcomeWon, models.OutcomeLost, models.OutcomePush,
		models.OutcomeVoid, models.OutcomePending:
		bet.Outcome = token
	default:
		// Outcomes are never guessed; an unrecognized token stays empty.
		warn(FieldOutcome, "unrecognized outcome token", v, "")
	}
}

func (n *Normalizer) normalizeOdds(raw models.RawRow, bet *models.NormalizedBet, warn func(field, msg, original, normalized string)) {
	v := strings.TrimSpace(raw[FieldOdds])
	if v != "" {
		d, err := models.ParseDecimal(v)
		if err != nil {
			warn(FieldOdds, "unparseable odds value", v, "")
		} else {
			switch models.ClassifyOdds(d) {
			case models.OddsAmerican:
				bet.Odds = &d
			case models.OddsDecimal:
				american := models.DecimalToAmerican(d)
				converted := decimal.NewFromInt(int64(american))
				bet.Odds = &converted
				warn(FieldOdds, "decimal odds converted to American", v, converted.String())
			default:
				// Unknown format passes through unchanged so later passes
				// can still compare it against sourced odds.
				bet.Odds = &d
				warn(FieldOdds, "odds format not recognized, kept as-is", v, d.String())
			}
		}
	}

	if v := strings.TrimSpace(raw[FieldLine]); v != "" {
		if d, err := models.ParseDecimal(v); err == nil {
			bet.Line = &d
		} else {
			warn(FieldLine, "unparseable line value", v, "")
		}
	}
}

func (n *Normalizer) normalizeFinancials(raw models.RawRow, bet *models.NormalizedBet, warn func(field, msg, original, normalized string)) {
	if v := strings.TrimSpace(raw[FieldWager]); v != "" {
		if d, err := models.ParseDecimal(v); err == nil {
			bet.Wager = &d
			if d.IsNegative() {
				warn(FieldWager, "negative wager amount", v, d.String())
			} else if d.IsZero() {
				warn(FieldWager, "zero wager amount", v, d.String())
			}
		} else {
			warn(FieldWager, "unparseable wager amount", v, "")
		}
	}

	if v := strings.TrimSpace(raw[FieldPayout]); v != "" {
		if d, err := models.ParseDecimal(v); err == nil {
			bet.Payout = &d
			if d.IsNegative() {
				warn(FieldPayout, "negative payout amount", v, d.String())
			}
		} else {
			warn(FieldPayout, "unparseable payout amount", v, "")
		}
	}

	if bet.Payout != nil && bet.Payout.IsPositive() && bet.Outcome == models.OutcomeLost {
		warn(FieldPayout, "positive payout on a recorded loss", bet.Payout.String(), "")
	}

	if bet.Wager != nil && bet.Payout != nil && bet.Outcome == models.OutcomeWon {
		if bet.Payout.LessThan(*bet.Wager) && !bet.Payout.IsZero() {
			warn(FieldPayout, "payout below wager on a recorded win",
				bet.Payout.String(), fmt.Sprintf("wager %s", bet.Wager.String()))
		}
	}
}

func normalizeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = headerSeparators.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}
