package models

import (
	"math"
	"regexp"

	"github.com/shopspring/decimal"
)

// Odds handling. Uploaded spreadsheets mix American odds (-150, +120) with
// decimal odds (1.67, 2.20); everything is normalized to American integers.

var americanOddsPattern = regexp.MustCompile(`^[+-]\d{3,5}$`)

// LooksAmerican reports whether the raw cell text matches the signed
// three-to-five digit American odds shape.
func LooksAmerican(s string) bool {
	return americanOddsPattern.MatchString(s)
}

// OddsFormat classifies a numeric odds value by magnitude.
type OddsFormat string

const (
	OddsAmerican OddsFormat = "american"
	OddsDecimal  OddsFormat = "decimal"
	OddsUnknown  OddsFormat = "unknown"
)

// ClassifyOdds determines the format of a numeric odds value. Magnitude
// >=100 is American as-is; values strictly between 1 and 100 are decimal;
// anything else in (-100, 100) is unknown.
func ClassifyOdds(v decimal.Decimal) OddsFormat {
	abs := v.Abs()
	if abs.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return OddsAmerican
	}
	if v.GreaterThan(decimal.NewFromInt(1)) && v.LessThan(decimal.NewFromInt(100)) {
		return OddsDecimal
	}
	return OddsUnknown
}

// DecimalToAmerican converts decimal odds to the nearest American integer:
// d >= 2.0 maps to round((d-1)*100), d < 2.0 maps to round(-100/(d-1)).
func DecimalToAmerican(d decimal.Decimal) int64 {
	f, _ := d.Float64()
	if f >= 2.0 {
		return int64(math.Round((f - 1.0) * 100.0))
	}
	return int64(math.Round(-100.0 / (f - 1.0)))
}

// ExpectedPayout computes the total return (stake plus winnings) for a
// winning wager at the given American odds.
//
//	odds > 0: wager + wager*odds/100
//	odds < 0: wager + wager*100/|odds|
//
// Zero odds carry no price; the stake comes back unchanged.
func ExpectedPayout(wager, american decimal.Decimal) decimal.Decimal {
	if american.IsZero() {
		return wager
	}
	hundred := decimal.NewFromInt(100)
	if american.IsPositive() {
		return wager.Add(wager.Mul(american).Div(hundred))
	}
	return wager.Add(wager.Mul(hundred).Div(american.Abs()))
}

// PayoutTolerance returns the acceptable absolute deviation between a
// reported and an expected payout: max(2% of expected, $0.01).
func PayoutTolerance(expected decimal.Decimal) decimal.Decimal {
	pct := expected.Abs().Mul(decimal.NewFromFloat(0.02))
	floor := decimal.NewFromFloat(0.01)
	if pct.GreaterThan(floor) {
		return pct
	}
	return floor
}

// WithinPayoutTolerance reports whether reported is within tolerance of
// expected.
func WithinPayoutTolerance(reported, expected decimal.Decimal) bool {
	return reported.Sub(expected).Abs().LessThanOrEqual(PayoutTolerance(expected))
}
