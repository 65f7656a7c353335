package validation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"wager-reconciliation-service/internal/models"
)

// Flag codes raised by the financial pass.
const (
	FlagNegativeWager    = "NEGATIVE_WAGER"
	FlagNegativePayout   = "NEGATIVE_PAYOUT"
	FlagNonStandardOdds  = "NON_STANDARD_ODDS"
	FlagImplausibleOdds  = "IMPLAUSIBLE_ODDS"
	FlagPayoutOutOfRange = "PAYOUT_OUT_OF_TOLERANCE"
	FlagPayoutOnLoss     = "PAYOUT_ON_LOST_BET"
	FlagOddsDrift        = "ODDS_DRIFT"
)

// DefaultOddsDriftPoints is how far reported odds may sit from the locked
// market odds before an informational flag is raised.
const DefaultOddsDriftPoints = 30

// FinancialResult is the typed output of the financial validation pass.
type FinancialResult struct {
	Flags []models.ValidationFlag
	Step  models.ReceiptStep
}

// EvaluateFinancials reconciles a row's wager, odds, and payout against
// American-odds payout arithmetic and the matched game's locked market
// odds. Pure function; skips entirely when no financial fields are present.
// A non-positive driftPoints falls back to the default.
func EvaluateFinancials(row *models.Row, game *models.Game, selected string, driftPoints int) FinancialResult {
	if driftPoints <= 0 {
		driftPoints = DefaultOddsDriftPoints
	}
	res := FinancialResult{}
	nb := row.Normalized

	if nb == nil || (nb.Wager == nil && nb.Odds == nil && nb.Payout == nil) {
		res.Step = skipStep(PassFinancial, "no financial fields present")
		return res
	}

	flag := func(severity models.FlagSeverity, code, message, expected, actual string) {
		res.Flags = append(res.Flags, models.ValidationFlag{
			Pass:     PassFinancial,
			Severity: severity,
			Code:     code,
			Message:  message,
			Expected: expected,
			Actual:   actual,
		})
	}

	if nb.Wager != nil && nb.Wager.IsNegative() {
		flag(models.SeverityWarning, FlagNegativeWager, "wager amount is negative", "", nb.Wager.String())
	}
	if nb.Payout != nil && nb.Payout.IsNegative() {
		flag(models.SeverityWarning, FlagNegativePayout, "payout amount is negative", "", nb.Payout.String())
	}

	if nb.Odds != nil {
		abs := nb.Odds.Abs()
		if nb.Odds.IsZero() {
			flag(models.SeverityWarning, FlagNonStandardOdds, "odds of zero carry no price; payout check skipped", "", nb.Odds.String())
		} else if abs.LessThan(decimal.NewFromInt(100)) {
			flag(models.SeverityInfo, FlagNonStandardOdds, "odds magnitude below 100 is not standard American format", "", nb.Odds.String())
		}
		if abs.GreaterThan(decimal.NewFromInt(50000)) {
			flag(models.SeverityWarning, FlagImplausibleOdds, "odds magnitude above 50000 is implausible", "", nb.Odds.String())
		}
	}

	data := map[string]interface{}{}

	if nb.Wager != nil && nb.Odds != nil && !nb.Odds.IsZero() && nb.Wager.IsPositive() {
		expected := models.ExpectedPayout(*nb.Wager, *nb.Odds)
		data["expected_payout"] = expected.StringFixed(2)

		if nb.Payout != nil {
			data["reported_payout"] = nb.Payout.StringFixed(2)
			if !models.WithinPayoutTolerance(*nb.Payout, expected) {
				delta := nb.Payout.Sub(expected)
				flag(models.SeverityWarning, FlagPayoutOutOfRange,
					fmt.Sprintf("reported payout differs from expected by %s (tolerance %s)",
						delta.StringFixed(2), models.PayoutTolerance(expected).StringFixed(2)),
					expected.StringFixed(2), nb.Payout.StringFixed(2))
			}
		}
	}

	if nb.Payout != nil && nb.Payout.IsPositive() && row.TrustedOutcome() == models.OutcomeLost {
		flag(models.SeverityWarning, FlagPayoutOnLoss, "positive payout recorded on a lost bet", "0.00", nb.Payout.StringFixed(2))
	}

	if game != nil && nb.Odds != nil && selected != "" {
		if locked := game.LockedOddsFor(selected); locked != nil {
			lockedDec := decimal.NewFromInt(int64(*locked))
			drift := nb.Odds.Sub(lockedDec).Abs()
			if drift.GreaterThan(decimal.NewFromInt(int64(driftPoints))) {
				flag(models.SeverityInfo, FlagOddsDrift,
					fmt.Sprintf("reported odds drift %s points from locked market odds (markets move)", drift.StringFixed(0)),
					lockedDec.String(), nb.Odds.String())
			}
		}
	}

	detail := "financial fields reconciled"
	if len(res.Flags) > 0 {
		detail = fmt.Sprintf("financial reconciliation raised %d flag(s)", len(res.Flags))
	}
	if len(data) == 0 {
		data = nil
	}
	res.Step = passStep(PassFinancial, detail, data)
	return res
}
