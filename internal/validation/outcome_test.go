package validation

import (
	"testing"

	"github.com/shopspring/decimal"

	"wager-reconciliation-service/internal/models"
)

func finalGame() *models.Game {
	return fixtureGame()
}

func outcomeRow(betType models.BetType, outcome models.Outcome) *models.Row {
	row := fixtureRow("batch-1", 1, outcome)
	row.Normalized.BetType = betType
	return row
}

func TestEvaluateOutcomeMoneyline(t *testing.T) {
	tests := []struct {
		name     string
		selected string
		reported models.Outcome
		want     models.Outcome
		match    bool
	}{
		{"winner reported WON", "Kansas City Chiefs", models.OutcomeWon, models.OutcomeWon, true},
		{"winner reported LOST", "Kansas City Chiefs", models.OutcomeLost, models.OutcomeWon, false},
		{"loser reported LOST", "Buffalo Bills", models.OutcomeLost, models.OutcomeLost, true},
		{"loser reported WON", "Buffalo Bills", models.OutcomeWon, models.OutcomeLost, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := outcomeRow(models.BetMoneyLine, tt.reported)
			res := EvaluateOutcome(row, finalGame(), tt.selected)
			if res.Computed != tt.want {
				t.Errorf("computed = %s, want %s", res.Computed, tt.want)
			}
			if res.Match == nil {
				t.Fatal("expected a definite comparison")
			}
			if *res.Match != tt.match {
				t.Errorf("match = %v, want %v", *res.Match, tt.match)
			}
		})
	}
}

func TestEvaluateOutcomeSkips(t *testing.T) {
	inProgress := finalGame()
	inProgress.Status = models.GameInProgress

	tests := []struct {
		name string
		row  *models.Row
		game *models.Game
	}{
		{"no game", outcomeRow(models.BetMoneyLine, models.OutcomeWon), nil},
		{"game not final", outcomeRow(models.BetMoneyLine, models.OutcomeWon), inProgress},
		{"pending reported outcome", outcomeRow(models.BetMoneyLine, models.OutcomePending), finalGame()},
		{"void reported outcome", outcomeRow(models.BetMoneyLine, models.OutcomeVoid), finalGame()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := EvaluateOutcome(tt.row, tt.game, "Kansas City Chiefs")
			if res.Match != nil {
				t.Errorf("match = %v, want indeterminate", *res.Match)
			}
		})
	}
}

func TestEvaluateOutcomeSpread(t *testing.T) {
	// Chiefs 27-24. Chiefs -7 fails to cover; Chiefs -3 pushes.
	line := decimal.NewFromInt(-7)
	row := outcomeRow(models.BetPointSpread, models.OutcomeLost)
	row.Normalized.Line = &line

	res := EvaluateOutcome(row, finalGame(), "Kansas City Chiefs")
	if res.Computed != models.OutcomeLost {
		t.Errorf("computed = %s, want LOST on a missed cover", res.Computed)
	}

	push := decimal.NewFromInt(-3)
	row = outcomeRow(models.BetPointSpread, models.OutcomePush)
	row.Normalized.Line = &push
	res = EvaluateOutcome(row, finalGame(), "Kansas City Chiefs")
	if res.Computed != models.OutcomePush {
		t.Errorf("computed = %s, want PUSH on an exact cover", res.Computed)
	}
}

func TestEvaluateOutcomeSpreadWithoutLine(t *testing.T) {
	row := outcomeRow(models.BetPointSpread, models.OutcomeWon)
	row.Normalized.Line = nil

	res := EvaluateOutcome(row, finalGame(), "Kansas City Chiefs")
	if res.Match != nil {
		t.Error("spread without a line must stay indeterminate")
	}
	if len(res.Flags) != 1 || res.Flags[0].Code != FlagSpreadNoLine {
		t.Errorf("flags = %+v, want a single missing-line warning", res.Flags)
	}
	if res.Flags[0].Severity != models.SeverityWarning {
		t.Errorf("severity = %s, want warning", res.Flags[0].Severity)
	}
}

func TestEvaluateOutcomeTotalIsInformational(t *testing.T) {
	line := decimal.RequireFromString("44.5")
	row := outcomeRow(models.BetOverUnder, models.OutcomeWon)
	row.Normalized.Line = &line

	res := EvaluateOutcome(row, finalGame(), "Kansas City Chiefs")
	if res.Match != nil {
		t.Error("over/under has unknown direction; match must be indeterminate")
	}
	if len(res.Flags) != 1 || res.Flags[0].Code != FlagTotalDirection {
		t.Fatalf("flags = %+v, want a single total-direction note", res.Flags)
	}
	if res.Flags[0].Severity != models.SeverityInfo {
		t.Errorf("severity = %s, want info only", res.Flags[0].Severity)
	}
}

func TestEvaluateOutcomeParlayUnverifiable(t *testing.T) {
	row := outcomeRow(models.BetParlay, models.OutcomeWon)
	res := EvaluateOutcome(row, finalGame(), "Kansas City Chiefs")
	if res.Match != nil {
		t.Error("single-row parlay cannot be settled")
	}
	if len(res.Flags) != 1 || res.Flags[0].Code != FlagParlayLegs || res.Flags[0].Severity != models.SeverityInfo {
		t.Errorf("flags = %+v, want one informational parlay note", res.Flags)
	}
}

func TestEvaluateOutcomeTeamNotInGame(t *testing.T) {
	row := outcomeRow(models.BetMoneyLine, models.OutcomeWon)
	res := EvaluateOutcome(row, finalGame(), "New York Jets")
	if len(res.Flags) != 1 || res.Flags[0].Code != FlagTeamNotInGame {
		t.Fatalf("flags = %+v, want TEAM_NOT_IN_GAME", res.Flags)
	}
	if res.Flags[0].Severity != models.SeverityError {
		t.Errorf("severity = %s, want error", res.Flags[0].Severity)
	}
	if len(res.Reasons) == 0 || res.Reasons[0] != models.ReasonTeamNotInGame {
		t.Errorf("reasons = %v, want TEAM_NOT_IN_GAME", res.Reasons)
	}
}

func TestEvaluateOutcomeMismatchShowsRawToken(t *testing.T) {
	row := outcomeRow(models.BetMoneyLine, models.OutcomeLost)
	row.OriginalValue = models.RawRow{"outcome": "Loss"}

	res := EvaluateOutcome(row, finalGame(), "Kansas City Chiefs")
	if len(res.Flags) != 1 {
		t.Fatalf("flags = %+v, want one mismatch", res.Flags)
	}
	f := res.Flags[0]
	if f.Expected != "WON" {
		t.Errorf("expected = %q, want WON", f.Expected)
	}
	if f.Actual != "Loss" {
		t.Errorf("actual = %q, want the user's original token", f.Actual)
	}
}

func TestEvaluateFinancials(t *testing.T) {
	dec := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}

	tests := []struct {
		name      string
		wager     *decimal.Decimal
		odds      *decimal.Decimal
		payout    *decimal.Decimal
		outcome   models.Outcome
		wantCodes []string
	}{
		{"clean favorite payout", dec("100"), dec("-150"), dec("166.67"), models.OutcomeWon, nil},
		{"zero odds skips payout check", dec("100"), dec("0"), dec("166.67"), models.OutcomeWon, []string{FlagNonStandardOdds}},
		{"clean underdog payout", dec("50"), dec("200"), dec("150"), models.OutcomeWon, nil},
		{"payout out of tolerance", dec("100"), dec("-150"), dec("200"), models.OutcomeWon, []string{FlagPayoutOutOfRange}},
		{"within two percent band", dec("100"), dec("-150"), dec("168"), models.OutcomeWon, nil},
		{"negative wager", dec("-5"), dec("-150"), nil, models.OutcomePending, []string{FlagNegativeWager}},
		{"negative payout", dec("100"), dec("-150"), dec("-10"), models.OutcomePending, []string{FlagNegativePayout, FlagPayoutOutOfRange}},
		{"non standard odds", dec("100"), dec("50"), nil, models.OutcomePending, []string{FlagNonStandardOdds}},
		{"implausible odds", dec("100"), dec("65000"), nil, models.OutcomePending, []string{FlagImplausibleOdds}},
		{"payout on lost bet", dec("100"), nil, dec("166.67"), models.OutcomeLost, []string{FlagPayoutOnLoss}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := outcomeRow(models.BetMoneyLine, tt.outcome)
			row.Normalized.Wager = tt.wager
			row.Normalized.Odds = tt.odds
			row.Normalized.Payout = tt.payout

			res := EvaluateFinancials(row, nil, "", 0)
			var codes []string
			for _, f := range res.Flags {
				codes = append(codes, f.Code)
			}
			if len(codes) != len(tt.wantCodes) {
				t.Fatalf("flag codes = %v, want %v", codes, tt.wantCodes)
			}
			for i := range codes {
				if codes[i] != tt.wantCodes[i] {
					t.Errorf("flag[%d] = %s, want %s", i, codes[i], tt.wantCodes[i])
				}
			}
			// No financial flag may carry error severity; only outcome
			// mismatches force FLAGGED.
			for _, f := range res.Flags {
				if f.Severity == models.SeverityError {
					t.Errorf("flag %s has error severity", f.Code)
				}
			}
		})
	}
}

func TestEvaluateFinancialsSkipsWhenEmpty(t *testing.T) {
	row := outcomeRow(models.BetMoneyLine, models.OutcomeWon)
	row.Normalized.Wager = nil
	row.Normalized.Odds = nil
	row.Normalized.Payout = nil

	res := EvaluateFinancials(row, nil, "", 0)
	if len(res.Flags) != 0 {
		t.Errorf("flags = %+v, want none for a row with no financial fields", res.Flags)
	}
	if res.Step.Result != models.ReceiptSkip {
		t.Errorf("step result = %s, want skip", res.Step.Result)
	}
}

func TestEvaluateFinancialsOddsDrift(t *testing.T) {
	game := finalGame()
	game.HomeMoneyline = models.IntPtr(-150)

	row := outcomeRow(models.BetMoneyLine, models.OutcomeWon)
	odds := decimal.NewFromInt(-200)
	row.Normalized.Odds = &odds
	row.Normalized.Payout = nil

	res := EvaluateFinancials(row, game, "Kansas City Chiefs", 0)
	var drift *models.ValidationFlag
	for i := range res.Flags {
		if res.Flags[i].Code == FlagOddsDrift {
			drift = &res.Flags[i]
		}
	}
	if drift == nil {
		t.Fatalf("no drift flag in %+v; 50 points exceeds the threshold", res.Flags)
	}
	if drift.Severity != models.SeverityInfo {
		t.Errorf("severity = %s, want info; markets move", drift.Severity)
	}

	// 20 points is inside the default threshold.
	close := decimal.NewFromInt(-130)
	row.Normalized.Odds = &close
	res = EvaluateFinancials(row, game, "Kansas City Chiefs", 0)
	for _, f := range res.Flags {
		if f.Code == FlagOddsDrift {
			t.Error("drift inside the threshold must not flag")
		}
	}

	// A tighter configured threshold turns the same 20 points into drift.
	res = EvaluateFinancials(row, game, "Kansas City Chiefs", 10)
	var tight bool
	for _, f := range res.Flags {
		if f.Code == FlagOddsDrift {
			tight = true
		}
	}
	if !tight {
		t.Error("drift of 20 points must flag when the threshold is 10")
	}
}

func TestEvaluateFinancialsZeroOddsNeverPanics(t *testing.T) {
	row := outcomeRow(models.BetMoneyLine, models.OutcomeWon)
	wager := decimal.NewFromInt(100)
	odds := decimal.Zero
	payout := decimal.RequireFromString("250.00")
	row.Normalized.Wager = &wager
	row.Normalized.Odds = &odds
	row.Normalized.Payout = &payout

	res := EvaluateFinancials(row, nil, "", 0)
	var nonStandard bool
	for _, f := range res.Flags {
		if f.Code == FlagPayoutOutOfRange {
			t.Error("zero odds carry no price; no payout comparison should run")
		}
		if f.Code == FlagNonStandardOdds {
			nonStandard = true
			if f.Severity != models.SeverityWarning {
				t.Errorf("severity = %s, want warning", f.Severity)
			}
		}
	}
	if !nonStandard {
		t.Error("zero odds must raise a non-standard odds warning")
	}
}
