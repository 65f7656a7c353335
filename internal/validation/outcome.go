package validation

import (
	"fmt"

	"wager-reconciliation-service/internal/models"
	"wager-reconciliation-service/internal/sports"
)

// Flag codes raised by the outcome pass.
const (
	FlagOutcomeMismatch = "OUTCOME_MISMATCH"
	FlagTeamNotInGame   = "TEAM_NOT_IN_GAME"
	FlagTotalDirection  = "TOTAL_DIRECTION_UNKNOWN"
	FlagParlayLegs      = "PARLAY_LEGS_UNVERIFIABLE"
	FlagSpreadNoLine    = "SPREAD_LINE_MISSING"
)

// OutcomeResult is the typed output of the outcome validation pass.
// Match is nil when the comparison was indeterminate.
type OutcomeResult struct {
	Match    *bool
	Computed models.Outcome
	Flags    []models.ValidationFlag
	Reasons  []models.UncertainReason
	Step     models.ReceiptStep
}

// EvaluateOutcome compares a row's reported outcome against the settlement
// computed from the matched game's final score. It is a pure function of
// its inputs; selected is the resolver's canonical form of the row's
// selected team.
func EvaluateOutcome(row *models.Row, game *models.Game, selected string) OutcomeResult {
	res := OutcomeResult{}
	nb := row.Normalized

	switch {
	case game == nil:
		res.Step = skipStep(PassOutcome, "no matched game")
		return res
	case game.Status != models.GameFinal:
		res.Reasons = append(res.Reasons, models.ReasonGameNotFinal)
		res.Step = skipStep(PassOutcome, "game has not reached a final state")
		return res
	case game.HomeScore == nil || game.AwayScore == nil:
		res.Reasons = append(res.Reasons, models.ReasonGameNotFinal)
		res.Step = skipStep(PassOutcome, "final scores unavailable")
		return res
	}

	reported := row.TrustedOutcome()
	if reported == "" || reported == models.OutcomePending || reported == models.OutcomeVoid {
		res.Step = skipStep(PassOutcome, "no comparable reported outcome")
		return res
	}
	if nb == nil || nb.TeamSelected == "" {
		res.Step = skipStep(PassOutcome, "no selected team")
		return res
	}

	if selected == "" {
		selected = nb.TeamSelected
	}
	if !game.HasSide(selected) {
		res.Reasons = append(res.Reasons, models.ReasonTeamNotInGame)
		res.Flags = append(res.Flags, models.ValidationFlag{
			Pass:     PassOutcome,
			Severity: models.SeverityError,
			Code:     FlagTeamNotInGame,
			Message:  fmt.Sprintf("selected team %q is not a side of the matched game", selected),
			Actual:   fmt.Sprintf("%s vs %s", game.AwayTeam, game.HomeTeam),
		})
		res.Step = errorStep(PassOutcome, "selected team is not in the matched game")
		return res
	}

	homeScore, awayScore := *game.HomeScore, *game.AwayScore

	switch nb.BetType {
	case models.BetMoneyLine:
		res.Computed = sports.MoneylineOutcome(selected, game.HomeTeam, game.AwayTeam, homeScore, awayScore)

	case models.BetPointSpread:
		if nb.Line == nil {
			res.Flags = append(res.Flags, models.ValidationFlag{
				Pass:     PassOutcome,
				Severity: models.SeverityWarning,
				Code:     FlagSpreadNoLine,
				Message:  "point spread bet has no line value; outcome cannot be settled",
			})
			res.Step = skipStep(PassOutcome, "point spread without a line")
			return res
		}
		res.Computed = sports.SpreadOutcome(selected, game.HomeTeam, homeScore, awayScore, *nb.Line)

	case models.BetOverUnder:
		// Direction (over vs under) is not recoverable from the available
		// fields, so the comparison stays informational.
		detail := "total comparison is informational; bet direction unknown"
		if nb.Line != nil {
			cmp := sports.CompareTotal(homeScore, awayScore, *nb.Line)
			total := homeScore + awayScore
			res.Flags = append(res.Flags, models.ValidationFlag{
				Pass:     PassOutcome,
				Severity: models.SeverityInfo,
				Code:     FlagTotalDirection,
				Message:  fmt.Sprintf("final total %d is %s the line %s; direction of the bet is unknown", total, string(cmp), nb.Line.String()),
			})
		}
		res.Step = skipStep(PassOutcome, detail)
		return res

	case models.BetParlay:
		res.Flags = append(res.Flags, models.ValidationFlag{
			Pass:     PassOutcome,
			Severity: models.SeverityInfo,
			Code:     FlagParlayLegs,
			Message:  "parlay legs are not present in the upload; outcome cannot be settled",
		})
		res.Step = skipStep(PassOutcome, "parlay outcome unverifiable from a single row")
		return res

	default:
		res.Reasons = append(res.Reasons, models.ReasonNoBetType)
		res.Step = skipStep(PassOutcome, "no recognized bet type")
		return res
	}

	match := res.Computed == reported
	res.Match = &match

	data := map[string]interface{}{
		"computed": string(res.Computed),
		"reported": string(reported),
	}
	if match {
		res.Step = passStep(PassOutcome, fmt.Sprintf("reported outcome %s confirmed", reported), data)
		return res
	}

	// Show the token the user actually wrote, not its normalized form.
	actual := string(reported)
	if raw, ok := row.OriginalValue["outcome"]; ok && raw != "" {
		actual = raw
	}
	res.Flags = append(res.Flags, models.ValidationFlag{
		Pass:     PassOutcome,
		Severity: models.SeverityError,
		Code:     FlagOutcomeMismatch,
		Message:  "reported outcome disagrees with the settled game result",
		Expected: string(res.Computed),
		Actual:   actual,
	})
	res.Step = failStep(PassOutcome, fmt.Sprintf("expected %s, reported %s", res.Computed, reported), data)
	return res
}
