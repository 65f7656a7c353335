package sports

import (
	"github.com/shopspring/decimal"

	"wager-reconciliation-service/internal/models"
)

// Settlement primitives. Given final scores these compute the objectively
// correct outcome for a wager; the outcome validation pass consumes them as
// black boxes.

// MoneylineOutcome settles a moneyline wager: the selected team simply has
// to win. A tie is a push.
func MoneylineOutcome(selected, home, away string, homeScore, awayScore int) models.Outcome {
	if homeScore == awayScore {
		return models.OutcomePush
	}

	winner := home
	if awayScore > homeScore {
		winner = away
	}

	if selected == winner {
		return models.OutcomeWon
	}
	return models.OutcomeLost
}

// SpreadOutcome settles a point-spread wager by adjusting the selected
// side's score with the line and comparing. The line is from the selected
// team's perspective (favorites carry a negative line).
func SpreadOutcome(selected, home string, homeScore, awayScore int, line decimal.Decimal) models.Outcome {
	selectedScore := decimal.NewFromInt(int64(homeScore))
	opponentScore := decimal.NewFromInt(int64(awayScore))
	if selected != home {
		selectedScore, opponentScore = opponentScore, selectedScore
	}

	adjusted := selectedScore.Add(line)
	switch {
	case adjusted.GreaterThan(opponentScore):
		return models.OutcomeWon
	case adjusted.LessThan(opponentScore):
		return models.OutcomeLost
	default:
		return models.OutcomePush
	}
}

// TotalComparison relates a game's combined score to an over/under line.
type TotalComparison string

const (
	TotalOver  TotalComparison = "over"
	TotalUnder TotalComparison = "under"
	TotalPush  TotalComparison = "push"
)

// CompareTotal relates the combined final score to the line. The caller
// cannot settle an over/under wager from this alone: uploaded rows do not
// say which direction was taken, so the result is informational only.
func CompareTotal(homeScore, awayScore int, line decimal.Decimal) TotalComparison {
	total := decimal.NewFromInt(int64(homeScore + awayScore))
	switch {
	case total.GreaterThan(line):
		return TotalOver
	case total.LessThan(line):
		return TotalUnder
	default:
		return TotalPush
	}
}
