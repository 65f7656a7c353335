package sports

import (
	"testing"

	"github.com/shopspring/decimal"

	"wager-reconciliation-service/internal/models"
)

func TestMoneylineOutcome(t *testing.T) {
	tests := []struct {
		name      string
		selected  string
		homeScore int
		awayScore int
		want      models.Outcome
	}{
		{"home win selected home", "Chiefs", 27, 24, models.OutcomeWon},
		{"home win selected away", "Bills", 27, 24, models.OutcomeLost},
		{"away win selected away", "Bills", 20, 31, models.OutcomeWon},
		{"tie is a push", "Chiefs", 21, 21, models.OutcomePush},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MoneylineOutcome(tt.selected, "Chiefs", "Bills", tt.homeScore, tt.awayScore)
			if got != tt.want {
				t.Errorf("MoneylineOutcome(%s, %d-%d) = %s, want %s",
					tt.selected, tt.homeScore, tt.awayScore, got, tt.want)
			}
		})
	}
}

func TestSpreadOutcome(t *testing.T) {
	tests := []struct {
		name      string
		selected  string
		line      string
		homeScore int
		awayScore int
		want      models.Outcome
	}{
		{"favorite covers", "Chiefs", "-6.5", 31, 21, models.OutcomeWon},
		{"favorite wins but misses cover", "Chiefs", "-6.5", 27, 24, models.OutcomeLost},
		{"underdog covers in a loss", "Bills", "+6.5", 27, 24, models.OutcomeWon},
		{"whole line lands exactly", "Chiefs", "-3", 27, 24, models.OutcomePush},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := decimal.RequireFromString(tt.line)
			got := SpreadOutcome(tt.selected, "Chiefs", tt.homeScore, tt.awayScore, line)
			if got != tt.want {
				t.Errorf("SpreadOutcome(%s, %s, %d-%d) = %s, want %s",
					tt.selected, tt.line, tt.homeScore, tt.awayScore, got, tt.want)
			}
		})
	}
}

func TestCompareTotal(t *testing.T) {
	tests := []struct {
		homeScore int
		awayScore int
		line      string
		want      TotalComparison
	}{
		{27, 24, "47.5", TotalOver},
		{20, 17, "47.5", TotalUnder},
		{24, 24, "48", TotalPush},
	}

	for _, tt := range tests {
		got := CompareTotal(tt.homeScore, tt.awayScore, decimal.RequireFromString(tt.line))
		if got != tt.want {
			t.Errorf("CompareTotal(%d, %d, %s) = %s, want %s",
				tt.homeScore, tt.awayScore, tt.line, got, tt.want)
		}
	}
}
