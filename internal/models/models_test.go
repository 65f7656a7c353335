package models

import (
	"testing"
	"time"
)

func TestNormalizeOutcomeToken(t *testing.T) {
	tests := []struct {
		token string
		want  Outcome
	}{
		{"WIN", OutcomeWon},
		{"w", OutcomeWon},
		{"Winner", OutcomeWon},
		{"loss", OutcomeLost},
		{"L", OutcomeLost},
		{"LOSER", OutcomeLost},
		{"tie", OutcomePush},
		{"PK", OutcomePush},
		{"draw", OutcomePush},
		{" push ", OutcomePush},
		{"whatever", Outcome("WHATEVER")},
	}

	for _, tt := range tests {
		if got := NormalizeOutcomeToken(tt.token); got != tt.want {
			t.Errorf("NormalizeOutcomeToken(%q) = %s, want %s", tt.token, got, tt.want)
		}
	}
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"$1,234.56", "1234.56", false},
		{"100", "100", false},
		{"-150", "-150", false},
		{" $50 ", "50", false},
		{"", "", true},
		{"abc", "", true},
	}

	for _, tt := range tests {
		got, err := ParseDecimal(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDecimal(%q) expected error, got %s", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDecimal(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("ParseDecimal(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestParseDateAnchorsUTC(t *testing.T) {
	tests := []string{
		"2024-07-04",
		"07/04/2024",
		"7/4/2024",
		"Jul 4, 2024",
	}

	for _, input := range tests {
		got, err := ParseDate(input)
		if err != nil {
			t.Errorf("ParseDate(%q) unexpected error: %v", input, err)
			continue
		}
		if got.Location() != time.UTC {
			t.Errorf("ParseDate(%q) location = %v, want UTC", input, got.Location())
		}
		if got.Year() != 2024 || got.Month() != time.July || got.Day() != 4 {
			t.Errorf("ParseDate(%q) = %v, want 2024-07-04", input, got)
		}
	}
}

func TestUTCDayWindow(t *testing.T) {
	// A local-zone timestamp must still window to the UTC calendar day.
	loc := time.FixedZone("PST", -8*3600)
	local := time.Date(2024, 7, 4, 18, 0, 0, 0, loc) // 2024-07-05T02:00Z

	start, end := UTCDayWindow(local)
	if start.Day() != 5 || start.Hour() != 0 || start.Location() != time.UTC {
		t.Errorf("window start = %v, want 2024-07-05T00:00:00Z", start)
	}
	if end.Day() != 5 || end.Hour() != 23 || end.Minute() != 59 || end.Second() != 59 {
		t.Errorf("window end = %v, want 2024-07-05T23:59:59.999Z", end)
	}
	if end.Nanosecond() != 999000000 {
		t.Errorf("window end nanoseconds = %d, want 999000000", end.Nanosecond())
	}
}

func TestRowTrustedOutcome(t *testing.T) {
	row := &Row{Normalized: &NormalizedBet{Outcome: OutcomeLost}}
	if got := row.TrustedOutcome(); got != OutcomeLost {
		t.Errorf("TrustedOutcome() = %s, want LOST", got)
	}

	row.CorrectedValue = &CorrectedValues{Outcome: OutcomeWon}
	if got := row.TrustedOutcome(); got != OutcomeWon {
		t.Errorf("TrustedOutcome() after correction = %s, want WON", got)
	}
}

func TestGameHelpers(t *testing.T) {
	game := &Game{
		HomeTeam:      "Chiefs",
		AwayTeam:      "Bills",
		Status:        GameFinal,
		HomeScore:     IntPtr(27),
		AwayScore:     IntPtr(24),
		HomeMoneyline: IntPtr(-150),
	}

	if !game.IsFinal() {
		t.Error("game with final status and scores should be final")
	}
	if !game.HasSide("Chiefs") || !game.HasSide("Bills") {
		t.Error("both teams should be sides")
	}
	if game.HasSide("Jets") || game.HasSide("") {
		t.Error("non-participants should not be sides")
	}
	if odds := game.LockedOddsFor("Chiefs"); odds == nil || *odds != -150 {
		t.Errorf("LockedOddsFor(Chiefs) = %v, want -150", odds)
	}
	if odds := game.LockedOddsFor("Bills"); odds != nil {
		t.Errorf("LockedOddsFor(Bills) = %v, want nil", odds)
	}

	game.Status = GameInProgress
	if game.IsFinal() {
		t.Error("in-progress game should not be final")
	}
}
