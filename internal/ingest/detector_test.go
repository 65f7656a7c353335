package ingest

import (
	"reflect"
	"testing"
)

func detect(t *testing.T, headers []string, rows [][]string) *DetectionReport {
	t.Helper()
	return NewDetector(nil).Detect(&Sheet{Headers: headers, Rows: rows})
}

func TestDetectExactAliases(t *testing.T) {
	report := detect(t, []string{"Date", "Pick", "Result", "Stake", "Odds"}, nil)

	want := map[string]string{
		"Date":   FieldDate,
		"Pick":   FieldTeamSelected,
		"Result": FieldOutcome,
		"Stake":  FieldWager,
		"Odds":   FieldOdds,
	}
	for header, field := range want {
		m, ok := report.Columns[header]
		if !ok {
			t.Fatalf("header %q not mapped", header)
		}
		if m.Field != field {
			t.Errorf("header %q mapped to %q, want %q", header, m.Field, field)
		}
		if m.Confidence != 1.0 || m.Method != MethodHeaderMatch {
			t.Errorf("header %q: confidence %.2f method %q, want 1.0 header_match", header, m.Confidence, m.Method)
		}
	}
	if len(report.MissingRequired) != 0 {
		t.Errorf("missing required = %v, want none", report.MissingRequired)
	}
}

func TestDetectFuzzyHeader(t *testing.T) {
	// "Bet Dat" is one edit from the "bet date" alias.
	report := detect(t, []string{"Bet Dat", "Outcome"}, nil)

	m, ok := report.Columns["Bet Dat"]
	if !ok {
		t.Fatal("fuzzy header not mapped")
	}
	if m.Field != FieldDate || m.Method != MethodFuzzyMatch {
		t.Errorf("got field %q method %q, want date via fuzzy_match", m.Field, m.Method)
	}
	if m.Confidence < fuzzyThreshold || m.Confidence >= 1.0 {
		t.Errorf("fuzzy confidence %.2f outside [0.6, 1.0)", m.Confidence)
	}
}

func TestDetectValueHeuristics(t *testing.T) {
	headers := []string{"colA", "colB", "colC"}
	rows := [][]string{
		{"2024-07-04", "W", "-150"},
		{"2024-07-05", "L", "+120"},
		{"2024-07-06", "W", "-110"},
		{"2024-07-07", "push", "+200"},
		{"2024-07-08", "L", "-105"},
	}
	report := detect(t, headers, rows)

	want := map[string]string{
		"colA": FieldDate,
		"colB": FieldOutcome,
		"colC": FieldOdds,
	}
	for header, field := range want {
		m, ok := report.Columns[header]
		if !ok {
			t.Fatalf("header %q not mapped; unmapped=%v ambiguous=%v", header, report.Unmapped, report.Ambiguous)
		}
		if m.Field != field || m.Method != MethodValueHeuristic {
			t.Errorf("header %q: got (%s, %s), want (%s, value_heuristic)", header, m.Field, m.Method, field)
		}
	}
}

func TestDetectUnmappedAndMissingRequired(t *testing.T) {
	report := detect(t, []string{"notes"}, [][]string{{"lorem"}, {"ipsum"}})

	if !reflect.DeepEqual(report.Unmapped, []string{"notes"}) {
		t.Errorf("unmapped = %v, want [notes]", report.Unmapped)
	}
	missing := map[string]bool{}
	for _, f := range report.MissingRequired {
		missing[f] = true
	}
	if !missing[FieldDate] || !missing[FieldOutcome] {
		t.Errorf("missing required = %v, want date and outcome", report.MissingRequired)
	}
}

func TestDetectOneHeaderPerField(t *testing.T) {
	// Both headers alias onto wager; only the first may claim it.
	report := detect(t, []string{"Stake", "Risk", "Date", "Outcome"}, nil)

	if m := report.Columns["Stake"]; m.Field != FieldWager {
		t.Fatalf("Stake mapped to %q, want wager", m.Field)
	}
	if m, ok := report.Columns["Risk"]; ok && m.Field == FieldWager {
		t.Error("Risk must not claim the wager field already taken by Stake")
	}
}

func TestDetectDeterminism(t *testing.T) {
	headers := []string{"colA", "colB"}
	rows := [][]string{
		{"2024-07-04", "won"},
		{"2024-07-05", "lost"},
		{"2024-07-06", "won"},
	}

	first := detect(t, headers, rows)
	for i := 0; i < 10; i++ {
		again := detect(t, headers, rows)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("detection not deterministic on run %d", i)
		}
	}
}

func TestColumnSamplesSkipsEmpties(t *testing.T) {
	sheet := &Sheet{
		Headers: []string{"a"},
		Rows:    [][]string{{""}, {"x"}, {" "}, {"y"}, {"z"}},
	}
	got := sheet.ColumnSamples(0, 2)
	if !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Errorf("ColumnSamples = %v, want [x y]", got)
	}
}
