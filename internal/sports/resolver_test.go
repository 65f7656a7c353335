package sports

import (
	"context"
	"errors"
	"testing"
	"time"

	"wager-reconciliation-service/internal/models"
)

func testResolver() *StaticResolver {
	return NewStaticResolver(
		[]string{"Kansas City Chiefs", "Buffalo Bills", "New York Jets"},
		map[string]string{
			"kc chiefs": "Kansas City Chiefs",
			"bills":     "Buffalo Bills",
		},
	)
}

func TestStaticResolverExactMatch(t *testing.T) {
	res, err := testResolver().Resolve(context.Background(), "kansas city chiefs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Canonical != "Kansas City Chiefs" || res.Confidence != 1.0 {
		t.Errorf("got (%q, %.2f), want exact match at 1.0", res.Canonical, res.Confidence)
	}
}

func TestStaticResolverAlias(t *testing.T) {
	res, err := testResolver().Resolve(context.Background(), "KC Chiefs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Canonical != "Kansas City Chiefs" || res.Confidence != 0.95 {
		t.Errorf("got (%q, %.2f), want alias match at 0.95", res.Canonical, res.Confidence)
	}
}

func TestStaticResolverFuzzy(t *testing.T) {
	res, err := testResolver().Resolve(context.Background(), "Buffallo Bills")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Canonical != "Buffalo Bills" {
		t.Errorf("got %q, want fuzzy match to Buffalo Bills", res.Canonical)
	}
	if res.Confidence >= 1.0 || res.Confidence < 0.55 {
		t.Errorf("fuzzy confidence %.2f outside expected range", res.Confidence)
	}
}

func TestStaticResolverUnresolved(t *testing.T) {
	tests := []string{"", "zzzzzz", "FC Barcelona"}
	for _, raw := range tests {
		res, err := testResolver().Resolve(context.Background(), raw)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", raw, err)
		}
		if res.Resolved() {
			t.Errorf("Resolve(%q) = (%q, %.2f), want unresolved", raw, res.Canonical, res.Confidence)
		}
	}
}

func TestPassthroughResolver(t *testing.T) {
	res, err := PassthroughResolver{}.Resolve(context.Background(), " Chiefs ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Canonical != "Chiefs" || res.Confidence != 1.0 {
		t.Errorf("got (%q, %.2f), want trimmed input at 1.0", res.Canonical, res.Confidence)
	}
}

func TestStaticProviderFiltersBySportAndDay(t *testing.T) {
	day := time.Date(2024, 7, 4, 19, 0, 0, 0, time.UTC)
	games := []*models.Game{
		{ID: "g1", SportKey: "nfl", StartTime: day},
		{ID: "g2", SportKey: "mlb", StartTime: day},
		{ID: "g3", SportKey: "nfl", StartTime: day.AddDate(0, 0, 1)},
	}
	provider := NewStaticProvider(games)

	got, err := provider.FetchGamesByDate(context.Background(), "nfl", day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "g1" {
		t.Errorf("got %d game(s), want only g1", len(got))
	}
}

func TestFailingProvider(t *testing.T) {
	provider := NewFailingProvider(errors.New("upstream down"))
	if _, err := provider.FetchGamesByDate(context.Background(), "nfl", time.Now()); err == nil {
		t.Error("expected fetch to fail")
	}
}

func TestRegistryLookups(t *testing.T) {
	r := DefaultRegistry()

	if s := r.BySlug("nfl"); s == nil || s.Name != "NFL" {
		t.Error("BySlug(nfl) should find the NFL")
	}
	if s := r.ByName("nba"); s == nil || s.Slug != "nba" {
		t.Error("ByName(nba) should match case-insensitively")
	}
	// Exact matching only: "football" must not ambiguously match NFL/NCAAF.
	if key := r.CanonicalKey("football"); key != "" {
		t.Errorf("CanonicalKey(football) = %q, want no match", key)
	}
	if key := r.CanonicalKey("NHL"); key != "nhl" {
		t.Errorf("CanonicalKey(NHL) = %q, want nhl", key)
	}
}
