package sports

import (
	"context"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"wager-reconciliation-service/internal/models"
)

// StaticResolver is a table-backed TeamResolver used in tests and offline
// runs. The production canonicalization service satisfies the same
// interface remotely.
//
// Scoring: exact canonical match 1.0, known alias 0.95, otherwise
// edit-distance similarity against every canonical name with a floor below
// which the result is confidence 0 (unresolved).
type StaticResolver struct {
	canonical []string
	aliases   map[string]string
	floor     float64
}

// NewStaticResolver creates a resolver over canonical team names and an
// alias table mapping lowercase alias to canonical name.
func NewStaticResolver(canonical []string, aliases map[string]string) *StaticResolver {
	normalized := make(map[string]string, len(aliases))
	for alias, name := range aliases {
		normalized[strings.ToLower(strings.TrimSpace(alias))] = name
	}
	return &StaticResolver{
		canonical: canonical,
		aliases:   normalized,
		floor:     0.55,
	}
}

// Resolve implements TeamResolver.
func (sr *StaticResolver) Resolve(ctx context.Context, raw string) (Resolution, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return Resolution{}, nil
	}

	for _, name := range sr.canonical {
		if strings.EqualFold(name, cleaned) {
			return Resolution{Canonical: name, Confidence: 1.0}, nil
		}
	}

	if name, ok := sr.aliases[strings.ToLower(cleaned)]; ok {
		return Resolution{Canonical: name, Confidence: 0.95}, nil
	}

	best := Resolution{}
	for _, name := range sr.canonical {
		if score := Similarity(cleaned, name); score > best.Confidence {
			best = Resolution{Canonical: name, Confidence: score}
		}
	}

	if best.Confidence < sr.floor {
		return Resolution{}, nil
	}
	return best, nil
}

// Similarity is an edit-distance similarity in [0,1] over lowercased input.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1.0
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(longest)
}

// StaticProvider is a ResultsProvider serving preloaded games, keyed by
// league and UTC calendar day. Used in tests and offline ingestion.
type StaticProvider struct {
	games []*models.Game
	err   error
}

// NewStaticProvider creates a provider over the given games.
func NewStaticProvider(games []*models.Game) *StaticProvider {
	return &StaticProvider{games: games}
}

// NewFailingProvider creates a provider whose fetches always fail, for
// exercising sync-failure handling.
func NewFailingProvider(err error) *StaticProvider {
	return &StaticProvider{err: err}
}

// FetchGamesByDate implements ResultsProvider.
func (sp *StaticProvider) FetchGamesByDate(ctx context.Context, sportKey string, day time.Time) ([]*models.Game, error) {
	if sp.err != nil {
		return nil, sp.err
	}

	start, end := models.UTCDayWindow(day)
	var out []*models.Game
	for _, g := range sp.games {
		sameLeague := sportKey == "" || g.SportKey == sportKey
		inWindow := !g.StartTime.Before(start) && !g.StartTime.After(end)
		if sameLeague && inWindow {
			out = append(out, g)
		}
	}
	return out, nil
}

// PassthroughResolver trusts its input: the raw name comes back as
// canonical with full confidence. Used when no team table is configured,
// typically for spreadsheets that already carry canonical names.
type PassthroughResolver struct{}

// Resolve implements TeamResolver.
func (PassthroughResolver) Resolve(ctx context.Context, raw string) (Resolution, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return Resolution{}, nil
	}
	return Resolution{Canonical: cleaned, Confidence: 1.0}, nil
}
