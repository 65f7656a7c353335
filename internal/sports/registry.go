package sports

import "strings"

// Sport describes one configured sport and its external data binding.
type Sport struct {
	Slug    string `json:"slug"`
	Name    string `json:"name"`
	DataKey string `json:"data_key"`
	Active  bool   `json:"active"`
}

// Registry is the configured sport table. Lookups are exact: slug first,
// then case-insensitive name. Substring matching is deliberately excluded
// ("football" must not match both NFL and NCAAF).
type Registry struct {
	sports []Sport
}

// NewRegistry creates a registry over the given sports.
func NewRegistry(sports []Sport) *Registry {
	return &Registry{sports: sports}
}

// DefaultRegistry returns the registry covering the leagues historical
// wager spreadsheets reference.
func DefaultRegistry() *Registry {
	return NewRegistry([]Sport{
		{Slug: "nfl", Name: "NFL", DataKey: "football/nfl", Active: true},
		{Slug: "ncaaf", Name: "NCAAF", DataKey: "football/college-football", Active: true},
		{Slug: "nba", Name: "NBA", DataKey: "basketball/nba", Active: true},
		{Slug: "ncaab", Name: "NCAAB", DataKey: "basketball/mens-college-basketball", Active: true},
		{Slug: "mlb", Name: "MLB", DataKey: "baseball/mlb", Active: true},
		{Slug: "nhl", Name: "NHL", DataKey: "hockey/nhl", Active: true},
		{Slug: "mls", Name: "MLS", DataKey: "soccer/usa.1", Active: true},
	})
}

// Slugs returns all configured sport slugs.
func (r *Registry) Slugs() []string {
	slugs := make([]string, 0, len(r.sports))
	for _, s := range r.sports {
		slugs = append(slugs, s.Slug)
	}
	return slugs
}

// BySlug returns the sport with the exact slug, or nil.
func (r *Registry) BySlug(slug string) *Sport {
	slug = strings.ToLower(strings.TrimSpace(slug))
	for i := range r.sports {
		if r.sports[i].Slug == slug {
			return &r.sports[i]
		}
	}
	return nil
}

// ByName returns the sport with the exact case-insensitive name, or nil.
func (r *Registry) ByName(name string) *Sport {
	name = strings.TrimSpace(name)
	for i := range r.sports {
		if strings.EqualFold(r.sports[i].Name, name) {
			return &r.sports[i]
		}
	}
	return nil
}

// ResolveHint resolves a sport hint for external sync: exact slug, then
// exact case-insensitive name. Empty hint returns nil.
func (r *Registry) ResolveHint(hint string) *Sport {
	if strings.TrimSpace(hint) == "" {
		return nil
	}
	if s := r.BySlug(hint); s != nil {
		return s
	}
	return r.ByName(hint)
}

// ActiveWithDataKey returns every active sport with a configured data key,
// the fallback set when a row carries no usable sport hint.
func (r *Registry) ActiveWithDataKey() []Sport {
	var out []Sport
	for _, s := range r.sports {
		if s.Active && s.DataKey != "" {
			out = append(out, s)
		}
	}
	return out
}

// CanonicalKey normalizes a raw sport cell against the registry by exact
// slug or name match only. Returns "" when nothing matches.
func (r *Registry) CanonicalKey(raw string) string {
	if s := r.ResolveHint(raw); s != nil {
		return s.Slug
	}
	return ""
}
