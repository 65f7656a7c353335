// Package sports holds the contracts to the external sports collaborators
// (team-name canonicalization, results sync) plus the sport registry and the
// settlement primitives the validation passes consume as black boxes.
package sports

import (
	"context"
	"time"

	"wager-reconciliation-service/internal/models"
)

// Resolution is a confidence-scored team name resolution. Confidence 0
// means "no match" and is treated as unresolved at every call site.
type Resolution struct {
	Canonical  string  `json:"canonical"`
	Confidence float64 `json:"confidence"`
}

// Resolved reports whether the resolution carries any signal at all.
func (r Resolution) Resolved() bool {
	return r.Canonical != "" && r.Confidence > 0
}

// TeamResolver canonicalizes raw team strings from uploaded spreadsheets.
type TeamResolver interface {
	Resolve(ctx context.Context, raw string) (Resolution, error)
}

// ResultsProvider fetches authoritative game results for one league and
// calendar day. The league is identified by its canonical sport slug;
// adapters translate to their own upstream keys. Failures are caught at the
// pass boundary and converted into reason codes, never propagated as a
// crash.
type ResultsProvider interface {
	FetchGamesByDate(ctx context.Context, sportKey string, day time.Time) ([]*models.Game, error)
}
