// Package validation implements the four-pass reconciliation pipeline and
// the orchestrator that reduces pass outputs to one row status.
package validation

import (
	"context"
	"fmt"
	"time"

	"wager-reconciliation-service/internal/models"
	"wager-reconciliation-service/internal/sports"
	"wager-reconciliation-service/internal/store"
	"wager-reconciliation-service/pkg/logger"
)

// Pass names as they appear in receipts and flags.
const (
	PassGameMatching = "game_matching"
	PassOutcome      = "outcome"
	PassFinancial    = "financial"
	PassCrossRow     = "cross_row"
)

// DefaultTeamConfidenceThreshold is the minimum resolver confidence for a
// team name to participate in a game query.
const DefaultTeamConfidenceThreshold = 0.7

// GameMatchResult is the typed output of the game matching pass.
type GameMatchResult struct {
	Game              *models.Game
	Reasons           []models.UncertainReason
	Confidences       []models.FieldConfidence
	CanonicalSelected string
	Step              models.ReceiptStep
}

// GameMatcher resolves a row's teams, finds the game it refers to, and
// syncs external results when the local mirror has nothing for the day.
// Resolver and provider failures are converted to reason codes at the pass
// boundary; the matcher never returns an error to the orchestrator.
type GameMatcher struct {
	resolver  sports.TeamResolver
	provider  sports.ResultsProvider
	registry  *sports.Registry
	games     store.GameRepo
	threshold float64
	log       logger.Logger
}

// NewGameMatcher wires a game matching pass. A zero threshold falls back to
// the default.
func NewGameMatcher(resolver sports.TeamResolver, provider sports.ResultsProvider, registry *sports.Registry, games store.GameRepo, threshold float64, log logger.Logger) *GameMatcher {
	if threshold <= 0 {
		threshold = DefaultTeamConfidenceThreshold
	}
	if registry == nil {
		registry = sports.DefaultRegistry()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &GameMatcher{
		resolver:  resolver,
		provider:  provider,
		registry:  registry,
		games:     games,
		threshold: threshold,
		log:       log.WithComponent("game_matcher"),
	}
}

// Run executes the pass for one row.
func (m *GameMatcher) Run(ctx context.Context, row *models.Row) *GameMatchResult {
	res := &GameMatchResult{}
	nb := row.Normalized

	if nb == nil || nb.Date == nil || (nb.HomeTeam == "" && nb.AwayTeam == "") {
		res.Reasons = append(res.Reasons, models.ReasonMissingRequiredField)
		res.Step = skipStep(PassGameMatching, "missing date or team fields")
		return res
	}

	type side struct {
		field string
		raw   string
	}
	sides := []side{
		{"home_team", nb.HomeTeam},
		{"away_team", nb.AwayTeam},
		{"team_selected", nb.TeamSelected},
	}

	var qualifying []string
	for _, s := range sides {
		if s.raw == "" {
			continue
		}
		resolution := m.resolveTeam(ctx, s.raw)
		res.Confidences = append(res.Confidences, models.FieldConfidence{
			Field:      s.field,
			Value:      resolution.Canonical,
			Confidence: resolution.Confidence,
			Source:     "team_resolver",
		})
		if s.field == "team_selected" {
			res.CanonicalSelected = resolution.Canonical
			continue
		}
		if resolution.Resolved() && resolution.Confidence >= m.threshold {
			qualifying = append(qualifying, resolution.Canonical)
		}
	}
	if len(qualifying) == 0 {
		res.Reasons = append(res.Reasons, models.ReasonLowConfidenceTeam)
		res.Step = skipStep(PassGameMatching, "no team resolved above the confidence threshold")
		return res
	}

	start, end := models.UTCDayWindow(*nb.Date)
	query := store.GameQuery{SportKey: nb.Sport, Start: start, End: end, Teams: qualifying}

	candidates, err := m.games.Find(ctx, query)
	if err != nil {
		m.log.WithError(err).Warn("local game query failed")
		res.Reasons = append(res.Reasons, models.ReasonNoGameMatch)
		res.Step = errorStep(PassGameMatching, "local game query failed")
		return res
	}

	if len(candidates) == 0 {
		syncReason := m.syncDay(ctx, nb.Sport, *nb.Date)
		if syncReason != "" {
			res.Reasons = append(res.Reasons, syncReason)
			res.Step = skipStep(PassGameMatching, fmt.Sprintf("external sync unavailable: %s", syncReason))
			return res
		}
		candidates, err = m.games.Find(ctx, query)
		if err != nil {
			m.log.WithError(err).Warn("game re-query failed after sync")
			res.Reasons = append(res.Reasons, models.ReasonNoGameMatch)
			res.Step = errorStep(PassGameMatching, "game re-query failed after sync")
			return res
		}
	}

	if len(candidates) == 0 {
		res.Reasons = append(res.Reasons, models.ReasonNoGameMatch)
		res.Step = failStep(PassGameMatching, "no game found in the day window", nil)
		return res
	}
	if len(candidates) > 1 {
		res.Reasons = append(res.Reasons, models.ReasonMultipleGameMatches)
	}

	game := candidates[0]
	res.Game = game

	if res.CanonicalSelected != "" && !game.HasSide(res.CanonicalSelected) {
		res.Reasons = append(res.Reasons, models.ReasonTeamNotInGame)
	}

	// Snapshot the external data as seen now: re-validation may observe
	// different scores, and the receipt is how we answer "what did we see".
	snapshot := map[string]interface{}{
		"game_id":     game.ID,
		"external_id": game.ExternalID,
		"status":      string(game.Status),
		"captured_at": game.CapturedAt,
	}
	if game.HomeScore != nil && game.AwayScore != nil {
		snapshot["home_score"] = *game.HomeScore
		snapshot["away_score"] = *game.AwayScore
	}
	if game.HomeMoneyline != nil {
		snapshot["home_moneyline"] = *game.HomeMoneyline
	}
	if game.AwayMoneyline != nil {
		snapshot["away_moneyline"] = *game.AwayMoneyline
	}

	res.Step = models.ReceiptStep{
		Pass:      PassGameMatching,
		Timestamp: time.Now().UTC(),
		Result:    models.ReceiptPass,
		Detail:    fmt.Sprintf("matched %s @ %s (%d candidate(s))", game.AwayTeam, game.HomeTeam, len(candidates)),
		Data:      snapshot,
	}
	return res
}

func (m *GameMatcher) resolveTeam(ctx context.Context, raw string) sports.Resolution {
	resolution, err := m.resolver.Resolve(ctx, raw)
	if err != nil {
		m.log.WithError(err).WithField("raw", raw).Warn("team resolution failed")
		return sports.Resolution{}
	}
	return resolution
}

// syncDay pulls games for the day from the results provider and mirrors
// them locally. Sport resolution order: exact slug, exact name, and when no
// hint was given every active sport with a data key. Returns a reason code
// when the sync cannot run or fails entirely; empty string on success.
func (m *GameMatcher) syncDay(ctx context.Context, sportHint string, day time.Time) models.UncertainReason {
	var targets []sports.Sport
	if sportHint != "" {
		sport := m.registry.ResolveHint(sportHint)
		if sport == nil || sport.DataKey == "" {
			return models.ReasonAmbiguousSport
		}
		targets = []sports.Sport{*sport}
	} else {
		targets = m.registry.ActiveWithDataKey()
		if len(targets) == 0 {
			return models.ReasonAmbiguousSport
		}
	}

	synced := false
	for _, sport := range targets {
		games, err := m.provider.FetchGamesByDate(ctx, sport.Slug, day)
		if err != nil {
			m.log.WithError(err).WithField("sport", sport.Slug).Warn("external results fetch failed")
			continue
		}
		if err := m.games.UpsertByExternalID(ctx, games); err != nil {
			m.log.WithError(err).WithField("sport", sport.Slug).Warn("game upsert failed")
			continue
		}
		synced = true
	}
	if !synced {
		return models.ReasonESPNFetchFailed
	}
	return ""
}

func skipStep(pass, detail string) models.ReceiptStep {
	return models.ReceiptStep{Pass: pass, Timestamp: time.Now().UTC(), Result: models.ReceiptSkip, Detail: detail}
}

func failStep(pass, detail string, data map[string]interface{}) models.ReceiptStep {
	return models.ReceiptStep{Pass: pass, Timestamp: time.Now().UTC(), Result: models.ReceiptFail, Detail: detail, Data: data}
}

func errorStep(pass, detail string) models.ReceiptStep {
	return models.ReceiptStep{Pass: pass, Timestamp: time.Now().UTC(), Result: models.ReceiptError, Detail: detail}
}

func passStep(pass, detail string, data map[string]interface{}) models.ReceiptStep {
	return models.ReceiptStep{Pass: pass, Timestamp: time.Now().UTC(), Result: models.ReceiptPass, Detail: detail, Data: data}
}
