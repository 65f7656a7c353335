package ingest

import (
	"regexp"
	"sort"
	"strings"

	"wager-reconciliation-service/internal/models"
	"wager-reconciliation-service/internal/sports"
)

// Canonical field names a spreadsheet column can map onto.
const (
	FieldDate         = "date"
	FieldSport        = "sport"
	FieldHomeTeam     = "home_team"
	FieldAwayTeam     = "away_team"
	FieldTeamSelected = "team_selected"
	FieldBetType      = "bet_type"
	FieldOutcome      = "outcome"
	FieldOdds         = "odds"
	FieldLine         = "line"
	FieldWager        = "wager"
	FieldPayout       = "payout"
)

// RequiredFields are the fields a batch cannot be validated without.
var RequiredFields = []string{FieldDate, FieldOutcome}

// Detection methods recorded per mapped column.
const (
	MethodHeaderMatch    = "header_match"
	MethodFuzzyMatch     = "fuzzy_match"
	MethodValueHeuristic = "value_heuristic"
)

// headerAliases maps normalized header text onto canonical fields.
var headerAliases = map[string]string{
	"date":          FieldDate,
	"game date":     FieldDate,
	"bet date":      FieldDate,
	"event date":    FieldDate,
	"placed":        FieldDate,
	"placed at":     FieldDate,
	"sport":         FieldSport,
	"league":        FieldSport,
	"home":          FieldHomeTeam,
	"home team":     FieldHomeTeam,
	"away":          FieldAwayTeam,
	"away team":     FieldAwayTeam,
	"opponent":      FieldAwayTeam,
	"team":          FieldTeamSelected,
	"pick":          FieldTeamSelected,
	"selection":     FieldTeamSelected,
	"team selected": FieldTeamSelected,
	"side":          FieldTeamSelected,
	"bet type":      FieldBetType,
	"type":          FieldBetType,
	"market":        FieldBetType,
	"wager type":    FieldBetType,
	"outcome":       FieldOutcome,
	"result":        FieldOutcome,
	"win loss":      FieldOutcome,
	"w l":           FieldOutcome,
	"status":        FieldOutcome,
	"odds":          FieldOdds,
	"price":         FieldOdds,
	"american odds": FieldOdds,
	"ml":            FieldOdds,
	"line":          FieldLine,
	"spread":        FieldLine,
	"handicap":      FieldLine,
	"total":         FieldLine,
	"wager":         FieldWager,
	"stake":         FieldWager,
	"risk":          FieldWager,
	"amount":        FieldWager,
	"bet amount":    FieldWager,
	"payout":        FieldPayout,
	"return":        FieldPayout,
	"winnings":      FieldPayout,
	"to win":        FieldPayout,
	"collected":     FieldPayout,
}

// fuzzyThreshold is the minimum edit-distance similarity for a fuzzy header
// assignment.
const fuzzyThreshold = 0.6

// sampleLimit caps how many non-empty values feed the value heuristics.
const sampleLimit = 20

// ColumnMapping is a resolved header-to-field assignment.
type ColumnMapping struct {
	Header     string  `json:"header"`
	Field      string  `json:"field"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method"`
}

// AmbiguousColumn is a header whose sample values matched several fields.
type AmbiguousColumn struct {
	Header     string   `json:"header"`
	Candidates []string `json:"candidates"`
}

// DetectionReport is the full output of column detection for one sheet.
type DetectionReport struct {
	Columns           map[string]ColumnMapping `json:"columns"`
	Ambiguous         []AmbiguousColumn        `json:"ambiguous,omitempty"`
	Unmapped          []string                 `json:"unmapped,omitempty"`
	MissingRequired   []string                 `json:"missing_required,omitempty"`
	OverallConfidence float64                  `json:"overall_confidence"`
}

// FieldFor returns the canonical field a header was mapped to, if any.
func (dr *DetectionReport) FieldFor(header string) (string, bool) {
	m, ok := dr.Columns[header]
	if !ok {
		return "", false
	}
	return m.Field, true
}

// Detector maps spreadsheet headers onto canonical fields. It is stateless
// and deterministic: the same headers and samples always produce the same
// report.
type Detector struct {
	registry *sports.Registry
}

// NewDetector creates a detector using the given sport registry for the
// sport-token heuristic.
func NewDetector(registry *sports.Registry) *Detector {
	if registry == nil {
		registry = sports.DefaultRegistry()
	}
	return &Detector{registry: registry}
}

// Detect maps each header onto at most one canonical field using, in
// priority order: exact alias lookup, fuzzy header similarity, then
// value-shape heuristics over the sample values. Each canonical field is
// claimed by at most one header.
func (d *Detector) Detect(sheet *Sheet) *DetectionReport {
	report := &DetectionReport{Columns: make(map[string]ColumnMapping)}
	claimed := make(map[string]bool)

	type pending struct {
		index  int
		header string
	}
	var unresolved []pending

	// Tier 1: exact alias matches.
	for i, header := range sheet.Headers {
		norm := normalizeHeader(header)
		if field, ok := headerAliases[norm]; ok && !claimed[field] {
			report.Columns[header] = ColumnMapping{
				Header:     header,
				Field:      field,
				Confidence: 1.0,
				Method:     MethodHeaderMatch,
			}
			claimed[field] = true
			continue
		}
		unresolved = append(unresolved, pending{index: i, header: header})
	}

	// Tier 2: fuzzy header similarity onto unclaimed fields.
	var stillUnresolved []pending
	for _, p := range unresolved {
		field, score := d.bestFuzzyField(p.header, claimed)
		if field != "" && score >= fuzzyThreshold {
			report.Columns[p.header] = ColumnMapping{
				Header:     p.header,
				Field:      field,
				Confidence: score,
				Method:     MethodFuzzyMatch,
			}
			claimed[field] = true
			continue
		}
		stillUnresolved = append(stillUnresolved, p)
	}

	// Tier 3: value-shape heuristics over sample values.
	for _, p := range stillUnresolved {
		samples := sheet.ColumnSamples(p.index, sampleLimit)
		candidates := d.heuristicCandidates(samples, claimed)

		switch len(candidates) {
		case 0:
			report.Unmapped = append(report.Unmapped, p.header)
		case 1:
			report.Columns[p.header] = ColumnMapping{
				Header:     p.header,
				Field:      candidates[0].field,
				Confidence: candidates[0].ratio,
				Method:     MethodValueHeuristic,
			}
			claimed[candidates[0].field] = true
		default:
			names := make([]string, len(candidates))
			for i, c := range candidates {
				names[i] = c.field
			}
			report.Ambiguous = append(report.Ambiguous, AmbiguousColumn{
				Header:     p.header,
				Candidates: names,
			})
		}
	}

	for _, field := range RequiredFields {
		if !claimed[field] {
			report.MissingRequired = append(report.MissingRequired, field)
		}
	}

	if len(report.Columns) > 0 {
		sum := 0.0
		for _, m := range report.Columns {
			sum += m.Confidence
		}
		report.OverallConfidence = sum / float64(len(report.Columns))
	}

	return report
}

// bestFuzzyField finds the unclaimed field whose alias is most similar to
// the header.
func (d *Detector) bestFuzzyField(header string, claimed map[string]bool) (string, float64) {
	norm := normalizeHeader(header)

	bestField := ""
	bestScore := 0.0
	// Map iteration order is random; collect and sort aliases so ties break
	// deterministically.
	aliases := make([]string, 0, len(headerAliases))
	for alias := range headerAliases {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	for _, alias := range aliases {
		field := headerAliases[alias]
		if claimed[field] {
			continue
		}
		if score := sports.Similarity(norm, alias); score > bestScore {
			bestField = field
			bestScore = score
		}
	}
	return bestField, bestScore
}

type heuristicCandidate struct {
	field string
	ratio float64
}

// heuristicCandidates runs every value-shape heuristic over the samples and
// returns the unclaimed fields whose pattern ratio clears that field's
// threshold, sorted by field name for determinism.
func (d *Detector) heuristicCandidates(samples []string, claimed map[string]bool) []heuristicCandidate {
	if len(samples) == 0 {
		return nil
	}

	checks := []struct {
		field     string
		threshold float64
		match     func(string) bool
	}{
		{FieldDate, 0.6, looksLikeDate},
		{FieldOutcome, 0.6, looksLikeOutcome},
		{FieldOdds, 0.6, models.LooksAmerican},
		{FieldWager, 0.6, looksLikeAmount},
		{FieldSport, 0.5, d.looksLikeSport},
	}

	var candidates []heuristicCandidate
	for _, check := range checks {
		if claimed[check.field] {
			continue
		}
		hits := 0
		for _, sample := range samples {
			if check.match(sample) {
				hits++
			}
		}
		ratio := float64(hits) / float64(len(samples))
		if ratio >= check.threshold {
			candidates = append(candidates, heuristicCandidate{field: check.field, ratio: ratio})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].field < candidates[j].field
	})
	return candidates
}

var headerSeparators = regexp.MustCompile(`[_\-./]+`)

func normalizeHeader(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	h = headerSeparators.ReplaceAllString(h, " ")
	return strings.Join(strings.Fields(h), " ")
}

func looksLikeDate(s string) bool {
	_, err := models.ParseDate(s)
	return err == nil
}

var outcomeTokens = map[string]bool{
	"w": true, "l": true, "won": true, "lost": true, "win": true,
	"loss": true, "winner": true, "loser": true, "push": true,
	"tie": true, "draw": true, "void": true, "pending": true,
}

func looksLikeOutcome(s string) bool {
	return outcomeTokens[strings.ToLower(strings.TrimSpace(s))]
}

var amountPattern = regexp.MustCompile(`^\$?\d{1,3}(,\d{3})*(\.\d+)?$|^\$?\d+(\.\d+)?$`)

func looksLikeAmount(s string) bool {
	return amountPattern.MatchString(strings.TrimSpace(s))
}

func (d *Detector) looksLikeSport(s string) bool {
	return d.registry.CanonicalKey(s) != ""
}
