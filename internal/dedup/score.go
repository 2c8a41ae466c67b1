package dedup

import (
	"strings"

	"github.com/bnema/filterdedup/internal/models"
)

// Weight names
const (
	WeightSource     = "source"     // per contributing source
	WeightModifier   = "modifier"   // per recorded modifier
	WeightDateAdded  = "date_added" // a valid date added is present
	WeightImportant  = "important"  // raw text has $important
	WeightTrusted    = "trusted"    // primary source is trusted
	WeightMaintainer = "maintainer" // attribution names the list maintainer
	WeightDomain     = "domain"     // raw text has $domain=
	WeightExact      = "exact"      // target has no wildcard or anchor
)

// DefaultMaintainer is matched case-insensitively against attributions
const DefaultMaintainer = "daniel hipskind"

// Weights maps a weight name to its score contribution
type Weights map[string]int

// DefaultWeights returns the stock scoring policy
func DefaultWeights() Weights {
	return Weights{
		WeightSource:     2,
		WeightModifier:   2,
		WeightDateAdded:  5,
		WeightImportant:  10,
		WeightTrusted:    15,
		WeightMaintainer: 20,
		WeightDomain:     8,
		WeightExact:      5,
	}
}

// Merge returns a copy of w with overrides applied
func (w Weights) Merge(overrides map[string]int) Weights {
	out := make(Weights, len(w)+len(overrides))
	for k, v := range w {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Scorer ranks duplicate candidates
type Scorer struct {
	Weights    Weights
	Maintainer string
}

// NewScorer returns a scorer with default weights and maintainer
func NewScorer() Scorer {
	return Scorer{Weights: DefaultWeights(), Maintainer: DefaultMaintainer}
}

// Score computes the preference score of a rule
func (sc Scorer) Score(r models.StoredRule) int {
	if r.RawText == "" {
		return 0
	}
	w := sc.Weights
	md := r.Metadata
	lower := strings.ToLower(r.RawText)

	score := w[WeightSource] * len(md.Sources)
	score += w[WeightModifier] * len(md.Modifiers)
	if !md.DateAdded.IsZero() {
		score += w[WeightDateAdded]
	}
	if strings.Contains(lower, "$important") {
		score += w[WeightImportant]
	}
	if md.SourceInfo.Trusted {
		score += w[WeightTrusted]
	}
	if sc.Maintainer != "" && strings.Contains(strings.ToLower(md.Attribution), strings.ToLower(sc.Maintainer)) {
		score += w[WeightMaintainer]
	}
	if strings.Contains(lower, "$domain=") {
		score += w[WeightDomain]
	}
	if isExactTarget(r.RawText) {
		score += w[WeightExact]
	}
	return score
}

// Better reports whether a should be preferred over b. Equal scores fall
// back to the shorter raw text; a full tie returns false so that the first
// seen candidate is kept.
func (sc Scorer) Better(a, b models.StoredRule) bool {
	sa, sb := sc.Score(a), sc.Score(b)
	if sa != sb {
		return sa > sb
	}
	return len(a.RawText) < len(b.RawText)
}

// Select returns the index of the representative of a group
func (sc Scorer) Select(group []models.StoredRule) int {
	best := 0
	for i := 1; i < len(group); i++ {
		if sc.Better(group[i], group[best]) {
			best = i
		}
	}
	return best
}

// isExactTarget reports whether the part before any options or selector
// is free of wildcard characters
func isExactTarget(raw string) bool {
	core, _, _ := strings.Cut(raw, "$")
	core, _, _ = strings.Cut(core, "#")
	return !strings.ContainsAny(strings.TrimSpace(core), "*^|")
}
