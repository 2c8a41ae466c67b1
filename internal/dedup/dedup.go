// Package dedup consolidates an already classified rule collection across
// sources and kinds using the canonical normalizer key.
//
// Rules sharing a key form a group. Each group keeps a single representative
// chosen by a Scorer, carrying the merged metadata of every member. Groups
// are emitted in the order their key was first seen.
package dedup

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bnema/filterdedup/internal/models"
	"github.com/bnema/filterdedup/internal/normalizer"
)

// degradedPrefix namespaces keys of rules the normalizer failed on so they
// never collide with canonical keys
const degradedPrefix = "\x00degraded:"

// Stats holds the counters of the last Process call
type Stats struct {
	Total            int     `json:"total"`
	Duplicates       int     `json:"duplicates"`
	Merged           int     `json:"merged"`
	Skipped          int     `json:"skipped"`
	Conflicts        int     `json:"conflicts"`
	Degraded         int     `json:"degraded"`
	UniqueRules      int     `json:"unique_rules"`
	DuplicateGroups  int     `json:"duplicate_groups"`
	DuplicatePercent float64 `json:"duplicate_percent"`
}

// String renders the counters on one line
func (st Stats) String() string {
	return fmt.Sprintf("total=%d unique=%d duplicates=%d (%.2f%%) groups=%d merged=%d skipped=%d conflicts=%d degraded=%d",
		st.Total, st.UniqueRules, st.Duplicates, st.DuplicatePercent, st.DuplicateGroups,
		st.Merged, st.Skipped, st.Conflicts, st.Degraded)
}

// Deduplicator groups rules by canonical key. It is not safe for concurrent
// use.
type Deduplicator struct {
	norm   normalizer.Normalizer
	scorer Scorer
	log    *zap.Logger
	now    func() time.Time
	stats  Stats

	// merge is swapped in tests to exercise conflict recovery
	merge func(group []models.StoredRule, best int) models.RuleMetadata
}

// Option configures a Deduplicator
type Option func(*Deduplicator)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(d *Deduplicator) {
		if l != nil {
			d.log = l
		}
	}
}

// WithNormalizer replaces the key builder, typically with a normalizer.Cache
func WithNormalizer(n normalizer.Normalizer) Option {
	return func(d *Deduplicator) {
		if n != nil {
			d.norm = n
		}
	}
}

// WithScorer replaces the scoring policy
func WithScorer(sc Scorer) Option {
	return func(d *Deduplicator) {
		d.scorer = sc
	}
}

// WithClock sets the time source used for missing dates
func WithClock(now func() time.Time) Option {
	return func(d *Deduplicator) {
		if now != nil {
			d.now = now
		}
	}
}

// New creates a Deduplicator with the default normalizer and scorer
func New(opts ...Option) *Deduplicator {
	d := &Deduplicator{
		norm:   normalizer.Default,
		scorer: NewScorer(),
		log:    zap.NewNop(),
		now:    time.Now,
	}
	d.merge = d.mergeGroup
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Process returns one rule per canonical key. Input order decides group
// order and breaks full scoring ties. Malformed rules are counted, never
// returned as errors.
func (d *Deduplicator) Process(rules []models.StoredRule) []models.StoredRule {
	d.stats = Stats{Total: len(rules)}

	groups := make(map[string][]models.StoredRule)
	var order []string
	for _, r := range rules {
		key, ok := d.key(r)
		if !ok {
			d.stats.Skipped++
			continue
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r)
	}

	out := make([]models.StoredRule, 0, len(order))
	for _, key := range order {
		group := groups[key]
		if len(group) == 1 {
			r := group[0]
			r.Metadata = r.Metadata.Clone()
			out = append(out, r)
			continue
		}
		d.stats.Duplicates += len(group) - 1
		d.stats.DuplicateGroups++
		out = append(out, d.resolve(key, group))
	}

	d.stats.UniqueRules = len(out)
	if d.stats.Total > 0 {
		d.stats.DuplicatePercent = float64(d.stats.Duplicates) / float64(d.stats.Total) * 100
	}
	d.log.Debug("deduplication complete", zap.Stringer("stats", d.stats))
	return out
}

// Stats returns the counters of the last Process call
func (d *Deduplicator) Stats() Stats {
	return d.stats
}

// key computes the group key of r. Degraded keys are quarantined.
func (d *Deduplicator) key(r models.StoredRule) (string, bool) {
	if r.RawText == "" {
		return "", false
	}
	res := d.norm.Normalize(r.RawText)
	switch res.Outcome {
	case normalizer.Canonical:
		return res.Key, res.Key != ""
	case normalizer.Degraded:
		d.stats.Degraded++
		d.log.Warn("normalization degraded",
			zap.String("rule", r.RawText),
			zap.Error(res.Err),
		)
		return degradedPrefix + res.Key, true
	}
	return "", false
}

// resolve selects the representative of a group and merges the group
// metadata into it. A failure keeps the representative, or the first
// member, with default metadata and counts a conflict.
func (d *Deduplicator) resolve(key string, group []models.StoredRule) (rep models.StoredRule) {
	best := -1
	defer func() {
		if r := recover(); r != nil {
			d.stats.Conflicts++
			d.log.Error("failed to merge duplicate group",
				zap.String("key", key),
				zap.Int("size", len(group)),
				zap.Any("panic", r),
			)
			if best < 0 {
				best = 0
			}
			rep = group[best]
			rep.Metadata = rep.Metadata.Clone()
			rep.Metadata.FillDefaults(d.now())
		}
	}()

	best = d.scorer.Select(group)
	rep = group[best]
	rep.Metadata = d.merge(group, best)
	d.stats.Merged++
	return rep
}

// mergeGroup unions sources and modifiers, keeps the earliest date added and
// records every other member as an alternative
func (d *Deduplicator) mergeGroup(group []models.StoredRule, best int) models.RuleMetadata {
	rep := group[best]
	md := rep.Metadata.Clone()

	var alternatives []string
	seenAlt := map[string]struct{}{rep.RawText: {}}
	addAlt := func(raws ...string) {
		for _, raw := range raws {
			if _, ok := seenAlt[raw]; ok {
				continue
			}
			seenAlt[raw] = struct{}{}
			alternatives = append(alternatives, raw)
		}
	}
	addAlt(md.Alternatives...)

	for i, r := range group {
		m := r.Metadata
		md.AddSources(m.Sources...)
		md.Modifiers = union(md.Modifiers, m.Modifiers)
		if !m.DateAdded.IsZero() && (md.DateAdded.IsZero() || m.DateAdded.Before(md.DateAdded)) {
			md.DateAdded = m.DateAdded
		}
		if m.LastUpdated.After(md.LastUpdated) {
			md.LastUpdated = m.LastUpdated
		}
		if i != best {
			addAlt(r.RawText)
			addAlt(m.Alternatives...)
		}
	}
	md.Alternatives = alternatives
	md.FillDefaults(d.now())
	return md
}

func union(a, b []string) []string {
	for _, s := range b {
		found := false
		for _, v := range a {
			if v == s {
				found = true
				break
			}
		}
		if !found {
			a = append(a, s)
		}
	}
	return a
}
