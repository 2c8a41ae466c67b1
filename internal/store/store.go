// Package store partitions classified rules by kind, keyed by a
// kind-specific strategy, and merges exact duplicates on ingestion.
//
// A Store is not safe for concurrent use. Rules are processed in the order
// AddRule is called.
package store

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bnema/filterdedup/internal/classifier"
	"github.com/bnema/filterdedup/internal/metadata"
	"github.com/bnema/filterdedup/internal/models"
)

// Stats is a snapshot of store counters
type Stats struct {
	TotalProcessed int                     `json:"total_processed"`
	Duplicates     int                     `json:"duplicates"`
	Merged         int                     `json:"merged"`
	Skipped        int                     `json:"skipped"`
	Invalid        int                     `json:"invalid"`
	Overwritten    int                     `json:"overwritten"`
	ByKind         map[models.RuleKind]int `json:"by_kind"`
}

// partition holds the live rules of one kind in insertion order
type partition struct {
	keys  []string
	rules map[string]*models.StoredRule
}

func newPartition() *partition {
	return &partition{rules: make(map[string]*models.StoredRule)}
}

func (p *partition) get(key string) *models.StoredRule {
	return p.rules[key]
}

func (p *partition) put(key string, r *models.StoredRule) {
	if _, ok := p.rules[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.rules[key] = r
}

// Store is the typed rule store
type Store struct {
	factory    *metadata.Factory
	log        *zap.Logger
	partitions map[models.RuleKind]*partition
	stats      Stats
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger used to report conflicts and invalid rules
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates an empty store. A nil factory uses default reputations.
func New(factory *metadata.Factory, opts ...Option) *Store {
	if factory == nil {
		factory = metadata.NewFactory(nil)
	}
	s := &Store{
		factory:    factory,
		log:        zap.NewNop(),
		partitions: make(map[models.RuleKind]*partition, len(models.StoredKinds)),
		stats: Stats{
			ByKind: make(map[models.RuleKind]int),
		},
	}
	for _, k := range models.StoredKinds {
		s.partitions[k] = newPartition()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddRule classifies text and stores it under its kind-specific key.
// Comments and unrecognized lines are counted as skipped. It never panics.
func (s *Store) AddRule(text, source string) {
	raw := strings.TrimSpace(text)
	s.AddClassified(raw, classifier.Classify(raw), source)
}

// AddClassified stores a line whose kind was already computed by the
// classifier
func (s *Store) AddClassified(text string, kind models.RuleKind, source string) {
	s.stats.TotalProcessed++

	raw := strings.TrimSpace(text)
	if raw == "" {
		s.stats.Skipped++
		return
	}

	switch kind {
	case models.KindNone, models.KindComment:
		s.stats.Skipped++
		return
	case models.KindPreprocessor, models.KindHint:
		s.stats.ByKind[kind]++
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("failed to store rule",
				zap.String("rule", raw),
				zap.String("source", source),
				zap.Any("panic", r),
			)
			s.stats.Invalid++
		}
	}()

	kind = kind.Canonical()
	if _, ok := s.partitions[kind]; !ok {
		s.log.Warn("unhandled rule kind",
			zap.String("kind", kind.String()),
			zap.String("rule", raw),
		)
		s.stats.Invalid++
		return
	}

	rule := NewRule(raw, kind, s.factory.New(source, kind, raw))
	if kind == models.KindCosmetic && rule.Selector == "" {
		s.log.Warn("could not extract selector", zap.String("rule", raw))
		s.stats.Invalid++
		return
	}
	s.upsert(kind, Key(rule), &rule)
}

// NewRule builds the stored form of a classified line
func NewRule(raw string, kind models.RuleKind, md models.RuleMetadata) models.StoredRule {
	kind = kind.Canonical()
	r := models.StoredRule{
		RawText:     raw,
		ContentHash: models.HashRule(raw),
		Kind:        kind,
		IsException: strings.HasPrefix(raw, "@@"),
		Metadata:    md,
	}
	switch kind {
	case models.KindBlocking, models.KindUnblocking:
		r.Domain = metadata.DomainPattern(raw)
	case models.KindCosmetic:
		r.Selector = metadata.Selector(raw)
	}
	return r
}

// Key returns the partition key of a rule. Blocking and unblocking rules
// are keyed by target pattern unless they carry an option section or have
// no pattern, cosmetic rules by selector, everything else by content hash.
func Key(r models.StoredRule) string {
	switch r.Kind {
	case models.KindBlocking, models.KindUnblocking:
		if hasOptionSection(r.RawText) || r.Domain == "" {
			return r.ContentHash
		}
		return r.Domain
	case models.KindCosmetic:
		return r.Selector
	}
	return r.ContentHash
}

// upsert applies the merge policy: an identical rule unions its sources
// into the live entry, a different rule under the same key replaces it.
func (s *Store) upsert(kind models.RuleKind, key string, rule *models.StoredRule) {
	p, ok := s.partitions[kind]
	if !ok {
		s.stats.Invalid++
		return
	}

	existing := p.get(key)
	switch {
	case existing == nil:
		p.put(key, rule)
		s.stats.ByKind[kind]++

	case existing.ContentHash == rule.ContentHash:
		s.stats.Duplicates++
		if existing.Metadata.AddSources(rule.Metadata.Sources...) {
			s.stats.Merged++
		}

	default:
		s.log.Warn("overwriting rule with same key",
			zap.String("kind", kind.String()),
			zap.String("key", key),
			zap.String("old", existing.RawText),
			zap.String("new", rule.RawText),
		)
		s.stats.Overwritten++
		// last write wins, provenance is kept
		sources := rule.Metadata.Sources
		rule.Metadata.Sources = append([]string{}, existing.Metadata.Sources...)
		rule.Metadata.AddSources(sources...)
		if existing.Metadata.DateAdded.Before(rule.Metadata.DateAdded) {
			rule.Metadata.DateAdded = existing.Metadata.DateAdded
		}
		p.put(key, rule)
	}
}

// UniqueRules returns every live entry, partition by partition in kind
// order, each in first-seen order. Uniqueness is per kind-specific key only.
func (s *Store) UniqueRules() []models.StoredRule {
	var out []models.StoredRule
	for _, kind := range models.StoredKinds {
		p := s.partitions[kind]
		for _, key := range p.keys {
			r := *p.rules[key]
			r.Metadata = r.Metadata.Clone()
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of live entries
func (s *Store) Len() int {
	n := 0
	for _, p := range s.partitions {
		n += len(p.keys)
	}
	return n
}

// Stats returns a copy of the store counters
func (s *Store) Stats() Stats {
	st := s.stats
	st.ByKind = make(map[models.RuleKind]int, len(s.stats.ByKind))
	for k, v := range s.stats.ByKind {
		st.ByKind[k] = v
	}
	return st
}

// String renders the counters on one line
func (st Stats) String() string {
	return fmt.Sprintf("processed=%d duplicates=%d merged=%d skipped=%d invalid=%d overwritten=%d",
		st.TotalProcessed, st.Duplicates, st.Merged, st.Skipped, st.Invalid, st.Overwritten)
}

// hasOptionSection reports whether a network rule has a '$' option section
// outside of any cosmetic or scriptlet marker
func hasOptionSection(raw string) bool {
	return strings.Contains(raw, "$") && !strings.Contains(raw, "#")
}
