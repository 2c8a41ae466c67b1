// Package metadata builds provenance records for newly seen rules.
package metadata

import (
	"regexp"
	"strings"
	"time"

	"github.com/bnema/filterdedup/internal/classifier"
	"github.com/bnema/filterdedup/internal/models"
	"github.com/bnema/filterdedup/internal/sources"
)

// Factory creates fully populated RuleMetadata
type Factory struct {
	table *sources.Table
	now   func() time.Time
}

// Option configures a Factory
type Option func(*Factory)

// WithClock overrides time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(f *Factory) { f.now = now }
}

// NewFactory creates a factory backed by a reputation table. A nil table
// gives every source the default reputation.
func NewFactory(table *sources.Table, opts ...Option) *Factory {
	f := &Factory{table: table, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Now returns the factory clock
func (f *Factory) Now() time.Time {
	return f.now()
}

// New returns the metadata of a rule first seen in source
func (f *Factory) New(source string, kind models.RuleKind, raw string) models.RuleMetadata {
	now := f.now()
	md := models.RuleMetadata{
		Sources:     []string{},
		DateAdded:   now,
		LastUpdated: now,
		Enabled:     true,
		SourceInfo:  models.DefaultSourceInfo(),
		Tags:        []string{},
	}
	if source != "" {
		md.Sources = append(md.Sources, source)
	}

	if entry, err := f.table.Lookup(source); err == nil {
		md.SourceInfo = entry.Info()
		md.Attribution = entry.Maintainer
	}

	if kind.Canonical() != models.KindCosmetic && kind.Canonical() != models.KindScriptlet {
		md.Modifiers = uniqueModifiers(raw)
	}
	return md
}

func uniqueModifiers(raw string) []string {
	names := classifier.ModifierNames(raw)
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

var reSelector = regexp.MustCompile(`(?:##|#@#|#\?#|#\$#|#\$\?#|#\.|#,)(.+)`)

// DomainPattern extracts the target of a network rule: exception marker,
// anchors, options and the trailing separator are stripped. It returns ""
// when the rule has no usable pattern.
func DomainPattern(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "$") || strings.Contains(s, "script:") {
		return ""
	}
	s, _, _ = strings.Cut(s, "$")
	s = strings.TrimPrefix(s, "@@")
	s = strings.TrimLeft(s, "|")
	s = strings.TrimSuffix(s, "^")
	s = strings.TrimSpace(s)
	if strings.ContainsAny(s, "#(") {
		return ""
	}
	return s
}

// Selector extracts the selector part of a cosmetic rule
func Selector(raw string) string {
	m := reSelector.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	sel, _, _ := strings.Cut(m[1], "$")
	return strings.TrimSpace(sel)
}
