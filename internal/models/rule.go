package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Default source info values
const (
	DefaultCategory = "unknown"
)

// SourceInfo describes the reputation of the primary contributing source
type SourceInfo struct {
	Category string `json:"category"`
	Trusted  bool   `json:"trusted"`
	URL      string `json:"url"`
	Priority int    `json:"priority"`
}

// DefaultSourceInfo returns the reputation used for unknown sources
func DefaultSourceInfo() SourceInfo {
	return SourceInfo{Category: DefaultCategory}
}

// RuleMetadata is the provenance record attached to every stored rule
type RuleMetadata struct {
	Sources      []string   `json:"sources"`
	DateAdded    time.Time  `json:"date_added"`
	LastUpdated  time.Time  `json:"last_updated"`
	Enabled      bool       `json:"enabled"`
	SourceInfo   SourceInfo `json:"source_info"`
	Tags         []string   `json:"tags"`
	Modifiers    []string   `json:"modifiers,omitempty"`
	Attribution  string     `json:"attribution,omitempty"`
	Alternatives []string   `json:"alternatives,omitempty"` // raw text of merged duplicates
}

// FillDefaults populates any missing required field. Enabled is left as is.
func (m *RuleMetadata) FillDefaults(now time.Time) {
	if m.Sources == nil {
		m.Sources = []string{}
	}
	if m.DateAdded.IsZero() {
		m.DateAdded = now
	}
	if m.LastUpdated.IsZero() {
		m.LastUpdated = now
	}
	if m.SourceInfo.Category == "" {
		m.SourceInfo.Category = DefaultCategory
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
}

// AddSources unions srcs into the metadata sources and reports whether the
// set grew. Existing order is kept, new sources are appended.
func (m *RuleMetadata) AddSources(srcs ...string) bool {
	grew := false
	for _, s := range srcs {
		if s == "" || containsString(m.Sources, s) {
			continue
		}
		m.Sources = append(m.Sources, s)
		grew = true
	}
	return grew
}

// Clone returns a deep copy so merges never alias slices of their inputs
func (m RuleMetadata) Clone() RuleMetadata {
	c := m
	c.Sources = cloneStrings(m.Sources)
	c.Tags = cloneStrings(m.Tags)
	c.Modifiers = cloneStrings(m.Modifiers)
	c.Alternatives = cloneStrings(m.Alternatives)
	return c
}

// StoredRule is the unit of storage
type StoredRule struct {
	RawText     string       `json:"raw"`
	ContentHash string       `json:"hash"`
	Kind        RuleKind     `json:"type"`
	IsException bool         `json:"is_exception,omitempty"`
	Domain      string       `json:"domain,omitempty"`   // blocking/unblocking only
	Selector    string       `json:"selector,omitempty"` // cosmetic only
	Metadata    RuleMetadata `json:"metadata"`
}

// HashRule returns the content hash of a raw rule line
func HashRule(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
