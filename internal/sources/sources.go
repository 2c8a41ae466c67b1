// Package sources holds the reputation table of known filter lists.
package sources

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bnema/filterdedup/internal/models"
)

// ErrUnknownSource is returned by Lookup when neither name nor URL match
var ErrUnknownSource = errors.New("unknown source")

// Entry describes one known filter list
type Entry struct {
	Name       string `yaml:"name"`
	URL        string `yaml:"url,omitempty"`
	Category   string `yaml:"category"`
	Trusted    bool   `yaml:"trusted"`
	Priority   int    `yaml:"priority"`
	Maintainer string `yaml:"maintainer,omitempty"`
}

// Info returns the entry as rule metadata source info
func (e Entry) Info() models.SourceInfo {
	info := models.SourceInfo{
		Category: e.Category,
		Trusted:  e.Trusted,
		URL:      e.URL,
		Priority: e.Priority,
	}
	if info.Category == "" {
		info.Category = models.DefaultCategory
	}
	return info
}

// File is the on-disk layout of a reputation override file
type File struct {
	Sources []Entry `yaml:"sources"`
}

// Table maps source names and URLs to their entry
type Table struct {
	byName map[string]Entry
	byURL  map[string]Entry
	order  []string
}

// NewTable builds a table from entries. Later entries override earlier
// ones with the same name.
func NewTable(entries ...Entry) *Table {
	t := &Table{
		byName: make(map[string]Entry),
		byURL:  make(map[string]Entry),
	}
	t.Add(entries...)
	return t
}

// Add inserts or replaces entries
func (t *Table) Add(entries ...Entry) {
	for _, e := range entries {
		key := normalizeName(e.Name)
		if key == "" {
			continue
		}
		if old, ok := t.byName[key]; ok {
			delete(t.byURL, old.URL)
		} else {
			t.order = append(t.order, key)
		}
		t.byName[key] = e
		if e.URL != "" {
			t.byURL[e.URL] = e
		}
	}
}

// Lookup finds the entry for a source name or URL
func (t *Table) Lookup(nameOrURL string) (Entry, error) {
	if t != nil {
		if e, ok := t.byURL[strings.TrimSpace(nameOrURL)]; ok {
			return e, nil
		}
		if e, ok := t.byName[normalizeName(nameOrURL)]; ok {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %s", ErrUnknownSource, nameOrURL)
}

// Info returns the source info for nameOrURL, or the default reputation
func (t *Table) Info(nameOrURL string) models.SourceInfo {
	e, err := t.Lookup(nameOrURL)
	if err != nil {
		return models.DefaultSourceInfo()
	}
	return e.Info()
}

// NameFor returns the friendly name of a source URL, or the input itself
func (t *Table) NameFor(nameOrURL string) string {
	if e, err := t.Lookup(nameOrURL); err == nil && e.Name != "" {
		return e.Name
	}
	return nameOrURL
}

// Resolve returns the source name used for a configured list: its own
// name when the table knows it, else the table name of its URL, else name.
func (t *Table) Resolve(name, url string) string {
	if _, err := t.Lookup(name); err == nil {
		return name
	}
	if e, err := t.Lookup(url); err == nil && e.Name != "" {
		return e.Name
	}
	if name == "" {
		return url
	}
	return name
}

// Entries returns all entries in insertion order
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.byName[k])
	}
	return out
}

// LoadFile reads a YAML override file and merges it over the table
func (t *Table) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read sources file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse sources file: %w", err)
	}

	t.Add(f.Sources...)
	return nil
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
