// Package export renders stored rules into filter list and DNS blocklist
// syntaxes and writes them to disk.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bnema/filterdedup/internal/models"
)

// File describes one written output file
type File struct {
	Format Format `json:"format"`
	Name   string `json:"name"`
	Rules  int    `json:"rules"`
}

// Result holds what Export produced for one format
type Result struct {
	Format Format `json:"format"`
	Counts Counts `json:"counts"`
	Lines  int    `json:"lines"`
	Files  []File `json:"files"`
}

// Exporter writes formatted lists into a directory
type Exporter struct {
	dir      string
	info     ListInfo
	splitter *Splitter
	log      *zap.Logger
	now      func() time.Time
	dryRun   bool
}

// Option configures an Exporter
type Option func(*Exporter)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.log = l
		}
	}
}

// WithListInfo sets the header fields
func WithListInfo(info ListInfo) Option {
	return func(e *Exporter) {
		e.info = info.WithDefaults()
	}
}

// WithMaxRulesPerFile sets the split size
func WithMaxRulesPerFile(n int) Option {
	return func(e *Exporter) {
		e.splitter = NewSplitter(n)
	}
}

// WithClock sets the time written in headers
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		if now != nil {
			e.now = now
		}
	}
}

// WithDryRun formats everything but writes nothing
func WithDryRun(dryRun bool) Option {
	return func(e *Exporter) {
		e.dryRun = dryRun
	}
}

// New creates an Exporter writing into dir
func New(dir string, opts ...Option) *Exporter {
	e := &Exporter{
		dir:      dir,
		info:     DefaultListInfo(),
		splitter: NewSplitter(0),
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export applies opts, then writes every format. Each format selects its
// own rule subset from the filtered collection.
func (e *Exporter) Export(rules []models.StoredRule, formats []Format, opts Options) ([]Result, error) {
	filtered := opts.Apply(rules)
	if !e.dryRun {
		if err := os.MkdirAll(e.dir, 0755); err != nil {
			return nil, fmt.Errorf("creating output dir: %w", err)
		}
	}

	results := make([]Result, 0, len(formats))
	for _, f := range formats {
		res, err := e.exportFormat(f, filtered)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (e *Exporter) exportFormat(f Format, rules []models.StoredRule) (Result, error) {
	if f.IsDNS() {
		rules = FilterDNSRules(rules)
	} else {
		rules = FilterBrowserRules(rules)
	}

	lines := make([]string, 0, len(rules))
	for _, r := range rules {
		if l := FormatRule(r, f); l != "" {
			lines = append(lines, l)
		}
	}
	lines = uniqueLines(lines)

	res := Result{Format: f, Counts: CountRules(rules), Lines: len(lines)}
	updated := e.now()

	for _, part := range e.splitter.Split(lines, string(f)) {
		name := part.Name + ".txt"
		res.Files = append(res.Files, File{Format: f, Name: name, Rules: len(part.Lines)})
		if e.dryRun {
			continue
		}

		content := Header(e.info, f, res.Counts, updated) + strings.Join(part.Lines, "\n") + "\n"
		path := filepath.Join(e.dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return res, fmt.Errorf("writing %s: %w", path, err)
		}
		e.log.Info("wrote list",
			zap.String("format", string(f)),
			zap.String("path", path),
			zap.Int("rules", len(part.Lines)),
		)
	}
	return res, nil
}
