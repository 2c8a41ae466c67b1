// Package ingest feeds filter list content into the rule store and fetches
// the configured lists.
package ingest

import (
	"bufio"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/bnema/filterdedup/internal/classifier"
	"github.com/bnema/filterdedup/internal/metadata"
	"github.com/bnema/filterdedup/internal/models"
	"github.com/bnema/filterdedup/internal/store"
)

// MaxUnrecognizedLogged caps the unrecognized lines logged per source
const MaxUnrecognizedLogged = 5

// maxLineSize bounds a single list line
const maxLineSize = 1 << 20

// Report summarizes the ingestion of one source
type Report struct {
	Source       string `json:"source"`
	Header       Header `json:"header"`
	Lines        int    `json:"lines"`
	Processed    int    `json:"processed"`
	Skipped      int    `json:"skipped"`
	Unrecognized int    `json:"unrecognized"`
}

// Ingester feeds lines into a Store
type Ingester struct {
	store *store.Store
	log   *zap.Logger
}

// Option configures an Ingester
type Option func(*Ingester)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(in *Ingester) {
		if l != nil {
			in.log = l
		}
	}
}

// New creates an Ingester writing into s
func New(s *store.Store, opts ...Option) *Ingester {
	in := &Ingester{store: s, log: zap.NewNop()}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// IngestReader adds every line of r to the store under source. Only a read
// error is returned; bad lines are counted.
func (in *Ingester) IngestReader(r io.Reader, source string) (Report, error) {
	rep := Report{Source: source}
	logged := 0

	err := scanLines(r, func(line string) {
		rep.Lines++
		kind := classifier.Classify(line)
		switch {
		case kind == models.KindNone:
			rep.Unrecognized++
			if logged < MaxUnrecognizedLogged {
				logged++
				in.log.Warn("unrecognized rule",
					zap.String("source", source),
					zap.String("rule", line),
				)
			}
		case !kind.IsRule():
			rep.Skipped++
			rep.Header.add(line)
		default:
			rep.Processed++
		}
		in.store.AddClassified(line, kind, source)
	})

	if rep.Unrecognized > logged {
		in.log.Warn("more unrecognized rules not logged",
			zap.String("source", source),
			zap.Int("count", rep.Unrecognized-logged),
		)
	}
	in.log.Info("ingested source",
		zap.String("source", source),
		zap.Int("lines", rep.Lines),
		zap.Int("processed", rep.Processed),
		zap.Int("skipped", rep.Skipped),
		zap.Int("unrecognized", rep.Unrecognized),
	)
	return rep, err
}

// ParseRules builds stored rules from r without store keying, for callers
// that hand the whole collection to the deduplicator
func ParseRules(r io.Reader, source string, factory *metadata.Factory) ([]models.StoredRule, error) {
	if factory == nil {
		factory = metadata.NewFactory(nil)
	}
	var rules []models.StoredRule
	err := scanLines(r, func(line string) {
		kind := classifier.Classify(line)
		if !kind.IsRule() {
			return
		}
		rules = append(rules, store.NewRule(line, kind, factory.New(source, kind, line)))
	})
	return rules, err
}

// scanLines calls fn for every non-empty trimmed line
func scanLines(r io.Reader, fn func(line string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fn(line)
	}
	return scanner.Err()
}
