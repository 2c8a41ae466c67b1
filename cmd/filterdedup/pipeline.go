package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/bnema/filterdedup/internal/dedup"
	"github.com/bnema/filterdedup/internal/export"
	"github.com/bnema/filterdedup/internal/fetcher"
	"github.com/bnema/filterdedup/internal/ingest"
	"github.com/bnema/filterdedup/internal/metadata"
	"github.com/bnema/filterdedup/internal/models"
	"github.com/bnema/filterdedup/internal/normalizer"
	"github.com/bnema/filterdedup/internal/store"
)

// buildOptions are the command line overrides of a build
type buildOptions struct {
	OutputDir string
	DryRun    bool
	NoDedup   bool
	Formats   []string
	Verbose   bool
	ListInfo  export.ListInfo
}

// ListResult contains ingestion results for a single list
type ListResult struct {
	Name         string        `json:"name"`
	Source       string        `json:"source"`
	URL          string        `json:"source_url"`
	Fetched      bool          `json:"fetched"`
	Bytes        int           `json:"bytes"`
	Header       ingest.Header `json:"header"`
	RulesCount   int           `json:"rules_count"`
	SkippedCount int           `json:"skipped_count"`
	Unrecognized int           `json:"unrecognized_count"`
}

// Manifest contains metadata about the build
type Manifest struct {
	Version     string                `json:"version"`
	GeneratedAt string                `json:"generated_at"`
	Lists       map[string]ListResult `json:"lists"`
	Store       store.Stats           `json:"store"`
	Dedup       *dedup.Stats          `json:"dedup,omitempty"`
	Outputs     []export.Result       `json:"outputs"`
}

// runPipeline fetches every enabled list, ingests it into a fresh store,
// deduplicates the store output and exports it
func runPipeline(ctx context.Context, c models.Config, opts buildOptions, log *zap.Logger, out io.Writer) (*Manifest, error) {
	enabledLists := c.EnabledLists()
	if len(enabledLists) == 0 {
		return nil, fmt.Errorf("no enabled filter lists found in config")
	}

	formatNames := c.Output.Formats
	if len(opts.Formats) > 0 {
		formatNames = opts.Formats
	}
	formats, err := export.ParseFormats(formatNames)
	if err != nil {
		return nil, err
	}

	outputDir := c.Output.Dir
	if opts.OutputDir != "" {
		outputDir = opts.OutputDir
	}

	table, err := loadSources(c)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(out, "Processing %d filter lists...\n", len(enabledLists))
	if opts.DryRun {
		fmt.Fprintln(out, "[DRY RUN] No files will be written")
	}

	now := time.Now()
	st := store.New(metadata.NewFactory(table), store.WithLogger(log))
	in := ingest.New(st, ingest.WithLogger(log))
	f := fetcher.New(c.HTTP, fetcher.WithLogger(log))

	results := make(map[string]ListResult, len(enabledLists))
	for _, fetched := range ingest.FetchAll(ctx, f, enabledLists, c.HTTP.Concurrency) {
		list := fetched.List
		source := table.Resolve(list.Name, list.URL)
		res := ListResult{Name: list.Name, Source: source, URL: list.URL}

		fmt.Fprintf(out, "\n  Processing %s...\n", list.Name)
		if fetched.Content == nil {
			fmt.Fprintln(out, "    ERROR: no content")
			results[list.Name] = res
			continue
		}
		res.Fetched = true
		res.Bytes = len(fetched.Content)
		fmt.Fprintf(out, "    Downloaded: %d bytes\n", res.Bytes)

		rep, err := in.IngestReader(bytes.NewReader(fetched.Content), source)
		if err != nil {
			fmt.Fprintf(out, "    ERROR reading: %v\n", err)
		}
		res.Header = rep.Header
		res.RulesCount = rep.Processed
		res.SkippedCount = rep.Skipped
		res.Unrecognized = rep.Unrecognized
		fmt.Fprintf(out, "    Rules: %d (skipped: %d, unrecognized: %d)\n", rep.Processed, rep.Skipped, rep.Unrecognized)
		if opts.Verbose && !rep.Header.IsZero() {
			fmt.Fprintf(out, "    Title: %s, version: %s\n", rep.Header.Title, rep.Header.Version)
		}
		results[list.Name] = res
	}

	rules := st.UniqueRules()
	storeStats := st.Stats()
	fmt.Fprintf(out, "\nStore: %d unique rules (%s)\n", len(rules), storeStats)
	if opts.Verbose {
		for _, kind := range models.StoredKinds {
			if n := storeStats.ByKind[kind]; n > 0 {
				fmt.Fprintf(out, "  %s: %d\n", kind, n)
			}
		}
	}

	manifest := &Manifest{
		Version:     now.Format("2006.01.02"),
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Lists:       results,
		Store:       storeStats,
	}

	if c.Dedup.Enabled && !opts.NoDedup {
		d, err := newDeduplicator(c.Dedup, log)
		if err != nil {
			return nil, err
		}
		rules = d.Process(rules)
		stats := d.Stats()
		manifest.Dedup = &stats
		fmt.Fprintf(out, "Dedup: %s\n", stats)
	}

	info := opts.ListInfo
	if info.MadeBy == "" {
		info.MadeBy = c.Dedup.Maintainer
	}
	exp := export.New(outputDir,
		export.WithLogger(log),
		export.WithListInfo(info),
		export.WithMaxRulesPerFile(c.Output.MaxRulesPerFile),
		export.WithDryRun(opts.DryRun),
	)
	outputs, err := exp.Export(rules, formats, export.Options{
		Categories:        c.Output.Categories,
		ExcludeCategories: c.Output.ExcludeCategories,
		MinPriority:       c.Output.MinPriority,
		Tags:              c.Output.Tags,
	})
	if err != nil {
		return nil, err
	}
	manifest.Outputs = outputs

	fmt.Fprintln(out)
	for _, o := range outputs {
		fmt.Fprintf(out, "  %s: %d lines in %d file(s)\n", o.Format, o.Lines, len(o.Files))
	}

	if c.Output.GenerateManifest && !opts.DryRun {
		if err := writeJSON(outputDir, "manifest.json", manifest); err != nil {
			fmt.Fprintf(out, "  ERROR writing manifest: %v\n", err)
		}
	}

	fmt.Fprintln(out, "\nDone!")
	return manifest, nil
}

// newDeduplicator wires the configured scoring policy and key cache
func newDeduplicator(c models.DedupConfig, log *zap.Logger) (*dedup.Deduplicator, error) {
	cache, err := normalizer.NewCache(normalizer.Default, c.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating key cache: %w", err)
	}

	scorer := dedup.NewScorer()
	scorer.Weights = scorer.Weights.Merge(c.Weights)
	if c.Maintainer != "" {
		scorer.Maintainer = c.Maintainer
	}

	return dedup.New(
		dedup.WithLogger(log),
		dedup.WithNormalizer(cache),
		dedup.WithScorer(scorer),
	), nil
}

func writeJSON(dir, filename string, data any) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path := filepath.Join(dir, filename)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
