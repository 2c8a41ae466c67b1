package ingest

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/bnema/filterdedup/internal/models"
)

// DefaultConcurrency bounds simultaneous fetches when none is configured
const DefaultConcurrency = 4

// ContentFetcher returns the content behind an identifier, or nil
type ContentFetcher interface {
	FetchContent(ctx context.Context, identifier string) []byte
}

// Fetched pairs a list with its content. Content is nil when the fetch
// failed.
type Fetched struct {
	List    models.FilterList
	Content []byte
}

// FetchAll fetches lists concurrently and returns them in input order so
// that ingestion stays deterministic. A failed list yields nil content.
func FetchAll(ctx context.Context, f ContentFetcher, lists []models.FilterList, concurrency int) []Fetched {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]Fetched, len(lists))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, l := range lists {
		i, l := i, l
		results[i].List = l
		g.Go(func() error {
			results[i].Content = f.FetchContent(ctx, l.URL)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
