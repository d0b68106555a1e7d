package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/parley-ai/parley/pkg/knowledge"
)

// Searcher is the subset of [knowledge.Store] the local fetcher needs.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]knowledge.SearchResult, error)
}

// StoreFetcher fetches context straight from a local knowledge store,
// skipping the HTTP round trip of [Client]. It applies the same thresholding
// and formatting so both paths produce identical context blocks.
type StoreFetcher struct {
	searcher      Searcher
	topK          int
	minSimilarity float64
}

// StoreOption is a functional option for [NewStoreFetcher].
type StoreOption func(*StoreFetcher)

// WithStoreTopK sets the result limit passed to the store. Values below 1
// are ignored.
func WithStoreTopK(k int) StoreOption {
	return func(f *StoreFetcher) {
		if k >= 1 {
			f.topK = k
		}
	}
}

// WithStoreMinSimilarity sets the similarity threshold below which hits are
// discarded. Must be in [0, 1]; out-of-range values are ignored.
func WithStoreMinSimilarity(min float64) StoreOption {
	return func(f *StoreFetcher) {
		if min >= 0 && min <= 1 {
			f.minSimilarity = min
		}
	}
}

// NewStoreFetcher creates a [StoreFetcher] over the given searcher.
func NewStoreFetcher(s Searcher, opts ...StoreOption) (*StoreFetcher, error) {
	if s == nil {
		return nil, fmt.Errorf("retrieval: searcher must not be nil")
	}
	f := &StoreFetcher{
		searcher:      s,
		topK:          DefaultTopK,
		minSimilarity: DefaultMinSimilarity,
	}
	for _, o := range opts {
		o(f)
	}
	return f, nil
}

// FetchContext mirrors [Client.FetchContext]: empty query and all failures
// degrade to the empty string.
func (f *StoreFetcher) FetchContext(ctx context.Context, query string) string {
	if query == "" {
		return ""
	}

	results, err := f.searcher.Search(ctx, query, f.topK)
	if err != nil {
		slog.Debug("local retrieval degraded to empty context", "err", err)
		return ""
	}

	var parts []string
	for _, r := range results {
		if r.Similarity < f.minSimilarity {
			continue
		}
		parts = append(parts, fmt.Sprintf("[%s]: %s", r.Title, r.Content))
	}
	return strings.Join(parts, "\n\n")
}
