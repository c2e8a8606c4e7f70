package search

import (
	"context"
	"fmt"

	"github.com/aryannaik/transcript-search/internal/index"
)

// Index is the query side of the chunk index.
type Index interface {
	Query(ctx context.Context, q string, fuzziness float64) ([]index.Hit, error)
}

type Searcher struct {
	index Index
}

func NewSearcher(idx Index) *Searcher {
	return &Searcher{index: idx}
}

// Search runs a fuzzy index query and keeps the hits whose text passes the
// loose phrase check. Relevance order from the index is preserved.
func (s *Searcher) Search(ctx context.Context, q string) ([]index.Hit, error) {
	hits, err := s.index.Query(ctx, q, index.Fuzziness)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	kept := make([]index.Hit, 0, len(hits))
	for _, hit := range hits {
		if LoosePhraseMatch(hit.Text, q) {
			kept = append(kept, hit)
		}
	}
	return kept, nil
}
