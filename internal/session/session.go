// Package session owns the state of a running transcript search: the episode
// directory, the chunk index and the pending debounced query.
package session

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aryannaik/transcript-search/internal/debounce"
	"github.com/aryannaik/transcript-search/internal/episodes"
	"github.com/aryannaik/transcript-search/internal/index"
	"github.com/aryannaik/transcript-search/internal/present"
	"github.com/aryannaik/transcript-search/internal/search"
)

const (
	// QuietPeriod is how long input must pause before a query runs.
	QuietPeriod = 200 * time.Millisecond

	// MinQueryLength is the shortest trimmed query, in characters, that is
	// searched. Shorter input clears the results.
	MinQueryLength = 2
)

// Loader provides the raw resources a session is built from.
type Loader interface {
	Episodes(ctx context.Context) ([]episodes.Raw, error)
	Chunks(ctx context.Context) ([]index.Chunk, error)
}

// Session is built once at startup and read-only afterwards.
type Session struct {
	dir       *episodes.Directory
	store     *index.Store
	searcher  *search.Searcher
	presenter *present.Presenter
	debouncer *debounce.Debouncer
	loadedAt  time.Time
}

// Open loads episode metadata, then the chunk index. Search is only available
// once both have loaded.
func Open(ctx context.Context, loader Loader) (*Session, error) {
	raw, err := loader.Episodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load episodes: %w", err)
	}
	dir := episodes.NewDirectory()
	dir.Load(raw)
	log.Printf("Loaded %d episodes", dir.Len())

	chunks, err := loader.Chunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	store, err := index.Build(chunks)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	log.Printf("Indexed %d chunks", store.Len())

	return &Session{
		dir:       dir,
		store:     store,
		searcher:  search.NewSearcher(store),
		presenter: present.NewPresenter(dir),
		debouncer: debounce.New(QuietPeriod),
		loadedAt:  time.Now(),
	}, nil
}

// Query searches q and returns the display page. Queries shorter than
// MinQueryLength return an empty page without searching.
func (s *Session) Query(ctx context.Context, q string) (present.Page, error) {
	if !Searchable(q) {
		return present.Page{Query: q, Records: []present.Record{}, Limit: present.DefaultLimit}, nil
	}

	hits, err := s.searcher.Search(ctx, q)
	if err != nil {
		return present.Page{}, fmt.Errorf("search %q: %w", q, err)
	}
	return s.presenter.Present(q, hits, present.DefaultLimit), nil
}

// Input records a keystroke-level change of the query. Only the latest input
// within the quiet period is searched; render receives its page.
func (s *Session) Input(ctx context.Context, q string, render func(present.Page, error)) {
	s.debouncer.Trigger(func() {
		render(s.Query(ctx, q))
	})
}

// Flush runs the pending debounced query immediately, if any.
func (s *Session) Flush() bool {
	return s.debouncer.Flush()
}

// Episodes returns episodes whose title fuzzily matches pattern.
func (s *Session) Episodes(pattern string) []episodes.Episode {
	return s.dir.Find(pattern)
}

// Stats describes the loaded session.
type Stats struct {
	ChunkCount   int       `json:"chunkCount"`
	EpisodeCount int       `json:"episodeCount"`
	LoadedAt     time.Time `json:"loadedAt"`
}

func (s *Session) Stats() Stats {
	return Stats{
		ChunkCount:   s.store.Len(),
		EpisodeCount: s.dir.Len(),
		LoadedAt:     s.loadedAt,
	}
}

// Close cancels any pending query and releases the index.
func (s *Session) Close() error {
	s.debouncer.Stop()
	return s.store.Close()
}

// Searchable reports whether q is long enough to search.
func Searchable(q string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(q)) >= MinQueryLength
}
