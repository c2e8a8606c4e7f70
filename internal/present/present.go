// Package present turns ranked search hits into display records.
package present

import (
	"fmt"
	"math"
	"strings"

	"github.com/aryannaik/transcript-search/internal/episodes"
	"github.com/aryannaik/transcript-search/internal/index"
)

// DefaultLimit is the number of records shown for one query.
const DefaultLimit = 50

// Record is one search result ready for display.
type Record struct {
	EpisodeTitle  string `json:"episodeTitle"`
	EpisodeNumber string `json:"episodeNumber"`
	Timestamp     string `json:"timestamp"`
	Snippet       string `json:"snippet"`
	JumpURL       string `json:"jumpUrl"`
}

// Page is the display window for one query.
type Page struct {
	Query     string   `json:"query"`
	Records   []Record `json:"results"`
	Total     int      `json:"total"`
	Limit     int      `json:"limit"`
	Truncated bool     `json:"truncated"`
}

// Notice is the "more results" line shown under a truncated page.
func (p Page) Notice() string {
	if !p.Truncated {
		return ""
	}
	return fmt.Sprintf("Showing top %d of %d results…", p.Limit, p.Total)
}

// Directory resolves canonical episode ids.
type Directory interface {
	Lookup(id string) (episodes.Episode, bool)
}

type Presenter struct {
	dir Directory
}

func NewPresenter(dir Directory) *Presenter {
	return &Presenter{dir: dir}
}

// Present maps the first limit hits to records. Hits whose episode is not in
// the directory are skipped. Total and Truncated describe the full hit list.
func (p *Presenter) Present(q string, hits []index.Hit, limit int) Page {
	if limit <= 0 {
		limit = DefaultLimit
	}

	page := Page{
		Query:     q,
		Records:   []Record{},
		Total:     len(hits),
		Limit:     limit,
		Truncated: len(hits) > limit,
	}

	shown := hits
	if len(shown) > limit {
		shown = shown[:limit]
	}

	for _, h := range shown {
		ep, ok := p.dir.Lookup(h.Episode)
		if !ok {
			continue
		}

		ts := floorSeconds(h.Timestamp)
		page.Records = append(page.Records, Record{
			EpisodeTitle:  ep.Title,
			EpisodeNumber: strings.TrimPrefix(h.Episode, "Episode"),
			Timestamp:     FormatTimestamp(h.Timestamp),
			Snippet:       h.Text,
			JumpURL:       fmt.Sprintf("%s&t=%ds", h.URL, ts),
		})
	}

	return page
}

// FormatTimestamp renders whole seconds as m:ss.
func FormatTimestamp(sec float64) string {
	s := floorSeconds(sec)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

func floorSeconds(sec float64) int64 {
	if math.IsNaN(sec) || sec < 0 {
		return 0
	}
	return int64(math.Floor(sec))
}
