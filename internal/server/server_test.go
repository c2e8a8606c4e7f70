package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/aryannaik/transcript-search/internal/episodes"
	"github.com/aryannaik/transcript-search/internal/index"
	"github.com/aryannaik/transcript-search/internal/loose"
	"github.com/aryannaik/transcript-search/internal/session"
)

type staticLoader struct {
	episodes []episodes.Raw
	chunks   []index.Chunk
}

func (l staticLoader) Episodes(context.Context) ([]episodes.Raw, error) { return l.episodes, nil }
func (l staticLoader) Chunks(context.Context) ([]index.Chunk, error)    { return l.chunks, nil }

func newTestSession(t *testing.T, extraChunks int) *session.Session {
	t.Helper()

	loader := staticLoader{
		episodes: []episodes.Raw{
			{ID: "5", URL: "http://x/5", Title: "Five"},
			{ID: "6", URL: "http://x/6", Title: "Six <b>bold</b>"},
		},
		chunks: []index.Chunk{
			{ID: "c1", Text: "hello quick world", Episode: "Episode5", Timestamp: 12.7, URL: "http://x/5?v=a"},
			{ID: "c2", Text: "a quick detour", Episode: "Episode404", Timestamp: 3, URL: "http://x/404?v=a"},
		},
	}
	for i := 0; i < extraChunks; i++ {
		loader.chunks = append(loader.chunks, index.Chunk{
			ID:        loose.String(fmt.Sprintf("bulk-%d", i)),
			Text:      "bulk quick filler",
			Episode:   "Episode6",
			Timestamp: float64(i),
			URL:       "http://x/6?v=b",
		})
	}

	s, err := session.Open(context.Background(), loader)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandleSearch(t *testing.T) {
	h := NewHandler(newTestSession(t, 0), 1000)

	rec := get(t, h, "/api/search?q=hello")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Query   string `json:"query"`
		Results []struct {
			EpisodeTitle  string `json:"episodeTitle"`
			EpisodeNumber string `json:"episodeNumber"`
			Timestamp     string `json:"timestamp"`
			JumpURL       string `json:"jumpUrl"`
		} `json:"results"`
		Total     int  `json:"total"`
		Truncated bool `json:"truncated"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Query != "hello" || resp.Total != 1 || resp.Truncated {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(resp.Results))
	}
	r := resp.Results[0]
	if r.EpisodeTitle != "Five" || r.EpisodeNumber != "5" || r.Timestamp != "0:12" || r.JumpURL != "http://x/5?v=a&t=12s" {
		t.Errorf("unexpected result: %+v", r)
	}
}

func TestHandleSearchMissingQuery(t *testing.T) {
	h := NewHandler(newTestSession(t, 0), 1000)

	if rec := get(t, h, "/api/search"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleSearchTruncatedNotice(t *testing.T) {
	h := NewHandler(newTestSession(t, 60), 1000)

	rec := get(t, h, "/api/search?q=quick")
	var resp struct {
		Results   []json.RawMessage `json:"results"`
		Total     int               `json:"total"`
		Truncated bool              `json:"truncated"`
		Notice    string            `json:"notice"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if !resp.Truncated || resp.Total != 62 {
		t.Errorf("expected truncated page of 62, got total=%d truncated=%v", resp.Total, resp.Truncated)
	}
	if len(resp.Results) > 50 {
		t.Errorf("expected at most 50 results, got %d", len(resp.Results))
	}
	if resp.Notice != "Showing top 50 of 62 results…" {
		t.Errorf("unexpected notice %q", resp.Notice)
	}
}

func TestHandlePage(t *testing.T) {
	h := NewHandler(newTestSession(t, 0), 1000)

	rec := get(t, h, "/?q="+url.QueryEscape("quick"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}

	results := doc.Find("#results .result")
	// c2 belongs to an unknown episode and is dropped
	if results.Length() != 1 {
		t.Fatalf("expected 1 result block, got %d", results.Length())
	}

	if got := results.Find(".ep-title").Text(); got != "Five" {
		t.Errorf("unexpected title %q", got)
	}
	if got := results.Find(".ep-number").Text(); got != "5" {
		t.Errorf("unexpected episode number %q", got)
	}
	if got := results.Find(".ep-time").Text(); got != "0:12" {
		t.Errorf("unexpected timestamp %q", got)
	}
	link := results.Find("a.jump")
	if href, _ := link.Attr("href"); href != "http://x/5?v=a&t=12s" {
		t.Errorf("unexpected jump link %q", href)
	}
	if target, _ := link.Attr("target"); target != "_blank" {
		t.Errorf("expected link to open in a new tab, got %q", target)
	}
	if doc.Find(".more-results").Length() != 0 {
		t.Error("unexpected truncation notice")
	}
	if v, _ := doc.Find("#searchBox").Attr("value"); v != "quick" {
		t.Errorf("expected query echoed into the input, got %q", v)
	}
}

func TestHandlePageShortQuery(t *testing.T) {
	h := NewHandler(newTestSession(t, 0), 1000)

	doc, err := goquery.NewDocumentFromReader(get(t, h, "/?q=q").Body)
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	if n := doc.Find(".result").Length(); n != 0 {
		t.Errorf("expected no results for a short query, got %d", n)
	}
}

func TestHandlePageEscapesTitles(t *testing.T) {
	h := NewHandler(newTestSession(t, 1), 1000)

	doc, err := goquery.NewDocumentFromReader(get(t, h, "/?q=filler").Body)
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	title := doc.Find(".result .ep-title")
	if title.Find("b").Length() != 0 {
		t.Error("episode title was rendered as markup")
	}
	if got := title.Text(); got != "Six <b>bold</b>" {
		t.Errorf("unexpected title text %q", got)
	}
}

func TestHandleEpisodesAndStatus(t *testing.T) {
	h := NewHandler(newTestSession(t, 0), 1000)

	var eps struct {
		Episodes []episodes.Episode `json:"episodes"`
		Total    int                `json:"total"`
	}
	if err := json.NewDecoder(get(t, h, "/api/episodes?q=Five").Body).Decode(&eps); err != nil {
		t.Fatalf("decode episodes: %v", err)
	}
	if eps.Total != 1 || eps.Episodes[0].ID != "Episode5" {
		t.Errorf("unexpected episodes: %+v", eps)
	}

	var st session.Stats
	if err := json.NewDecoder(get(t, h, "/api/status").Body).Decode(&st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st.ChunkCount != 2 || st.EpisodeCount != 2 {
		t.Errorf("unexpected status: %+v", st)
	}
}

func TestRateLimit(t *testing.T) {
	h := NewHandler(newTestSession(t, 0), 1)

	limited := false
	for i := 0; i < 10; i++ {
		if get(t, h, "/api/status").Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("expected API requests to be rate limited")
	}

	if rec := get(t, h, "/"); rec.Code != http.StatusOK {
		t.Errorf("expected page to bypass the API limiter, got %d", rec.Code)
	}
}

func TestUnknownPath(t *testing.T) {
	h := NewHandler(newTestSession(t, 0), 1000)

	if rec := get(t, h, "/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
