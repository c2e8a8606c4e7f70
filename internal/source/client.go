package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aryannaik/transcript-search/internal/episodes"
	"github.com/aryannaik/transcript-search/internal/index"
)

// Client loads the two static resources the search session is built from.
// Each location is either an http(s) URL or a local file path.
type Client struct {
	episodesLocation string
	chunksLocation   string
	feedURL          string
	httpClient       *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithFeed reads episode metadata from a podcast RSS/Atom feed instead of
// the episodes JSON resource.
func WithFeed(feedURL string) Option {
	return func(c *Client) { c.feedURL = feedURL }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(episodesLocation, chunksLocation string, opts ...Option) *Client {
	c := &Client{
		episodesLocation: episodesLocation,
		chunksLocation:   chunksLocation,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Episodes returns the raw episode metadata.
func (c *Client) Episodes(ctx context.Context) ([]episodes.Raw, error) {
	if c.feedURL != "" {
		return c.fetchFeed(ctx, c.feedURL)
	}

	var raw []episodes.Raw
	if err := c.fetchJSON(ctx, c.episodesLocation, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Chunks returns every transcript chunk of the precomputed index.
func (c *Client) Chunks(ctx context.Context) ([]index.Chunk, error) {
	var chunks []index.Chunk
	if err := c.fetchJSON(ctx, c.chunksLocation, &chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

func (c *Client) fetchJSON(ctx context.Context, location string, v any) error {
	body, err := c.open(ctx, location)
	if err != nil {
		return err
	}
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", location, err)
	}
	return nil
}

func (c *Client) open(ctx context.Context, location string) (io.ReadCloser, error) {
	if !isRemote(location) {
		f, err := os.Open(location)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", location, err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", location, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", location, err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: status %d", location, resp.StatusCode)
	}

	return resp.Body, nil
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
