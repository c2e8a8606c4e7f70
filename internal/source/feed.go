package source

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mmcdole/gofeed"

	"github.com/aryannaik/transcript-search/internal/episodes"
	"github.com/aryannaik/transcript-search/internal/loose"
)

// fetchFeed reads episode metadata from a podcast feed. Items are expected
// newest first, as podcast feeds publish them.
func (c *Client) fetchFeed(ctx context.Context, feedURL string) ([]episodes.Raw, error) {
	fp := gofeed.NewParser()
	fp.Client = c.httpClient

	var (
		feed *gofeed.Feed
		err  error
	)
	if isRemote(feedURL) {
		feed, err = fp.ParseURLWithContext(feedURL, ctx)
	} else {
		body, openErr := c.open(ctx, feedURL)
		if openErr != nil {
			return nil, openErr
		}
		defer body.Close()
		feed, err = fp.Parse(body)
	}
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	return feedEpisodes(feed), nil
}

func feedEpisodes(feed *gofeed.Feed) []episodes.Raw {
	if feed == nil {
		return nil
	}

	raw := make([]episodes.Raw, 0, len(feed.Items))
	for i, item := range feed.Items {
		if item == nil {
			continue
		}

		id := strconv.Itoa(len(feed.Items) - i)
		if item.ITunesExt != nil && item.ITunesExt.Episode != "" {
			id = item.ITunesExt.Episode
		}

		url := item.Link
		if url == "" && len(item.Enclosures) > 0 {
			url = item.Enclosures[0].URL
		}

		raw = append(raw, episodes.Raw{
			ID:    loose.String(id),
			URL:   loose.String(url),
			Title: loose.String(item.Title),
		})
	}
	return raw
}
