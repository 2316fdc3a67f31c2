package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"airdrop_bot/internal/model"
)

// Feed fetches offers from an RSS/Atom feed of airdrop announcements.
// Items carry no deadline of their own, so each stays actionable for the
// configured validity window after publication.
type Feed struct {
	client HTTPClient
	url    string
	opts   Options
}

// NewFeed creates a fetcher for a feed-based airdrop source.
func NewFeed(client HTTPClient, url string, opts Options) *Feed {
	return &Feed{client: client, url: url, opts: opts}
}

// Fetch downloads and parses the feed into offers.
func (f *Feed) Fetch(ctx context.Context, platform model.Platform) ([]model.Offer, error) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "AirdropNotifyBot/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	now := time.Now().UTC()
	offers := make([]model.Offer, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Title == "" {
			continue
		}
		published := now
		if item.PublishedParsed != nil {
			published = item.PublishedParsed.UTC()
		}
		deadline := published.Add(f.opts.feedValidity())

		desc := item.Description
		if len(desc) > 300 {
			desc = desc[:300] + "..."
		}

		id := item.GUID
		if id == "" {
			id = OfferID(platform, item.Title, item.Link)
		}

		offers = append(offers, model.Offer{
			OfferID:     id,
			Platform:    platform,
			Name:        item.Title,
			Description: desc,
			Deadline:    deadline,
		})
	}
	return offers, nil
}
