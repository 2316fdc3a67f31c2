// Package source fetches airdrop offers from per-platform external sources.
package source

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"time"

	"airdrop_bot/internal/config"
	"airdrop_bot/internal/model"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher retrieves the current offers for one platform.
type Fetcher interface {
	Fetch(ctx context.Context, platform model.Platform) ([]model.Offer, error)
}

// Options tunes fetch behavior shared by all fetchers.
type Options struct {
	// Timeout bounds a single fetch, retries included. Zero means 30s.
	Timeout time.Duration
	// FeedValidity is how long a feed item without an explicit deadline
	// stays actionable after publication. Zero means 7 days.
	FeedValidity time.Duration
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return 30 * time.Second
	}
	return o.Timeout
}

func (o Options) feedValidity() time.Duration {
	if o.FeedValidity <= 0 {
		return 7 * 24 * time.Hour
	}
	return o.FeedValidity
}

// Registry maps each configured platform to its fetcher.
type Registry struct {
	fetchers map[model.Platform]Fetcher
}

// NewRegistry builds a Registry from the configured sources, choosing the
// feed or JSON fetcher per source.
func NewRegistry(sources []config.Source, client HTTPClient, opts Options) *Registry {
	r := &Registry{fetchers: make(map[model.Platform]Fetcher, len(sources))}
	for _, src := range sources {
		if src.IsFeed {
			r.fetchers[src.Platform] = NewFeed(client, src.URL, opts)
		} else {
			r.fetchers[src.Platform] = NewHTTP(client, src.URL, opts)
		}
	}
	return r
}

// Fetch dispatches to the platform's fetcher.
func (r *Registry) Fetch(ctx context.Context, platform model.Platform) ([]model.Offer, error) {
	f, ok := r.fetchers[platform]
	if !ok {
		return nil, fmt.Errorf("no source configured for platform %q", platform)
	}
	return f.Fetch(ctx, platform)
}

// OfferID returns a stable identifier for an offer that arrived without one:
// a SHA-256 hash of the platform, name, and a distinguishing key (the
// deadline for JSON sources, the link for feed items).
func OfferID(platform model.Platform, name, key string) string {
	h := sha256.Sum256([]byte(string(platform) + "|" + name + "|" + key))
	return fmt.Sprintf("sha256:%x", h[:16])
}
