package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"airdrop_bot/internal/model"
	"airdrop_bot/internal/source"
	"airdrop_bot/internal/storage"
)

// Ingestor periodically refreshes the offer store from the configured
// platform sources.
type Ingestor struct {
	store     storage.Storage
	fetcher   source.Fetcher
	platforms []model.Platform
	log       *slog.Logger

	mu       sync.Mutex
	failures map[model.Platform]int
}

// NewIngestor creates an Ingestor for the given platforms.
func NewIngestor(store storage.Storage, fetcher source.Fetcher, platforms []model.Platform, log *slog.Logger) *Ingestor {
	return &Ingestor{
		store:     store,
		fetcher:   fetcher,
		platforms: platforms,
		log:       log,
		failures:  make(map[model.Platform]int),
	}
}

// Tick runs one ingestion cycle: evict expired offers, then fetch every
// platform concurrently and merge the results. A failed or empty fetch
// leaves that platform's stored offers untouched.
func (in *Ingestor) Tick(ctx context.Context) {
	if _, err := in.store.EvictExpired(ctx, time.Now().UTC()); err != nil {
		in.log.Error("evict expired", "error", err)
		return
	}

	var wg sync.WaitGroup
	for _, platform := range in.platforms {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(p model.Platform) {
			defer wg.Done()
			in.ingestPlatform(ctx, p)
		}(platform)
	}
	wg.Wait()
}

// FailureCount returns the platform's consecutive fetch failures. It resets
// to zero on the next successful fetch and exists for observability only.
func (in *Ingestor) FailureCount(platform model.Platform) int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.failures[platform]
}

func (in *Ingestor) ingestPlatform(ctx context.Context, platform model.Platform) {
	offers, err := in.fetcher.Fetch(ctx, platform)
	if err != nil {
		n := in.recordFailure(platform)
		in.log.Error("fetch offers", "platform", platform, "consecutive_failures", n, "error", err)
		return
	}
	in.resetFailures(platform)

	var added int
	for _, offer := range offers {
		offer := offer
		created, err := in.store.UpsertOffer(ctx, &offer)
		if err != nil {
			in.log.Error("upsert offer", "platform", platform, "offer_id", offer.OfferID, "error", err)
			return
		}
		if created {
			added++
		}
	}
	if added > 0 {
		in.log.Info("ingested offers", "platform", platform, "fetched", len(offers), "new", added)
	} else {
		in.log.Debug("no new offers", "platform", platform, "fetched", len(offers))
	}
}

func (in *Ingestor) recordFailure(platform model.Platform) int {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.failures[platform]++
	return in.failures[platform]
}

func (in *Ingestor) resetFailures(platform model.Platform) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.failures[platform] = 0
}
