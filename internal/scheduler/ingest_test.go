package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"airdrop_bot/internal/model"
	"airdrop_bot/internal/storage"
)

type mockFetcher struct {
	mu     sync.Mutex
	offers map[model.Platform][]model.Offer
	errs   map[model.Platform]error
}

func (m *mockFetcher) Fetch(_ context.Context, platform model.Platform) ([]model.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[platform]; err != nil {
		return nil, err
	}
	return m.offers[platform], nil
}

func (m *mockFetcher) set(platform model.Platform, offers []model.Offer, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.offers == nil {
		m.offers = make(map[model.Platform][]model.Offer)
	}
	if m.errs == nil {
		m.errs = make(map[model.Platform]error)
	}
	m.offers[platform] = offers
	m.errs[platform] = err
}

func newTestStore(t *testing.T) *storage.SQLite {
	t.Helper()
	s, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func offer(platform model.Platform, id, name string, days int) model.Offer {
	return model.Offer{
		OfferID:  id,
		Platform: platform,
		Name:     name,
		Deadline: time.Now().UTC().Add(time.Duration(days) * 24 * time.Hour).Truncate(time.Second),
	}
}

func TestIngestTickStoresOffers(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	f := &mockFetcher{}
	f.set(model.PlatformEthereum, []model.Offer{
		offer(model.PlatformEthereum, "e1", "ETH Airdrop 1", 7),
		offer(model.PlatformEthereum, "e2", "ETH Airdrop 2", 14),
	}, nil)

	in := NewIngestor(store, f, []model.Platform{model.PlatformEthereum}, testLogger())
	in.Tick(ctx)

	offers, err := store.ListOffers(ctx, model.PlatformEthereum)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff(2, len(offers)); diff != "" {
		t.Errorf("offer count mismatch (-want +got):\n%s", diff)
	}

	// Same fetch result on the next tick adds nothing new.
	in.Tick(ctx)
	offers, _ = store.ListOffers(ctx, model.PlatformEthereum)
	if diff := cmp.Diff(2, len(offers)); diff != "" {
		t.Errorf("offer count after re-ingest mismatch (-want +got):\n%s", diff)
	}
}

func TestIngestFailureIsolatedPerPlatform(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	prior := offer(model.PlatformSolana, "s1", "SOL Airdrop 1", 5)
	if _, err := store.UpsertOffer(ctx, &prior); err != nil {
		t.Fatalf("seed offer: %v", err)
	}

	f := &mockFetcher{}
	f.set(model.PlatformEthereum, []model.Offer{
		offer(model.PlatformEthereum, "e1", "ETH Airdrop 1", 7),
		offer(model.PlatformEthereum, "e2", "ETH Airdrop 2", 14),
	}, nil)
	f.set(model.PlatformSolana, nil, fmt.Errorf("source unreachable"))

	platforms := []model.Platform{model.PlatformEthereum, model.PlatformSolana}
	in := NewIngestor(store, f, platforms, testLogger())
	in.Tick(ctx)

	ethOffers, _ := store.ListOffers(ctx, model.PlatformEthereum)
	if diff := cmp.Diff(2, len(ethOffers)); diff != "" {
		t.Errorf("ethereum offers mismatch (-want +got):\n%s", diff)
	}

	solOffers, _ := store.ListOffers(ctx, model.PlatformSolana)
	if diff := cmp.Diff(1, len(solOffers)); diff != "" {
		t.Errorf("solana offers must survive a failed fetch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(1, in.FailureCount(model.PlatformSolana)); diff != "" {
		t.Errorf("solana failure count mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(0, in.FailureCount(model.PlatformEthereum)); diff != "" {
		t.Errorf("ethereum failure count mismatch (-want +got):\n%s", diff)
	}
}

func TestIngestEmptyFetchKeepsOffers(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	prior := offer(model.PlatformEthereum, "e1", "ETH Airdrop 1", 7)
	if _, err := store.UpsertOffer(ctx, &prior); err != nil {
		t.Fatalf("seed offer: %v", err)
	}

	f := &mockFetcher{}
	f.set(model.PlatformEthereum, nil, nil)

	in := NewIngestor(store, f, []model.Platform{model.PlatformEthereum}, testLogger())
	in.Tick(ctx)

	offers, _ := store.ListOffers(ctx, model.PlatformEthereum)
	if diff := cmp.Diff(1, len(offers)); diff != "" {
		t.Errorf("empty fetch must not delete offers (-want +got):\n%s", diff)
	}
}

func TestIngestEvictsExpiredBeforeFetch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	expired := offer(model.PlatformEthereum, "stale", "Expired drop", -1)
	if _, err := store.UpsertOffer(ctx, &expired); err != nil {
		t.Fatalf("seed offer: %v", err)
	}

	f := &mockFetcher{}
	f.set(model.PlatformEthereum, nil, nil)

	in := NewIngestor(store, f, []model.Platform{model.PlatformEthereum}, testLogger())
	in.Tick(ctx)

	offers, _ := store.ListOffers(ctx, model.PlatformEthereum)
	if diff := cmp.Diff(0, len(offers)); diff != "" {
		t.Errorf("expired offer must be evicted (-want +got):\n%s", diff)
	}
}

func TestIngestFailureCountResetsOnSuccess(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	f := &mockFetcher{}
	f.set(model.PlatformBSC, nil, fmt.Errorf("source unreachable"))

	in := NewIngestor(store, f, []model.Platform{model.PlatformBSC}, testLogger())
	in.Tick(ctx)
	in.Tick(ctx)
	if diff := cmp.Diff(2, in.FailureCount(model.PlatformBSC)); diff != "" {
		t.Errorf("failure count mismatch (-want +got):\n%s", diff)
	}

	f.set(model.PlatformBSC, []model.Offer{offer(model.PlatformBSC, "b1", "BSC Airdrop 1", 3)}, nil)
	in.Tick(ctx)
	if diff := cmp.Diff(0, in.FailureCount(model.PlatformBSC)); diff != "" {
		t.Errorf("failure count after success mismatch (-want +got):\n%s", diff)
	}
}
