package bot

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"airdrop_bot/internal/model"
)

func TestFormatNotification(t *testing.T) {
	offers := []model.Offer{
		{
			OfferID:     "e1",
			Platform:    model.PlatformEthereum,
			Name:        "ETH Airdrop 1",
			Description: "New DeFi protocol launch",
			Deadline:    time.Date(2026, 9, 5, 12, 0, 0, 0, time.UTC),
		},
		{
			OfferID:  "e2",
			Platform: model.PlatformEthereum,
			Name:     "ETH Airdrop 2",
			Deadline: time.Date(2026, 9, 12, 12, 0, 0, 0, time.UTC),
		},
		{
			OfferID:     "s1",
			Platform:    model.PlatformSolana,
			Name:        "SOL Airdrop 1",
			Description: "NFT marketplace launch",
			Deadline:    time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC),
		},
	}

	want := `New Airdrop Notifications:

ETHEREUM:
- ETH Airdrop 1: New DeFi protocol launch
  Deadline: 2026-09-05 12:00 UTC
- ETH Airdrop 2
  Deadline: 2026-09-12 12:00 UTC

SOLANA:
- SOL Airdrop 1: NFT marketplace launch
  Deadline: 2026-09-03 00:00 UTC
`

	if diff := cmp.Diff(want, FormatNotification(offers)); diff != "" {
		t.Errorf("notification mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatOfferList(t *testing.T) {
	platforms := []model.Platform{model.PlatformEthereum, model.PlatformSolana}
	offersByPlatform := map[model.Platform][]model.Offer{
		model.PlatformEthereum: {
			{
				OfferID:     "e1",
				Platform:    model.PlatformEthereum,
				Name:        "ETH Airdrop 1",
				Description: "New DeFi protocol launch",
				Deadline:    time.Date(2026, 9, 5, 12, 0, 0, 0, time.UTC),
			},
		},
		model.PlatformSolana: {},
	}

	want := `Current Airdrops:

ETHEREUM:
- ETH Airdrop 1: New DeFi protocol launch (until 2026-09-05 12:00 UTC)
`

	if diff := cmp.Diff(want, FormatOfferList(platforms, offersByPlatform)); diff != "" {
		t.Errorf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatOfferListEmpty(t *testing.T) {
	got := FormatOfferList(model.KnownPlatforms(), map[model.Platform][]model.Offer{})
	if got != "No airdrops are currently known for your platforms. Check back later!" {
		t.Errorf("unexpected empty-list text: %q", got)
	}
}

func TestParsePlatformArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    []model.Platform
		wantErr bool
	}{
		{name: "empty means all", args: "", want: model.KnownPlatforms()},
		{name: "whitespace only means all", args: "   ", want: model.KnownPlatforms()},
		{name: "single platform", args: "solana", want: []model.Platform{model.PlatformSolana}},
		{
			name: "mixed case and order preserved",
			args: "BSC ethereum",
			want: []model.Platform{model.PlatformBSC, model.PlatformEthereum},
		},
		{name: "unknown platform", args: "ethereum dogecoin", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePlatformArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("platforms mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
