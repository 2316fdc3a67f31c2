package bot

import (
	"context"
	"errors"
	"fmt"

	"airdrop_bot/internal/model"
	"airdrop_bot/internal/storage"
)

const msgSetPreferencesFirst = "Please set your preferences first using /set_preferences"

func (b *Bot) handleStart(userID int64) {
	b.reply(userID, `Welcome to the Airdrop Farmer bot!

Get notified about airdrops on the platforms you care about.

Quick start:
1. /set_preferences ethereum solana — choose platforms (or no args for all)
2. /subscribe — turn on notifications
3. /list_airdrops — see what's live right now

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(userID int64) {
	b.reply(userID, `Available commands:
/start - Start the bot
/help - Show this help message
/set_preferences [platform...] - Set your airdrop preferences (no args = all platforms)
/list_airdrops - List current airdrops
/subscribe - Subscribe to airdrop notifications
/unsubscribe - Unsubscribe from airdrop notifications

Platforms: ethereum, solana, bsc`)
}

func (b *Bot) handleSetPreferences(ctx context.Context, userID int64, args string) {
	platforms, err := ParsePlatformArgs(args)
	if err != nil {
		b.reply(userID, fmt.Sprintf("%v.\nUsage: /set_preferences [%s]", err, platformUsage()))
		return
	}

	if err := b.store.SetPreferences(ctx, userID, platforms); err != nil {
		b.log.Error("set preferences", "user_id", userID, "error", err)
		b.reply(userID, "Something went wrong, please try again later.")
		return
	}

	if len(platforms) == len(model.KnownPlatforms()) {
		b.reply(userID, "Your preferences have been set for all platforms.")
		return
	}
	b.reply(userID, fmt.Sprintf("Your preferences have been set for: %s.", joinPlatformNames(platforms)))
}

func (b *Bot) handleListAirdrops(ctx context.Context, userID int64) {
	pref, err := b.store.GetPreference(ctx, userID)
	if errors.Is(err, storage.ErrNotRegistered) {
		b.reply(userID, msgSetPreferencesFirst)
		return
	}
	if err != nil {
		b.log.Error("get preference", "user_id", userID, "error", err)
		b.reply(userID, "Something went wrong, please try again later.")
		return
	}

	offersByPlatform := make(map[model.Platform][]model.Offer)
	for _, platform := range pref.Platforms {
		offers, err := b.store.ListOffers(ctx, platform)
		if err != nil {
			b.log.Error("list offers", "platform", platform, "error", err)
			b.reply(userID, "Something went wrong, please try again later.")
			return
		}
		offersByPlatform[platform] = offers
	}

	b.reply(userID, FormatOfferList(pref.Platforms, offersByPlatform))
}

func (b *Bot) handleSubscribe(ctx context.Context, userID int64) {
	err := b.store.Subscribe(ctx, userID)
	if errors.Is(err, storage.ErrNotRegistered) {
		b.reply(userID, msgSetPreferencesFirst)
		return
	}
	if err != nil {
		b.log.Error("subscribe", "user_id", userID, "error", err)
		b.reply(userID, "Something went wrong, please try again later.")
		return
	}
	b.reply(userID, "You have been subscribed to airdrop notifications.")
}

func (b *Bot) handleUnsubscribe(ctx context.Context, userID int64) {
	if err := b.store.Unsubscribe(ctx, userID); err != nil {
		b.log.Error("unsubscribe", "user_id", userID, "error", err)
		b.reply(userID, "Something went wrong, please try again later.")
		return
	}
	b.reply(userID, "You have been unsubscribed from airdrop notifications.")
}
