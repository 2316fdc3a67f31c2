package scheduler

import (
	"context"
	"log/slog"
	"time"

	"airdrop_bot/internal/bot"
	"airdrop_bot/internal/model"
	"airdrop_bot/internal/storage"
)

// Sender is the interface for sending Telegram messages.
type Sender interface {
	SendMessage(chatID int64, text string) error
}

// Notifier periodically delivers unseen offers to active subscribers.
type Notifier struct {
	store  storage.Storage
	sender Sender
	log    *slog.Logger
}

// NewNotifier creates a Notifier.
func NewNotifier(store storage.Storage, sender Sender, log *slog.Logger) *Notifier {
	return &Notifier{store: store, sender: sender, log: log}
}

// Tick runs one notification cycle. For every active subscriber it collects
// the offers on subscribed platforms not yet delivered to that user, records
// each delivery, and sends one combined message. The delivery record is
// written before the send: a transport failure is logged and never retried,
// so a pair can be dropped but never duplicated.
func (n *Notifier) Tick(ctx context.Context) {
	if _, err := n.store.EvictExpired(ctx, time.Now().UTC()); err != nil {
		n.log.Error("evict expired", "error", err)
		return
	}

	subscribers, err := n.store.ListActiveSubscribers(ctx)
	if err != nil {
		n.log.Error("list subscribers", "error", err)
		return
	}

	// One snapshot per platform serves every user in this cycle.
	offersByPlatform := make(map[model.Platform][]model.Offer)
	for _, platform := range model.KnownPlatforms() {
		offers, err := n.store.ListOffers(ctx, platform)
		if err != nil {
			n.log.Error("list offers", "platform", platform, "error", err)
			return
		}
		offersByPlatform[platform] = offers
	}

	for _, sub := range subscribers {
		if ctx.Err() != nil {
			return
		}
		n.notifyUser(ctx, sub, offersByPlatform)

		// Rate limit: ~20 messages/sec max for Telegram
		time.Sleep(50 * time.Millisecond)
	}
}

func (n *Notifier) notifyUser(ctx context.Context, sub model.UserPreference, offersByPlatform map[model.Platform][]model.Offer) {
	var pending []model.Offer
	for _, platform := range model.KnownPlatforms() {
		if !sub.Subscribed(platform) {
			continue
		}
		for _, offer := range offersByPlatform[platform] {
			inserted, err := n.store.MarkDelivered(ctx, sub.UserID, platform, offer.OfferID)
			if err != nil {
				// Aborting here drops the offers already recorded for this
				// user without sending them. Same trade-off as a failed
				// send: dropped, never duplicated.
				n.log.Error("mark delivered", "user_id", sub.UserID, "offer_id", offer.OfferID, "error", err)
				return
			}
			if inserted {
				pending = append(pending, offer)
			}
		}
	}

	if len(pending) == 0 {
		return
	}

	msg := bot.FormatNotification(pending)
	if err := n.sender.SendMessage(sub.UserID, msg); err != nil {
		n.log.Error("send notification", "user_id", sub.UserID, "offers", len(pending), "error", err)
		return
	}
	n.log.Info("sent notification", "user_id", sub.UserID, "offers", len(pending))
}
