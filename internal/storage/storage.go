// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"
	"time"

	"airdrop_bot/internal/model"
)

// ErrNotRegistered is returned when a user has never set preferences.
var ErrNotRegistered = errors.New("user has no preferences")

// Storage is the interface for all persistence operations.
type Storage interface {
	// UpsertOffer inserts or replaces the offer with the same
	// (platform, offer_id) key. It reports whether the offer was new.
	UpsertOffer(ctx context.Context, offer *model.Offer) (bool, error)
	// ListOffers returns the platform's non-expired offers ordered by
	// deadline ascending.
	ListOffers(ctx context.Context, platform model.Platform) ([]model.Offer, error)
	// EvictExpired removes offers whose deadline is before now, together
	// with their delivery records, and returns the number of offers removed.
	EvictExpired(ctx context.Context, now time.Time) (int, error)

	SetPreferences(ctx context.Context, userID int64, platforms []model.Platform) error
	Subscribe(ctx context.Context, userID int64) error
	Unsubscribe(ctx context.Context, userID int64) error
	GetPreference(ctx context.Context, userID int64) (*model.UserPreference, error)
	ListActiveSubscribers(ctx context.Context) ([]model.UserPreference, error)

	// MarkDelivered records that an offer was sent to a user. It reports
	// whether the record was newly inserted; false means the pair was
	// already delivered.
	MarkDelivered(ctx context.Context, userID int64, platform model.Platform, offerID string) (bool, error)

	Close() error
}
