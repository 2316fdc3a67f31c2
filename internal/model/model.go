// Package model defines the domain types used across the application.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Platform is a source category that airdrop offers belong to.
type Platform string

// Supported platforms.
const (
	PlatformEthereum Platform = "ethereum"
	PlatformSolana   Platform = "solana"
	PlatformBSC      Platform = "bsc"
)

// KnownPlatforms returns all supported platforms in canonical order.
func KnownPlatforms() []Platform {
	return []Platform{PlatformEthereum, PlatformSolana, PlatformBSC}
}

// ParsePlatform validates a single platform name.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range KnownPlatforms() {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// ParsePlatforms parses a list of platform names, dropping duplicates.
// An empty list means all known platforms.
func ParsePlatforms(names []string) ([]Platform, error) {
	if len(names) == 0 {
		return KnownPlatforms(), nil
	}
	seen := make(map[Platform]bool, len(names))
	var out []Platform
	for _, n := range names {
		p, err := ParsePlatform(n)
		if err != nil {
			return nil, err
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, nil
}

// Offer is a time-bounded airdrop opportunity on one platform.
// (Platform, OfferID) is unique within the store.
type Offer struct {
	OfferID     string
	Platform    Platform
	Name        string
	Description string
	Deadline    time.Time
	CreatedAt   time.Time
}

// Expired reports whether the offer's deadline has passed.
func (o Offer) Expired(now time.Time) bool {
	return o.Deadline.Before(now)
}

// UserPreference holds a user's platform subscriptions and active state.
// Unsubscribing clears Active but keeps Platforms.
type UserPreference struct {
	UserID    int64
	Platforms []Platform
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Subscribed reports whether the user wants notifications for the platform.
func (u UserPreference) Subscribed(p Platform) bool {
	for _, sp := range u.Platforms {
		if sp == p {
			return true
		}
	}
	return false
}

// DeliveryRecord marks an offer as already sent to a user.
// At most one record exists per (user, platform, offer) triple.
type DeliveryRecord struct {
	UserID      int64
	Platform    Platform
	OfferID     string
	DeliveredAt time.Time
}
