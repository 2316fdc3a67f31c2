// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"airdrop_bot/internal/model"
)

// Default cadences and timeouts, overridable via environment.
const (
	defaultIngestInterval = time.Hour
	defaultNotifyInterval = 24 * time.Hour
	defaultFetchTimeout   = 30 * time.Second
	defaultSendTimeout    = 30 * time.Second
)

// Source describes where offers for one platform come from.
// A "rss+" URL prefix selects the feed fetcher; anything else is a JSON API.
type Source struct {
	Platform model.Platform
	URL      string
	IsFeed   bool
}

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	DatabasePath     string
	LogLevel         string
	AllowedUsers     []int64

	Sources        []Source
	IngestInterval time.Duration
	NotifyInterval time.Duration
	FetchTimeout   time.Duration
	SendTimeout    time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/bot.db"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	var allowedUsers []int64
	if raw := os.Getenv("ALLOWED_USERS"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			uid, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
			}
			allowedUsers = append(allowedUsers, uid)
		}
	}

	sources, err := ParseSources(os.Getenv("PLATFORM_SOURCES"))
	if err != nil {
		return nil, err
	}

	ingestInterval, err := intervalFromEnv("INGEST_INTERVAL_SECONDS", defaultIngestInterval)
	if err != nil {
		return nil, err
	}
	notifyInterval, err := intervalFromEnv("NOTIFY_INTERVAL_SECONDS", defaultNotifyInterval)
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := intervalFromEnv("FETCH_TIMEOUT_SECONDS", defaultFetchTimeout)
	if err != nil {
		return nil, err
	}
	sendTimeout, err := intervalFromEnv("SEND_TIMEOUT_SECONDS", defaultSendTimeout)
	if err != nil {
		return nil, err
	}

	return &Config{
		TelegramBotToken: token,
		DatabasePath:     dbPath,
		LogLevel:         logLevel,
		AllowedUsers:     allowedUsers,
		Sources:          sources,
		IngestInterval:   ingestInterval,
		NotifyInterval:   notifyInterval,
		FetchTimeout:     fetchTimeout,
		SendTimeout:      sendTimeout,
	}, nil
}

// ParseSources parses the PLATFORM_SOURCES value: comma-separated
// platform=url pairs, e.g.
//
//	ethereum=https://api.example.com/eth.json,solana=rss+https://example.com/sol.xml
func ParseSources(raw string) ([]Source, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("PLATFORM_SOURCES is required")
	}

	seen := make(map[model.Platform]bool)
	var sources []Source
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid source entry %q, want platform=url", entry)
		}
		platform, err := model.ParsePlatform(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid source entry %q: %w", entry, err)
		}
		if seen[platform] {
			return nil, fmt.Errorf("duplicate source for platform %q", platform)
		}
		seen[platform] = true

		url := strings.TrimSpace(parts[1])
		isFeed := strings.HasPrefix(url, "rss+")
		if isFeed {
			url = strings.TrimPrefix(url, "rss+")
		}
		if url == "" {
			return nil, fmt.Errorf("empty URL for platform %q", platform)
		}
		sources = append(sources, Source{Platform: platform, URL: url, IsFeed: isFeed})
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("PLATFORM_SOURCES is required")
	}
	return sources, nil
}

// Platforms returns the configured platforms in source order.
func (c *Config) Platforms() []model.Platform {
	out := make([]model.Platform, len(c.Sources))
	for i, s := range c.Sources {
		out[i] = s.Platform
	}
	return out
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

func intervalFromEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs < 1 {
		return 0, fmt.Errorf("%s must be a positive number of seconds, got %q", key, raw)
	}
	return time.Duration(secs) * time.Second, nil
}
