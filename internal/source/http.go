package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"airdrop_bot/internal/model"
)

const maxBodySize = 5 * 1024 * 1024

// offerPayload is the wire format of a JSON airdrop source: an array of
// objects with an RFC 3339 deadline. The id field is optional.
type offerPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Deadline    string `json:"deadline"`
}

// HTTP fetches offers from a JSON API endpoint.
type HTTP struct {
	client HTTPClient
	url    string
	opts   Options
}

// NewHTTP creates a fetcher for a JSON airdrop source.
func NewHTTP(client HTTPClient, url string, opts Options) *HTTP {
	return &HTTP{client: client, url: url, opts: opts}
}

// Fetch downloads and decodes the source. Network errors and server errors
// are retried with exponential backoff; client errors and malformed payloads
// fail the tick immediately.
func (h *HTTP) Fetch(ctx context.Context, platform model.Platform) ([]model.Offer, error) {
	ctx, cancel := context.WithTimeout(ctx, h.opts.timeout())
	defer cancel()

	var body []byte
	backoff := retry.WithMaxRetries(2, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		b, err := h.get(ctx)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", h.url, err)
	}

	var payload []offerPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode %s: %w", h.url, err)
	}

	offers := make([]model.Offer, 0, len(payload))
	for _, p := range payload {
		if p.Name == "" {
			return nil, fmt.Errorf("decode %s: offer with empty name", h.url)
		}
		deadline, err := time.Parse(time.RFC3339, p.Deadline)
		if err != nil {
			return nil, fmt.Errorf("decode %s: offer %q: invalid deadline %q", h.url, p.Name, p.Deadline)
		}
		id := p.ID
		if id == "" {
			id = OfferID(platform, p.Name, p.Deadline)
		}
		offers = append(offers, model.Offer{
			OfferID:     id,
			Platform:    platform,
			Name:        p.Name,
			Description: p.Description,
			Deadline:    deadline.UTC(),
		})
	}
	return offers, nil
}

func (h *HTTP) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "AirdropNotifyBot/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, retry.RetryableError(fmt.Errorf("http get: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500:
		return nil, retry.RetryableError(fmt.Errorf("server error %d", resp.StatusCode))
	default:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, retry.RetryableError(fmt.Errorf("read body: %w", err))
	}
	return body, nil
}
