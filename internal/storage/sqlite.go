package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"airdrop_bot/internal/model"
	"airdrop_bot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One connection serializes the concurrent writers (per-platform ingest
	// goroutines, the notifier, command handlers) instead of surfacing
	// SQLITE_BUSY, and keeps the per-connection pragmas below in effect.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=OFF"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("disable foreign keys: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// UpsertOffer inserts or replaces an offer keyed by (platform, offer_id).
func (s *SQLite) UpsertOffer(ctx context.Context, offer *model.Offer) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM offers WHERE platform = ? AND offer_id = ?`,
		string(offer.Platform), offer.OfferID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check offer: %w", err)
	}

	now := time.Now().UTC().Format(timeLayout)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO offers (platform, offer_id, name, description, deadline, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (platform, offer_id) DO UPDATE SET
		   name = excluded.name,
		   description = excluded.description,
		   deadline = excluded.deadline`,
		string(offer.Platform), offer.OfferID, offer.Name, offer.Description,
		offer.Deadline.UTC().Format(timeLayout), now,
	)
	if err != nil {
		return false, fmt.Errorf("upsert offer: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return exists == 0, nil
}

// ListOffers returns the platform's non-expired offers, soonest deadline
// first. Offers past their deadline are excluded at read time so they never
// surface between eviction runs.
func (s *SQLite) ListOffers(ctx context.Context, platform model.Platform) ([]model.Offer, error) {
	now := time.Now().UTC().Format(timeLayout)
	rows, err := s.db.QueryContext(ctx,
		`SELECT platform, offer_id, name, description, deadline, created_at
		 FROM offers WHERE platform = ? AND deadline >= ? ORDER BY deadline, offer_id`,
		string(platform), now,
	)
	if err != nil {
		return nil, fmt.Errorf("query offers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var offers []model.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

// EvictExpired removes expired offers and their delivery records in one
// transaction so a notification scan never sees a half-evicted offer.
func (s *SQLite) EvictExpired(ctx context.Context, now time.Time) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	cutoff := now.UTC().Format(timeLayout)
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM deliveries WHERE (platform, offer_id) IN
		   (SELECT platform, offer_id FROM offers WHERE deadline < ?)`,
		cutoff,
	); err != nil {
		return 0, fmt.Errorf("delete deliveries: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM offers WHERE deadline < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete offers: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), tx.Commit()
}

// SetPreferences creates or replaces the user's platform set and activates
// the subscription.
func (s *SQLite) SetPreferences(ctx context.Context, userID int64, platforms []model.Platform) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences (user_id, platforms, is_active, created_at, updated_at)
		 VALUES (?, ?, 1, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   platforms = excluded.platforms,
		   is_active = 1,
		   updated_at = excluded.updated_at`,
		userID, joinPlatforms(platforms), now, now,
	)
	if err != nil {
		return fmt.Errorf("set preferences: %w", err)
	}
	return nil
}

// Subscribe activates notifications for a user who already set preferences.
func (s *SQLite) Subscribe(ctx context.Context, userID int64) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`UPDATE preferences SET is_active = 1, updated_at = ? WHERE user_id = ?`,
		now, userID,
	)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotRegistered
	}
	return nil
}

// Unsubscribe deactivates notifications but keeps the platform set.
// Unknown users are a no-op.
func (s *SQLite) Unsubscribe(ctx context.Context, userID int64) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`UPDATE preferences SET is_active = 0, updated_at = ? WHERE user_id = ?`,
		now, userID,
	)
	if err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	return nil
}

// GetPreference returns a user's preference or ErrNotRegistered.
func (s *SQLite) GetPreference(ctx context.Context, userID int64) (*model.UserPreference, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, platforms, is_active, created_at, updated_at
		 FROM preferences WHERE user_id = ?`, userID,
	)
	pref, err := scanPreference(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotRegistered
	}
	if err != nil {
		return nil, err
	}
	return pref, nil
}

// ListActiveSubscribers returns all users with an active subscription.
func (s *SQLite) ListActiveSubscribers(ctx context.Context) ([]model.UserPreference, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, platforms, is_active, created_at, updated_at
		 FROM preferences WHERE is_active = 1 ORDER BY user_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query subscribers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var prefs []model.UserPreference
	for rows.Next() {
		p, err := scanPreference(rows)
		if err != nil {
			return nil, err
		}
		prefs = append(prefs, *p)
	}
	return prefs, rows.Err()
}

// MarkDelivered is a compare-and-insert on the delivery log. The primary key
// on (user_id, platform, offer_id) makes this the at-most-once gate.
func (s *SQLite) MarkDelivered(ctx context.Context, userID int64, platform model.Platform, offerID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO deliveries (user_id, platform, offer_id, delivered_at)
		 VALUES (?, ?, ?, ?)`,
		userID, string(platform), offerID, time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return false, fmt.Errorf("mark delivered: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func joinPlatforms(platforms []model.Platform) string {
	parts := make([]string, len(platforms))
	for i, p := range platforms {
		parts[i] = string(p)
	}
	return strings.Join(parts, ",")
}

func splitPlatforms(raw string) []model.Platform {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]model.Platform, 0, len(parts))
	for _, p := range parts {
		out = append(out, model.Platform(p))
	}
	return out
}

type scannable interface {
	Scan(dest ...any) error
}

func scanOffer(row scannable) (model.Offer, error) {
	var o model.Offer
	var platform, deadline, created string
	err := row.Scan(&platform, &o.OfferID, &o.Name, &o.Description, &deadline, &created)
	if err != nil {
		return o, fmt.Errorf("scan offer: %w", err)
	}
	o.Platform = model.Platform(platform)
	o.Deadline, _ = time.Parse(timeLayout, deadline)
	o.CreatedAt, _ = time.Parse(timeLayout, created)
	return o, nil
}

func scanPreference(row scannable) (*model.UserPreference, error) {
	var p model.UserPreference
	var platforms, created, updated string
	var isActive int
	err := row.Scan(&p.UserID, &platforms, &isActive, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan preference: %w", err)
	}
	p.Platforms = splitPlatforms(platforms)
	p.Active = isActive == 1
	p.CreatedAt, _ = time.Parse(timeLayout, created)
	p.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return &p, nil
}
