// Package sqlite provides a SQLite-backed search result cache.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
	"github.com/ewilliams-labs/moodmusic/internal/core/ports"
	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously
)

// Adapter implements the search cache port for SQLite
type Adapter struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

var _ ports.SearchCache = (*Adapter)(nil)

// NewAdapter opens the database, runs the schema migration and keeps entries
// for ttl. A ttl of zero or less keeps entries forever.
func NewAdapter(storagePath string, ttl time.Duration) (*Adapter, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	// Each connection to ":memory:" is its own database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	adapter := &Adapter{db: db, ttl: ttl, now: time.Now}
	if err := adapter.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return adapter, nil
}

// Close ensures the DB connection is closed gracefully
func (a *Adapter) Close() error {
	return a.db.Close()
}

// Get returns the cached videos for query when present and fresh.
func (a *Adapter) Get(ctx context.Context, query string) ([]domain.Video, bool, error) {
	row := a.db.QueryRowContext(ctx, "SELECT videos, fetched_at FROM search_cache WHERE query = ?", query)

	var raw string
	var fetchedAt int64
	if err := row.Scan(&raw, &fetchedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to load cached search: %w", err)
	}

	if a.ttl > 0 && a.now().Sub(time.Unix(0, fetchedAt)) > a.ttl {
		return nil, false, nil
	}

	var videos []domain.Video
	if err := json.Unmarshal([]byte(raw), &videos); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached search: %w", err)
	}
	if len(videos) == 0 {
		return nil, false, nil
	}
	return videos, true, nil
}

// Put stores videos for query, replacing any previous entry.
func (a *Adapter) Put(ctx context.Context, query string, videos []domain.Video) error {
	raw, err := json.Marshal(videos)
	if err != nil {
		return fmt.Errorf("failed to encode search: %w", err)
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO search_cache (query, videos, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(query) DO UPDATE SET videos=excluded.videos, fetched_at=excluded.fetched_at;
	`, query, string(raw), a.now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save search: %w", err)
	}
	return nil
}

// Purge deletes entries older than the ttl and returns how many were removed.
func (a *Adapter) Purge(ctx context.Context) (int64, error) {
	if a.ttl <= 0 {
		return 0, nil
	}
	cutoff := a.now().Add(-a.ttl).UnixNano()
	res, err := a.db.ExecContext(ctx, "DELETE FROM search_cache WHERE fetched_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge search cache: %w", err)
	}
	return res.RowsAffected()
}

func (a *Adapter) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS search_cache (
		query TEXT PRIMARY KEY,
		videos TEXT NOT NULL,
		fetched_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_search_cache_fetched_at ON search_cache(fetched_at);
	`
	_, err := a.db.Exec(query)
	return err
}
