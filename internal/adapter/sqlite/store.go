// Package sqlite persists refresh snapshots so a restarted service can serve
// the last good catalog and observations before its first refresh completes.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/buoy-placefile/internal/domain"
)

// Store keeps exactly one snapshot: the flat catalog, the observation map,
// and the raw feed bodies they were built from.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite database at path and configures WAL mode.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: exec %s: %w", pragma, err)
		}
	}
	return &Store{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS snapshot_meta (
	id           INTEGER PRIMARY KEY CHECK (id = 1),
	generation   TEXT NOT NULL,
	refreshed_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS catalog_entries (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS observations (
	key  TEXT PRIMARY KEY,
	data TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS raw_feeds (
	name       TEXT PRIMARY KEY,
	body       BLOB NOT NULL,
	fetched_at TEXT NOT NULL
);
`

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, migration); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveSnapshot replaces the stored snapshot and raw feeds in one transaction.
// Readers see either the previous snapshot or this one.
func (s *Store) SaveSnapshot(ctx context.Context, snap domain.Snapshot, feeds map[string][]byte) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"snapshot_meta", "catalog_entries", "observations"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("sqlite: clear %s: %w", table, err)
		}
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO snapshot_meta (id, generation, refreshed_at) VALUES (1, ?, ?)`,
		snap.Generation, snap.RefreshedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("sqlite: insert snapshot meta: %w", err)
	}

	if err = insertCatalog(ctx, tx, snap.Catalog); err != nil {
		return err
	}
	if err = insertObservations(ctx, tx, snap.Observations); err != nil {
		return err
	}

	fetchedAt := snap.RefreshedAt.UTC().Format(time.RFC3339Nano)
	for name, body := range feeds {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO raw_feeds (name, body, fetched_at) VALUES (?, ?, ?)
			 ON CONFLICT(name) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
			name, body, fetchedAt,
		); err != nil {
			return fmt.Errorf("sqlite: upsert raw feed %s: %w", name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

func insertCatalog(ctx context.Context, tx *sql.Tx, cat domain.Catalog) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO catalog_entries (key, value) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare catalog insert: %w", err)
	}
	defer stmt.Close()

	for key, value := range cat.Entries() {
		if _, err := stmt.ExecContext(ctx, key, value); err != nil {
			return fmt.Errorf("sqlite: insert catalog entry %s: %w", key, err)
		}
	}
	return nil
}

func insertObservations(ctx context.Context, tx *sql.Tx, obs domain.Observations) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO observations (key, data) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare observation insert: %w", err)
	}
	defer stmt.Close()

	for key, o := range obs {
		data, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("sqlite: marshal observation %s: %w", key, err)
		}
		if _, err := stmt.ExecContext(ctx, key, string(data)); err != nil {
			return fmt.Errorf("sqlite: insert observation %s: %w", key, err)
		}
	}
	return nil
}

// LoadSnapshot reads the stored snapshot, or returns domain.ErrNoSnapshot
// before the first save.
func (s *Store) LoadSnapshot(ctx context.Context) (domain.Snapshot, error) {
	var snap domain.Snapshot
	var refreshedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT generation, refreshed_at FROM snapshot_meta WHERE id = 1`,
	).Scan(&snap.Generation, &refreshedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Snapshot{}, domain.ErrNoSnapshot
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("sqlite: read snapshot meta: %w", err)
	}
	if snap.RefreshedAt, err = time.Parse(time.RFC3339Nano, refreshedAt); err != nil {
		return domain.Snapshot{}, fmt.Errorf("sqlite: parse refreshed_at: %w", err)
	}

	if snap.Catalog, err = s.loadCatalog(ctx); err != nil {
		return domain.Snapshot{}, err
	}
	if snap.Observations, err = s.loadObservations(ctx); err != nil {
		return domain.Snapshot{}, err
	}
	return snap, nil
}

func (s *Store) loadCatalog(ctx context.Context) (domain.Catalog, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM catalog_entries`)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("sqlite: query catalog: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return domain.Catalog{}, fmt.Errorf("sqlite: scan catalog entry: %w", err)
		}
		entries[key] = value
	}
	if err := rows.Err(); err != nil {
		return domain.Catalog{}, fmt.Errorf("sqlite: iterate catalog: %w", err)
	}
	return domain.CatalogFromEntries(entries), nil
}

func (s *Store) loadObservations(ctx context.Context) (domain.Observations, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, data FROM observations`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query observations: %w", err)
	}
	defer rows.Close()

	obs := make(domain.Observations)
	for rows.Next() {
		var key, data string
		if err := rows.Scan(&key, &data); err != nil {
			return nil, fmt.Errorf("sqlite: scan observation: %w", err)
		}
		var o domain.Observation
		if err := json.Unmarshal([]byte(data), &o); err != nil {
			return nil, fmt.Errorf("sqlite: unmarshal observation %s: %w", key, err)
		}
		obs[key] = o
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate observations: %w", err)
	}
	return obs, nil
}

// RawFeed returns the stored body of a raw feed and when it was fetched.
func (s *Store) RawFeed(ctx context.Context, name string) ([]byte, time.Time, error) {
	var body []byte
	var fetchedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT body, fetched_at FROM raw_feeds WHERE name = ?`, name,
	).Scan(&body, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, fmt.Errorf("sqlite: raw feed %s: %w", name, domain.ErrNoSnapshot)
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("sqlite: read raw feed %s: %w", name, err)
	}
	t, err := time.Parse(time.RFC3339Nano, fetchedAt)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("sqlite: parse fetched_at: %w", err)
	}
	return body, t, nil
}
