package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const createSeenTableSQL = `
CREATE TABLE IF NOT EXISTS seen_listings (
	listing_id TEXT NOT NULL,
	watch_key TEXT NOT NULL DEFAULT '',
	seen_at INTEGER NOT NULL,
	cleared_keys TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (listing_id, watch_key)
);
`

// SQLiteBackend keeps records in a SQLite table
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens the database at dbPath and creates the table if needed
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: set WAL mode: %w", err)
	}

	if _, err := db.Exec(createSeenTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create table: %w", err)
	}

	return &SQLiteBackend{db: db}, nil
}

// Load returns all rows in insertion order
func (b *SQLiteBackend) Load() ([]SeenRecord, error) {
	rows, err := b.db.Query(`SELECT listing_id, watch_key, seen_at, cleared_keys FROM seen_listings ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("store: load seen listings: %w", err)
	}
	defer rows.Close()

	var records []SeenRecord
	for rows.Next() {
		var r SeenRecord
		var seenAt int64
		var cleared string
		if err := rows.Scan(&r.ListingID, &r.WatchKey, &seenAt, &cleared); err != nil {
			return nil, fmt.Errorf("store: scan seen listing: %w", err)
		}
		r.SeenAt = time.Unix(seenAt, 0).UTC()
		if cleared != "" {
			if err := json.Unmarshal([]byte(cleared), &r.ClearedKeys); err != nil {
				return nil, fmt.Errorf("store: decode cleared keys for %s: %w", r.ListingID, err)
			}
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Save rewrites the table inside one transaction
func (b *SQLiteBackend) Save(records []SeenRecord) error {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM seen_listings`); err != nil {
		return fmt.Errorf("store: clear seen listings: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO seen_listings (listing_id, watch_key, seen_at, cleared_keys) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		var cleared string
		if len(r.ClearedKeys) > 0 {
			data, err := json.Marshal(r.ClearedKeys)
			if err != nil {
				return fmt.Errorf("store: encode cleared keys for %s: %w", r.ListingID, err)
			}
			cleared = string(data)
		}
		if _, err := stmt.Exec(r.ListingID, r.WatchKey, r.SeenAt.Unix(), cleared); err != nil {
			return fmt.Errorf("store: insert %s: %w", r.ListingID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// Close closes the database
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
