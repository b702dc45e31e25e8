// Package storage persists the set of previously seen offers in a local
// SQLite database. The store has a single writer (the pipeline tick) and
// must survive process restarts.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/mhradil/flatbot/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS offers (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	title      TEXT NOT NULL,
	link       TEXT NOT NULL,
	location   TEXT NOT NULL DEFAULT '',
	price      TEXT NOT NULL DEFAULT '',
	first_seen TEXT NOT NULL
);
`

// Store is the durable dedup set plus the first-run flag.
type Store struct {
	db  *sql.DB
	log zerolog.Logger

	// firstTime is true until the first successful SaveOffers after the
	// store was opened empty. Computed from the table on open, so it is
	// correct across restarts without being stored separately.
	firstTime bool
}

// Open creates the database file (and its directory) if needed, migrates
// the schema, and derives the first-run flag from the existing content.
func Open(path string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// SQLite prefers a single writer; the pipeline is single-flight anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")
	_, _ = db.Exec("PRAGMA busy_timeout = 5000")

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM offers`).Scan(&count); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("counting stored offers: %w", err)
	}

	return &Store{db: db, log: log, firstTime: count == 0}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// FirstTime reports whether the store held no offers before the first save
// of this process's life. It flips to false permanently after the first
// successful SaveOffers.
func (s *Store) FirstTime() bool { return s.firstTime }

// Contains reports whether an offer with the same identity was saved before.
func (s *Store) Contains(ctx context.Context, offer models.Offer) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM offers WHERE id = ?`, offer.ID()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying offer %s: %w", offer.ID(), err)
	}
	return true, nil
}

// SaveOffers records every offer in batch inside one transaction. Already
// known identities are left untouched, so re-saving is a no-op. A crash
// mid-save rolls the whole batch back; the offers are simply re-fetched
// and re-saved on the next tick.
func (s *Store) SaveOffers(ctx context.Context, batch []models.Offer) error {
	if len(batch) > 0 {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("starting save transaction: %w", err)
		}

		now := time.Now().UTC().Format(time.RFC3339Nano)
		for _, offer := range batch {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO offers(id, source, title, link, location, price, first_seen)
				 VALUES(?,?,?,?,?,?,?)
				 ON CONFLICT(id) DO NOTHING`,
				offer.ID(), offer.SourceID, offer.Title, offer.Link, offer.Location, offer.Price.Raw, now,
			)
			if err != nil {
				if rbErr := tx.Rollback(); rbErr != nil {
					s.log.Warn().Err(rbErr).Msg("rollback after failed insert")
				}
				return fmt.Errorf("inserting offer %s: %w", offer.Link, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing offer batch: %w", err)
		}
	}

	s.firstTime = false
	return nil
}

// Count returns the number of stored offer identities.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM offers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting stored offers: %w", err)
	}
	return count, nil
}
