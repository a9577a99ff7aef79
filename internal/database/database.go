package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gigbook/internal/domain"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// Every write transaction takes the RESERVED lock up front and the pool holds a
// single connection, so "read conflicts, then insert" sequences never interleave.
const dsnParams = "_txlock=immediate&_busy_timeout=5000&_foreign_keys=on"

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

type DB struct {
	conn   *sql.DB
	q      querier
	inTx   bool
	path   string
	logger *zerolog.Logger
}

var _ domain.Repository = (*DB)(nil)

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&" + dsnParams
	} else {
		dsn += "?" + dsnParams
	}

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{conn: conn, q: conn, path: path, logger: logger}
	if err := db.Migrate(context.Background()); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Info().Str("path", path).Msg("Database initialized")
	return db, nil
}

// Migrate creates missing tables and indexes. It is idempotent.
func (db *DB) Migrate(ctx context.Context) error {
	for _, query := range schema {
		if _, err := db.q.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS artists (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL UNIQUE REFERENCES users(id),
		name TEXT NOT NULL,
		slug TEXT NOT NULL,
		city TEXT NOT NULL DEFAULT '',
		genres TEXT NOT NULL DEFAULT '[]',
		rate REAL NOT NULL DEFAULT 0,
		bio TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS venues (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL UNIQUE REFERENCES users(id),
		name TEXT NOT NULL,
		slug TEXT NOT NULL,
		city TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		about TEXT NOT NULL DEFAULT '',
		auto_approve BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS artist_unavailability (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		artist_id INTEGER NOT NULL REFERENCES artists(id) ON DELETE CASCADE,
		start_at INTEGER NOT NULL,
		end_at INTEGER NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		CHECK (end_at > start_at)
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		venue_id INTEGER NOT NULL REFERENCES venues(id),
		title TEXT NOT NULL,
		slug TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		start_at INTEGER NOT NULL,
		end_at INTEGER,
		status TEXT NOT NULL,
		total_hours REAL,
		budget REAL,
		requested_by INTEGER NOT NULL REFERENCES users(id),
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS event_artists (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		artist_id INTEGER NOT NULL REFERENCES artists(id),
		fee REAL,
		hours REAL,
		confirmed BOOLEAN NOT NULL DEFAULT 0,
		UNIQUE (event_id, artist_id)
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		artist_id INTEGER NOT NULL REFERENCES artists(id),
		venue_id INTEGER NOT NULL REFERENCES venues(id),
		event_date INTEGER NOT NULL,
		end_at INTEGER NOT NULL,
		hours REAL NOT NULL CHECK (hours > 0),
		note TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		event_id INTEGER REFERENCES events(id),
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		version INTEGER NOT NULL DEFAULT 1
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_artists_slug ON artists(slug)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_venues_slug ON venues(slug)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_events_slug ON events(slug)`,
	`CREATE INDEX IF NOT EXISTS idx_artists_city ON artists(city)`,
	`CREATE INDEX IF NOT EXISTS idx_venues_city ON venues(city)`,
	`CREATE INDEX IF NOT EXISTS idx_unavailability_artist ON artist_unavailability(artist_id, start_at, end_at)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_artist ON bookings(artist_id, status, event_date)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_venue ON bookings(venue_id)`,
	`CREATE INDEX IF NOT EXISTS idx_events_venue ON events(venue_id, status)`,
}

// InTx runs fn with a repository bound to one transaction. Nested calls reuse the
// outer transaction. The transaction is rolled back when fn returns an error.
func (db *DB) InTx(ctx context.Context, fn func(tx domain.Repository) error) error {
	if db.inTx {
		return fn(db)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	txDB := &DB{conn: db.conn, q: tx, inTx: true, path: db.path, logger: db.logger}
	if err := fn(txDB); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.conn.Close()
}
