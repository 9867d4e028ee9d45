// Package db reads a Navidrome media database as a library source.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "github.com/mattn/go-sqlite3"    // registers "sqlite3"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// ErrUnsupportedDriver is returned for drivers other than sqlite3 and pgx.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// DB wraps a database/sql handle on a Navidrome schema.
type DB struct {
	conn *sql.DB
}

// New opens and pings the database.
func New(ctx context.Context, driver, dsn string) (*DB, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("%q: %w", driver, ErrUnsupportedDriver)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Verify connection
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database handle.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Tracks returns a TrackRepository.
func (db *DB) Tracks() *TrackRepository {
	return &TrackRepository{conn: db.conn}
}
