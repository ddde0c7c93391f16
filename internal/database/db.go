// Package database provides SQLite-backed storage for dnslens observations.
//
// Two kinds of data are persisted:
//   - Anomalies: individual malformed or unusual headers, with the raw
//     prefix and bit position so an operator can replay the decode.
//   - Traffic: per-minute counters aggregated by transport, kept small
//     enough to chart weeks of history from a single file.
//
// The schema is managed with embedded golang-migrate migrations, so a
// database created by an older build is upgraded in place on open.
package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DB wraps a SQLite database connection.
type DB struct {
	conn *sql.DB
}

// Open opens or creates a SQLite database at the given path and brings its
// schema up to date.
func Open(path string) (*DB, error) {
	if err := runMigrations(path); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	conn, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set reasonable connection pool limits
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{conn: conn}, nil
}

// dsn builds the connection string. WAL mode keeps readers from blocking
// the single writer.
func dsn(path string) string {
	return fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", path)
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Health checks database connectivity.
func (db *DB) Health() error {
	return db.conn.Ping()
}
