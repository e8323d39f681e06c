package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
	path string
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Use WAL mode for better concurrency
	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)

	return &DB{
		conn: conn,
		path: dbPath,
	}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Path returns the on-disk location of the database file
func (db *DB) Path() string {
	return db.path
}

// Migrate creates the schema if it does not exist
func (db *DB) Migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS price_bars (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			date   TEXT NOT NULL,
			close  REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_price_bars_symbol ON price_bars(symbol, id)`,
		`CREATE TABLE IF NOT EXISTS positions (
			symbol TEXT PRIMARY KEY,
			shares INTEGER NOT NULL,
			value  REAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS model_state (
			id           INTEGER PRIMARY KEY CHECK (id = 1),
			start_date   TEXT NOT NULL,
			starting_nav REAL NOT NULL,
			current_nav  REAL NOT NULL,
			cash         REAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS current_allocation (
			id         INTEGER PRIMARY KEY CHECK (id = 1),
			date       TEXT NOT NULL,
			regime     TEXT NOT NULL,
			weights    BLOB NOT NULL,
			indicators BLOB,
			reason     TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS rebalance_records (
			id                TEXT PRIMARY KEY,
			date              TEXT NOT NULL,
			trig              TEXT NOT NULL,
			regime            TEXT NOT NULL,
			weights           BLOB NOT NULL,
			indicators        BLOB,
			reason            TEXT NOT NULL,
			trades            BLOB NOT NULL,
			turnover          REAL NOT NULL,
			transaction_costs REAL NOT NULL,
			nav_before        REAL NOT NULL,
			nav_after         REAL NOT NULL,
			created_at        TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rebalance_records_date ON rebalance_records(date)`,
		`CREATE TABLE IF NOT EXISTS equity_curve (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			date   TEXT NOT NULL,
			nav    REAL NOT NULL,
			regime TEXT NOT NULL
		)`,
	}

	for _, stmt := range schema {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	return nil
}

// Begin starts a new transaction
func (db *DB) Begin() (*sql.Tx, error) {
	return db.conn.Begin()
}

// Exec executes a query without returning rows
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.conn.Exec(query, args...)
}

// Query executes a query that returns rows
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.conn.Query(query, args...)
}

// QueryRow executes a query that returns at most one row
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.conn.QueryRow(query, args...)
}
