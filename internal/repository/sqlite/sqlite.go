// Package sqlite is the storage collaborator: it persists users and the
// append-only submission log in a single SQLite file.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite, so the server builds without a C
// compiler and cross-compiles like any other Go program.
//
// SHAPE OF EVERY QUERY IN THIS PACKAGE:
//  1. db.conn.QueryContext / ExecContext with ? placeholders (never Sprintf user input)
//  2. rows.Scan(&field1, &field2) in SELECT column order
//  3. translate sql.ErrNoRows into apperror.NotFound, wrap everything else
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// Registers the "sqlite" driver with database/sql at init time.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides repository methods.
//
// WHY WRAP sql.DB IN A STRUCT?
// 1. We can attach methods to it (Create, Append, AllFor, etc.)
// 2. It implements both UserRepository and SubmissionRepository
// 3. We control the lifecycle (New creates it, Close destroys it)
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/codesync.db" → file-based database (persistent)
//   - ":memory:"         → in-memory database (great for tests, lost on close)
//
// CONNECTION POOL:
// sql.Open() does NOT actually open a connection, it just creates a pool manager.
// We call db.Ping() to force an immediate connection and verify it works.
//
// ":memory:" AND THE POOL:
// Every connection to ":memory:" gets its OWN private database. With a pool of
// several connections, a migration could run on one connection and a query on
// another that has no tables at all. Pinning the pool to one connection keeps
// every caller on the same in-memory database.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL (Write-Ahead Logging) mode allows concurrent reads WHILE a write is
	// happening. Writes are still serialised by SQLite's single writer lock,
	// which is what gives the submission log a well-defined insertion order.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// A concurrent writer waits up to 5s for the lock instead of failing
	// immediately with SQLITE_BUSY.
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. Submissions reference users.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// dsn adds the per-connection pragmas to a file path so every connection the
// pool opens gets them, not just the first. modernc.org/sqlite runs each
// _pragma on connect.
func dsn(dbPath string) string {
	if dbPath == ":memory:" || strings.Contains(dbPath, "?") {
		return dbPath
	}
	return dbPath + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// Close closes the database connection pool.
//
// ALWAYS DEFER CLOSE:
//
//	db, err := sqlite.New("data/codesync.db")
//	if err != nil { ... }
//	defer db.Close()
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable. Used by the health check.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate runs all database migrations.
//
// CREATE TABLE IF NOT EXISTS is safe to run on every start. Later column
// additions go through addColumnIfNotExists so existing files upgrade in place.
func (db *DB) migrate() error {
	// Phase 1: users table. Email is stored lower-cased, so a plain UNIQUE
	// constraint is enough to make it case-insensitive.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// Phase 1: submissions table.
	// seq is the insertion order. AUTOINCREMENT guarantees it only ever grows,
	// so "ORDER BY occurred_on, seq" is stable for the life of the database.
	// occurred_on is TEXT in YYYY-MM-DD form, which sorts chronologically.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS submissions (
			seq          INTEGER PRIMARY KEY AUTOINCREMENT,
			id           TEXT NOT NULL UNIQUE,
			user_id      TEXT NOT NULL REFERENCES users(id),
			problem_name TEXT NOT NULL,
			topic        TEXT NOT NULL,
			difficulty   TEXT NOT NULL,
			occurred_on  TEXT NOT NULL,
			notes        TEXT NOT NULL DEFAULT '',
			code         TEXT NOT NULL DEFAULT '',
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_submissions_user_date
			ON submissions(user_id, occurred_on, seq);
	`)
	if err != nil {
		return fmt.Errorf("creating submissions table: %w", err)
	}

	// Phase 2: GitHub login. SQLite cannot ADD COLUMN with a UNIQUE constraint,
	// so uniqueness comes from a separate index. NULLs never collide in a
	// UNIQUE index, so password-only accounts are unaffected.
	if err := db.addColumnIfNotExists("users", "github_id", "INTEGER"); err != nil {
		return fmt.Errorf("adding github_id to users: %w", err)
	}
	_, err = db.conn.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_github_id ON users(github_id);
	`)
	if err != nil {
		return fmt.Errorf("creating users github_id index: %w", err)
	}

	return nil
}

// addColumnIfNotExists adds a column to a table only if it doesn't already exist.
// Makes ALTER TABLE migrations idempotent, safe to run multiple times.
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil // column already exists
	}
	_, err = db.conn.Exec(fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}

// isUniqueViolation reports whether err came from a UNIQUE constraint.
// The pure-Go driver surfaces SQLite's message text rather than a typed code
// we can match on portably, so we look for the message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
