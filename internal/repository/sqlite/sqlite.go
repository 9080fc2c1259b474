// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY SQLITE?
// A team daily-log has one small table written a handful of times a day.
// An embedded database file — no server to run, ":memory:" for tests —
// is exactly the right amount of infrastructure.
//
// We use modernc.org/sqlite (pure Go translation of the SQLite C code)
// instead of mattn/go-sqlite3 so no C compiler is needed and
// cross-compilation stays trivial.
package sqlite

import (
	"database/sql"
	"fmt"

	// Side-effect import: sqlite's init() registers itself with
	// database/sql as the driver named "sqlite".
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides the repository methods.
// It implements both repository.UserRepository and repository.LogRepository.
type DB struct {
	conn *sql.DB
}

// New creates a SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/dailylog.db" → file-based database (persistent)
//   - ":memory:"         → in-memory database (tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Ping forces an immediate connection so a bad path or permissions
	// problem surfaces here, not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight — needed because
	// the admin table and history fetches run concurrently with inserts.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite.
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

// Close closes the database connection pool. Always defer this next to
// New() — it flushes the WAL and releases the file lock.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it
// idempotent — safe to run on every startup.
func (db *DB) migrate() error {
	// users: xid string primary key, unique email (the identity key for
	// both sign-in and the allow-list policy). github_id is nullable-ish
	// (0 = not an OAuth account) but unique when present.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			github_id     INTEGER NOT NULL DEFAULT 0,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_github_id
			ON users(github_id) WHERE github_id != 0;
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// logs: integer primary key assigned by the storage layer, immutable
	// rows, created_at server-assigned. user_email is denormalized for
	// the admin table display.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS logs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id     TEXT NOT NULL REFERENCES users(id),
			user_email  TEXT NOT NULL DEFAULT '',
			plan        TEXT NOT NULL,
			achievement TEXT NOT NULL,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_logs_user_id ON logs(user_id);
		CREATE INDEX IF NOT EXISTS idx_logs_created_at ON logs(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating logs table: %w", err)
	}

	return nil
}
