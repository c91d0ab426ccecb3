package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection holding the full lost-and-found state:
// items, claims, notifications, users, sessions, the reputation ledger,
// and quiz-failure counters.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the SQLite database and runs migrations.
func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single writer, many readers.
	conn.SetMaxOpenConns(1)

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they do not exist.
func migrate(conn *sql.DB) error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS items (
		id                  TEXT PRIMARY KEY,
		type                TEXT NOT NULL,
		title               TEXT NOT NULL,
		description         TEXT NOT NULL DEFAULT '',
		category            TEXT NOT NULL DEFAULT 'Other',
		condition           TEXT NOT NULL DEFAULT '',
		location            TEXT NOT NULL DEFAULT '',
		date                TEXT NOT NULL DEFAULT '',
		time_lost           TEXT NOT NULL DEFAULT '',
		contact_name        TEXT NOT NULL DEFAULT '',
		contact_email       TEXT NOT NULL DEFAULT '',
		status              TEXT NOT NULL DEFAULT 'OPEN',
		ai_tags             TEXT NOT NULL DEFAULT '[]',
		image_url           TEXT NOT NULL DEFAULT '',
		ocr_detected_text   TEXT NOT NULL DEFAULT '',
		is_urgent           INTEGER NOT NULL DEFAULT 0,
		is_high_value       INTEGER NOT NULL DEFAULT 0,
		is_moved_to_hub     INTEGER NOT NULL DEFAULT 0,
		drop_off_hub_id     TEXT NOT NULL DEFAULT '',
		quiz_question       TEXT NOT NULL DEFAULT '',
		quiz_options        TEXT NOT NULL DEFAULT '[]',
		quiz_correct_answer TEXT NOT NULL DEFAULT '',
		exchange_pin        TEXT NOT NULL DEFAULT '',
		resolution_details  TEXT,
		created_at          DATETIME NOT NULL,
		updated_at          DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_status ON items(status);
	CREATE INDEX IF NOT EXISTS idx_items_type ON items(type);
	CREATE INDEX IF NOT EXISTS idx_items_created_at ON items(created_at);

	CREATE TABLE IF NOT EXISTS claims (
		id               TEXT PRIMARY KEY,
		item_id          TEXT NOT NULL,
		item_title       TEXT NOT NULL DEFAULT '',
		claimant_name    TEXT NOT NULL,
		claimant_contact TEXT NOT NULL DEFAULT '',
		claimant_image   TEXT NOT NULL DEFAULT '',
		quiz_passed      INTEGER NOT NULL DEFAULT 0,
		status           TEXT NOT NULL DEFAULT 'PENDING',
		created_at       DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_claims_item_id ON claims(item_id);
	CREATE INDEX IF NOT EXISTS idx_claims_status ON claims(status);

	CREATE TABLE IF NOT EXISTS notifications (
		id         TEXT PRIMARY KEY,
		type       TEXT NOT NULL,
		title      TEXT NOT NULL,
		message    TEXT NOT NULL DEFAULT '',
		read       INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_created_at ON notifications(created_at);

	CREATE TABLE IF NOT EXISTS quiz_failures (
		item_id      TEXT NOT NULL,
		claimant_key TEXT NOT NULL DEFAULT '',
		count        INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (item_id, claimant_key)
	);

	CREATE TABLE IF NOT EXISTS reputation (
		id    INTEGER PRIMARY KEY CHECK (id = 1),
		score INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT UNIQUE NOT NULL,
		name          TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		created_at    DATETIME NOT NULL,
		last_login_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
	`
	if _, err := conn.Exec(ddl); err != nil {
		return err
	}

	// Seed the single reputation row at the starting score.
	_, err := conn.Exec(`INSERT OR IGNORE INTO reputation (id, score) VALUES (1, 100)`)
	return err
}
