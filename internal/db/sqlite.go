package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a record does not exist for the given owner.
var ErrNotFound = errors.New("record not found")

// Database represents a SQLite database connection
type Database struct {
	conn *sql.DB
	feed *Feed

	// testHookInitialRead runs in Subscribe between reading and delivering the
	// first snapshot.
	testHookInitialRead func()
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS user_settings (
    user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    daily_goal INTEGER NOT NULL,
    timezone TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS words (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    headword TEXT NOT NULL,
    reading TEXT NOT NULL DEFAULT '',
    definition TEXT NOT NULL DEFAULT '',
    example_sentences TEXT NOT NULL DEFAULT '[]',
    learned INTEGER NOT NULL DEFAULT 0,
    difficulty TEXT NOT NULL DEFAULT 'medium',
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_words_owner_created ON words(owner_id, created_at DESC);
CREATE TABLE IF NOT EXISTS kanji (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    character TEXT NOT NULL,
    meaning TEXT NOT NULL DEFAULT '',
    onyomi TEXT NOT NULL DEFAULT '',
    kunyomi TEXT NOT NULL DEFAULT '',
    stroke_count INTEGER NOT NULL DEFAULT 0,
    examples TEXT NOT NULL DEFAULT '[]',
    learned INTEGER NOT NULL DEFAULT 0,
    difficulty TEXT NOT NULL DEFAULT 'medium',
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_kanji_owner_created ON kanji(owner_id, created_at DESC);
`

// NewDatabase creates a new database connection and initializes the schema
func NewDatabase(dbPath string) (*Database, error) {
	inMemory := dbPath == ":memory:"
	// Each in-memory database gets its own name so connections in the pool share it
	// without leaking state between databases opened in the same process.
	if inMemory {
		dbPath = fmt.Sprintf("file:kotoba-%s?mode=memory&cache=shared", uuid.NewString())
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)

	if !inMemory {
		if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Database{conn: conn, feed: NewFeed()}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Ping checks that the database is reachable.
func (db *Database) Ping() error {
	return db.conn.Ping()
}

func newID() string {
	return uuid.NewString()
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}

func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode string list: %w", err)
	}
	return string(b), nil
}

func decodeStrings(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return []string{}, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("failed to decode string list: %w", err)
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

// isUniqueConstraintErr reports whether err is a unique constraint violation.
func isUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unique") || strings.Contains(s, "constraint failed")
}

// checkAffected turns a zero-row write into ErrNotFound.
func checkAffected(result sql.Result, what, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s with ID %s: %w", what, id, ErrNotFound)
	}
	return nil
}
