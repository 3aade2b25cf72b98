package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmailTaken is returned when an account with the same email already exists.
var ErrEmailTaken = errors.New("email already registered")

// DefaultSettings are used for users who never saved their own.
var DefaultSettings = Settings{DailyGoal: 5, Timezone: "UTC"}

// CreateUser inserts a new account. Emails are stored lowercased.
func (db *Database) CreateUser(ctx context.Context, u User) (User, error) {
	if u.ID == "" {
		u.ID = newID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, toMillis(u.CreatedAt),
	)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	u.CreatedAt = fromMillis(toMillis(u.CreatedAt))
	return u, nil
}

func (db *Database) getUser(ctx context.Context, where string, arg any) (*User, error) {
	var (
		u         User
		createdAt int64
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users WHERE `+where, arg,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.CreatedAt = fromMillis(createdAt)
	return &u, nil
}

// GetUser retrieves an account by ID.
func (db *Database) GetUser(ctx context.Context, id string) (*User, error) {
	return db.getUser(ctx, "id = ?", id)
}

// GetUserByEmail retrieves an account by email, case-insensitively.
func (db *Database) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return db.getUser(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

// GetSettings returns the saved settings of userID, or DefaultSettings.
func (db *Database) GetSettings(ctx context.Context, userID string) (Settings, error) {
	s, ok, err := db.LookupSettings(ctx, userID)
	if err != nil || !ok {
		return DefaultSettings, err
	}
	return s, nil
}

// LookupSettings returns the saved settings of userID and whether any exist.
func (db *Database) LookupSettings(ctx context.Context, userID string) (Settings, bool, error) {
	var s Settings
	err := db.conn.QueryRowContext(ctx,
		`SELECT daily_goal, timezone FROM user_settings WHERE user_id = ?`, userID,
	).Scan(&s.DailyGoal, &s.Timezone)
	if err == sql.ErrNoRows {
		return Settings{}, false, nil
	}
	if err != nil {
		return Settings{}, false, fmt.Errorf("failed to get settings: %w", err)
	}
	return s, true, nil
}

// SaveSettings upserts the settings of userID.
func (db *Database) SaveSettings(ctx context.Context, userID string, s Settings) error {
	_, err := db.conn.ExecContext(ctx, `INSERT INTO user_settings (user_id, daily_goal, timezone)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET daily_goal = excluded.daily_goal, timezone = excluded.timezone`,
		userID, s.DailyGoal, s.Timezone,
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
