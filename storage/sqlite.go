package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/xlangai/waitlist/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS waitlist (
	email TEXT PRIMARY KEY,
	user_id TEXT NOT NULL DEFAULT '',
	verified_email INTEGER NOT NULL DEFAULT 0,
	name TEXT NOT NULL DEFAULT '',
	given_name TEXT NOT NULL DEFAULT '',
	picture TEXT NOT NULL DEFAULT '',
	locale TEXT NOT NULL DEFAULT '',
	joined_at TIMESTAMP NOT NULL
);
`

// SQLiteStore keeps the waitlist in a local SQLite database, one row per
// email.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the SQLite database and ensures the
// waitlist table exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err = db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to create waitlist table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Find reports whether a row exists for the email.
func (s *SQLiteStore) Find(ctx context.Context, email string) (bool, error) {
	query := `SELECT 1 FROM waitlist WHERE email = ?`

	var one int
	err := s.db.QueryRowContext(ctx, query, email).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query waitlist: %w", err)
	}
	return true, nil
}

// Insert records the profile unless its email is already present. The
// primary key makes the insert-if-absent atomic; rows affected tells us
// whether this call created the entry.
func (s *SQLiteStore) Insert(ctx context.Context, profile *models.UserProfile) (bool, error) {
	query := `
		INSERT OR IGNORE INTO waitlist
			(email, user_id, verified_email, name, given_name, picture, locale, joined_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		profile.Email,
		profile.ID,
		profile.VerifiedEmail,
		profile.Name,
		profile.GivenName,
		profile.Picture,
		profile.Locale,
		time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert waitlist entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
