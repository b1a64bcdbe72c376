package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

var (
	errUserExists         = errors.New("Username already exists")
	errUnknownUser        = errors.New("Unknown username")
	errInvalidCredentials = errors.New("Invalid username or password")
)

// UserProfile is the public view of a stored account.
type UserProfile struct {
	Username    string  `json:"username"`
	CreatedAt   string  `json:"created_at"`
	LastLogin   *string `json:"last_login,omitempty"`
	GamesPlayed int     `json:"games_played"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
}

// UserStore provides SQLite-backed persistence for player accounts.
// Usernames keep their original case but are unique and looked up
// case-insensitively.
type UserStore struct {
	db *sql.DB
}

func openUserStore(path string) (*UserStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("users: open db: %w", err)
	}

	ctx := context.Background()

	// WAL mode for concurrent reads, busy timeout to avoid
	// "database is locked" under concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("users: set WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("users: set busy_timeout: %w", err)
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS users (
		username      TEXT NOT NULL PRIMARY KEY,
		password_hash TEXT NOT NULL,
		created_at    TEXT NOT NULL,
		last_login    TEXT,
		games_played  INTEGER NOT NULL DEFAULT 0,
		wins          INTEGER NOT NULL DEFAULT 0,
		losses        INTEGER NOT NULL DEFAULT 0
	);
	CREATE UNIQUE INDEX IF NOT EXISTS users_username_nocase
		ON users (username COLLATE NOCASE);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("users: migrate: %w", err)
	}

	return &UserStore{db: db}, nil
}

func (s *UserStore) Close() error {
	return s.db.Close()
}

// Register stores a new account under the username's original case.
func (s *UserStore) Register(ctx context.Context, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("users: hash password: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		username, string(hash), time.Now().Format(time.RFC3339),
	)
	if err != nil {
		var exists bool
		checkErr := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE username = ? COLLATE NOCASE)`,
			username,
		).Scan(&exists)
		if checkErr == nil && exists {
			return errUserExists
		}
		return fmt.Errorf("users: insert: %w", err)
	}

	return nil
}

// Authenticate verifies the password for a case-insensitive username
// match, stamps last_login, and returns the profile under the
// account's canonical username.
func (s *UserStore) Authenticate(ctx context.Context, username, password string) (UserProfile, error) {
	var (
		profile UserProfile
		hash    string
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT username, password_hash, created_at, last_login, games_played, wins, losses
		 FROM users WHERE username = ? COLLATE NOCASE`,
		username,
	).Scan(&profile.Username, &hash, &profile.CreatedAt, &profile.LastLogin,
		&profile.GamesPlayed, &profile.Wins, &profile.Losses)
	if errors.Is(err, sql.ErrNoRows) {
		return UserProfile{}, errInvalidCredentials
	}
	if err != nil {
		return UserProfile{}, fmt.Errorf("users: lookup: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return UserProfile{}, errInvalidCredentials
	}

	now := time.Now().Format(time.RFC3339)
	if _, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_login = ? WHERE username = ?`,
		now, profile.Username,
	); err != nil {
		return UserProfile{}, fmt.Errorf("users: stamp login: %w", err)
	}
	profile.LastLogin = &now

	return profile, nil
}

// RecordResult bumps the win/loss counters for a finished game.
func (s *UserStore) RecordResult(ctx context.Context, username string, won bool) error {
	column := "losses"
	if won {
		column = "wins"
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET games_played = games_played + 1, `+column+` = `+column+` + 1
		 WHERE username = ? COLLATE NOCASE`,
		username,
	)
	if err != nil {
		return fmt.Errorf("users: record result: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errUnknownUser
	}

	return nil
}

func (s *UserStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("users: count: %w", err)
	}
	return count, nil
}

// List returns all public profiles, ordered by creation time.
func (s *UserStore) List(ctx context.Context) ([]UserProfile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT username, created_at, last_login, games_played, wins, losses
		 FROM users ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()

	var profiles []UserProfile
	for rows.Next() {
		var p UserProfile
		if err := rows.Scan(&p.Username, &p.CreatedAt, &p.LastLogin,
			&p.GamesPlayed, &p.Wins, &p.Losses); err != nil {
			return nil, fmt.Errorf("users: scan: %w", err)
		}
		profiles = append(profiles, p)
	}

	return profiles, rows.Err()
}
