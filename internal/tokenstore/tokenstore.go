// Package tokenstore persists the single auth token in a small SQLite file
// under the stride home, with an expiry that mirrors a browser cookie.
package tokenstore

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver with database/sql
)

// DefaultTTL is the lifetime of a freshly saved token.
const DefaultTTL = 7 * 24 * time.Hour

// Store wraps a *sql.DB holding at most one token row.
type Store struct {
	db   *sql.DB
	path string
	ttl  time.Duration
	now  func() time.Time
}

// Open opens (or creates) the token database at path. A non-positive ttl
// falls back to DefaultTTL.
func Open(path string, ttl time.Duration) (*Store, error) {
	sqldb, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("tokenstore.Open: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{db: sqldb, path: path, ttl: ttl, now: time.Now}
	if err := s.createSchema(); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("tokenstore.Open createSchema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS auth_token (
		id         INTEGER PRIMARY KEY CHECK (id = 1),
		token      TEXT NOT NULL,
		saved_at   TEXT NOT NULL,
		expires_at TEXT NOT NULL
	)`)
	return err
}

// Save replaces the stored token. The expiry is the configured ttl from now,
// capped by the token's own exp claim when it is a JWT that carries one.
func (s *Store) Save(token string) error {
	now := s.now().UTC()
	expires := now.Add(s.ttl)
	if exp, ok := jwtExpiry(token); ok && exp.Before(expires) {
		expires = exp
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO auth_token (id, token, saved_at, expires_at) VALUES (1, ?, ?, ?)`,
		token, now.Format(time.RFC3339), expires.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("tokenstore.Save: %w", err)
	}
	return nil
}

// Load returns the stored token. An expired token is deleted and reported as
// absent.
func (s *Store) Load() (string, bool, error) {
	var token, expiresAt string
	err := s.db.QueryRow(`SELECT token, expires_at FROM auth_token WHERE id = 1`).Scan(&token, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("tokenstore.Load: %w", err)
	}

	exp, err := time.Parse(time.RFC3339, expiresAt)
	if err != nil || !s.now().Before(exp) {
		slog.Debug("tokenstore: dropping expired token", "expires_at", expiresAt)
		if err := s.Clear(); err != nil {
			return "", false, err
		}
		return "", false, nil
	}
	return token, true, nil
}

// Expiry returns the expiry of the stored token, if any.
func (s *Store) Expiry() (time.Time, bool, error) {
	var expiresAt string
	err := s.db.QueryRow(`SELECT expires_at FROM auth_token WHERE id = 1`).Scan(&expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("tokenstore.Expiry: %w", err)
	}
	exp, err := time.Parse(time.RFC3339, expiresAt)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("tokenstore.Expiry: %w", err)
	}
	return exp, true, nil
}

// Clear removes the stored token.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM auth_token`); err != nil {
		return fmt.Errorf("tokenstore.Clear: %w", err)
	}
	return nil
}

// jwtExpiry reads the exp claim without verifying the signature. The backend
// owns verification; the client only needs to know when to stop sending it.
func jwtExpiry(token string) (time.Time, bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
