// Package session persists the auth session of the client in a local SQLite
// database. The transfer pipeline only reads it; the CLI login and logout
// commands write it.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mediaxfer/internal/client/migrations"
	"github.com/dmitrijs2005/mediaxfer/internal/dbx"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// Store is the SQLite-backed session store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and applies them
// to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Open opens (creating if needed) the session database at dsn and migrates it.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return NewStore(db), nil
}

// NewStore wraps an already migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// GetSession returns the stored session, or nil when signed out.
func (s *Store) GetSession(ctx context.Context) (*Session, error) {
	var (
		sess      Session
		expiresAt int64
		updatedAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT access_token, refresh_token, user_id, expires_at, updated_at
		FROM sessions WHERE id = 1
	`).Scan(&sess.AccessToken, &sess.RefreshToken, &sess.UserID, &expiresAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if expiresAt > 0 {
		sess.ExpiresAt = time.Unix(expiresAt, 0)
	}
	sess.UpdatedAt = time.Unix(updatedAt, 0)
	return &sess, nil
}

// SaveSession replaces the stored session.
func (s *Store) SaveSession(ctx context.Context, sess *Session) error {
	if sess == nil || sess.AccessToken == "" {
		return errors.New("session without access token")
	}

	var expiresAt int64
	if !sess.ExpiresAt.IsZero() {
		expiresAt = sess.ExpiresAt.Unix()
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
			return fmt.Errorf("failed to drop previous session: %w", err)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sessions (id, access_token, refresh_token, user_id, expires_at, updated_at)
			VALUES (1, ?, ?, ?, ?, ?)
		`, sess.AccessToken, sess.RefreshToken, sess.UserID, expiresAt, s.now().Unix())
		if err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return nil
	})
}

// Clear removes the stored session (logout).
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
