package session

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestOpen_AppliesMigrations(t *testing.T) {
	s := openStore(t)

	require.True(t, tableExists(t, s.db, "sessions"))
	require.True(t, tableExists(t, s.db, "goose_db_version"))
}

func TestRunMigrations_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(ctx, db))
	require.NoError(t, RunMigrations(ctx, db))
	require.True(t, tableExists(t, db, "sessions"))
}

func TestRunMigrations_UpError(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	boom := errors.New("boom")
	var gotDir string
	gooseUpContext = func(_ context.Context, _ *sql.DB, dir string, _ ...goose.OptionsFunc) error {
		gotDir = dir
		return boom
	}

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	defer db.Close()

	err = RunMigrations(context.Background(), db)
	require.ErrorIs(t, err, boom)
	require.Equal(t, ".", gotDir)
	require.False(t, tableExists(t, db, "sessions"))
}

func TestGetSession_SignedOutReturnsNil(t *testing.T) {
	s := openStore(t)

	sess, err := s.GetSession(context.Background())
	require.NoError(t, err)
	require.Nil(t, sess)
}

func TestSaveSession_ThenGet(t *testing.T) {
	s := openStore(t)
	s.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	ctx := context.Background()

	exp := time.Unix(1_700_003_600, 0)
	require.NoError(t, s.SaveSession(ctx, &Session{
		AccessToken:  "A1",
		RefreshToken: "R1",
		UserID:       "user-1",
		ExpiresAt:    exp,
	}))

	got, err := s.GetSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "A1", got.AccessToken)
	require.Equal(t, "R1", got.RefreshToken)
	require.Equal(t, "user-1", got.UserID)
	require.True(t, got.ExpiresAt.Equal(exp))
	require.True(t, got.UpdatedAt.Equal(time.Unix(1_700_000_000, 0)))
}

func TestSaveSession_ReplacesPrevious(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSession(ctx, &Session{AccessToken: "A1"}))
	require.NoError(t, s.SaveSession(ctx, &Session{AccessToken: "A2"}))

	got, err := s.GetSession(ctx)
	require.NoError(t, err)
	require.Equal(t, "A2", got.AccessToken)
	require.True(t, got.ExpiresAt.IsZero())

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&n))
	require.Equal(t, 1, n)
}

func TestSaveSession_RejectsEmptyToken(t *testing.T) {
	s := openStore(t)

	require.Error(t, s.SaveSession(context.Background(), &Session{}))
	require.Error(t, s.SaveSession(context.Background(), nil))
}

func TestClear_RemovesSession(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSession(ctx, &Session{AccessToken: "A1"}))
	require.NoError(t, s.Clear(ctx))

	got, err := s.GetSession(ctx)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestGetSession_ClosedDBReturnsError(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.db.Close())

	_, err := s.GetSession(context.Background())
	require.Error(t, err)
}
