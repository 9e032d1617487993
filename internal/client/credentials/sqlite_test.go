package credentials

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/folio/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/folio/internal/common"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE metadata (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func TestSQLiteStore_EmptyReturnsBlank(t *testing.T) {
	s := NewSQLiteStore(setupDB(t))

	tok, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestSQLiteStore_SetGetClear(t *testing.T) {
	s := NewSQLiteStore(setupDB(t))
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "tok-1"))
	tok, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	require.NoError(t, s.Set(ctx, "tok-2"))
	tok, err = s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx), "clearing twice is fine")
	tok, err = s.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestSQLiteStore_SetKeepsTokenTheOnlyItem(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := metadata.NewSQLiteRepository(db)
	require.NoError(t, repo.Set(ctx, "username", []byte("legacy")))

	require.NoError(t, NewSQLiteStore(db).Set(ctx, "tok"))

	m, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{common.AccessTokenKey: []byte("tok")}, m)
}

func TestSQLiteStore_SealedAtRest(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	s := NewSQLiteStore(db, WithSecret("device-secret"))

	require.NoError(t, s.Set(ctx, "tok-sealed"))

	raw, err := metadata.NewSQLiteRepository(db).Get(ctx, common.AccessTokenKey)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "tok-sealed")

	tok, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-sealed", tok)
}

func TestSQLiteStore_UnreadableTokenIsDiscarded(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	require.NoError(t, NewSQLiteStore(db, WithSecret("old-secret")).Set(ctx, "tok"))

	s := NewSQLiteStore(db, WithSecret("new-secret"))
	tok, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)

	raw, err := metadata.NewSQLiteRepository(db).Get(ctx, common.AccessTokenKey)
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestSQLiteStore_DBErrors(t *testing.T) {
	db := setupDB(t)
	s := NewSQLiteStore(db)
	ctx := context.Background()
	require.NoError(t, db.Close())

	_, err := s.Get(ctx)
	require.ErrorContains(t, err, "read token")
	require.Error(t, s.Set(ctx, "x"))
	require.ErrorContains(t, s.Clear(ctx), "clear token")
}

func TestMemoryStore(t *testing.T) {
	var s Store = NewMemoryStore()
	ctx := context.Background()

	tok, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, s.Set(ctx, "abc"))
	tok, _ = s.Get(ctx)
	assert.Equal(t, "abc", tok)

	require.NoError(t, s.Clear(ctx))
	tok, _ = s.Get(ctx)
	assert.Empty(t, tok)
}
