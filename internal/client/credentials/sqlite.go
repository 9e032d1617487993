package credentials

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/folio/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/folio/internal/common"
	"github.com/dmitrijs2005/folio/internal/cryptox"
	"github.com/dmitrijs2005/folio/internal/dbx"
)

// SQLiteStore persists the token in the metadata table under
// common.AccessTokenKey. When a secret is configured the value is sealed
// with cryptox before it is written.
type SQLiteStore struct {
	db     *sql.DB
	secret []byte
}

// Option customises a SQLiteStore.
type Option func(*SQLiteStore)

// WithSecret seals the stored token with a key derived from secret.
// An empty secret leaves the token in clear text.
func WithSecret(secret string) Option {
	return func(s *SQLiteStore) {
		if secret != "" {
			s.secret = []byte(secret)
		}
	}
}

func NewSQLiteStore(db *sql.DB, opts ...Option) *SQLiteStore {
	s := &SQLiteStore{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the stored token. A value that cannot be unsealed (wrong
// secret, tampering, legacy clear-text) is discarded and reported as absent.
func (s *SQLiteStore) Get(ctx context.Context) (string, error) {
	repo := metadata.NewSQLiteRepository(s.db)

	raw, err := repo.Get(ctx, common.AccessTokenKey)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	if len(raw) == 0 {
		return "", nil
	}
	if s.secret == nil {
		return string(raw), nil
	}

	plain, err := cryptox.Open(s.secret, raw)
	if err != nil {
		if derr := repo.Delete(ctx, common.AccessTokenKey); derr != nil {
			return "", fmt.Errorf("discard unreadable token: %w", derr)
		}
		return "", nil
	}
	return string(plain), nil
}

// Set stores token and prunes every other metadata key in the same
// transaction, so the token stays the only persisted item.
func (s *SQLiteStore) Set(ctx context.Context, token string) error {
	value := []byte(token)
	if s.secret != nil {
		sealed, err := cryptox.Seal(s.secret, value)
		if err != nil {
			return fmt.Errorf("seal token: %w", err)
		}
		value = sealed
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, common.AccessTokenKey, value); err != nil {
			return err
		}
		return repo.DeleteExcept(ctx, common.AccessTokenKey)
	})
}

// Clear removes the token. Clearing an empty store is not an error.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if err := metadata.NewSQLiteRepository(s.db).Delete(ctx, common.AccessTokenKey); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}
