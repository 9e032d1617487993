// Package metadata persists small client-side key/value items in the local
// sqlite database. The session layer keeps exactly one item here: the bearer
// token.
package metadata

import (
	"context"
)

// Repository is a key/value store over the metadata table.
// Get returns (nil, nil) when the key does not exist.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	DeleteExcept(ctx context.Context, keep ...string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
