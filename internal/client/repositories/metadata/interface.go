// Package metadata is a small key/value store over the local SQLite metadata
// table. The session manager keeps the persisted session here.
package metadata

import (
	"context"
)

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// LoadJSON decodes the value stored under key into v and reports whether
	// the key existed.
	LoadJSON(ctx context.Context, key string, v any) (bool, error)
	SaveJSON(ctx context.Context, key string, v any) error
}
