// Package metadata persists small key/value pairs in the local SQLite store.
// The durable login hint is one of them.
package metadata

import (
	"context"
)

// Repository is a flat key/value table. Get returns (nil, nil) for an absent
// key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}
