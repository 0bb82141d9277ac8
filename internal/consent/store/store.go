// Package store persists the single consent blob per visitor.
//
// Stores are pure I/O: they move opaque bytes under a key and report
// sentinel.ErrNotFound when nothing was written yet. Decoding and the
// "malformed means absent" policy live in the service.
package store

import (
	"context"
)

// PreferenceStore is the key-value surface the consent service depends on.
type PreferenceStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, blob []byte) error
	Health(ctx context.Context) error
}
