// Package session keeps per-player state between requests.
package session

import (
	"context"

	"github.com/google/uuid"
)

// Store persists values of T by session ID. Implementations must be safe
// for concurrent use.
type Store[T any] interface {
	Get(ctx context.Context, id string) (T, bool, error)
	Put(ctx context.Context, id string, v T) error
	Delete(ctx context.Context, id string) error
	NewID() string
}

func newID() string {
	return uuid.NewString()
}
