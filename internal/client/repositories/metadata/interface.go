// Package metadata stores the CLI's small key/value state (the cached
// session token and the email it belongs to) in the local sqlite file.
package metadata

import (
	"context"
)

// Keys used by the CLI.
const (
	KeySessionToken = "session_token"
	KeyEmail        = "email"
)

type Repository interface {
	// Get returns the value for key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
