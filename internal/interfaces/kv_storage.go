package interfaces

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned when a key is not found in the key/value store
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStorage defines operations for generic key/value storage.
// Holds API keys and operational values referenced from config via the
// {key-name} replacement syntax.
type KeyValueStorage interface {
	// Get retrieves a value by key, returns ErrKeyNotFound if not found
	Get(ctx context.Context, key string) (string, error)

	// Set inserts or updates a key/value pair with optional description
	Set(ctx context.Context, key string, value string, description string) error

	// Upsert inserts or updates a key/value pair.
	// Returns true if a new key was created, false if an existing key was updated
	Upsert(ctx context.Context, key string, value string, description string) (bool, error)

	// GetAll returns all key/value pairs as a map (used for config replacement)
	GetAll(ctx context.Context) (map[string]string, error)
}
