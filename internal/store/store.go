package store

import (
	"context"
	"errors"
)

// PersistentStore is the key-value storage the cart engine writes through to.
// Consumers define this interface, not the backing implementations.
//
// Implementations must treat a missing key as ErrNotFound; callers treat both
// ErrNotFound and corrupt payloads as "empty cart".
type PersistentStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

var ErrNotFound = errors.New("key not found")
