package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/quickbite/cart-engine/internal/store"
)

// TokenSource supplies the bearer credential for order-service calls. The
// engine itself never manages authentication; it only fails fast when no
// credential is available.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

var ErrNoToken = errors.New("no auth token available")

// StaticTokenSource returns a fixed token, or ErrNoToken when empty.
type StaticTokenSource string

func (s StaticTokenSource) Token(context.Context) (string, error) {
	if s == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

// StoreTokenSource reads the token from the persistent store, where the
// storefront keeps it alongside the cart.
type StoreTokenSource struct {
	store store.PersistentStore
	key   string
}

func NewStoreTokenSource(s store.PersistentStore, session string) *StoreTokenSource {
	return &StoreTokenSource{
		store: s,
		key:   fmt.Sprintf("auth:%s", session),
	}
}

func (s *StoreTokenSource) Token(ctx context.Context) (string, error) {
	data, err := s.store.Get(ctx, s.key)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("failed to read auth token: %w", err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}
