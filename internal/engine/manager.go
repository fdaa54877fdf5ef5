package engine

import (
	"sync"

	"github.com/quickbite/cart-engine/internal/auth"
	"github.com/quickbite/cart-engine/internal/store"
)

// Manager hands out one Engine per shopping session, created lazily. Each
// session has exactly one writer for its stored cart; no cross-instance
// locking is needed.
type Manager struct {
	mu      sync.Mutex
	store   store.PersistentStore
	orders  OrderClient
	engines map[string]*Engine
}

func NewManager(st store.PersistentStore, orders OrderClient) *Manager {
	return &Manager{
		store:   st,
		orders:  orders,
		engines: make(map[string]*Engine),
	}
}

// Get returns the engine for the session, creating it on first use. The
// session's bearer credential is read from the same store the storefront
// writes it to.
func (m *Manager) Get(sessionID string) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.engines[sessionID]; ok {
		return e
	}

	e := New(m.store, sessionID, m.orders, auth.NewStoreTokenSource(m.store, sessionID))
	m.engines[sessionID] = e
	return e
}

// Evict drops the cached engine for a session. The stored cart is untouched;
// a later Get re-hydrates from it.
func (m *Manager) Evict(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.engines, sessionID)
}
