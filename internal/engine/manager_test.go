package engine

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickbite/cart-engine/internal/domain"
	"github.com/quickbite/cart-engine/internal/store"
)

func TestManager_SameSessionSameEngine(t *testing.T) {
	m := NewManager(store.NewMemoryStore(), &mockOrderClient{})

	assert.Same(t, m.Get("sess-1"), m.Get("sess-1"))
	assert.NotSame(t, m.Get("sess-1"), m.Get("sess-2"))
}

func TestManager_EvictedEngineRehydratesFromStore(t *testing.T) {
	m := NewManager(store.NewMemoryStore(), &mockOrderClient{})
	ctx := context.Background()

	eng := m.Get("sess-1")
	require.NoError(t, eng.AddItem(ctx, domain.MenuItemRef{
		ItemID:    "1-1",
		Name:      "Bruschetta",
		UnitPrice: decimal.RequireFromString("8.99"),
	}))

	m.Evict("sess-1")

	fresh := m.Get("sess-1")
	assert.NotSame(t, eng, fresh)
	lines := fresh.Lines(ctx)
	require.Len(t, lines, 1)
	assert.Equal(t, "1-1", lines[0].ItemID)
}
