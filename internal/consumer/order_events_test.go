package consumer

import (
	"context"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/quickbite/cart-engine/internal/store"
)

func TestHandle_ClearsCartForSession(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	assert.NilError(t, st.Set(ctx, "cart:sess-1", []byte("payload")))
	assert.NilError(t, st.Set(ctx, "cart:sess-2", []byte("other")))

	c := &OrderEventsConsumer{store: st}
	err := c.handle(ctx, []byte(`{"session_id":"sess-1","order_id":"ORD-1"}`))
	assert.NilError(t, err)

	_, err = st.Get(ctx, "cart:sess-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Other sessions untouched.
	_, err = st.Get(ctx, "cart:sess-2")
	assert.NilError(t, err)
}

func TestHandle_MalformedPayload(t *testing.T) {
	c := &OrderEventsConsumer{store: store.NewMemoryStore()}

	err := c.handle(context.Background(), []byte("{not json"))
	assert.ErrorContains(t, err, "malformed order event")
}

func TestHandle_MissingSessionID(t *testing.T) {
	c := &OrderEventsConsumer{store: store.NewMemoryStore()}

	err := c.handle(context.Background(), []byte(`{"order_id":"ORD-1"}`))
	assert.ErrorContains(t, err, "missing session_id")
}
