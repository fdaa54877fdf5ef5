package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/segmentio/kafka-go"

	"github.com/quickbite/cart-engine/internal/store"
)

// OrderEventsConsumer drops the persisted cart for a session once the
// backend records its order. This covers the multi-device case: an order
// placed from one device clears the cart every other device would hydrate.
type OrderEventsConsumer struct {
	store  store.PersistentStore
	reader *kafka.Reader
}

func New(st store.PersistentStore, brokers ...string) *OrderEventsConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "order-events",
		GroupID:  "cart-engine-consumer",
		MaxBytes: 10e6, // 10MB
	})
	return &OrderEventsConsumer{store: st, reader: reader}
}

func (c *OrderEventsConsumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("error reading order event: %v", err)
			}
			continue
		}

		if err := c.handle(ctx, m.Value); err != nil {
			log.Printf("failed to handle order event: %v", err)
		}
	}
}

func (c *OrderEventsConsumer) Close() {
	if err := c.reader.Close(); err != nil {
		log.Printf("error closing order events reader: %v", err)
	}
}

func (c *OrderEventsConsumer) handle(ctx context.Context, value []byte) error {
	var payload struct {
		SessionID string `json:"session_id"`
		OrderID   string `json:"order_id"`
	}
	if err := json.Unmarshal(value, &payload); err != nil {
		return fmt.Errorf("malformed order event: %w", err)
	}
	if payload.SessionID == "" {
		return errors.New("order event missing session_id")
	}

	key := fmt.Sprintf("cart:%s", payload.SessionID)
	if err := c.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete cart for session %s: %w", payload.SessionID, err)
	}

	log.Printf("cleared cart for session %s (order %s)", payload.SessionID, payload.OrderID)
	return nil
}
