package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quickbite/cart-engine/internal/auth"
	"github.com/quickbite/cart-engine/internal/domain"
	"github.com/quickbite/cart-engine/internal/store"
)

// OrderClient is the order-service collaborator consumed by the engine.
type OrderClient interface {
	CreateOrder(ctx context.Context, token string, sub *domain.OrderSubmission) (*domain.Order, error)
}

// Engine owns the cart state for one shopping session. All mutations run
// under one lock, which also serializes write-through persistence so stored
// state is applied in mutation order. The only suspension point is the
// network call inside SubmitOrder, which runs with the lock released so the
// cart stays responsive while a submission is pending.
type Engine struct {
	mu         sync.Mutex
	store      store.PersistentStore
	key        string
	orders     OrderClient
	tokens     auth.TokenSource
	cart       *domain.Cart
	hydrated   bool
	submitting bool
}

const persistTimeout = 2 * time.Second

func New(st store.PersistentStore, sessionID string, orders OrderClient, tokens auth.TokenSource) *Engine {
	return &Engine{
		store:  st,
		key:    cartKey(sessionID),
		orders: orders,
		tokens: tokens,
		cart:   &domain.Cart{},
	}
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

// Hydrate loads the stored cart. Missing or corrupt data degrades to an
// empty cart; shopping is never blocked by a storage fault. Hydration is
// also triggered lazily by the first operation, so calling this up front is
// optional.
func (e *Engine) Hydrate(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hydrateLocked(ctx)
}

func (e *Engine) hydrateLocked(ctx context.Context) {
	if e.hydrated {
		return
	}
	// Set regardless of outcome: until the initial load has been
	// attempted, nothing may write back and clobber stored state.
	e.hydrated = true

	data, err := e.store.Get(ctx, e.key)
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		log.Printf("cart store read failed, starting empty: %v", err)
		return
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		log.Printf("discarding corrupt stored cart: %v", err)
		return
	}

	e.cart = sanitize(&cart)
}

// sanitize drops lines that violate the cart invariants (quantity < 1 or a
// negative price), which can only come from tampered or stale stored data.
func sanitize(cart *domain.Cart) *domain.Cart {
	lines := cart.Lines[:0]
	for _, l := range cart.Lines {
		if l.Quantity < 1 || l.UnitPrice.IsNegative() || l.ItemID == "" {
			continue
		}
		lines = append(lines, l)
	}
	cart.Lines = lines
	return cart
}

// AddItem puts one unit of the item into the cart. Adding an item that is
// already present increments its quantity instead of inserting a duplicate
// line. Items from a different restaurant than the cart's are rejected.
func (e *Engine) AddItem(ctx context.Context, item domain.MenuItemRef) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hydrateLocked(ctx)

	if len(e.cart.Lines) > 0 && domain.RestaurantID(item.ItemID) != e.cart.RestaurantID() {
		return ErrMixedRestaurant
	}

	if line := e.cart.Find(item.ItemID); line != nil {
		line.Quantity++
	} else {
		e.cart.Lines = append(e.cart.Lines, domain.CartLine{
			ItemID:    item.ItemID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			ImageRef:  item.ImageRef,
			Quantity:  1,
		})
	}

	e.persistLocked()
	return nil
}

// RemoveItem deletes the line with the given item id. Removing an absent
// item is a no-op, not an error.
func (e *Engine) RemoveItem(ctx context.Context, itemID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hydrateLocked(ctx)

	e.removeLocked(itemID)
	e.persistLocked()
}

func (e *Engine) removeLocked(itemID string) {
	for i, l := range e.cart.Lines {
		if l.ItemID == itemID {
			e.cart.Lines = append(e.cart.Lines[:i], e.cart.Lines[i+1:]...)
			return
		}
	}
}

// SetQuantity replaces the line's quantity outright. A quantity of zero or
// less removes the line. Setting quantity on an absent item is a no-op:
// unlike AddItem's delta-increment, this is an absolute set and never
// creates lines.
func (e *Engine) SetQuantity(ctx context.Context, itemID string, quantity int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hydrateLocked(ctx)

	if quantity <= 0 {
		e.removeLocked(itemID)
	} else if line := e.cart.Find(itemID); line != nil {
		line.Quantity = quantity
	}

	e.persistLocked()
}

// Clear empties the cart unconditionally.
func (e *Engine) Clear(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hydrateLocked(ctx)

	e.cart.Lines = nil
	e.persistLocked()
}

// Lines returns a copy of the current cart lines.
func (e *Engine) Lines(ctx context.Context) []domain.CartLine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hydrateLocked(ctx)

	return e.cart.Clone().Lines
}

// TotalPrice returns the exact sum of unit price times quantity over all
// lines; zero for an empty cart.
func (e *Engine) TotalPrice(ctx context.Context) decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hydrateLocked(ctx)

	return e.cart.TotalPrice()
}

// SubmitOrder sends the current cart to the order service. The submission
// carries a snapshot taken at call time; mutations made while the call is in
// flight do not alter what was sent. On success the cart is cleared and the
// recorded order returned. On any failure the cart is left intact for retry;
// the engine itself never retries.
func (e *Engine) SubmitOrder(ctx context.Context, deliveryAddress, deliveryNotes string) (*domain.Order, error) {
	e.mu.Lock()
	e.hydrateLocked(ctx)

	if e.submitting {
		e.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if len(e.cart.Lines) == 0 {
		e.mu.Unlock()
		return nil, ErrEmptyCart
	}
	address := strings.TrimSpace(deliveryAddress)
	if address == "" {
		e.mu.Unlock()
		return nil, ErrNoDeliveryAddress
	}

	snapshot := e.cart.Clone()
	sub := &domain.OrderSubmission{
		RestaurantID:    snapshot.RestaurantID(),
		Lines:           snapshot.Lines,
		TotalAmount:     snapshot.TotalPrice(),
		DeliveryAddress: address,
		DeliveryNotes:   strings.TrimSpace(deliveryNotes),
		IdempotencyKey:  uuid.NewString(),
	}
	e.submitting = true
	e.mu.Unlock()

	order, err := e.submit(ctx, sub)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.submitting = false

	if err != nil {
		return nil, err
	}

	e.cart.Lines = nil
	e.persistLocked()
	return order, nil
}

func (e *Engine) submit(ctx context.Context, sub *domain.OrderSubmission) (*domain.Order, error) {
	token, err := e.tokens.Token(ctx)
	if err != nil {
		if errors.Is(err, auth.ErrNoToken) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}

	order, err := e.orders.CreateOrder(ctx, token, sub)
	if err != nil {
		return nil, fmt.Errorf("order submission failed: %w", err)
	}
	return order, nil
}

// persistLocked writes the cart through to the store. Failures are logged
// and swallowed: storage is inessential to shopping. Must be called with the
// engine lock held, which keeps writes in mutation order.
func (e *Engine) persistLocked() {
	if !e.hydrated {
		return
	}
	e.cart.UpdatedAt = time.Now()

	data, err := json.Marshal(e.cart)
	if err != nil {
		log.Printf("failed to marshal cart for persistence: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := e.store.Set(ctx, e.key, data); err != nil {
		log.Printf("cart persistence degraded: %v", err)
	}
}
