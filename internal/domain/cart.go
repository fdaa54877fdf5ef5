package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MenuItemRef is the slice of menu-item data captured when an item is added
// to the cart. Prices are denormalized at add-time and not re-fetched.
type MenuItemRef struct {
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	ImageRef  string          `json:"image_ref,omitempty"`
}

// CartLine is one distinct item selection. Quantity is always >= 1; a line
// that would drop to zero is removed instead.
type CartLine struct {
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	ImageRef  string          `json:"image_ref,omitempty"`
	Quantity  int             `json:"quantity"`
}

// Subtotal returns unit price times quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// RestaurantID extracts the restaurant prefix from an item id of the form
// "<restaurantID>-<itemSequence>". Returns "" when the id has no prefix.
func RestaurantID(itemID string) string {
	if i := strings.IndexByte(itemID, '-'); i > 0 {
		return itemID[:i]
	}
	return ""
}

// Cart is the persisted cart state: an ordered collection of lines, unique
// by item id.
type Cart struct {
	Lines     []CartLine `json:"lines"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TotalPrice sums subtotals over all lines. Zero for an empty cart.
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// RestaurantID returns the restaurant prefix of the first line, or "" for an
// empty cart. All lines share one restaurant; mixing is rejected on add.
func (c *Cart) RestaurantID() string {
	if len(c.Lines) == 0 {
		return ""
	}
	return RestaurantID(c.Lines[0].ItemID)
}

// Find returns a pointer to the line with the given item id, or nil.
func (c *Cart) Find(itemID string) *CartLine {
	for i := range c.Lines {
		if c.Lines[i].ItemID == itemID {
			return &c.Lines[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the cart so an in-flight submission is not
// affected by later mutations.
func (c *Cart) Clone() *Cart {
	cp := &Cart{UpdatedAt: c.UpdatedAt}
	if c.Lines != nil {
		cp.Lines = make([]CartLine, len(c.Lines))
		copy(cp.Lines, c.Lines)
	}
	return cp
}
