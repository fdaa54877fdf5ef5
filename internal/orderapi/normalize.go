package orderapi

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quickbite/cart-engine/internal/domain"
)

// The deployed backend drifted across revisions: responses arrive as
// {"data": {...}}, {"order": {...}} or bare objects, with snake_case and
// camelCase field variants of the same data. Everything is mapped into the
// canonical domain.Order here and nowhere else.

type orderEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Order  json.RawMessage `json:"order"`
	Orders json.RawMessage `json:"orders"`
}

type orderWire struct {
	ID                  flexID     `json:"id"`
	RestaurantIDSnake   flexID     `json:"restaurant_id"`
	RestaurantIDCamel   flexID     `json:"restaurantId"`
	RestaurantNameSnake string     `json:"restaurant_name"`
	RestaurantNameCamel string     `json:"restaurantName"`
	Items               []lineWire `json:"items"`
	TotalSnake          json.Number `json:"total_amount"`
	TotalCamel          json.Number `json:"totalAmount"`
	Total               json.Number `json:"total"`
	Status              string      `json:"status"`
	AddressSnake        string      `json:"delivery_address"`
	AddressCamel        string      `json:"deliveryAddress"`
	CreatedAtSnake      string      `json:"created_at"`
	CreatedAtCamel      string      `json:"createdAt"`
}

type lineWire struct {
	ItemID         flexID      `json:"item_id"`
	ID             flexID      `json:"id"`
	Name           string      `json:"name"`
	UnitPriceSnake json.Number `json:"unit_price"`
	Price          json.Number `json:"price"`
	ImageRef       string      `json:"image_ref"`
	Image          string      `json:"image"`
	Quantity       int         `json:"quantity"`
}

var errNoOrderPayload = errors.New("response carries no order payload")

// flexID absorbs ids sent as either JSON numbers or strings; the backend has
// done both.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

func decodeOrder(data []byte) (*domain.Order, error) {
	payload, err := unwrap(data)
	if err != nil {
		return nil, err
	}

	var w orderWire
	if err := json.Unmarshal(payload, &w); err != nil {
		return nil, err
	}
	if w.ID == "" {
		return nil, errNoOrderPayload
	}

	order := normalizeOrder(w)
	return &order, nil
}

func decodeOrderList(data []byte) ([]domain.Order, error) {
	payload, err := unwrap(data)
	if err != nil {
		return nil, err
	}

	var wires []orderWire
	if err := json.Unmarshal(payload, &wires); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(wires))
	for _, w := range wires {
		orders = append(orders, normalizeOrder(w))
	}
	return orders, nil
}

// unwrap peels the response envelope, whichever variant this backend
// revision used.
func unwrap(data []byte) (json.RawMessage, error) {
	var env orderEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		// A bare array is not an object; pass it through untouched.
		return data, nil
	}
	switch {
	case env.Data != nil:
		return env.Data, nil
	case env.Order != nil:
		return env.Order, nil
	case env.Orders != nil:
		return env.Orders, nil
	default:
		return data, nil
	}
}

func normalizeOrder(w orderWire) domain.Order {
	order := domain.Order{
		ID:              string(w.ID),
		RestaurantID:    firstString(string(w.RestaurantIDCamel), string(w.RestaurantIDSnake)),
		RestaurantName:  firstString(w.RestaurantNameCamel, w.RestaurantNameSnake),
		TotalAmount:     firstDecimal(w.TotalCamel, w.TotalSnake, w.Total),
		Status:          w.Status,
		DeliveryAddress: firstString(w.AddressCamel, w.AddressSnake),
		CreatedAt:       parseTimestamp(firstString(w.CreatedAtCamel, w.CreatedAtSnake)),
	}

	for _, lw := range w.Items {
		order.Lines = append(order.Lines, domain.CartLine{
			ItemID:    firstString(string(lw.ItemID), string(lw.ID)),
			Name:      lw.Name,
			UnitPrice: firstDecimal(lw.UnitPriceSnake, lw.Price),
			ImageRef:  firstString(lw.ImageRef, lw.Image),
			Quantity:  lw.Quantity,
		})
	}

	return order
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstDecimal(values ...json.Number) decimal.Decimal {
	for _, v := range values {
		if v.String() == "" {
			continue
		}
		if d, err := decimal.NewFromString(v.String()); err == nil {
			return d
		}
	}
	return decimal.Zero
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
