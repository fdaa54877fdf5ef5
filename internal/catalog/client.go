package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quickbite/cart-engine/internal/domain"
)

// Client fetches restaurants and menus from the storefront backend. Like the
// order endpoints, the catalog endpoints drifted across backend revisions
// (cuisine_type vs cuisine, delivery_time vs deliveryTime, menus vs menu),
// so responses are normalized here into the canonical domain types.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type listEnvelope struct {
	Data []restaurantWire `json:"data"`
}

type itemEnvelope struct {
	Data *restaurantWire `json:"data"`
}

type restaurantWire struct {
	ID            json.Number `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	CuisineSnake  string      `json:"cuisine_type"`
	Cuisine       string      `json:"cuisine"`
	Rating        float64     `json:"rating"`
	DeliverySnake json.Number `json:"delivery_time"`
	DeliveryCamel json.Number `json:"deliveryTime"`
	Image         string      `json:"image"`
	Menus         []menuWire  `json:"menus"`
	Menu          []menuWire  `json:"menu"`
}

type menuWire struct {
	Name  string         `json:"name"`
	Items []menuItemWire `json:"items"`
}

type menuItemWire struct {
	ID          flexID      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
	Image       string      `json:"image"`
}

// flexID absorbs the backend's habit of sending item ids as either numbers
// or "<restaurantID>-<seq>" strings.
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

func (c *Client) ListRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	body, err := c.get(ctx, "/api/restaurants")
	if err != nil {
		return nil, err
	}

	var env listEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("malformed restaurant list: %w", err)
	}

	restaurants := make([]domain.Restaurant, 0, len(env.Data))
	for _, w := range env.Data {
		restaurants = append(restaurants, normalizeRestaurant(w))
	}
	return restaurants, nil
}

func (c *Client) GetRestaurant(ctx context.Context, id string) (*domain.Restaurant, error) {
	body, err := c.get(ctx, "/api/restaurants/"+id)
	if err != nil {
		return nil, err
	}

	var env itemEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("malformed restaurant response: %w", err)
	}
	if env.Data == nil {
		return nil, ErrRestaurantNotFound
	}

	r := normalizeRestaurant(*env.Data)
	return &r, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrRestaurantNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

func normalizeRestaurant(w restaurantWire) domain.Restaurant {
	r := domain.Restaurant{
		ID:          w.ID.String(),
		Name:        w.Name,
		Description: w.Description,
		Cuisine:     w.Cuisine,
		Rating:      w.Rating,
		ImageRef:    w.Image,
	}
	if r.Cuisine == "" {
		r.Cuisine = w.CuisineSnake
	}
	if mins, err := w.DeliveryCamel.Int64(); err == nil {
		r.DeliveryMins = int(mins)
	} else if mins, err := w.DeliverySnake.Int64(); err == nil {
		r.DeliveryMins = int(mins)
	}

	menus := w.Menus
	if len(menus) == 0 {
		menus = w.Menu
	}
	for _, mw := range menus {
		cat := domain.MenuCategory{Name: mw.Name}
		for _, iw := range mw.Items {
			price, err := decimal.NewFromString(iw.Price.String())
			if err != nil {
				price = decimal.Zero
			}
			cat.Items = append(cat.Items, domain.MenuItem{
				ID:          qualifyItemID(r.ID, string(iw.ID)),
				Name:        iw.Name,
				Description: iw.Description,
				Price:       price,
				ImageRef:    iw.Image,
			})
		}
		r.Menu = append(r.Menu, cat)
	}
	return r
}

// qualifyItemID guarantees the "<restaurantID>-<seq>" format the cart keys
// lines by, whichever form the backend sent.
func qualifyItemID(restaurantID, itemID string) string {
	if strings.ContainsRune(itemID, '-') {
		return itemID
	}
	return restaurantID + "-" + itemID
}
