package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/quickbite/cart-engine/internal/domain"
	"github.com/quickbite/cart-engine/internal/engine"
	"github.com/quickbite/cart-engine/internal/orderapi"
)

type CartHandler struct {
	engines *engine.Manager
}

func NewCartHandler(engines *engine.Manager) *CartHandler {
	return &CartHandler{engines: engines}
}

type AddItemRequestDTO struct {
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	ImageRef  string          `json:"image_ref"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CheckoutRequestDTO struct {
	DeliveryAddress string `json:"delivery_address"`
	DeliveryNotes   string `json:"delivery_notes"`
}

type CartLineDTO struct {
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	ImageRef  string          `json:"image_ref,omitempty"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type CartResponseDTO struct {
	Items      []CartLineDTO   `json:"items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

func cartResponse(lines []domain.CartLine) CartResponseDTO {
	resp := CartResponseDTO{Items: make([]CartLineDTO, 0, len(lines)), TotalPrice: decimal.Zero}
	for _, l := range lines {
		resp.Items = append(resp.Items, CartLineDTO{
			ItemID:    l.ItemID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			ImageRef:  l.ImageRef,
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal(),
		})
		resp.TotalPrice = resp.TotalPrice.Add(l.Subtotal())
	}
	return resp
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	eng := h.engines.Get(getSessionID(r.Context()))
	respondJSON(w, http.StatusOK, cartResponse(eng.Lines(r.Context())))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ItemID == "" {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item_id is required")
		return
	}
	if req.UnitPrice.IsNegative() {
		respondError(w, http.StatusBadRequest, "invalid_price", "unit_price must not be negative")
		return
	}

	eng := h.engines.Get(getSessionID(r.Context()))
	err := eng.AddItem(r.Context(), domain.MenuItemRef{
		ItemID:    req.ItemID,
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		ImageRef:  req.ImageRef,
	})
	if errors.Is(err, engine.ErrMixedRestaurant) {
		respondError(w, http.StatusConflict, "mixed_restaurant", "cart holds items from a different restaurant")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondJSON(w, http.StatusCreated, cartResponse(eng.Lines(r.Context())))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "item_id")
	if itemID == "" {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item_id is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at most 99")
		return
	}

	eng := h.engines.Get(getSessionID(r.Context()))
	eng.SetQuantity(r.Context(), itemID, req.Quantity)

	respondJSON(w, http.StatusOK, cartResponse(eng.Lines(r.Context())))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "item_id")
	if itemID == "" {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item_id is required")
		return
	}

	eng := h.engines.Get(getSessionID(r.Context()))
	eng.RemoveItem(r.Context(), itemID)

	respondJSON(w, http.StatusOK, cartResponse(eng.Lines(r.Context())))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	eng := h.engines.Get(getSessionID(r.Context()))
	eng.Clear(r.Context())

	respondJSON(w, http.StatusOK, cartResponse(nil))
}

func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	eng := h.engines.Get(getSessionID(r.Context()))
	order, err := eng.SubmitOrder(r.Context(), req.DeliveryAddress, req.DeliveryNotes)
	if err != nil {
		handleSubmitError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":           order.ID,
		"status":       order.Status,
		"total_amount": order.TotalAmount,
	})
}

func handleSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "cart is empty")
	case errors.Is(err, engine.ErrNoDeliveryAddress):
		respondError(w, http.StatusBadRequest, "missing_address", "delivery address is required")
	case errors.Is(err, engine.ErrNotAuthenticated):
		respondError(w, http.StatusUnauthorized, "unauthenticated", "sign in to place an order")
	case errors.Is(err, engine.ErrSubmitInFlight):
		respondError(w, http.StatusConflict, "submission_in_flight", "an order submission is already in progress")
	default:
		var apiErr *orderapi.APIError
		if errors.As(err, &apiErr) {
			respondError(w, http.StatusBadGateway, "submission_failed", apiErr.Error())
			return
		}
		respondError(w, http.StatusBadGateway, "submission_failed", "order submission failed")
	}
}
