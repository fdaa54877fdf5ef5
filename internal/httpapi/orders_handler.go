package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quickbite/cart-engine/internal/auth"
	"github.com/quickbite/cart-engine/internal/domain"
	"github.com/quickbite/cart-engine/internal/orderapi"
	"github.com/quickbite/cart-engine/internal/store"
)

// OrderHistory is the slice of the order-service client the handler needs.
type OrderHistory interface {
	ListOrders(ctx context.Context, token string) ([]domain.Order, error)
	GetOrder(ctx context.Context, token, orderID string) (*domain.Order, error)
}

type OrdersHandler struct {
	orders OrderHistory
	store  store.PersistentStore
}

func NewOrdersHandler(orders OrderHistory, st store.PersistentStore) *OrdersHandler {
	return &OrdersHandler{orders: orders, store: st}
}

func (h *OrdersHandler) token(r *http.Request) (string, bool) {
	src := auth.NewStoreTokenSource(h.store, getSessionID(r.Context()))
	token, err := src.Token(r.Context())
	if err != nil {
		return "", false
	}
	return token, true
}

func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	token, ok := h.token(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "sign in to view orders")
		return
	}

	orders, err := h.orders.ListOrders(r.Context(), token)
	if err != nil {
		handleOrderServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	token, ok := h.token(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "sign in to view orders")
		return
	}

	order, err := h.orders.GetOrder(r.Context(), token, chi.URLParam(r, "id"))
	if err != nil {
		handleOrderServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func handleOrderServiceError(w http.ResponseWriter, err error) {
	var apiErr *orderapi.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusNotFound:
			respondError(w, http.StatusNotFound, "not_found", "order not found")
		case http.StatusUnauthorized:
			respondError(w, http.StatusUnauthorized, "unauthenticated", "credential rejected by order service")
		default:
			respondError(w, http.StatusBadGateway, "order_service_error", apiErr.Error())
		}
		return
	}
	respondError(w, http.StatusBadGateway, "order_service_error", "order service unavailable")
}
