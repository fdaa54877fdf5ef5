package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quickbite/cart-engine/internal/catalog"
)

type CatalogHandler struct {
	catalog *catalog.Service
}

func NewCatalogHandler(svc *catalog.Service) *CatalogHandler {
	return &CatalogHandler{catalog: svc}
}

func (h *CatalogHandler) ListRestaurants(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.catalog.ListRestaurants(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "catalog_unavailable", "failed to fetch restaurants")
		return
	}
	respondJSON(w, http.StatusOK, restaurants)
}

func (h *CatalogHandler) GetRestaurant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	restaurant, err := h.catalog.GetRestaurant(r.Context(), id)
	if errors.Is(err, catalog.ErrRestaurantNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "restaurant not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusBadGateway, "catalog_unavailable", "failed to fetch restaurant")
		return
	}
	respondJSON(w, http.StatusOK, restaurant)
}
