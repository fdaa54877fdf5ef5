package engine

import "errors"

var (
	// ErrEmptyCart and ErrNoDeliveryAddress are validation failures caught
	// before any network call.
	ErrEmptyCart         = errors.New("cart is empty, nothing to submit")
	ErrNoDeliveryAddress = errors.New("delivery address is required")

	// ErrNotAuthenticated means no bearer credential was available; the
	// order service is never contacted.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrSubmitInFlight rejects a second submission while one is pending,
	// so a slow network cannot produce duplicate orders.
	ErrSubmitInFlight = errors.New("an order submission is already in flight")

	// ErrMixedRestaurant enforces the single-restaurant-cart invariant on
	// AddItem.
	ErrMixedRestaurant = errors.New("cart holds items from a different restaurant")
)
