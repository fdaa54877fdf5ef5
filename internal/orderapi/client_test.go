package orderapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickbite/cart-engine/internal/domain"
)

func testSubmission() *domain.OrderSubmission {
	return &domain.OrderSubmission{
		RestaurantID: "1",
		Lines: []domain.CartLine{
			{ItemID: "1-1", Name: "Bruschetta", UnitPrice: decimal.RequireFromString("8.99"), Quantity: 2},
		},
		TotalAmount:     decimal.RequireFromString("17.98"),
		DeliveryAddress: "221B Baker St",
		IdempotencyKey:  "key-1",
	}
}

func TestCreateOrder_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/orders", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "1", body["restaurantId"])
		assert.Equal(t, "221B Baker St", body["deliveryAddress"])
		assert.Equal(t, "key-1", body["idempotencyKey"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success":true,"data":{"id":17,"restaurantId":1,"totalAmount":17.98,"status":"pending"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	order, err := client.CreateOrder(context.Background(), "test-token", testSubmission())
	require.NoError(t, err)
	assert.Equal(t, "17", order.ID)
	assert.Equal(t, "1", order.RestaurantID)
	assert.Equal(t, "pending", order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("17.98")))
}

func TestCreateOrder_SnakeCaseOrderEnvelope(t *testing.T) {
	// An older backend revision wraps the payload in "order" and uses
	// snake_case fields; both must normalize to the same canonical shape.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success":true,"order":{
			"id":17,
			"restaurant_id":1,
			"restaurant_name":"Pasta Palace",
			"total_amount":17.98,
			"delivery_address":"221B Baker St",
			"status":"pending",
			"created_at":"2026-08-01T12:00:00Z",
			"items":[{"item_id":"1-1","name":"Bruschetta","unit_price":8.99,"quantity":2}]
		}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	order, err := client.CreateOrder(context.Background(), "test-token", testSubmission())
	require.NoError(t, err)
	assert.Equal(t, "17", order.ID)
	assert.Equal(t, "1", order.RestaurantID)
	assert.Equal(t, "Pasta Palace", order.RestaurantName)
	assert.Equal(t, "221B Baker St", order.DeliveryAddress)
	assert.Equal(t, 2026, order.CreatedAt.Year())
	require.Len(t, order.Lines, 1)
	assert.Equal(t, "1-1", order.Lines[0].ItemID)
	assert.True(t, order.Lines[0].UnitPrice.Equal(decimal.RequireFromString("8.99")))
}

func TestCreateOrder_StringIDVariant(t *testing.T) {
	// Ids have arrived as strings in some backend revisions and as numbers
	// in others, on both orders and their line items.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success":true,"data":{
			"id":"ORD-1",
			"restaurantId":"1",
			"totalAmount":17.98,
			"status":"pending",
			"items":[{"id":7,"name":"Bruschetta","price":8.99,"quantity":2}]
		}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	order, err := client.CreateOrder(context.Background(), "test-token", testSubmission())
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", order.ID)
	assert.Equal(t, "1", order.RestaurantID)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, "7", order.Lines[0].ItemID)
}

func TestCreateOrder_ServerErrorMessagePassedThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Delivery address is required"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.CreateOrder(context.Background(), "test-token", testSubmission())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "Delivery address is required")
}

func TestCreateOrder_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.CreateOrder(context.Background(), "test-token", testSubmission())
	require.ErrorContains(t, err, "malformed order response")
}

func TestCreateOrder_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"boom"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	for i := 0; i < 5; i++ {
		_, err := client.CreateOrder(context.Background(), "test-token", testSubmission())
		require.Error(t, err)
	}

	_, err := client.CreateOrder(context.Background(), "test-token", testSubmission())
	require.ErrorContains(t, err, "order service unavailable")
	assert.Equal(t, 5, calls, "open breaker must not reach the backend")
}

func TestListOrders_SnakeCaseList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orders", r.URL.Path)
		w.Write([]byte(`{"success":true,"orders":[
			{"id":2,"restaurant_id":1,"total":12.50,"status":"delivered","created_at":"2026-07-01 10:30:00"},
			{"id":1,"restaurant_id":2,"total":9.99,"status":"delivered"}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	orders, err := client.ListOrders(context.Background(), "test-token")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "2", orders[0].ID)
	assert.True(t, orders[0].TotalAmount.Equal(decimal.RequireFromString("12.50")))
	assert.False(t, orders[0].CreatedAt.IsZero())
	assert.True(t, orders[1].CreatedAt.IsZero())
}

func TestGetOrder_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Order not found"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.GetOrder(context.Background(), "test-token", "42")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
