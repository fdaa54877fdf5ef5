package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/quickbite/cart-engine/internal/domain"
)

// Client talks to the order service over the storefront's REST conventions.
// All calls carry a bearer credential and run behind a circuit breaker so a
// dead backend fails fast instead of tying up submissions.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
}

// APIError is a non-2xx response from the order service, with the server's
// message when one was present in the body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("order service returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("order service returned %d", e.StatusCode)
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	settings := gobreaker.Settings{
		Name:    "order-service",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: gobreaker.NewCircuitBreaker[*http.Response](settings),
	}
}

// CreateOrder submits a finalized cart snapshot. The response is normalized
// into the canonical Order shape before it leaves this package.
func (c *Client) CreateOrder(ctx context.Context, token string, sub *domain.OrderSubmission) (*domain.Order, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	data, err := c.do(req)
	if err != nil {
		return nil, err
	}

	order, err := decodeOrder(data)
	if err != nil {
		return nil, fmt.Errorf("malformed order response: %w", err)
	}
	return order, nil
}

// ListOrders returns the acting user's order history, newest first.
func (c *Client) ListOrders(ctx context.Context, token string) ([]domain.Order, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/orders", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	data, err := c.do(req)
	if err != nil {
		return nil, err
	}

	orders, err := decodeOrderList(data)
	if err != nil {
		return nil, fmt.Errorf("malformed order list response: %w", err)
	}
	return orders, nil
}

// GetOrder fetches a single recorded order by id.
func (c *Client) GetOrder(ctx context.Context, token, orderID string) (*domain.Order, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/orders/"+orderID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	data, err := c.do(req)
	if err != nil {
		return nil, err
	}

	order, err := decodeOrder(data)
	if err != nil {
		return nil, fmt.Errorf("malformed order response: %w", err)
	}
	return order, nil
}

// do runs the request through the breaker and reads the body. Non-2xx
// responses become *APIError; they also count as breaker failures.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		r, errDo := c.httpClient.Do(req)
		if errDo != nil {
			return nil, errDo
		}
		if r.StatusCode >= 500 {
			// Drain so the breaker sees server faults but the
			// connection can be reused.
			body, _ := io.ReadAll(io.LimitReader(r.Body, 1<<16))
			r.Body.Close()
			return nil, &APIError{StatusCode: r.StatusCode, Message: errorMessage(body)}
		}
		return r, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("order service unavailable: %w", err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	return body, nil
}

// errorMessage pulls the human-readable cause out of an error body. The
// backend has used both {"error": ...} and {"message": ...}.
func errorMessage(body []byte) string {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}
