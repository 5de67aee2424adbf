package orderapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zhaowei/shopmate/internal/model/order"
	"github.com/zhaowei/shopmate/internal/retry"
)

// HTTPClient calls the order system over HTTP. Server-side (5xx) and network
// failures are retried under the shared policy; a well-formed 404 is terminal.
type HTTPClient struct {
	base   string
	http   *http.Client
	caller *retry.Caller
}

// HTTPConfig carries the knobs for the order-system endpoint.
type HTTPConfig struct {
	BaseURL        string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
}

// NewHTTPClient builds the retry-wrapped client.
func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClient{
		base: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{Timeout: timeout},
		caller: retry.New(retry.Policy{
			MaxAttempts:    cfg.MaxAttempts,
			InitialBackoff: cfg.InitialBackoff,
			Multiplier:     2,
			Retryable:      retryableTransport,
		}),
	}
}

// transportError marks a failure worth retrying: network trouble or a 5xx.
type transportError struct {
	status int
	cause  error
}

func (e *transportError) Error() string {
	if e.cause != nil {
		return e.cause.Error()
	}
	return fmt.Sprintf("server error %d", e.status)
}

func (e *transportError) Unwrap() error { return e.cause }

func retryableTransport(err error) bool {
	_, ok := err.(*transportError)
	return ok
}

// request performs one retry-governed round trip and hands back the status
// plus body. A 404 is returned to the caller, not retried.
func (c *HTTPClient) request(ctx context.Context, method, path string) (int, []byte, error) {
	var status int
	var body []byte
	err := c.caller.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, nil)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return &transportError{cause: err}
		}
		defer resp.Body.Close()
		if resp.StatusCode >= http.StatusInternalServerError {
			return &transportError{status: resp.StatusCode}
		}
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return &transportError{cause: err}
		}
		status = resp.StatusCode
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return status, body, nil
}

func (c *HTTPClient) GetOrder(ctx context.Context, orderID string) (*order.Record, error) {
	status, body, err := c.request(ctx, http.MethodGet, "/orders/"+orderID)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	if status == http.StatusNotFound {
		return nil, nil
	}

	var payload struct {
		OrderID  string `json:"orderId"`
		PlacedAt string `json:"placed_at"`
		Status   string `json:"status"`
		ETA      string `json:"eta"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode order %s: %w", orderID, err)
	}
	placedAt, err := parseTimestamp(payload.PlacedAt)
	if err != nil {
		return nil, fmt.Errorf("order %s placed_at: %w", orderID, err)
	}
	return &order.Record{
		OrderID:  payload.OrderID,
		PlacedAt: placedAt,
		Status:   payload.Status,
		ETA:      payload.ETA,
	}, nil
}

func (c *HTTPClient) CancelOrder(ctx context.Context, orderID string) (order.CancelOutcome, error) {
	status, body, err := c.request(ctx, http.MethodPost, "/orders/"+orderID+"/cancel")
	if err != nil {
		return order.CancelOutcome{}, fmt.Errorf("cancel order %s: %w", orderID, err)
	}

	var payload struct {
		Status   string `json:"status"`
		Refunded bool   `json:"refunded"`
		Reason   string `json:"reason"`
	}
	if status == http.StatusNotFound {
		// Body is optional on a 404; keep the reason when one is given.
		_ = json.Unmarshal(body, &payload)
		return order.CancelOutcome{Kind: order.CancelNotFound, Reason: payload.Reason}, nil
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return order.CancelOutcome{}, fmt.Errorf("decode cancel result %s: %w", orderID, err)
	}
	switch payload.Status {
	case "cancelled":
		return order.CancelOutcome{Kind: order.CancelSuccess, Refunded: payload.Refunded}, nil
	case "ineligible", "too_late":
		reason := payload.Reason
		if reason == "" {
			reason = "> 24h window"
		}
		return order.CancelOutcome{Kind: order.CancelIneligible, Reason: reason}, nil
	default:
		return order.CancelOutcome{Kind: order.CancelTransient, Reason: "unexpected status " + payload.Status}, nil
	}
}

func (c *HTTPClient) TrackOrder(ctx context.Context, orderID string) (order.Tracking, bool, error) {
	status, body, err := c.request(ctx, http.MethodGet, "/orders/"+orderID+"/track")
	if err != nil {
		return order.Tracking{}, false, fmt.Errorf("track order %s: %w", orderID, err)
	}
	if status == http.StatusNotFound {
		return order.Tracking{}, false, nil
	}

	var tracking order.Tracking
	if err := json.Unmarshal(body, &tracking); err != nil {
		return order.Tracking{}, false, fmt.Errorf("decode tracking %s: %w", orderID, err)
	}
	if tracking.Status == "not_found" {
		return order.Tracking{}, false, nil
	}
	return tracking, true, nil
}

// parseTimestamp accepts RFC3339 with or without an offset; the order system
// stores UTC either way.
func parseTimestamp(raw string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.UTC(), nil
	}
	ts, err := time.Parse("2006-01-02T15:04:05", raw)
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}
