package orderapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zhaowei/shopmate/internal/model/order"
	"github.com/zhaowei/shopmate/internal/retry"
)

func newClientFor(t *testing.T, handler http.Handler) (*HTTPClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewHTTPClient(HTTPConfig{
		BaseURL:        srv.URL,
		Timeout:        2 * time.Second,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
	})
	return client, srv
}

func TestGetOrderDecodesRecord(t *testing.T) {
	client, _ := newClientFor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders/ORD-4567" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"orderId":"ORD-4567","placed_at":"2026-03-01T06:00:00","status":"processing","eta":"2026-03-03"}`))
	}))

	rec, err := client.GetOrder(context.Background(), "ORD-4567")
	if err != nil {
		t.Fatalf("GetOrder err: %v", err)
	}
	if rec == nil || rec.OrderID != "ORD-4567" || rec.Status != "processing" {
		t.Fatalf("unexpected record %+v", rec)
	}
	want := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	if !rec.PlacedAt.Equal(want) {
		t.Fatalf("placed_at: got %v want %v", rec.PlacedAt, want)
	}
}

func TestGetOrderNotFoundIsAbsenceNotError(t *testing.T) {
	client, _ := newClientFor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	rec, err := client.GetOrder(context.Background(), "ORD-9999")
	if err != nil {
		t.Fatalf("404 must be terminal absence, got err %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil record, got %+v", rec)
	}
}

func TestGetOrderRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client, _ := newClientFor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"orderId":"ORD-4567","placed_at":"2026-03-01T06:00:00","status":"processing","eta":"2026-03-03"}`))
	}))

	rec, err := client.GetOrder(context.Background(), "ORD-4567")
	if err != nil {
		t.Fatalf("GetOrder err: %v", err)
	}
	if rec == nil {
		t.Fatal("expected record after retries")
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestGetOrderExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	client, _ := newClientFor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := client.GetOrder(context.Background(), "ORD-4567")
	if !retry.IsExhausted(err) {
		t.Fatalf("expected exhausted error, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", got)
	}
}

func TestCancelOrderMapsStatuses(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   order.CancelKind
	}{
		{"cancelled", http.StatusOK, `{"status":"cancelled","refunded":true}`, order.CancelSuccess},
		{"ineligible", http.StatusOK, `{"status":"ineligible","reason":"> 24h window"}`, order.CancelIneligible},
		{"too_late alias", http.StatusOK, `{"status":"too_late"}`, order.CancelIneligible},
		{"not found", http.StatusNotFound, `{"status":"not_found","reason":"order not found"}`, order.CancelNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newClientFor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("expected POST, got %s", r.Method)
				}
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))

			outcome, err := client.CancelOrder(context.Background(), "ORD-4567")
			if err != nil {
				t.Fatalf("CancelOrder err: %v", err)
			}
			if outcome.Kind != tc.want {
				t.Fatalf("kind: got %s want %s", outcome.Kind, tc.want)
			}
		})
	}
}

func TestCancelOrderNotFoundWithEmptyBody(t *testing.T) {
	client, _ := newClientFor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	outcome, err := client.CancelOrder(context.Background(), "ORD-9999")
	if err != nil {
		t.Fatalf("bodyless 404 must map to not_found, got err %v", err)
	}
	if outcome.Kind != order.CancelNotFound {
		t.Fatalf("kind: got %s want %s", outcome.Kind, order.CancelNotFound)
	}
}

func TestTrackOrderNotFound(t *testing.T) {
	client, _ := newClientFor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, found, err := client.TrackOrder(context.Background(), "ORD-9999")
	if err != nil {
		t.Fatalf("TrackOrder err: %v", err)
	}
	if found {
		t.Fatal("expected found=false")
	}
}
