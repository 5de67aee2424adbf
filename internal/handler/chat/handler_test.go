package chat

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/zhaowei/shopmate/internal/agent"
	"github.com/zhaowei/shopmate/internal/kb"
	"github.com/zhaowei/shopmate/internal/metrics"
	chatmodel "github.com/zhaowei/shopmate/internal/model/chat"
	"github.com/zhaowei/shopmate/internal/orderapi"
	"github.com/zhaowei/shopmate/internal/orders"
	"github.com/zhaowei/shopmate/internal/resolve"
	"github.com/zhaowei/shopmate/internal/routing"
	"github.com/zhaowei/shopmate/internal/session"
	chatservice "github.com/zhaowei/shopmate/internal/service/chat"
)

func setupRouter() (*chi.Mux, *metrics.Metrics) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	client := orderapi.NewLocalClient(clock)
	orchestrator := agent.New(
		routing.NewKeywordStrategy(),
		resolve.New(nil, 0.6),
		orders.New(client, clock),
		kb.NewJSONLookup(""),
	)
	manager := session.NewManager(session.NewMemoryStore())
	svc := chatservice.NewService(manager, orchestrator)
	stats := metrics.New()

	r := chi.NewRouter()
	New(svc, stats).RegisterRoutes(r)
	return r, stats
}

func postTurn(t *testing.T, r http.Handler, sessionKey, message string) (*httptest.ResponseRecorder, chatmodel.Response) {
	t.Helper()
	payload, _ := json.Marshal(chatmodel.Request{SessionKey: sessionKey, Message: message})
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	var out chatmodel.Response
	if resp.Code == http.StatusOK {
		if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp, out
}

func TestTurnEndpointTracksOrder(t *testing.T) {
	r, stats := setupRouter()

	resp, out := postTurn(t, r, "sess-1", "Track ORD-1234")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if out.Agent != "OrderTrackingAgent" {
		t.Fatalf("agent: got %s", out.Agent)
	}
	if !strings.Contains(out.Response, "ORD-1234") {
		t.Fatalf("response missing order id: %q", out.Response)
	}
	if len(out.ToolCalls) == 0 {
		t.Fatal("expected a decision trace")
	}
	if out.ToolCalls[0].Tool != "Router" {
		t.Fatalf("trace must start with the router record, got %s", out.ToolCalls[0].Tool)
	}

	got := testutil.ToFloat64(stats.Requests.WithLabelValues("OrderTrackingAgent", "200"))
	if got != 1 {
		t.Fatalf("request counter: got %v want 1", got)
	}
}

func TestMetricsExposeCounterAndLatency(t *testing.T) {
	r, stats := setupRouter()
	postTurn(t, r, "sess-m", "Track ORD-1234")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	stats.Handler().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, `chat_requests_total{agent="OrderTrackingAgent",status="200"} 1`) {
		t.Fatalf("missing request counter in exposition:\n%s", body)
	}
	if !strings.Contains(body, "chat_request_seconds_count 1") {
		t.Fatalf("missing latency observation in exposition:\n%s", body)
	}
}

func TestTurnEndpointInvalidBody(t *testing.T) {
	r, _ := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("{not json"))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestTurnEndpointMissingMessage(t *testing.T) {
	r, _ := setupRouter()

	resp, _ := postTurn(t, r, "sess-2", "   ")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestHistoryEndpointReturnsBothSides(t *testing.T) {
	r, _ := setupRouter()
	postTurn(t, r, "sess-3", "Track ORD-1234")

	req := httptest.NewRequest(http.MethodGet, "/chat/history/sess-3", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var out struct {
		SessionKey string           `json:"sessionKey"`
		History    []chatmodel.Turn `json:"history"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(out.History) != 2 {
		t.Fatalf("expected user+assistant turns, got %d", len(out.History))
	}
	if out.History[0].Role != chatmodel.RoleUser || out.History[1].Role != chatmodel.RoleAssistant {
		t.Fatalf("unexpected roles: %+v", out.History)
	}
}

func TestStreamEndpointReplaysTrace(t *testing.T) {
	r, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/chat/stream/sess-4?message=Track+ORD-1234", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	body := resp.Body.String()
	if !strings.Contains(body, "event: toolCall") {
		t.Fatalf("expected toolCall events, got %q", body)
	}
	if !strings.Contains(body, "event: response") || !strings.Contains(body, "event: done") {
		t.Fatalf("expected response and done events, got %q", body)
	}
}

func TestStreamEndpointRequiresMessage(t *testing.T) {
	r, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/chat/stream/sess-5", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
