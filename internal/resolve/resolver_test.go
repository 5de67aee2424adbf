package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/zhaowei/shopmate/internal/model/chat"
)

type stubModel struct {
	candidate Candidate
	err       error
	calls     int
}

func (s *stubModel) ResolveReference(context.Context, Query) (Candidate, error) {
	s.calls++
	return s.candidate, s.err
}

func TestResolveExplicitIDSkipsModel(t *testing.T) {
	model := &stubModel{candidate: Candidate{ID: "ORD-9999", Confidence: 0.9}}
	r := New(model, 0.6)

	res := r.Resolve(context.Background(), "cancel ORD-1234 now", chat.NewSession("s1"))
	if res.OrderID != "ORD-1234" {
		t.Fatalf("order id: got %s", res.OrderID)
	}
	if res.Confidence != 1.0 {
		t.Fatalf("confidence: got %v want 1.0", res.Confidence)
	}
	if model.calls != 0 {
		t.Fatalf("model must not be called for explicit ids, got %d calls", model.calls)
	}
}

func TestResolveAcceptsAtThreshold(t *testing.T) {
	model := &stubModel{candidate: Candidate{ID: "ORD-1234", Confidence: 0.6, Reasoning: "last tracked order"}}
	r := New(model, 0.6)

	sess := chat.NewSession("s1")
	sess.LastOrderID = "ORD-4567"

	res := r.Resolve(context.Background(), "cancel it please", sess)
	if res.OrderID != "ORD-1234" {
		t.Fatalf("order id: got %s want ORD-1234", res.OrderID)
	}
	if res.Confidence != 0.6 {
		t.Fatalf("confidence: got %v want 0.6", res.Confidence)
	}
}

func TestResolveRejectsBelowThreshold(t *testing.T) {
	model := &stubModel{candidate: Candidate{ID: "ORD-1234", Confidence: 0.5999}}
	r := New(model, 0.6)

	sess := chat.NewSession("s1")
	sess.LastOrderID = "ORD-4567"

	res := r.Resolve(context.Background(), "cancel it please", sess)
	if res.OrderID != "ORD-4567" {
		t.Fatalf("expected fallback to last known id, got %s", res.OrderID)
	}
	if res.Confidence != 0 {
		t.Fatalf("fallback confidence: got %v want 0", res.Confidence)
	}
}

func TestResolveModelFailureDegrades(t *testing.T) {
	model := &stubModel{err: errors.New("model unavailable")}
	r := New(model, 0.6)

	sess := chat.NewSession("s1")
	sess.LastOrderID = "ORD-4567"

	res := r.Resolve(context.Background(), "cancel it", sess)
	if res.OrderID != "ORD-4567" {
		t.Fatalf("expected last known id, got %q", res.OrderID)
	}
	if res.Confidence != 0 {
		t.Fatalf("confidence: got %v want 0", res.Confidence)
	}
}

func TestResolveNilModelFallsBack(t *testing.T) {
	r := New(nil, 0)

	sess := chat.NewSession("s1")
	res := r.Resolve(context.Background(), "cancel it", sess)
	if res.OrderID != "" || res.Confidence != 0 {
		t.Fatalf("expected empty fallback, got %+v", res)
	}
}

func TestHasReferringExpression(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"cancel it please", true},
		{"cancel that order", true},
		{"the same one", true},
		{"cancel ORD-1234", false},
		{"hello", false},
	}
	for _, tc := range cases {
		if got := HasReferringExpression(tc.text); got != tc.want {
			t.Fatalf("%q: got %v want %v", tc.text, got, tc.want)
		}
	}
}
