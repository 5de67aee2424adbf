package routing

import (
	"context"
	"errors"
	"testing"
)

func TestKeywordCancellation(t *testing.T) {
	s := NewKeywordStrategy()
	d := s.Route(context.Background(), "Please CANCEL my order")
	if d.Intent != IntentCancellation {
		t.Fatalf("intent: got %s want %s", d.Intent, IntentCancellation)
	}
	if d.Confidence != 1.0 {
		t.Fatalf("confidence: got %v want 1.0", d.Confidence)
	}
}

func TestKeywordCancellationWinsOverTracking(t *testing.T) {
	s := NewKeywordStrategy()
	// Contains both marker sets; cancellation is checked first.
	d := s.Route(context.Background(), "cancel it, also where is my package")
	if d.Intent != IntentCancellation {
		t.Fatalf("intent: got %s want %s", d.Intent, IntentCancellation)
	}
}

func TestKeywordTracking(t *testing.T) {
	s := NewKeywordStrategy()
	d := s.Route(context.Background(), "Where is my package?")
	if d.Intent != IntentTracking || d.Confidence != 1.0 {
		t.Fatalf("got %s@%v", d.Intent, d.Confidence)
	}
}

func TestKeywordFallbackProductQA(t *testing.T) {
	s := NewKeywordStrategy()
	d := s.Route(context.Background(), "tell me about the return policy")
	if d.Intent != IntentProductQA {
		t.Fatalf("intent: got %s want %s", d.Intent, IntentProductQA)
	}
	if d.Confidence != 0.5 {
		t.Fatalf("confidence: got %v want 0.5", d.Confidence)
	}
}

func TestBayesSeedIntents(t *testing.T) {
	s := NewBayesStrategy()
	cases := []struct {
		text string
		want Intent
	}{
		{"please cancel my order", IntentCancellation},
		{"where is my package", IntentTracking},
		{"what is your return policy", IntentProductQA},
	}
	for _, tc := range cases {
		d := s.Route(context.Background(), tc.text)
		if d.Intent != tc.want {
			t.Fatalf("%q: got %s want %s", tc.text, d.Intent, tc.want)
		}
		if d.Confidence <= 0 || d.Confidence > 1 {
			t.Fatalf("%q: confidence %v out of range", tc.text, d.Confidence)
		}
	}
}

func TestBayesDeterministic(t *testing.T) {
	s := NewBayesStrategy()
	first := s.Route(context.Background(), "track ORD-1234")
	second := s.Route(context.Background(), "track ORD-1234")
	if first.Intent != second.Intent || first.Confidence != second.Confidence {
		t.Fatalf("inference not deterministic: %+v vs %+v", first, second)
	}
}

type stubClassifier struct {
	result ClassifiedIntent
	err    error
}

func (s *stubClassifier) ClassifyIntent(context.Context, string) (ClassifiedIntent, error) {
	return s.result, s.err
}

func TestLLMStrategySuccess(t *testing.T) {
	s := NewLLMStrategy(&stubClassifier{result: ClassifiedIntent{
		Intent:     "order_tracking",
		Confidence: 0.92,
		Rationale:  "mentions delivery status",
	}})

	d := s.Route(context.Background(), "when does my parcel arrive")
	if d.Intent != IntentTracking {
		t.Fatalf("intent: got %s", d.Intent)
	}
	if d.Confidence != 0.92 {
		t.Fatalf("confidence: got %v", d.Confidence)
	}
}

func TestLLMStrategyFallsBackOnError(t *testing.T) {
	s := NewLLMStrategy(&stubClassifier{err: errors.New("model unavailable")})

	d := s.Route(context.Background(), "cancel my order")
	if d.Intent != IntentCancellation {
		t.Fatalf("fallback intent: got %s", d.Intent)
	}
	if d.Confidence != 1.0 {
		t.Fatalf("fallback confidence: got %v", d.Confidence)
	}
	cause, ok := d.Rationale["llm_error"].(string)
	if !ok || cause == "" {
		t.Fatalf("expected llm_error cause in rationale, got %v", d.Rationale)
	}
}

func TestLLMStrategyFallsBackOnUnknownLabel(t *testing.T) {
	s := NewLLMStrategy(&stubClassifier{result: ClassifiedIntent{Intent: "chitchat", Confidence: 0.8}})

	d := s.Route(context.Background(), "where is my package")
	if d.Intent != IntentTracking {
		t.Fatalf("fallback intent: got %s", d.Intent)
	}
	if _, ok := d.Rationale["llm_error"]; !ok {
		t.Fatal("expected llm_error cause in rationale")
	}
}
