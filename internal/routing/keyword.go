package routing

import (
	"context"
	"strings"
)

var (
	cancellationMarkers = []string{"cancel", "refund this order", "call off", "undo my order"}
	trackingMarkers     = []string{"track", "where is", "status of", "eta"}
)

// KeywordStrategy routes by case-insensitive substring match. Cancellation
// markers are checked before tracking markers; no match falls through to
// product Q&A at half confidence. Deterministic, no external call.
type KeywordStrategy struct{}

// NewKeywordStrategy returns the rule-based strategy.
func NewKeywordStrategy() *KeywordStrategy { return &KeywordStrategy{} }

func (*KeywordStrategy) Name() string { return "keyword" }

func (*KeywordStrategy) Route(_ context.Context, text string) Decision {
	lower := strings.ToLower(text)
	for _, marker := range cancellationMarkers {
		if strings.Contains(lower, marker) {
			return Decision{
				Intent:     IntentCancellation,
				Confidence: 1.0,
				Rationale:  map[string]any{"matched": "cancel-keyword"},
			}
		}
	}
	for _, marker := range trackingMarkers {
		if strings.Contains(lower, marker) {
			return Decision{
				Intent:     IntentTracking,
				Confidence: 1.0,
				Rationale:  map[string]any{"matched": "track-keyword"},
			}
		}
	}
	return Decision{
		Intent:     IntentProductQA,
		Confidence: 0.5,
		Rationale:  map[string]any{"matched": "fallback"},
	}
}
