// Package routing classifies a user message into one of the support intents.
// Strategies are a closed set chosen once at composition time.
package routing

import "context"

// Intent is the coarse category of a user's request.
type Intent string

const (
	IntentCancellation Intent = "order_cancellation"
	IntentTracking     Intent = "order_tracking"
	IntentProductQA    Intent = "product_qa"
)

// Intents lists every known intent label.
var Intents = []Intent{IntentCancellation, IntentTracking, IntentProductQA}

// ParseIntent maps a raw label to a known intent.
func ParseIntent(raw string) (Intent, bool) {
	switch Intent(raw) {
	case IntentCancellation:
		return IntentCancellation, true
	case IntentTracking:
		return IntentTracking, true
	case IntentProductQA:
		return IntentProductQA, true
	default:
		return "", false
	}
}

// Decision is the routing result for one message.
type Decision struct {
	Intent     Intent
	Confidence float64
	Rationale  map[string]any
}

// Strategy routes a message to an intent. Implementations must always return
// a well-formed decision; unrecoverable upstream failures degrade internally.
type Strategy interface {
	Name() string
	Route(ctx context.Context, text string) Decision
}
