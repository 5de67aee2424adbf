// Package resolve infers which order a message refers to when the identifier
// is not stated explicitly ("cancel it").
package resolve

import (
	"context"
	"log"
	"strings"

	"github.com/zhaowei/shopmate/internal/model/chat"
	"github.com/zhaowei/shopmate/internal/model/order"
)

// DefaultMinConfidence gates acceptance of model-inferred references.
const DefaultMinConfidence = 0.6

// historyWindow bounds how many recent turns feed the model.
const historyWindow = 5

var referringMarkers = []string{"it", "that", "this", "same"}

// HasReferringExpression reports whether the message contains a pronoun-like
// marker that may point at a previously mentioned order.
func HasReferringExpression(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range referringMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Query carries the conversational context handed to the model.
type Query struct {
	Message            string
	History            []chat.Turn
	LastOrderID        string
	LastProductContext string
}

// Candidate is the model's proposed reference.
type Candidate struct {
	ID         string
	Confidence float64
	Reasoning  string
}

// ContextModel is the language-model dependency of the resolver.
type ContextModel interface {
	ResolveReference(ctx context.Context, q Query) (Candidate, error)
}

// Resolution is the resolver's answer. Confidence 0 marks the last-known-id
// fallback, which is a low-confidence default rather than a resolution.
type Resolution struct {
	OrderID    string
	Confidence float64
	Reasoning  string
}

// Resolver walks the ladder: explicit pattern, model inference above the
// confidence threshold, then the session's last known order id.
type Resolver struct {
	model         ContextModel
	minConfidence float64
}

// New builds a resolver. model may be nil, in which case the ladder skips
// straight from pattern match to the last-known-id fallback.
func New(model ContextModel, minConfidence float64) *Resolver {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return &Resolver{model: model, minConfidence: minConfidence}
}

// MinConfidence returns the configured acceptance threshold.
func (r *Resolver) MinConfidence() float64 { return r.minConfidence }

// Resolve never fails: model errors and sub-threshold candidates degrade to
// the fallback with confidence 0.
func (r *Resolver) Resolve(ctx context.Context, message string, sess *chat.Session) Resolution {
	if id, ok := order.ExtractID(message); ok {
		return Resolution{OrderID: id, Confidence: 1.0, Reasoning: "explicit identifier in message"}
	}

	if r.model != nil {
		candidate, err := r.model.ResolveReference(ctx, Query{
			Message:            message,
			History:            sess.RecentHistory(historyWindow),
			LastOrderID:        sess.LastOrderID,
			LastProductContext: sess.LastProductContext,
		})
		if err != nil {
			log.Printf("[resolver] model inference failed, using last known id: %v", err)
			return Resolution{OrderID: sess.LastOrderID, Confidence: 0, Reasoning: "resolver error: " + err.Error()}
		}
		if candidate.ID != "" && candidate.Confidence >= r.minConfidence {
			return Resolution{OrderID: candidate.ID, Confidence: candidate.Confidence, Reasoning: candidate.Reasoning}
		}
	}

	return Resolution{OrderID: sess.LastOrderID, Confidence: 0, Reasoning: "fallback to last known order id"}
}
