// Package agent orchestrates one chat turn: route the intent, resolve
// ambiguous order references, dispatch to the matching handler, and compose
// the response with its full decision trace.
package agent

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/zhaowei/shopmate/internal/kb"
	"github.com/zhaowei/shopmate/internal/model/chat"
	"github.com/zhaowei/shopmate/internal/model/order"
	"github.com/zhaowei/shopmate/internal/orders"
	"github.com/zhaowei/shopmate/internal/resolve"
	"github.com/zhaowei/shopmate/internal/routing"
)

const orchestratorName = "OrchestratorAgent"

// Orchestrator sequences Routing -> Resolving -> Dispatching -> Composing.
// The pass is synchronous and never revisits a state; every branch terminates
// in a well-formed response.
type Orchestrator struct {
	strategy routing.Strategy
	resolver *resolve.Resolver
	orders   *orders.Service
	kb       kb.Lookup
}

// New wires the orchestrator with its collaborators. All dependencies are
// injected so tests can substitute fakes per case.
func New(strategy routing.Strategy, resolver *resolve.Resolver, orderSvc *orders.Service, lookup kb.Lookup) *Orchestrator {
	return &Orchestrator{strategy: strategy, resolver: resolver, orders: orderSvc, kb: lookup}
}

// Handle runs one orchestration pass over the session. The session is owned
// by this call for its duration; callers serialize access per key.
func (o *Orchestrator) Handle(ctx context.Context, requestID string, sess *chat.Session, message string) chat.Response {
	trace := make([]chat.ToolCall, 0, 4)

	// Routing.
	decision := o.strategy.Route(ctx, message)
	log.Printf("[orchestrator] request=%s session=%s routed %q -> %s (%.2f)",
		requestID, sess.Key, message, decision.Intent, decision.Confidence)
	trace = append(trace, chat.ToolCall{
		Tool:  "Router",
		Input: map[string]any{"strategy": o.strategy.Name(), "text": message},
		Result: map[string]any{
			"intent":     string(decision.Intent),
			"confidence": round4(decision.Confidence),
			"rationale":  decision.Rationale,
		},
	})

	// Resolving, only for referring expressions without an explicit id.
	if _, explicit := order.ExtractID(message); !explicit && resolve.HasReferringExpression(message) {
		// The trace input records the session state as the resolver saw it.
		priorOrderID := sess.LastOrderID
		res := o.resolver.Resolve(ctx, message, sess)
		if res.OrderID != "" && res.Confidence >= o.resolver.MinConfidence() {
			log.Printf("[orchestrator] request=%s session=%s resolved reference -> %s (%.2f)",
				requestID, sess.Key, res.OrderID, res.Confidence)
			sess.LastOrderID = res.OrderID
		}
		trace = append(trace, chat.ToolCall{
			Tool:  "ContextResolver",
			Input: map[string]any{"text": message, "lastOrderId": priorOrderID},
			Result: map[string]any{
				"orderId":    res.OrderID,
				"confidence": round4(res.Confidence),
				"reasoning":  res.Reasoning,
			},
		})
	}

	// Dispatching.
	var result handlerResult
	switch decision.Intent {
	case routing.IntentCancellation:
		result = o.handleCancellation(ctx, sess, message)
	case routing.IntentTracking:
		result = o.handleTracking(ctx, sess, message)
	default:
		result = o.handleProductQA(ctx, sess, message)
	}

	// Composing: orchestrator trace first, handler trace after, causal order.
	return chat.Response{
		Response:  result.reply,
		Agent:     result.agent,
		ToolCalls: append(trace, result.calls...),
		Handover:  fmt.Sprintf("%s(%s) → %s", orchestratorName, o.strategy.Name(), result.agent),
	}
}

// deriveOrderID re-derives the target order independently of the orchestrator
// prefill so handlers remain testable on their own: explicit pattern first,
// then the resolver ladder (which itself falls back to the last known id).
// malformed is set when the message carries an id-shaped token in the wrong
// format; no external call is made in that case.
func (o *Orchestrator) deriveOrderID(ctx context.Context, sess *chat.Session, message string) (id string, malformed bool) {
	if candidate, ok := order.ExtractIDCandidate(message); ok {
		if order.ValidID(candidate) {
			return candidate, false
		}
		return candidate, true
	}
	res := o.resolver.Resolve(ctx, message, sess)
	return res.OrderID, false
}

func round4(val float64) float64 {
	return math.Round(val*10000) / 10000
}
