package agent

import (
	"context"
	"fmt"

	"github.com/zhaowei/shopmate/internal/model/chat"
	"github.com/zhaowei/shopmate/internal/model/order"
)

const (
	cancellationAgentName = "OrderCancellationAgent"
	trackingAgentName     = "OrderTrackingAgent"
	productQAAgentName    = "ProductQAAgent"
)

// cannedAnswer serves product questions the knowledge base cannot.
const cannedAnswer = "Here's what I found: our standard return window is 30 days. " +
	"Shipping is usually 3–5 business days. For specifics, ask about a product feature."

type handlerResult struct {
	reply string
	agent string
	calls []chat.ToolCall
}

func (o *Orchestrator) handleCancellation(ctx context.Context, sess *chat.Session, message string) handlerResult {
	out := handlerResult{agent: cancellationAgentName}

	orderID, malformed := o.deriveOrderID(ctx, sess, message)
	if malformed || (orderID != "" && !order.ValidID(orderID)) {
		out.reply = "That doesn't look right. Your order ID should look like ORD-1234."
		return out
	}
	if orderID == "" {
		out.reply = "Sure—I can help cancel your order. Please provide your order ID in the format ORD-1234."
		return out
	}

	outcome, err := o.orders.Cancel(ctx, orderID)
	if err != nil {
		// Only validation errors escape Cancel, and the id was vetted above.
		out.reply = "That doesn't look right. Your order ID should look like ORD-1234."
		return out
	}

	out.calls = append(out.calls, chat.ToolCall{
		Tool:  "OrderCancellationAPI",
		Input: map[string]any{"orderId": orderID},
		Result: map[string]any{
			"status":   string(outcome.Kind),
			"refunded": outcome.Refunded,
			"reason":   outcome.Reason,
		},
	})

	switch outcome.Kind {
	case order.CancelSuccess:
		sess.LastOrderID = orderID
		out.reply = fmt.Sprintf("✅ Done! %s is cancelled and your payment will be refunded.", orderID)
	case order.CancelNotFound:
		out.reply = fmt.Sprintf("I couldn't find %s. Please double-check the ID.", orderID)
	case order.CancelIneligible:
		out.reply = fmt.Sprintf("⛔ %s was placed more than 24 hours ago and isn't eligible for cancellation. You can still initiate a return once delivered.", orderID)
	default:
		out.reply = fmt.Sprintf("❗ I couldn't cancel %s right now. Please try again shortly or contact support.", orderID)
	}
	return out
}

func (o *Orchestrator) handleTracking(ctx context.Context, sess *chat.Session, message string) handlerResult {
	out := handlerResult{agent: trackingAgentName}

	orderID, malformed := o.deriveOrderID(ctx, sess, message)
	if malformed || (orderID != "" && !order.ValidID(orderID)) {
		out.reply = "Please provide a valid order ID like ORD-1234."
		return out
	}
	if orderID == "" {
		out.reply = "I can help track your order. What's your ID? (e.g., ORD-1234)"
		return out
	}

	tracking, found, err := o.orders.Track(ctx, orderID)
	call := chat.ToolCall{
		Tool:  "OrderTrackingAPI",
		Input: map[string]any{"orderId": orderID},
	}
	switch {
	case err != nil:
		call.Result = map[string]any{"status": "error", "error": err.Error()}
		out.calls = append(out.calls, call)
		out.reply = "I'm having trouble reaching the order system right now. Please try again in a moment."
	case !found:
		call.Result = map[string]any{"status": "not_found"}
		out.calls = append(out.calls, call)
		out.reply = fmt.Sprintf("I couldn't find %s.", orderID)
	default:
		call.Result = map[string]any{"status": tracking.Status, "eta": tracking.ETA}
		out.calls = append(out.calls, call)
		sess.LastOrderID = orderID
		out.reply = fmt.Sprintf("Current status for %s: %s. Estimated delivery: %s.", orderID, tracking.Status, tracking.ETA)
	}
	return out
}

func (o *Orchestrator) handleProductQA(_ context.Context, sess *chat.Session, message string) handlerResult {
	out := handlerResult{agent: productQAAgentName}

	// The product context is recorded regardless of lookup outcome.
	sess.LastProductContext = message

	answer, found := o.kb.Search(message)
	out.calls = append(out.calls, chat.ToolCall{
		Tool:   "KnowledgeBase",
		Input:  map[string]any{"query": message},
		Result: map[string]any{"found": found},
	})
	if !found {
		answer = cannedAnswer
	}
	out.reply = answer
	return out
}
