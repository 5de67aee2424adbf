// Package orderapi talks to the external order system.
package orderapi

import (
	"context"

	"github.com/zhaowei/shopmate/internal/model/order"
)

// Client is the outbound order-system dependency. GetOrder and TrackOrder
// distinguish true absence (nil / found=false with nil error) from an
// unreachable dependency (non-nil error after exhausted retries).
type Client interface {
	GetOrder(ctx context.Context, orderID string) (*order.Record, error)
	CancelOrder(ctx context.Context, orderID string) (order.CancelOutcome, error)
	TrackOrder(ctx context.Context, orderID string) (order.Tracking, bool, error)
}
