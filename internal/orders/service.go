// Package orders holds the domain rules around cancellation eligibility and
// tracking, on top of the raw order-system client.
package orders

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/zhaowei/shopmate/internal/model/order"
	"github.com/zhaowei/shopmate/internal/orderapi"
)

// ErrInvalidID rejects a malformed identifier before any external call.
// Distinct from "not found".
var ErrInvalidID = errors.New("order id must match the ORD-1234 format")

// EligibilityWindow is the cutoff after placement beyond which cancellation
// is refused without calling the cancellation endpoint.
const EligibilityWindow = 24 * time.Hour

// Service wraps the order-system client with business rules. The clock is
// injectable: eligibility is evaluated against the current UTC instant at
// call time, never cached.
type Service struct {
	client orderapi.Client
	now    func() time.Time
}

// New builds the service; now defaults to time.Now.
func New(client orderapi.Client, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{client: client, now: now}
}

// Cancel classifies one cancellation attempt into the closed outcome set.
// The only error returned is ErrInvalidID; everything downstream maps to an
// outcome kind so callers stay value-driven.
func (s *Service) Cancel(ctx context.Context, orderID string) (order.CancelOutcome, error) {
	if !order.ValidID(orderID) {
		return order.CancelOutcome{}, ErrInvalidID
	}

	rec, err := s.client.GetOrder(ctx, orderID)
	if err != nil {
		log.Printf("[orders] get order %s failed: %v", orderID, err)
		return order.CancelOutcome{Kind: order.CancelTransient, Reason: "order system unreachable"}, nil
	}
	if rec == nil {
		return order.CancelOutcome{Kind: order.CancelNotFound, Reason: "order not found"}, nil
	}

	if s.now().UTC().Sub(rec.PlacedAt) > EligibilityWindow {
		return order.CancelOutcome{Kind: order.CancelIneligible, Reason: "> 24h window"}, nil
	}

	outcome, err := s.client.CancelOrder(ctx, orderID)
	if err != nil {
		log.Printf("[orders] cancel order %s failed: %v", orderID, err)
		return order.CancelOutcome{Kind: order.CancelTransient, Reason: "order system unreachable"}, nil
	}
	return outcome, nil
}

// Track fetches the shipment view. found=false means the order system
// answered and the order does not exist; err means it could not answer.
func (s *Service) Track(ctx context.Context, orderID string) (order.Tracking, bool, error) {
	if !order.ValidID(orderID) {
		return order.Tracking{}, false, ErrInvalidID
	}
	return s.client.TrackOrder(ctx, orderID)
}

// Fetch is the raw lookup, keeping absence and exhausted retries
// distinguishable.
func (s *Service) Fetch(ctx context.Context, orderID string) (*order.Record, error) {
	if !order.ValidID(orderID) {
		return nil, ErrInvalidID
	}
	return s.client.GetOrder(ctx, orderID)
}
