package orderapi

import (
	"context"
	"sync"
	"time"

	"github.com/zhaowei/shopmate/internal/model/order"
)

// LocalClient is an in-memory order system for development and tests.
// The clock is injectable so eligibility windows can be pinned.
type LocalClient struct {
	mu     sync.RWMutex
	orders map[string]order.Record
	now    func() time.Time
}

// NewLocalClient seeds the familiar demo orders: ORD-4567 placed five hours
// ago (cancellable) and ORD-1234 placed two days ago (shipped, too late).
func NewLocalClient(now func() time.Time) *LocalClient {
	if now == nil {
		now = time.Now
	}
	ref := now().UTC()
	return &LocalClient{
		now: now,
		orders: map[string]order.Record{
			"ORD-4567": {
				OrderID:  "ORD-4567",
				PlacedAt: ref.Add(-5 * time.Hour),
				Status:   "processing",
				ETA:      ref.Add(48 * time.Hour).Format("2006-01-02"),
			},
			"ORD-1234": {
				OrderID:  "ORD-1234",
				PlacedAt: ref.Add(-48 * time.Hour),
				Status:   "shipped",
				ETA:      ref.Add(24 * time.Hour).Format("2006-01-02"),
			},
		},
	}
}

// Put inserts or replaces an order, for test setup.
func (c *LocalClient) Put(rec order.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders[rec.OrderID] = rec
}

func (c *LocalClient) GetOrder(_ context.Context, orderID string) (*order.Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.orders[orderID]
	if !ok {
		return nil, nil
	}
	copied := rec
	return &copied, nil
}

func (c *LocalClient) CancelOrder(_ context.Context, orderID string) (order.CancelOutcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.orders[orderID]
	if !ok {
		return order.CancelOutcome{Kind: order.CancelNotFound, Reason: "order not found"}, nil
	}
	if c.now().UTC().Sub(rec.PlacedAt) > 24*time.Hour {
		return order.CancelOutcome{Kind: order.CancelIneligible, Reason: "> 24h window"}, nil
	}
	rec.Status = "cancelled"
	c.orders[orderID] = rec
	return order.CancelOutcome{Kind: order.CancelSuccess, Refunded: true}, nil
}

func (c *LocalClient) TrackOrder(_ context.Context, orderID string) (order.Tracking, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.orders[orderID]
	if !ok {
		return order.Tracking{}, false, nil
	}
	return order.Tracking{Status: rec.Status, ETA: rec.ETA}, true, nil
}
