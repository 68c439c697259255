package application

import (
	"context"
	"strings"

	"github.com/draftea/order-system/orders-service/domain"
	"github.com/draftea/order-system/shared/models"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// GetOrder returns the current state of an order
func (c *Coordinator) GetOrder(ctx context.Context, orderID string) (order *domain.Order, err error) {
	ctx, _, finish := startOperation(ctx, "get_order")
	defer func() { finish(statusOf(err)) }()

	id, err := parseOrderID(orderID)
	if err != nil {
		return nil, err
	}
	return c.load(ctx, id)
}

// GetOrderHistory returns the status history of an order, oldest first
func (c *Coordinator) GetOrderHistory(ctx context.Context, orderID string) (entries []domain.StatusHistoryEntry, err error) {
	ctx, _, finish := startOperation(ctx, "get_order_history")
	defer func() { finish(statusOf(err)) }()

	id, err := parseOrderID(orderID)
	if err != nil {
		return nil, err
	}
	if _, err := c.load(ctx, id); err != nil {
		return nil, err
	}

	entries, err = c.orders.History(ctx, id)
	if err != nil {
		return nil, asTransient(err, "failed to load history")
	}
	return entries, nil
}

// ListManualReview returns the orders a human has to reconcile
func (c *Coordinator) ListManualReview(ctx context.Context, limit, offset int) (orders []*domain.Order, err error) {
	ctx, _, finish := startOperation(ctx, "list_manual_review")
	defer func() { finish(statusOf(err)) }()

	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	orders, err = c.orders.ListManualReview(ctx, limit, offset)
	if err != nil {
		return nil, asTransient(err, "failed to list orders under review")
	}
	return orders, nil
}

func parseOrderID(orderID string) (models.ID, error) {
	id := models.ID(strings.TrimSpace(orderID))
	if id.IsEmpty() {
		return "", domain.NewError(domain.KindValidationFailed, "order ID is required")
	}
	return id, nil
}
