package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/draftea/order-system/orders-service/domain"
	"github.com/draftea/order-system/shared/logging"
	"github.com/draftea/order-system/shared/models"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MaxBulkOrders bounds a single bulk request
const MaxBulkOrders = 500

// BulkUpdateStatusCommand represents the command to move many orders to one status
type BulkUpdateStatusCommand struct {
	OrderIDs []string            `json:"order_ids"`
	Status   domain.Status       `json:"status"`
	Options  StatusUpdateOptions `json:"options"`
	Actor    domain.Actor        `json:"-"`
}

// PerOrderError is the failure recorded for one order of a batch
type PerOrderError struct {
	Kind    domain.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

// PerOrderResult is the outcome for one order of a batch
type PerOrderResult struct {
	OrderID        string         `json:"order_id"`
	Success        bool           `json:"success"`
	PreviousStatus domain.Status  `json:"previous_status,omitempty"`
	NewStatus      *domain.Status `json:"new_status"`
	Error          *PerOrderError `json:"error"`
}

// BulkUpdateStatus applies the single order flow to every id independently. Results keep the
// request order; one order failing, even by panicking, never affects the others.
func (c *Coordinator) BulkUpdateStatus(ctx context.Context, cmd *BulkUpdateStatusCommand) (results []PerOrderResult, err error) {
	ctx, _, finish := startOperation(ctx, "bulk_update_status")
	defer func() { finish(statusOf(err)) }()

	if cmd == nil || len(cmd.OrderIDs) == 0 {
		return nil, domain.NewError(domain.KindValidationFailed, "at least one order ID is required")
	}
	if len(cmd.OrderIDs) > MaxBulkOrders {
		return nil, domain.NewError(domain.KindValidationFailed, "at most %d orders per request", MaxBulkOrders)
	}
	if !cmd.Status.Valid() {
		return nil, domain.NewError(domain.KindValidationFailed, "unknown status %q", cmd.Status)
	}

	results = make([]PerOrderResult, len(cmd.OrderIDs))

	var g errgroup.Group
	g.SetLimit(c.config.BulkConcurrency)
	for i, id := range cmd.OrderIDs {
		g.Go(func() error {
			results[i] = c.bulkUpdateOne(ctx, strings.TrimSpace(id), cmd)
			return nil
		})
	}
	_ = g.Wait()

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	logging.FromContext(ctx).Info("bulk status update finished",
		zap.String("status", cmd.Status.String()),
		zap.Int("requested", len(results)),
		zap.Int("succeeded", succeeded),
	)

	return results, nil
}

func (c *Coordinator) bulkUpdateOne(ctx context.Context, orderID string, cmd *BulkUpdateStatusCommand) (result PerOrderResult) {
	ctx, span, finish := startOperation(ctx, "bulk_update_order", attribute.String("order_id", orderID))
	result.OrderID = orderID

	defer func() {
		if r := recover(); r != nil {
			logging.FromContext(ctx).Error("bulk update panicked",
				zap.String("order_id", orderID),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			result.Success = false
			result.NewStatus = nil
			result.Error = &PerOrderError{
				Kind:    domain.KindTransientInfrastructure,
				Message: fmt.Sprintf("unexpected failure: %v", r),
			}
		}
		if result.Error != nil {
			span.SetAttributes(attribute.String("error_kind", string(result.Error.Kind)))
			finish(string(result.Error.Kind))
			return
		}
		finish("success")
	}()

	if current, err := c.orders.Load(ctx, models.ID(orderID)); err == nil {
		result.PreviousStatus = current.Status
	}

	resp, err := c.updateStatus(ctx, &UpdateStatusCommand{
		OrderID: orderID,
		Status:  cmd.Status,
		Options: cmd.Options,
		Actor:   cmd.Actor,
	})
	if err != nil {
		kind := domain.KindOf(err)
		if kind == "" {
			kind = domain.KindTransientInfrastructure
		}
		result.Error = &PerOrderError{Kind: kind, Message: err.Error()}
		return result
	}

	newStatus := resp.Order.Status
	result.Success = true
	result.PreviousStatus = resp.PreviousStatus
	result.NewStatus = &newStatus
	return result
}
