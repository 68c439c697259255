package application

import (
	"context"
	"strings"

	"github.com/draftea/order-system/orders-service/domain"
	"github.com/draftea/order-system/shared/logging"
	"github.com/draftea/order-system/shared/models"
	"go.uber.org/zap"
)

// CancelOrderCommand represents the command to cancel an order
type CancelOrderCommand struct {
	OrderID string       `json:"order_id"`
	Reason  string       `json:"reason"`
	Notes   string       `json:"notes,omitempty"`
	Actor   domain.Actor `json:"-"`
}

// CancelOrderResponse is the cancelled order and what its compensation did
type CancelOrderResponse struct {
	PreviousStatus domain.Status      `json:"previous_status"`
	Order          *domain.Order      `json:"order"`
	Compensations  CompensationReport `json:"compensations"`
}

// CancelOrder cancels an order that has not shipped yet and runs its compensation plan
func (c *Coordinator) CancelOrder(ctx context.Context, cmd *CancelOrderCommand) (resp *CancelOrderResponse, err error) {
	ctx, _, finish := startOperation(ctx, "cancel_order")
	defer func() { finish(statusOf(err)) }()

	if cmd == nil || strings.TrimSpace(cmd.OrderID) == "" {
		return nil, domain.NewError(domain.KindValidationFailed, "order ID is required")
	}
	if cmd.Actor.Role == "" {
		return nil, domain.NewError(domain.KindValidationFailed, "actor is required")
	}

	orderID := models.ID(strings.TrimSpace(cmd.OrderID))
	ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With(zap.String("order_id", orderID.String())))

	reason := strings.TrimSpace(cmd.Reason)
	if reason == "" {
		reason = "cancelled by " + string(cmd.Actor.Role)
	}

	outcome, err := c.cancel(ctx, cancelRequest{
		OrderID: orderID,
		Actor:   cmd.Actor,
		Reason:  reason,
		Notes:   cmd.Notes,
		Failure: domain.FailureSignal{Kind: domain.FailureCancellation, Reason: reason},
		Guard: func(order *domain.Order) error {
			if !order.Status.IsCancelable() {
				return domain.NewError(domain.KindNotCancelable, "order in %s cannot be cancelled", order.Status)
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	order := outcome.Order
	if len(outcome.Report.Failed()) > 0 {
		if reloaded, err := c.load(ctx, orderID); err == nil {
			order = reloaded
		}
	}

	return &CancelOrderResponse{
		PreviousStatus: outcome.Previous.Status,
		Order:          order,
		Compensations:  outcome.Report,
	}, nil
}
