package application

import (
	"context"
	"strings"

	"github.com/draftea/order-system/orders-service/domain"
	"github.com/draftea/order-system/shared/logging"
	"github.com/draftea/order-system/shared/models"
	"go.uber.org/zap"
)

// StatusUpdateOptions carries the optional data of a manual status change
type StatusUpdateOptions struct {
	Reason      string                 `json:"reason,omitempty"`
	Notes       string                 `json:"notes,omitempty"`
	Carrier     string                 `json:"carrier,omitempty"`
	TrackingRef string                 `json:"tracking_ref,omitempty"`
	ShipmentRef string                 `json:"shipment_ref,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// UpdateStatusCommand represents the command to move one order to a new status
type UpdateStatusCommand struct {
	OrderID string              `json:"order_id"`
	Status  domain.Status       `json:"status"`
	Options StatusUpdateOptions `json:"options"`
	Actor   domain.Actor        `json:"-"`
}

// UpdateStatusResponse describes the applied change
type UpdateStatusResponse struct {
	PreviousStatus domain.Status `json:"previous_status"`
	Order          *domain.Order `json:"order"`
	// Applied is false when the order already was in the requested status
	Applied bool `json:"applied"`
}

// UpdateStatus applies one state machine gated transition. Cancellation goes through CancelOrder.
func (c *Coordinator) UpdateStatus(ctx context.Context, cmd *UpdateStatusCommand) (resp *UpdateStatusResponse, err error) {
	ctx, _, finish := startOperation(ctx, "update_status")
	defer func() { finish(statusOf(err)) }()

	return c.updateStatus(ctx, cmd)
}

func (c *Coordinator) updateStatus(ctx context.Context, cmd *UpdateStatusCommand) (*UpdateStatusResponse, error) {
	if cmd == nil || strings.TrimSpace(cmd.OrderID) == "" {
		return nil, domain.NewError(domain.KindValidationFailed, "order ID is required")
	}
	if !cmd.Status.Valid() {
		return nil, domain.NewError(domain.KindValidationFailed, "unknown status %q", cmd.Status)
	}
	if cmd.Actor.Role == "" {
		return nil, domain.NewError(domain.KindValidationFailed, "actor is required")
	}

	orderID := models.ID(strings.TrimSpace(cmd.OrderID))
	ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With(zap.String("order_id", orderID.String())))

	if cmd.Status == domain.StatusCancelled {
		cancelled, err := c.CancelOrder(ctx, &CancelOrderCommand{
			OrderID: orderID.String(),
			Reason:  cmd.Options.Reason,
			Notes:   cmd.Options.Notes,
			Actor:   cmd.Actor,
		})
		if err != nil {
			return nil, err
		}
		return &UpdateStatusResponse{
			PreviousStatus: cancelled.PreviousStatus,
			Order:          cancelled.Order,
			Applied:        true,
		}, nil
	}

	reason := cmd.Options.Reason
	if reason == "" {
		reason = "status updated by " + string(cmd.Actor.Role)
	}

	outcome, err := c.transition(ctx, transitionRequest{
		OrderID:   orderID,
		Target:    cmd.Status,
		Actor:     cmd.Actor,
		Reason:    reason,
		Notes:     cmd.Options.Notes,
		Metadata:  cmd.Options.Metadata,
		AllowNoop: true,
		Patch: domain.OrderPatch{
			Carrier:     cmd.Options.Carrier,
			TrackingRef: cmd.Options.TrackingRef,
			ShipmentRef: cmd.Options.ShipmentRef,
		},
	})
	if err != nil {
		return nil, err
	}

	resp := &UpdateStatusResponse{
		PreviousStatus: outcome.Previous.Status,
		Order:          outcome.Order,
		Applied:        outcome.Applied,
	}
	if !outcome.Applied {
		return resp, nil
	}

	ctx = context.WithoutCancel(ctx)
	_ = c.emit(ctx, c.transitionEvent(outcome, cmd.Options.Reason, nil))

	if outcome.Decision.HasSideEffect(domain.SideEffectRequestRefund) {
		resp.Order = c.refundReturnedOrder(ctx, outcome.Order)
	}

	return resp, nil
}

// refundReturnedOrder requests the refund of a returned order and records the attempt
func (c *Coordinator) refundReturnedOrder(ctx context.Context, order *domain.Order) *domain.Order {
	logger := logging.FromContext(ctx)

	if order.References.PaymentRef == "" {
		flagged, err := c.flagManualReview(ctx, order.ID, ReviewCompensationFailed, "returned order has no payment reference", false, nil)
		if err != nil {
			logger.Error("failed to flag order for manual review", zap.Error(err))
			return order
		}
		return flagged
	}

	err := c.requestRefund(ctx, order.ID, order.References.PaymentRef, order.Amount(), "order returned")
	if err != nil {
		flagged, flagErr := c.flagManualReview(ctx, order.ID, ReviewCompensationFailed, "refund: "+err.Error(), false, nil)
		if flagErr != nil {
			logger.Error("failed to flag order for manual review", zap.Error(flagErr))
			return order
		}
		return flagged
	}

	updated, err := c.updateDetails(ctx, order.ID, func(*domain.Order) (*domain.OrderPatch, error) {
		return &domain.OrderPatch{IncrementRefundCount: true}, nil
	})
	if err != nil {
		logger.Error("failed to record refund attempt", zap.Error(err))
		return order
	}
	return updated
}
