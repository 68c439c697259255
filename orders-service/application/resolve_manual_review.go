package application

import (
	"context"

	"github.com/draftea/order-system/orders-service/domain"
	"github.com/draftea/order-system/shared/logging"
	"go.uber.org/zap"
)

// ResolveManualReviewCommand represents an operator closing a manual review
type ResolveManualReviewCommand struct {
	OrderID string       `json:"order_id"`
	Notes   string       `json:"notes"`
	Actor   domain.Actor `json:"-"`
}

// ResolveManualReview clears the manual review flag once an operator reconciled the order
func (c *Coordinator) ResolveManualReview(ctx context.Context, cmd *ResolveManualReviewCommand) (order *domain.Order, err error) {
	ctx, _, finish := startOperation(ctx, "resolve_manual_review")
	defer func() { finish(statusOf(err)) }()

	if cmd == nil {
		return nil, domain.NewError(domain.KindValidationFailed, "command is required")
	}
	id, err := parseOrderID(cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if cmd.Actor.Role != domain.RoleAdmin {
		return nil, domain.NewError(domain.KindPermissionDenied, "only admins may resolve manual reviews")
	}

	var previousReason string
	order, err = c.updateDetails(ctx, id, func(current *domain.Order) (*domain.OrderPatch, error) {
		if !current.ManualReview.Required {
			return nil, domain.NewError(domain.KindPreconditionFailed, "order is not flagged for manual review")
		}
		previousReason = current.ManualReview.Reason
		return &domain.OrderPatch{ManualReview: &domain.ManualReview{}}, nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("manual review resolved",
		zap.String("order_id", id.String()),
		zap.String("actor_id", cmd.Actor.ID),
		zap.String("flag_reason", previousReason),
		zap.String("notes", cmd.Notes),
	)
	return order, nil
}
