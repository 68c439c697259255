package application

import (
	"context"
	"strings"

	"github.com/cenkalti/backoff/v5"
	"github.com/draftea/order-system/orders-service/domain"
	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/logging"
	"github.com/draftea/order-system/shared/models"
	"go.uber.org/zap"
)

// Manual review categories
const (
	ReviewCompensationFailed     = "compensation_failed"
	ReviewRefundRetriesExhausted = "refund_retries_exhausted"
	ReviewReservationFailed      = "reservation_request_failed"
	ReviewCaptureFailed          = "capture_request_failed"
	ReviewProcessingChainFailed  = "processing_chain_failed"
)

// CompensationResult is the outcome of one compensating action
type CompensationResult struct {
	Action domain.CompensationAction `json:"action"`
	Error  string                    `json:"error,omitempty"`
	err    error
}

// CompensationReport lists every executed action in order
type CompensationReport struct {
	Results []CompensationResult `json:"results"`
}

// Failed returns the actions whose downstream call failed
func (r CompensationReport) Failed() []CompensationResult {
	var failed []CompensationResult
	for _, result := range r.Results {
		if result.err != nil {
			failed = append(failed, result)
		}
	}
	return failed
}

type cancelRequest struct {
	OrderID  models.ID
	Actor    domain.Actor
	Reason   string
	Notes    string
	Failure  domain.FailureSignal
	Metadata map[string]interface{}
	Guard    func(order *domain.Order) error
	Source   *events.Event
}

type cancelOutcome struct {
	Previous *domain.Order
	Order    *domain.Order
	Plan     []domain.CompensationAction
	Report   CompensationReport
}

// cancel moves the order to CANCELLED. The compensation plan is computed from the order as
// loaded for the winning attempt and recorded in the same history entry as the transition,
// then executed after the commit.
func (c *Coordinator) cancel(ctx context.Context, req cancelRequest) (*cancelOutcome, error) {
	var plan []domain.CompensationAction

	outcome, err := c.transition(ctx, transitionRequest{
		OrderID:  req.OrderID,
		Target:   domain.StatusCancelled,
		Actor:    req.Actor,
		Reason:   req.Reason,
		Notes:    req.Notes,
		Metadata: req.Metadata,
		Guard:    req.Guard,
		Prepare: func(order *domain.Order, entry domain.StatusHistoryEntry) domain.StatusHistoryEntry {
			plan = domain.PlanCompensation(order, req.Failure)
			return entry.WithMetadata("compensation_plan", kindNames(plan))
		},
	})
	if err != nil {
		return nil, err
	}

	// CANCELLED is committed; the plan runs to the end even when the caller goes away
	report := c.executeCompensation(context.WithoutCancel(ctx), outcome.Order, outcome.Previous.Status, plan, req.Source)

	return &cancelOutcome{
		Previous: outcome.Previous,
		Order:    outcome.Order,
		Plan:     plan,
		Report:   report,
	}, nil
}

// executeCompensation runs every action in order, best effort. Any failure flags the
// order for manual review instead of being returned.
func (c *Coordinator) executeCompensation(
	ctx context.Context,
	order *domain.Order,
	previous domain.Status,
	actions []domain.CompensationAction,
	source *events.Event,
) CompensationReport {
	logger := logging.FromContext(ctx).With(zap.String("order_id", order.ID.String()))
	report := CompensationReport{}
	refundRequested := false

	for _, action := range actions {
		var err error

		switch action.Kind {
		case domain.CompensationReleaseReservation:
			err = c.callPort(ctx, "release reservation", func(ctx context.Context) error {
				return c.inventory.Release(ctx, order.ID)
			})
		case domain.CompensationRefund:
			err = c.requestRefund(ctx, order.ID, action.TargetRef, *action.Amount, action.Reason)
			refundRequested = err == nil
		case domain.CompensationNotifyCancellation:
			evt := newOrderEvent(events.OrderCancelledEvent, order, previous, action.Reason, c.now())
			if data, ok := evt.Data.(OrderEventData); ok {
				data.Compensations = kindNames(actions)
				evt.Data = data
			}
			err = c.emit(ctx, withCorrelation(evt, source))
		default:
			err = domain.NewError(domain.KindValidationFailed, "unknown compensation kind %q", action.Kind)
		}

		result := CompensationResult{Action: action, err: err}
		if err != nil {
			result.Error = err.Error()
			logger.Error("compensation action failed",
				zap.String("kind", string(action.Kind)),
				zap.String("target_ref", action.TargetRef),
				zap.Error(err),
			)
		} else {
			logger.Info("compensation action executed",
				zap.String("kind", string(action.Kind)),
				zap.String("target_ref", action.TargetRef),
			)
		}
		report.Results = append(report.Results, result)
	}

	failed := report.Failed()
	if len(failed) > 0 {
		reasons := make([]string, len(failed))
		for i, f := range failed {
			reasons[i] = string(f.Action.Kind) + ": " + f.Error
		}
		if _, err := c.flagManualReview(ctx, order.ID, ReviewCompensationFailed, strings.Join(reasons, "; "), refundRequested, source); err != nil {
			logger.Error("failed to flag order for manual review", zap.Error(err))
		}
		return report
	}

	if refundRequested {
		_, err := c.updateDetails(ctx, order.ID, func(*domain.Order) (*domain.OrderPatch, error) {
			return &domain.OrderPatch{IncrementRefundCount: true}, nil
		})
		if err != nil {
			logger.Error("failed to record refund attempt", zap.Error(err))
		}
	}

	return report
}

// requestRefund retries transient refund request failures a bounded number of times
func (c *Coordinator) requestRefund(ctx context.Context, orderID models.ID, paymentRef string, amount models.Money, reason string) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.config.RefundRetryInterval
	b.MaxInterval = 10 * c.config.RefundRetryInterval

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := c.callPort(ctx, "request refund", func(ctx context.Context) error {
			return c.payment.RequestRefund(ctx, paymentRef, orderID, amount, reason)
		})
		if err != nil {
			logging.FromContext(ctx).Warn("refund request failed",
				zap.String("order_id", orderID.String()),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			if !domain.IsRetryable(err) {
				return struct{}{}, backoff.Permanent(err)
			}
		}
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(c.config.RefundMaxAttempts)))

	return err
}

// flagManualReview marks the order for a human and emits the alert event. It ignores
// cancellation of ctx.
func (c *Coordinator) flagManualReview(
	ctx context.Context,
	orderID models.ID,
	category string,
	reason string,
	refundRequested bool,
	source *events.Event,
) (*domain.Order, error) {
	ctx = context.WithoutCancel(ctx)
	now := c.now()
	order, err := c.updateDetails(ctx, orderID, func(*domain.Order) (*domain.OrderPatch, error) {
		return &domain.OrderPatch{
			ManualReview: &domain.ManualReview{
				Required:  true,
				Reason:    category + ": " + reason,
				FlaggedAt: &now,
			},
			IncrementRefundCount: refundRequested,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	recordManualReview(ctx, category)
	logging.FromContext(ctx).Warn("order flagged for manual review",
		zap.String("order_id", orderID.String()),
		zap.String("category", category),
		zap.String("reason", reason),
	)

	alert := events.NewEvent(order.ID, events.OrderManualReviewRequiredEvent, ManualReviewData{
		OrderID:   order.ID,
		UserID:    order.UserID,
		Status:    order.Status,
		Category:  category,
		Reason:    reason,
		FlaggedAt: now,
	})
	_ = c.emit(ctx, withCorrelation(alert, source))

	return order, nil
}

func kindNames(actions []domain.CompensationAction) []string {
	names := make([]string, len(actions))
	for i, kind := range domain.Kinds(actions) {
		names[i] = string(kind)
	}
	return names
}
