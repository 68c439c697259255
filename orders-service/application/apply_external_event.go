package application

import (
	"context"
	"fmt"

	"github.com/draftea/order-system/orders-service/domain"
	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/logging"
	"github.com/draftea/order-system/shared/models"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// InboundEventData holds the type specific fields of payment, inventory and shipping events
type InboundEventData struct {
	PaymentRef     string `json:"payment_ref,omitempty"`
	ReservationRef string `json:"reservation_ref,omitempty"`
	Status         string `json:"status,omitempty"`
	Carrier        string `json:"carrier,omitempty"`
	TrackingRef    string `json:"tracking_ref,omitempty"`
	ShipmentRef    string `json:"shipment_ref,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

// EventResult tells the consuming shell whether to acknowledge or redeliver
type EventResult struct {
	EventID   string
	EventType string
	OrderID   models.ID
	Outcome   domain.EventOutcome
	Summary   string
	// Retryable asks for redelivery; the idempotency mark was not written
	Retryable bool
	Err       error
	Order     *domain.Order
}

// Acknowledge reports whether the message can be deleted from the queue
func (r EventResult) Acknowledge() bool {
	return !r.Retryable
}

func (r EventResult) changedOrder() bool {
	return r.Outcome == domain.OutcomeApplied || r.Outcome == domain.OutcomeCompensated
}

func (r EventResult) retry(err error) EventResult {
	r.Outcome = domain.OutcomeRetry
	r.Retryable = true
	r.Err = err
	return r
}

// fromError classifies a failed step into stale, not found, retry or rejected
func (r EventResult) fromError(err error) EventResult {
	switch {
	case errors.Is(err, errStale):
		r.Outcome = domain.OutcomeStale
		r.Summary = err.Error()
	case errors.Is(err, domain.ErrOrderNotFound):
		r.Outcome = domain.OutcomeNotFound
		r.Summary = "order not found"
		r.Err = domain.WrapError(domain.KindPermanentDownstreamFailure, err, "event references an unknown order")
	case domain.IsRetryable(err):
		return r.retry(err)
	default:
		r.Outcome = domain.OutcomeRejected
		r.Summary = err.Error()
		r.Err = err
	}
	return r
}

var (
	errAwaitingPayment = errors.New("order is awaiting payment")
	errPaymentArrived  = errors.New("payment arrived while attaching reservation")
)

// ApplyExternalEvent is the single entry point for asynchronous payment, inventory and shipping signals
func (c *Coordinator) ApplyExternalEvent(ctx context.Context, evt *events.Event) EventResult {
	eventType := ""
	if evt != nil {
		eventType = evt.EventType
	}

	ctx, span, finish := startOperation(ctx, "apply_external_event", attribute.String("event_type", eventType))
	if evt != nil {
		ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With(
			zap.String("event_id", evt.ID.String()),
			zap.String("event_type", evt.EventType),
			zap.String("order_id", evt.AggregateID.String()),
		))
	}

	result := c.applyExternalEvent(ctx, evt)
	result.EventType = eventType

	if result.Err != nil {
		span.RecordError(result.Err)
	}
	recordEventOutcome(ctx, eventType, result.Outcome)
	logEventResult(ctx, result)
	finish(string(result.Outcome))

	return result
}

func (c *Coordinator) applyExternalEvent(ctx context.Context, evt *events.Event) EventResult {
	if err := evt.Validate(); err != nil {
		return EventResult{
			Outcome: domain.OutcomeRejected,
			Summary: "invalid envelope",
			Err:     domain.WrapError(domain.KindValidationFailed, err, "invalid event envelope"),
		}
	}

	result := EventResult{EventID: evt.ID.String(), EventType: evt.EventType, OrderID: evt.AggregateID}
	source := evt.Source()

	processed, err := c.ledger.IsProcessed(ctx, source, evt.ID.String())
	if err != nil {
		return result.retry(asTransient(err, "failed to check processed events"))
	}
	if processed {
		result.Outcome = domain.OutcomeDuplicate
		result.Summary = "already processed"
		return result
	}

	if _, err := c.load(ctx, evt.AggregateID); err != nil {
		return c.markAndEmit(ctx, evt, result.fromError(err), nil)
	}

	var data InboundEventData
	if err := evt.UnmarshalPayload(&data); err != nil {
		result.Outcome = domain.OutcomeRejected
		result.Summary = "invalid payload"
		result.Err = domain.WrapError(domain.KindValidationFailed, err, "invalid event payload")
		return c.markAndEmit(ctx, evt, result, nil)
	}

	route, err := domain.RouteEvent(evt.EventType, data.Status)
	if err != nil {
		return c.markAndEmit(ctx, evt, result.fromError(err), nil)
	}

	actor, ok := domain.ActorForSource(source)
	if !ok {
		err := domain.NewError(domain.KindValidationFailed, "unknown event source %q", source)
		return c.markAndEmit(ctx, evt, result.fromError(err), nil)
	}

	var emits []*events.Event
	switch route.Kind {
	case domain.RouteTransition:
		result, emits = c.applyTransitionRoute(ctx, evt, route, actor, data, result)
	case domain.RouteCompensation:
		result = c.applyCompensationRoute(ctx, evt, route, data, result)
	case domain.RouteRefundFailure:
		result = c.applyRefundFailureRoute(ctx, evt, route, result)
	}

	if result.Retryable {
		return result
	}

	if ctx.Err() != nil {
		// the outcome is final; record it even though the caller went away
		ctx = context.WithoutCancel(ctx)
	}

	return c.markAndEmit(ctx, evt, result, emits)
}

// markAndEmit writes the idempotency record, then publishes the resulting order events
func (c *Coordinator) markAndEmit(ctx context.Context, evt *events.Event, result EventResult, emits []*events.Event) EventResult {
	if result.Retryable {
		return result
	}

	err := c.ledger.MarkProcessed(ctx, domain.ProcessedEvent{
		SourceType:  evt.Source(),
		EventID:     evt.ID.String(),
		Outcome:     result.Outcome,
		Summary:     result.Summary,
		ProcessedAt: c.now(),
	})

	switch {
	case err == nil:
	case errors.Is(err, domain.ErrDuplicateKey):
		if !result.changedOrder() {
			result.Outcome = domain.OutcomeDuplicate
			result.Summary = "processed by a concurrent delivery"
			result.Err = nil
			return result
		}
		logging.FromContext(ctx).Warn("event was marked by a concurrent delivery after this one applied it")
	default:
		logging.FromContext(ctx).Error("failed to mark event processed", zap.Error(err))
		result.Retryable = true
		result.Err = asTransient(err, "failed to mark event processed")
	}

	_ = c.emit(ctx, emits...)
	return result
}

func (c *Coordinator) applyTransitionRoute(
	ctx context.Context,
	evt *events.Event,
	route domain.EventRoute,
	actor domain.Actor,
	data InboundEventData,
	result EventResult,
) (EventResult, []*events.Event) {
	if evt.EventType == events.InventoryReservedEvent {
		return c.applyReservation(ctx, evt, route, actor, data, result)
	}

	outcome, err := c.transition(ctx, transitionRequest{
		OrderID:  evt.AggregateID,
		Target:   route.Target,
		Actor:    actor,
		Reason:   evt.EventType,
		Notes:    data.Reason,
		Metadata: eventMetadata(evt),
		Patch:    patchFromEvent(route.Target, data),
		Guard:    staleGuard(route),
	})
	if err != nil {
		return result.fromError(err), nil
	}

	result.Outcome = domain.OutcomeApplied
	result.Order = outcome.Order
	result.Summary = fmt.Sprintf("%s -> %s", outcome.Previous.Status, outcome.Order.Status)
	emits := []*events.Event{c.transitionEvent(outcome, data.Reason, evt)}

	if outcome.Order.Status == domain.StatusPaid && outcome.Order.References.ReservationRef != "" {
		chained, err := c.chainProcessing(context.WithoutCancel(ctx), outcome.Order, evt)
		if err == nil {
			result.Order = chained.Order
			result.Summary += fmt.Sprintf(" -> %s", chained.Order.Status)
			emits = append(emits, c.transitionEvent(chained, "reservation confirmed before payment", evt))
		}
	}

	return result, emits
}

// applyReservation handles inventory.reserved. A confirmation that arrives before payment is
// attached to the order so the later payment.completed can continue to PROCESSING.
func (c *Coordinator) applyReservation(
	ctx context.Context,
	evt *events.Event,
	route domain.EventRoute,
	actor domain.Actor,
	data InboundEventData,
	result EventResult,
) (EventResult, []*events.Event) {
	if data.ReservationRef == "" {
		return result.fromError(domain.NewError(domain.KindValidationFailed, "reservation_ref is required")), nil
	}

	accepts := staleGuard(route)
	for attempt := 0; attempt < 2; attempt++ {
		outcome, err := c.transition(ctx, transitionRequest{
			OrderID:  evt.AggregateID,
			Target:   route.Target,
			Actor:    actor,
			Reason:   evt.EventType,
			Metadata: eventMetadata(evt),
			Patch:    domain.OrderPatch{ReservationRef: data.ReservationRef},
			Guard: func(order *domain.Order) error {
				if order.Status == domain.StatusCreated || order.Status == domain.StatusPendingPayment {
					return errAwaitingPayment
				}
				return accepts(order)
			},
		})
		if err == nil {
			result.Outcome = domain.OutcomeApplied
			result.Order = outcome.Order
			result.Summary = fmt.Sprintf("%s -> %s", outcome.Previous.Status, outcome.Order.Status)
			return result, []*events.Event{c.transitionEvent(outcome, "", evt)}
		}
		if !errors.Is(err, errAwaitingPayment) {
			return result.fromError(err), nil
		}

		order, err := c.updateDetails(ctx, evt.AggregateID, func(order *domain.Order) (*domain.OrderPatch, error) {
			switch order.Status {
			case domain.StatusCreated, domain.StatusPendingPayment:
				if order.References.ReservationRef == data.ReservationRef {
					return nil, nil
				}
				return &domain.OrderPatch{ReservationRef: data.ReservationRef}, nil
			case domain.StatusPaid:
				return nil, errPaymentArrived
			default:
				return nil, errors.Wrapf(errStale, "order is %s", order.Status)
			}
		})
		if errors.Is(err, errPaymentArrived) {
			continue
		}
		if err != nil {
			return result.fromError(err), nil
		}

		result.Outcome = domain.OutcomeStale
		result.Order = order
		result.Summary = "reservation attached while awaiting payment"
		return result, nil
	}

	return result.retry(domain.NewError(domain.KindVersionConflict, "order kept changing while attaching reservation")), nil
}

// chainProcessing continues PAID -> PROCESSING when the reservation was confirmed first
func (c *Coordinator) chainProcessing(ctx context.Context, order *domain.Order, source *events.Event) (*transitionOutcome, error) {
	actor, _ := domain.ActorForSource("inventory")
	outcome, err := c.transition(ctx, transitionRequest{
		OrderID:  order.ID,
		Target:   domain.StatusProcessing,
		Actor:    actor,
		Reason:   "reservation confirmed before payment",
		Metadata: eventMetadata(source),
		Guard: func(current *domain.Order) error {
			if current.Status != domain.StatusPaid {
				return errors.Wrapf(errStale, "order is %s", current.Status)
			}
			return nil
		},
	})
	if err != nil && !errors.Is(err, errStale) {
		if _, flagErr := c.flagManualReview(ctx, order.ID, ReviewProcessingChainFailed, err.Error(), false, source); flagErr != nil {
			logging.FromContext(ctx).Error("failed to flag order for manual review", zap.Error(flagErr))
		}
	}
	return outcome, err
}

func (c *Coordinator) applyCompensationRoute(
	ctx context.Context,
	evt *events.Event,
	route domain.EventRoute,
	data InboundEventData,
	result EventResult,
) EventResult {
	reason := data.Reason
	if reason == "" {
		reason = "inventory reservation failed"
	}

	outcome, err := c.cancel(ctx, cancelRequest{
		OrderID:  evt.AggregateID,
		Actor:    domain.SystemActor(),
		Reason:   evt.EventType,
		Notes:    reason,
		Failure:  domain.FailureSignal{Kind: domain.FailureInventoryUnavailable, Reason: reason},
		Metadata: eventMetadata(evt),
		Guard:    staleGuard(route),
		Source:   evt,
	})
	if err != nil {
		return result.fromError(err)
	}

	result.Outcome = domain.OutcomeCompensated
	result.Order = outcome.Order
	result.Summary = fmt.Sprintf("%s -> %s compensations=%v", outcome.Previous.Status, outcome.Order.Status, kindNames(outcome.Plan))
	if failed := outcome.Report.Failed(); len(failed) > 0 {
		result.Summary += fmt.Sprintf(" failed=%d", len(failed))
	}
	return result
}

// applyRefundFailureRoute re-requests the refund while attempts remain, then alerts
func (c *Coordinator) applyRefundFailureRoute(ctx context.Context, evt *events.Event, route domain.EventRoute, result EventResult) EventResult {
	accepts := staleGuard(route)
	exhausted := false

	order, err := c.updateDetails(ctx, evt.AggregateID, func(order *domain.Order) (*domain.OrderPatch, error) {
		if err := accepts(order); err != nil {
			return nil, err
		}
		if order.References.PaymentRef == "" {
			return nil, domain.NewError(domain.KindPreconditionFailed, "order has no payment reference to refund")
		}
		exhausted = order.RefundAttempts >= c.config.RefundMaxAttempts
		if exhausted {
			return nil, nil
		}
		return &domain.OrderPatch{IncrementRefundCount: true}, nil
	})
	if err != nil {
		return result.fromError(err)
	}

	result.Outcome = domain.OutcomeApplied
	result.Order = order
	// the attempt is counted; the re-request or the alert must follow it
	ctx = context.WithoutCancel(ctx)

	if exhausted {
		reason := fmt.Sprintf("refund failed after %d attempts", order.RefundAttempts)
		flagged, err := c.flagManualReview(ctx, order.ID, ReviewRefundRetriesExhausted, reason, false, evt)
		if err != nil {
			return result.fromError(err)
		}
		result.Order = flagged
		result.Summary = "refund retries exhausted, manual review required"
		return result
	}

	err = c.requestRefund(ctx, order.ID, order.References.PaymentRef, order.Amount(), "refund retry after "+evt.EventType)
	if err != nil {
		flagged, flagErr := c.flagManualReview(ctx, order.ID, ReviewCompensationFailed, "refund: "+err.Error(), false, evt)
		if flagErr != nil {
			return result.fromError(flagErr)
		}
		result.Order = flagged
		result.Summary = "refund re-request failed, manual review required"
		return result
	}

	result.Summary = fmt.Sprintf("refund re-requested (attempt %d)", order.RefundAttempts)
	return result
}

func (c *Coordinator) transitionEvent(outcome *transitionOutcome, reason string, source *events.Event) *events.Event {
	evt := newOrderEvent(outcome.Decision.OutboundEvent, outcome.Order, outcome.Previous.Status, reason, c.now())
	return withCorrelation(evt, source)
}

func staleGuard(route domain.EventRoute) func(order *domain.Order) error {
	return func(order *domain.Order) error {
		if !route.Accepts(order.Status) {
			return errors.Wrapf(errStale, "order is %s", order.Status)
		}
		return nil
	}
}

func patchFromEvent(target domain.Status, data InboundEventData) domain.OrderPatch {
	switch target {
	case domain.StatusPaid:
		return domain.OrderPatch{PaymentRef: data.PaymentRef}
	case domain.StatusShipped, domain.StatusDelivered, domain.StatusDeliveryFailed:
		return domain.OrderPatch{Carrier: data.Carrier, TrackingRef: data.TrackingRef, ShipmentRef: data.ShipmentRef}
	default:
		return domain.OrderPatch{}
	}
}

func eventMetadata(evt *events.Event) map[string]interface{} {
	if evt == nil {
		return nil
	}
	return map[string]interface{}{
		"event_id":   evt.ID.String(),
		"event_type": evt.EventType,
	}
}

func logEventResult(ctx context.Context, result EventResult) {
	logger := logging.FromContext(ctx).With(
		zap.String("outcome", string(result.Outcome)),
		zap.String("summary", result.Summary),
	)

	switch {
	case result.Retryable:
		logger.Error("event processing failed, will be redelivered", zap.Error(result.Err))
	case result.Outcome == domain.OutcomeRejected, result.Outcome == domain.OutcomeNotFound:
		logger.Warn("event rejected", zap.Error(result.Err))
	case result.Outcome == domain.OutcomeStale:
		logger.Info("stale event acknowledged without transition")
	case result.Outcome == domain.OutcomeDuplicate:
		logger.Debug("duplicate event skipped")
	default:
		logger.Info("event processed")
	}
}
