package domain

import (
	"strings"

	"github.com/draftea/order-system/shared/events"
)

// Shipping statuses carried by shipping.status_updated
const (
	ShippingPickedUp  = "PICKED_UP"
	ShippingDelivered = "DELIVERED"
	ShippingFailed    = "FAILED"
)

// RouteKind tells the coordinator how to treat an inbound event
type RouteKind string

const (
	// RouteTransition drives a single state machine transition
	RouteTransition RouteKind = "transition"
	// RouteCompensation cancels the order and runs the compensation plan
	RouteCompensation RouteKind = "compensation"
	// RouteRefundFailure applies the failed refund policy
	RouteRefundFailure RouteKind = "refund-failure"
)

// EventRoute is one row of the inbound event table
type EventRoute struct {
	Kind          RouteKind
	Target        Status
	Preconditions []Status
}

// Accepts reports whether current matches the route precondition
func (r EventRoute) Accepts(current Status) bool {
	for _, s := range r.Preconditions {
		if s == current {
			return true
		}
	}
	return false
}

type routeKey struct {
	eventType string
	subtype   string
}

var eventRoutes = map[routeKey]EventRoute{
	{events.PaymentCompletedEvent, ""}: {
		Kind: RouteTransition, Target: StatusPaid,
		Preconditions: []Status{StatusPendingPayment},
	},
	{events.PaymentFailedEvent, ""}: {
		Kind: RouteTransition, Target: StatusPaymentFailed,
		Preconditions: []Status{StatusPendingPayment},
	},
	{events.PaymentRefundedEvent, ""}: {
		Kind: RouteTransition, Target: StatusRefunded,
		Preconditions: []Status{StatusCancelled, StatusReturned, StatusPaid, StatusProcessing, StatusReadyForShipment},
	},
	{events.PaymentRefundFailedEvent, ""}: {
		Kind:          RouteRefundFailure,
		Preconditions: []Status{StatusCancelled, StatusReturned},
	},
	{events.InventoryReservedEvent, ""}: {
		Kind: RouteTransition, Target: StatusProcessing,
		Preconditions: []Status{StatusPaid},
	},
	{events.InventoryReservationFailedEvent, ""}: {
		Kind: RouteCompensation, Target: StatusCancelled,
		Preconditions: []Status{StatusPendingPayment, StatusPaid, StatusProcessing},
	},
	{events.ShippingStatusUpdatedEvent, ShippingPickedUp}: {
		Kind: RouteTransition, Target: StatusShipped,
		Preconditions: []Status{StatusReadyForShipment},
	},
	{events.ShippingStatusUpdatedEvent, ShippingDelivered}: {
		Kind: RouteTransition, Target: StatusDelivered,
		Preconditions: []Status{StatusShipped},
	},
	{events.ShippingStatusUpdatedEvent, ShippingFailed}: {
		Kind: RouteTransition, Target: StatusDeliveryFailed,
		Preconditions: []Status{StatusShipped},
	},
}

// RouteEvent looks up the route for an event type. subtype is only used by shipping updates.
func RouteEvent(eventType, subtype string) (EventRoute, error) {
	key := routeKey{eventType: eventType}
	if eventType == events.ShippingStatusUpdatedEvent {
		key.subtype = strings.ToUpper(strings.TrimSpace(subtype))
	}

	route, ok := eventRoutes[key]
	if !ok {
		if eventType == events.ShippingStatusUpdatedEvent {
			return EventRoute{}, NewError(KindValidationFailed, "unsupported %s status %q", eventType, subtype)
		}
		return EventRoute{}, NewError(KindValidationFailed, "unsupported event type %q", eventType)
	}

	return route, nil
}
