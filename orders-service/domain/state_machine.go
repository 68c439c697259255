package domain

import (
	"time"

	"github.com/draftea/order-system/shared/events"
)

// DefaultReturnWindow applies when no return window is configured
const DefaultReturnWindow = 30 * 24 * time.Hour

type statusSet map[Status]struct{}

func setOf(statuses ...Status) statusSet {
	set := make(statusSet, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	return set
}

func (s statusSet) has(status Status) bool {
	_, ok := s[status]
	return ok
}

// transitionTable is the structural gate. Built once and only read afterwards.
var transitionTable = map[Status]statusSet{
	StatusCreated:          setOf(StatusPendingPayment, StatusCancelled),
	StatusPendingPayment:   setOf(StatusPaid, StatusPaymentFailed, StatusCancelled),
	StatusPaid:             setOf(StatusProcessing, StatusRefunded, StatusCancelled),
	StatusProcessing:       setOf(StatusReadyForShipment, StatusCancelled, StatusRefunded),
	StatusReadyForShipment: setOf(StatusShipped, StatusCancelled, StatusRefunded),
	StatusShipped:          setOf(StatusDelivered, StatusDeliveryFailed),
	StatusDelivered:        setOf(StatusCompleted, StatusReturned),
	StatusDeliveryFailed:   setOf(StatusProcessing, StatusReturned, StatusCancelled),
	StatusReturned:         setOf(StatusRefunded, StatusCompleted),
	StatusCancelled:        setOf(StatusRefunded),
	StatusPaymentFailed:    setOf(StatusPendingPayment, StatusCancelled),
	StatusRefunded:         setOf(),
	StatusCompleted:        setOf(),
}

// outboundEvents names the event announced when an order enters a status
var outboundEvents = map[Status]string{
	StatusPendingPayment:   events.OrderPendingPaymentEvent,
	StatusPaid:             events.OrderPaymentCompletedEvent,
	StatusPaymentFailed:    events.OrderPaymentFailedEvent,
	StatusProcessing:       events.OrderProcessingEvent,
	StatusReadyForShipment: events.OrderReadyForShipmentEvent,
	StatusShipped:          events.OrderShippedEvent,
	StatusDelivered:        events.OrderDeliveredEvent,
	StatusDeliveryFailed:   events.OrderDeliveryFailedEvent,
	StatusCompleted:        events.OrderCompletedEvent,
	StatusReturned:         events.OrderReturnedEvent,
	StatusCancelled:        events.OrderCancelledEvent,
	StatusRefunded:         events.OrderRefundedEvent,
}

// IsStructurallyAllowed reports whether from → to exists in the transition table
func IsStructurallyAllowed(from, to Status) bool {
	targets, ok := transitionTable[from]
	return ok && targets.has(to)
}

// AllowedTargets returns the statuses reachable from s in one step
func AllowedTargets(s Status) []Status {
	var targets []Status
	for _, candidate := range AllStatuses() {
		if transitionTable[s].has(candidate) {
			targets = append(targets, candidate)
		}
	}
	return targets
}

// SideEffect is work the coordinator must perform after a transition commits
type SideEffect string

const (
	SideEffectReserveInventory SideEffect = "reserve-inventory"
	SideEffectCompensate       SideEffect = "compensate"
	SideEffectRequestRefund    SideEffect = "request-refund"
	SideEffectEmitEvent        SideEffect = "emit-event"
)

// TransitionFacts are the order attributes the data preconditions look at
type TransitionFacts struct {
	PaymentRef  string
	Carrier     string
	TrackingRef string
	DeliveredAt *time.Time
	Now         time.Time
}

// FactsFor merges the pending patch over the stored order
func FactsFor(order *Order, patch OrderPatch, now time.Time) TransitionFacts {
	facts := TransitionFacts{
		PaymentRef:  order.References.PaymentRef,
		Carrier:     order.References.Carrier,
		TrackingRef: order.References.TrackingRef,
		DeliveredAt: order.Milestones.DeliveredAt,
		Now:         now,
	}
	setIfPresent(&facts.PaymentRef, patch.PaymentRef)
	setIfPresent(&facts.Carrier, patch.Carrier)
	setIfPresent(&facts.TrackingRef, patch.TrackingRef)
	return facts
}

// TransitionResult is the outcome of Decide
type TransitionResult struct {
	From          Status
	To            Status
	Allowed       bool
	SideEffects   []SideEffect
	OutboundEvent string
	Err           error
}

// HasSideEffect reports whether the result requires the given effect
func (r TransitionResult) HasSideEffect(effect SideEffect) bool {
	for _, e := range r.SideEffects {
		if e == effect {
			return true
		}
	}
	return false
}

// StateMachine decides transitions. It holds configuration only and performs no I/O.
type StateMachine struct {
	returnWindow time.Duration
}

// NewStateMachine creates a state machine with the given return window
func NewStateMachine(returnWindow time.Duration) *StateMachine {
	if returnWindow <= 0 {
		returnWindow = DefaultReturnWindow
	}
	return &StateMachine{returnWindow: returnWindow}
}

// ReturnWindow returns the configured return window
func (m *StateMachine) ReturnWindow() time.Duration {
	return m.returnWindow
}

// Decide applies the structural gate, then the role gate, then the data preconditions
func (m *StateMachine) Decide(from, to Status, role ActorRole, facts TransitionFacts) TransitionResult {
	result := TransitionResult{From: from, To: to}

	if !IsStructurallyAllowed(from, to) {
		result.Err = NewError(KindInvalidTransition, "transition %s -> %s is not allowed", from, to)
		return result
	}

	if !CanDrive(role, from, to) {
		result.Err = NewError(KindPermissionDenied, "role %s may not move an order from %s to %s", role, from, to)
		return result
	}

	if err := m.checkPreconditions(to, facts); err != nil {
		result.Err = err
		return result
	}

	result.Allowed = true
	result.SideEffects = sideEffectsFor(from, to)
	result.OutboundEvent = outboundEvents[to]
	return result
}

func (m *StateMachine) checkPreconditions(to Status, facts TransitionFacts) error {
	switch to {
	case StatusPaid:
		if facts.PaymentRef == "" {
			return NewError(KindPreconditionFailed, "entering %s requires a payment reference", to)
		}
	case StatusShipped:
		if facts.Carrier == "" || facts.TrackingRef == "" {
			return NewError(KindPreconditionFailed, "entering %s requires a carrier and a tracking reference", to)
		}
	case StatusReturned:
		if facts.DeliveredAt == nil {
			return NewError(KindPreconditionFailed, "entering %s requires a delivery timestamp", to)
		}
		if facts.Now.Sub(*facts.DeliveredAt) > m.returnWindow {
			return NewError(KindPreconditionFailed, "return window of %s has elapsed", m.returnWindow)
		}
	}
	return nil
}

func sideEffectsFor(from, to Status) []SideEffect {
	var effects []SideEffect
	switch {
	case from == StatusCreated && to == StatusPendingPayment:
		effects = append(effects, SideEffectReserveInventory)
	case to == StatusCancelled:
		effects = append(effects, SideEffectCompensate)
	case to == StatusReturned:
		effects = append(effects, SideEffectRequestRefund)
	}
	return append(effects, SideEffectEmitEvent)
}
