package domain

import "github.com/draftea/order-system/shared/models"

// CompensationKind enumerates the compensating actions
type CompensationKind string

const (
	CompensationReleaseReservation CompensationKind = "release-reservation"
	CompensationRefund             CompensationKind = "refund"
	CompensationNotifyCancellation CompensationKind = "notify-cancellation"
)

// CompensationAction is produced by the planner and consumed immediately by the executor
type CompensationAction struct {
	Kind      CompensationKind `json:"kind"`
	TargetRef string           `json:"target_ref"`
	Amount    *models.Money    `json:"amount,omitempty"`
	Reason    string           `json:"reason"`
}

// FailureKind is what triggered the compensation
type FailureKind string

const (
	FailureInventoryUnavailable FailureKind = "inventory_unavailable"
	FailureReservationRejected  FailureKind = "reservation_rejected"
	FailureCancellation         FailureKind = "cancellation"
)

// FailureSignal describes why an order is being unwound
type FailureSignal struct {
	Kind   FailureKind
	Reason string
}

// PlanCompensation returns the ordered compensation list for the order as it was before cancelling:
// release any held reservation, refund a captured payment, then notify the customer.
func PlanCompensation(order *Order, failure FailureSignal) []CompensationAction {
	reason := failure.Reason
	if reason == "" {
		reason = string(failure.Kind)
	}

	var actions []CompensationAction

	if failure.Kind != FailureReservationRejected && order.HadReservation() {
		target := order.References.ReservationRef
		if target == "" {
			target = order.ID.String()
		}
		actions = append(actions, CompensationAction{
			Kind:      CompensationReleaseReservation,
			TargetRef: target,
			Reason:    reason,
		})
	}

	if order.References.PaymentRef != "" {
		amount := order.Amount()
		actions = append(actions, CompensationAction{
			Kind:      CompensationRefund,
			TargetRef: order.References.PaymentRef,
			Amount:    &amount,
			Reason:    reason,
		})
	}

	actions = append(actions, CompensationAction{
		Kind:      CompensationNotifyCancellation,
		TargetRef: order.UserID.String(),
		Reason:    reason,
	})

	return actions
}

// Kinds lists the kinds of a plan in order
func Kinds(actions []CompensationAction) []CompensationKind {
	kinds := make([]CompensationKind, len(actions))
	for i, a := range actions {
		kinds[i] = a.Kind
	}
	return kinds
}
