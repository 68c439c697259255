package domain

import "strings"

// Status is the closed set of order lifecycle states
type Status string

const (
	StatusCreated          Status = "CREATED"
	StatusPendingPayment   Status = "PENDING_PAYMENT"
	StatusPaid             Status = "PAID"
	StatusPaymentFailed    Status = "PAYMENT_FAILED"
	StatusProcessing       Status = "PROCESSING"
	StatusReadyForShipment Status = "READY_FOR_SHIPMENT"
	StatusShipped          Status = "SHIPPED"
	StatusDelivered        Status = "DELIVERED"
	StatusDeliveryFailed   Status = "DELIVERY_FAILED"
	StatusCompleted        Status = "COMPLETED"
	StatusCancelled        Status = "CANCELLED"
	StatusReturned         Status = "RETURNED"
	StatusRefunded         Status = "REFUNDED"
)

// AllStatuses lists every status in lifecycle order
func AllStatuses() []Status {
	return []Status{
		StatusCreated,
		StatusPendingPayment,
		StatusPaid,
		StatusPaymentFailed,
		StatusProcessing,
		StatusReadyForShipment,
		StatusShipped,
		StatusDelivered,
		StatusDeliveryFailed,
		StatusCompleted,
		StatusCancelled,
		StatusReturned,
		StatusRefunded,
	}
}

// ParseStatus accepts any casing and rejects values outside the closed set
func ParseStatus(value string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(value)))
	if !status.Valid() {
		return "", NewError(KindValidationFailed, "unknown order status %q", value)
	}
	return status, nil
}

func (s Status) String() string {
	return string(s)
}

// Valid reports whether s belongs to the closed set
func (s Status) Valid() bool {
	_, ok := transitionTable[s]
	return ok
}

// IsTerminal reports whether no transition leaves s
func (s Status) IsTerminal() bool {
	return s.Valid() && len(transitionTable[s]) == 0
}

// IsCancelable reports whether cancelOrder may start from s
func (s Status) IsCancelable() bool {
	switch s {
	case StatusCreated, StatusPendingPayment, StatusPaid, StatusProcessing, StatusReadyForShipment:
		return true
	default:
		return false
	}
}

// IsPaid reports whether s is PAID or a later state reached after payment capture
func (s Status) IsPaid() bool {
	switch s {
	case StatusPaid, StatusProcessing, StatusReadyForShipment, StatusShipped,
		StatusDelivered, StatusDeliveryFailed, StatusCompleted, StatusReturned:
		return true
	default:
		return false
	}
}
