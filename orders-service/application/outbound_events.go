package application

import (
	"time"

	"github.com/draftea/order-system/orders-service/domain"
	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/models"
)

// OrderEventData is the payload of every outbound order event. It carries what the
// notification service needs to compose a message; no human readable text is rendered here.
type OrderEventData struct {
	OrderID        models.ID         `json:"order_id"`
	UserID         models.ID         `json:"user_id"`
	Status         domain.Status     `json:"status"`
	PreviousStatus domain.Status     `json:"previous_status,omitempty"`
	Currency       string            `json:"currency"`
	Totals         domain.Totals     `json:"totals"`
	ItemCount      int               `json:"item_count"`
	References     domain.References `json:"references"`
	Reason         string            `json:"reason,omitempty"`
	Compensations  []string          `json:"compensations,omitempty"`
	OccurredAt     time.Time         `json:"occurred_at"`
}

// ManualReviewData is the payload of order.manual_review_required
type ManualReviewData struct {
	OrderID   models.ID     `json:"order_id"`
	UserID    models.ID     `json:"user_id"`
	Status    domain.Status `json:"status"`
	Category  string        `json:"category"`
	Reason    string        `json:"reason"`
	FlaggedAt time.Time     `json:"flagged_at"`
}

func newOrderEvent(eventType string, order *domain.Order, previous domain.Status, reason string, now time.Time) *events.Event {
	itemCount := 0
	for _, item := range order.Items {
		itemCount += item.Quantity
	}

	evt := events.NewEvent(order.ID, eventType, OrderEventData{
		OrderID:        order.ID,
		UserID:         order.UserID,
		Status:         order.Status,
		PreviousStatus: previous,
		Currency:       order.Currency,
		Totals:         order.Totals,
		ItemCount:      itemCount,
		References:     order.References,
		Reason:         reason,
		OccurredAt:     now,
	})
	evt.Timestamp = now
	return evt.WithMetadata("order_status", order.Status.String())
}

func withCorrelation(evt *events.Event, source *events.Event) *events.Event {
	if source == nil {
		return evt
	}
	correlationID := source.CorrelationID
	if correlationID.IsEmpty() {
		correlationID = source.ID
	}
	return evt.WithCorrelationID(correlationID).WithMetadata("causation_id", source.ID.String())
}
