package handlers

import (
	"context"

	"github.com/draftea/order-system/orders-service/application"
	"github.com/draftea/order-system/shared/events"
	"github.com/pkg/errors"
)

// InboundPatterns are the topic patterns the order service consumes
var InboundPatterns = []string{"payment.*", "inventory.*", "shipping.*"}

// OrderEventHandlers feeds queue messages into the saga coordinator
type OrderEventHandlers struct {
	coordinator *application.Coordinator
}

// NewOrderEventHandlers creates new order event handlers
func NewOrderEventHandlers(coordinator *application.Coordinator) *OrderEventHandlers {
	return &OrderEventHandlers{coordinator: coordinator}
}

// HandlerID returns the unique identifier for this event handler
func (h *OrderEventHandlers) HandlerID() string {
	return "order-service-event-handler"
}

// Handle implements the events.EventHandler interface. Only retryable results return an
// error, which keeps the message on the queue for redelivery.
func (h *OrderEventHandlers) Handle(ctx context.Context, event *events.Event) error {
	result := h.coordinator.ApplyExternalEvent(ctx, event)
	if result.Acknowledge() {
		return nil
	}

	if result.Err != nil {
		return errors.Wrapf(result.Err, "event %s needs redelivery", result.EventID)
	}
	return errors.Errorf("event %s needs redelivery", result.EventID)
}
