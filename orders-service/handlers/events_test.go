package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/draftea/order-system/orders-service/application"
	"github.com/draftea/order-system/orders-service/domain"
	"github.com/draftea/order-system/orders-service/mocks"
	"github.com/draftea/order-system/shared/events"
	sharedinfra "github.com/draftea/order-system/shared/infrastructure"
	"github.com/draftea/order-system/shared/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOrderEventHandlers_Handle(t *testing.T) {
	tests := []struct {
		name        string
		event       func(t *testing.T, s *testServer) *events.Event
		setupMocks  func(ledger *mocks.MockProcessedEventLedger)
		expectError bool
	}{
		{
			name: "applied event is acknowledged",
			event: func(t *testing.T, s *testServer) *events.Event {
				order := s.seed(t, domain.StatusPendingPayment)
				return events.NewEvent(order.ID, events.PaymentCompletedEvent, application.InboundEventData{PaymentRef: "pay_1"})
			},
			setupMocks: func(ledger *mocks.MockProcessedEventLedger) {
				ledger.EXPECT().IsProcessed(mock.Anything, "payment", mock.Anything).Return(false, nil).Once()
				ledger.EXPECT().MarkProcessed(mock.Anything, mock.Anything).Return(nil).Once()
			},
		},
		{
			name: "unknown order is acknowledged",
			event: func(*testing.T, *testServer) *events.Event {
				return events.NewEvent(models.GenerateUUID(), events.PaymentCompletedEvent, application.InboundEventData{PaymentRef: "pay_1"})
			},
			setupMocks: func(ledger *mocks.MockProcessedEventLedger) {
				ledger.EXPECT().IsProcessed(mock.Anything, "payment", mock.Anything).Return(false, nil).Once()
				ledger.EXPECT().MarkProcessed(mock.Anything, mock.Anything).Return(nil).Once()
			},
		},
		{
			name: "duplicate is acknowledged",
			event: func(t *testing.T, s *testServer) *events.Event {
				order := s.seed(t, domain.StatusPendingPayment)
				return events.NewEvent(order.ID, events.PaymentCompletedEvent, application.InboundEventData{PaymentRef: "pay_1"})
			},
			setupMocks: func(ledger *mocks.MockProcessedEventLedger) {
				ledger.EXPECT().IsProcessed(mock.Anything, "payment", mock.Anything).Return(true, nil).Once()
			},
		},
		{
			name: "ledger outage asks for redelivery",
			event: func(t *testing.T, s *testServer) *events.Event {
				order := s.seed(t, domain.StatusPendingPayment)
				return events.NewEvent(order.ID, events.PaymentCompletedEvent, application.InboundEventData{PaymentRef: "pay_1"})
			},
			setupMocks: func(ledger *mocks.MockProcessedEventLedger) {
				ledger.EXPECT().IsProcessed(mock.Anything, "payment", mock.Anything).Return(false, errors.New("redis down")).Once()
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			ledger := mocks.NewMockProcessedEventLedger(t)
			tt.setupMocks(ledger)

			coordinator := application.NewCoordinator(application.CoordinatorDependencies{
				Orders:    s.orders,
				Ledger:    ledger,
				Inventory: s.inventory,
				Payment:   s.payment,
				Publisher: sharedinfra.NewMemoryEventPublisher(),
			}, application.CoordinatorConfig{CASRetryInterval: time.Millisecond})

			err := NewOrderEventHandlers(coordinator).Handle(context.Background(), tt.event(t, s))

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "needs redelivery")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestOrderEventHandlers_Patterns(t *testing.T) {
	handler := NewOrderEventHandlers(nil)
	assert.Equal(t, "order-service-event-handler", handler.HandlerID())

	for _, eventType := range []string{events.PaymentCompletedEvent, events.InventoryReservedEvent, events.ShippingStatusUpdatedEvent} {
		matched := false
		for _, pattern := range InboundPatterns {
			if events.Topic(eventType).Matches(events.Topic(pattern)) {
				matched = true
			}
		}
		assert.True(t, matched, eventType)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	NewMetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
