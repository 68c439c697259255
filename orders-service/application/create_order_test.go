package application

import (
	"context"
	"testing"

	"github.com/draftea/order-system/orders-service/domain"
	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCoordinator_CreateOrder(t *testing.T) {
	const orderID = "9b2f6c1e-3d7a-4a55-8f3e-0c1d2e3f4a5b"

	validCommand := func() *CreateOrderCommand {
		return &CreateOrderCommand{
			OrderID:  orderID,
			UserID:   "user-1",
			Currency: "usd",
			Items:    testItems(),
			Tax:      dec("1.50"),
			Shipping: dec("5.00"),
		}
	}
	inStock := []domain.ItemAvailability{{ProductID: "sku-1", Requested: 2, Available: 10}}

	tests := []struct {
		name          string
		command       func() *CreateOrderCommand
		setupMocks    func(h *harness)
		expectedError domain.ErrorKind
		check         func(t *testing.T, h *harness, order *domain.Order)
	}{
		{
			name:    "creates the order and requests the reservation",
			command: validCommand,
			setupMocks: func(h *harness) {
				h.inventory.EXPECT().CheckAvailability(mock.Anything, testItems()).Return(inStock, nil).Once()
				h.inventory.EXPECT().Reserve(mock.Anything, models.ID(orderID), testItems()).Return("rsv-req-1", nil).Once()
			},
			check: func(t *testing.T, h *harness, order *domain.Order) {
				assert.Equal(t, domain.StatusPendingPayment, order.Status)
				assert.Equal(t, "USD", order.Currency)
				assert.True(t, order.Totals.Total.Equal(dec("26.50")))
				assert.Empty(t, order.References.ReservationRef)
				assert.Equal(t, []string{events.OrderCreatedEvent, events.OrderPendingPaymentEvent}, h.publisher.Types())
				assert.Equal(t, []domain.Status{domain.StatusCreated, domain.StatusPendingPayment}, statuses(h.history(t, order.ID)))
			},
		},
		{
			name: "requests capture for a pre-authorized payment",
			command: func() *CreateOrderCommand {
				cmd := validCommand()
				cmd.PaymentRef = "pi_123"
				return cmd
			},
			setupMocks: func(h *harness) {
				h.inventory.EXPECT().CheckAvailability(mock.Anything, mock.Anything).Return(inStock, nil).Once()
				h.inventory.EXPECT().Reserve(mock.Anything, models.ID(orderID), mock.Anything).Return("rsv-req-1", nil).Once()
				h.payment.EXPECT().RequestCapture(mock.Anything, "pi_123", models.ID(orderID),
					mock.MatchedBy(func(m models.Money) bool { return m.Amount.Equal(dec("26.50")) && m.Currency == "USD" }),
				).Return(nil).Once()
			},
			check: func(t *testing.T, h *harness, order *domain.Order) {
				assert.Equal(t, domain.StatusPendingPayment, order.Status)
				assert.Empty(t, order.References.PaymentRef)
				assert.False(t, order.ManualReview.Required)
			},
		},
		{
			name: "capture request failure flags the order",
			command: func() *CreateOrderCommand {
				cmd := validCommand()
				cmd.PaymentRef = "pi_123"
				return cmd
			},
			setupMocks: func(h *harness) {
				h.inventory.EXPECT().CheckAvailability(mock.Anything, mock.Anything).Return(inStock, nil).Once()
				h.inventory.EXPECT().Reserve(mock.Anything, mock.Anything, mock.Anything).Return("rsv-req-1", nil).Once()
				h.payment.EXPECT().RequestCapture(mock.Anything, "pi_123", mock.Anything, mock.Anything).
					Return(domain.NewError(domain.KindPermanentDownstreamFailure, "intent expired")).Once()
			},
			check: func(t *testing.T, h *harness, order *domain.Order) {
				assert.Equal(t, domain.StatusPendingPayment, order.Status)
				assert.True(t, order.ManualReview.Required)
				assert.Contains(t, order.ManualReview.Reason, ReviewCaptureFailed)
				assert.Contains(t, h.publisher.Types(), events.OrderManualReviewRequiredEvent)
			},
		},
		{
			name:    "reservation transport failure keeps the order and flags it",
			command: validCommand,
			setupMocks: func(h *harness) {
				h.inventory.EXPECT().CheckAvailability(mock.Anything, mock.Anything).Return(inStock, nil).Once()
				h.inventory.EXPECT().Reserve(mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("connection refused")).Once()
			},
			check: func(t *testing.T, h *harness, order *domain.Order) {
				assert.Equal(t, domain.StatusPendingPayment, order.Status)
				assert.True(t, order.ManualReview.Required)
				assert.Contains(t, order.ManualReview.Reason, ReviewReservationFailed)
			},
		},
		{
			name:    "insufficient stock creates nothing",
			command: validCommand,
			setupMocks: func(h *harness) {
				h.inventory.EXPECT().CheckAvailability(mock.Anything, mock.Anything).
					Return([]domain.ItemAvailability{{ProductID: "sku-1", Requested: 2, Available: 1}}, nil).Once()
			},
			expectedError: domain.KindInventoryUnavailable,
			check: func(t *testing.T, h *harness, _ *domain.Order) {
				_, err := h.orders.Load(context.Background(), orderID)
				assert.True(t, errors.Is(err, domain.ErrOrderNotFound))
				assert.Empty(t, h.publisher.Types())
			},
		},
		{
			name:    "availability check outage is transient",
			command: validCommand,
			setupMocks: func(h *harness) {
				h.inventory.EXPECT().CheckAvailability(mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()
			},
			expectedError: domain.KindTransientInfrastructure,
		},
		{
			name: "mismatched total is rejected",
			command: func() *CreateOrderCommand {
				cmd := validCommand()
				total := dec("30.00")
				cmd.Total = &total
				return cmd
			},
			setupMocks:    func(h *harness) {},
			expectedError: domain.KindValidationFailed,
		},
		{
			name: "total within epsilon is accepted",
			command: func() *CreateOrderCommand {
				cmd := validCommand()
				total := dec("26.505")
				cmd.Total = &total
				return cmd
			},
			setupMocks: func(h *harness) {
				h.inventory.EXPECT().CheckAvailability(mock.Anything, mock.Anything).Return(inStock, nil).Once()
				h.inventory.EXPECT().Reserve(mock.Anything, mock.Anything, mock.Anything).Return("rsv-req-1", nil).Once()
			},
			check: func(t *testing.T, h *harness, order *domain.Order) {
				assert.True(t, order.Totals.Total.Equal(dec("26.50")))
			},
		},
		{
			name: "missing items are rejected",
			command: func() *CreateOrderCommand {
				cmd := validCommand()
				cmd.Items = nil
				return cmd
			},
			setupMocks:    func(h *harness) {},
			expectedError: domain.KindValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.setupMocks(h)

			order, err := h.coordinator.CreateOrder(context.Background(), tt.command())

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Equal(t, tt.expectedError, domain.KindOf(err))
				assert.Nil(t, order)
			} else {
				require.NoError(t, err)
				require.NotNil(t, order)
			}

			if tt.check != nil {
				tt.check(t, h, order)
			}
		})
	}
}

func TestCoordinator_CreateOrder_ReservationRejectedCancels(t *testing.T) {
	h := newHarness(t)
	const orderID = "0f5e1a2b-8c9d-4e3f-a1b2-c3d4e5f6a7b8"

	h.inventory.EXPECT().CheckAvailability(mock.Anything, mock.Anything).
		Return([]domain.ItemAvailability{{ProductID: "sku-1", Requested: 2, Available: 2}}, nil).Once()
	h.inventory.EXPECT().Reserve(mock.Anything, models.ID(orderID), mock.Anything).
		Return("", domain.NewError(domain.KindInventoryUnavailable, "sold out")).Once()

	order, err := h.coordinator.CreateOrder(context.Background(), &CreateOrderCommand{
		OrderID:  orderID,
		UserID:   "user-1",
		Currency: "USD",
		Items:    testItems(),
	})

	require.Error(t, err)
	assert.Nil(t, order)
	assert.Equal(t, domain.KindInventoryUnavailable, domain.KindOf(err))

	stored := h.reload(t, orderID)
	assert.Equal(t, domain.StatusCancelled, stored.Status)
	assert.NotNil(t, stored.Milestones.CancelledAt)

	history := h.history(t, orderID)
	assert.Equal(t, []domain.Status{domain.StatusCreated, domain.StatusPendingPayment, domain.StatusCancelled}, statuses(history))
	assert.Equal(t, []string{string(domain.CompensationNotifyCancellation)}, history[2].Metadata["compensation_plan"])

	assert.Equal(t, []string{
		events.OrderCreatedEvent,
		events.OrderPendingPaymentEvent,
		events.OrderCancelledEvent,
	}, h.publisher.Types())
}

func TestCoordinator_CreateOrder_DuplicateID(t *testing.T) {
	h := newHarness(t)
	existing := h.seed(t, domain.StatusPendingPayment, nil)

	h.inventory.EXPECT().CheckAvailability(mock.Anything, mock.Anything).
		Return([]domain.ItemAvailability{{ProductID: "sku-1", Requested: 2, Available: 2}}, nil).Once()

	_, err := h.coordinator.CreateOrder(context.Background(), &CreateOrderCommand{
		OrderID:  existing.ID.String(),
		UserID:   "user-1",
		Currency: "USD",
		Items:    testItems(),
	})

	require.Error(t, err)
	assert.Equal(t, domain.KindValidationFailed, domain.KindOf(err))
	assert.Len(t, h.history(t, existing.ID), 1)
}
