package application

import (
	"context"
	"testing"

	"github.com/draftea/order-system/orders-service/domain"
	"github.com/draftea/order-system/shared/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCoordinator_CancelOrder(t *testing.T) {
	customer := domain.Actor{ID: "user-1", Role: domain.RoleCustomer}
	admin := domain.Actor{ID: "ops-1", Role: domain.RoleAdmin}

	tests := []struct {
		name            string
		status          domain.Status
		seed            func(order *domain.Order)
		actor           domain.Actor
		setupMocks      func(h *harness, order *domain.Order)
		expectedError   domain.ErrorKind
		expectedPlan    []domain.CompensationKind
		expectedRefunds int
		expectedReview  bool
	}{
		{
			name:   "customer cancels a paid order",
			status: domain.StatusPaid,
			seed: func(order *domain.Order) {
				order.References.PaymentRef = "pay_1"
			},
			actor: customer,
			setupMocks: func(h *harness, order *domain.Order) {
				h.inventory.EXPECT().Release(mock.Anything, order.ID).Return(nil).Once()
				h.payment.EXPECT().RequestRefund(mock.Anything, "pay_1", order.ID, mock.Anything, "changed my mind").Return(nil).Once()
			},
			expectedPlan: []domain.CompensationKind{
				domain.CompensationReleaseReservation,
				domain.CompensationRefund,
				domain.CompensationNotifyCancellation,
			},
			expectedRefunds: 1,
		},
		{
			name:   "cancelling before payment only releases and notifies",
			status: domain.StatusPendingPayment,
			actor:  customer,
			setupMocks: func(h *harness, order *domain.Order) {
				h.inventory.EXPECT().Release(mock.Anything, order.ID).Return(nil).Once()
			},
			expectedPlan: []domain.CompensationKind{
				domain.CompensationReleaseReservation,
				domain.CompensationNotifyCancellation,
			},
		},
		{
			name:   "cancelling a fresh order only notifies",
			status: domain.StatusCreated,
			actor:  admin,
			expectedPlan: []domain.CompensationKind{
				domain.CompensationNotifyCancellation,
			},
		},
		{
			name:   "failed release flags the order and still refunds",
			status: domain.StatusReadyForShipment,
			seed: func(order *domain.Order) {
				order.References.PaymentRef = "pay_1"
				order.References.ReservationRef = "rsv_1"
			},
			actor: admin,
			setupMocks: func(h *harness, order *domain.Order) {
				h.inventory.EXPECT().Release(mock.Anything, order.ID).
					Return(domain.NewError(domain.KindPermanentDownstreamFailure, "already picked")).Once()
				h.payment.EXPECT().RequestRefund(mock.Anything, "pay_1", order.ID, mock.Anything, mock.Anything).Return(nil).Once()
			},
			expectedPlan: []domain.CompensationKind{
				domain.CompensationReleaseReservation,
				domain.CompensationRefund,
				domain.CompensationNotifyCancellation,
			},
			expectedRefunds: 1,
			expectedReview:  true,
		},
		{
			name:          "shipped orders cannot be cancelled",
			status:        domain.StatusShipped,
			actor:         admin,
			expectedError: domain.KindNotCancelable,
		},
		{
			name:          "delivery failed orders cannot be cancelled through cancelOrder",
			status:        domain.StatusDeliveryFailed,
			actor:         admin,
			expectedError: domain.KindNotCancelable,
		},
		{
			name:          "integrations may not cancel",
			status:        domain.StatusPaid,
			seed:          func(order *domain.Order) { order.References.PaymentRef = "pay_1" },
			actor:         domain.Actor{ID: "pay", Role: domain.RolePaymentIntegration},
			expectedError: domain.KindPermissionDenied,
		},
		{
			name:          "actor is required",
			status:        domain.StatusPaid,
			expectedError: domain.KindValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			order := h.seed(t, tt.status, tt.seed)
			if tt.setupMocks != nil {
				tt.setupMocks(h, order)
			}

			resp, err := h.coordinator.CancelOrder(context.Background(), &CancelOrderCommand{
				OrderID: order.ID.String(),
				Reason:  "changed my mind",
				Actor:   tt.actor,
			})

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Equal(t, tt.expectedError, domain.KindOf(err))
				assert.Equal(t, tt.status, h.reload(t, order.ID).Status)
				assert.Empty(t, h.publisher.Types())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.PreviousStatus)
			assert.Equal(t, domain.StatusCancelled, resp.Order.Status)
			assert.Equal(t, tt.expectedReview, resp.Order.ManualReview.Required)

			kinds := make([]domain.CompensationKind, len(resp.Compensations.Results))
			for i, r := range resp.Compensations.Results {
				kinds[i] = r.Action.Kind
			}
			assert.Equal(t, tt.expectedPlan, kinds)

			stored := h.reload(t, order.ID)
			assert.Equal(t, domain.StatusCancelled, stored.Status)
			assert.Equal(t, tt.expectedRefunds, stored.RefundAttempts)
			assert.Equal(t, tt.expectedReview, stored.ManualReview.Required)
			assert.Equal(t, events.OrderCancelledEvent, h.publisher.Types()[0])

			history := h.history(t, order.ID)
			last := history[len(history)-1]
			assert.Equal(t, tt.actor, last.Actor)
			assert.Equal(t, "changed my mind", last.Reason)
		})
	}
}

func TestCoordinator_CancelOrder_Twice(t *testing.T) {
	h := newHarness(t)
	order := h.seed(t, domain.StatusCreated, nil)
	cmd := &CancelOrderCommand{OrderID: order.ID.String(), Actor: domain.SystemActor()}

	_, err := h.coordinator.CancelOrder(context.Background(), cmd)
	require.NoError(t, err)

	_, err = h.coordinator.CancelOrder(context.Background(), cmd)
	require.Error(t, err)
	assert.Equal(t, domain.KindNotCancelable, domain.KindOf(err))
	assert.Equal(t, []string{events.OrderCancelledEvent}, h.publisher.Types())
}

func TestCoordinator_CancelOrder_UnknownOrder(t *testing.T) {
	h := newHarness(t)

	_, err := h.coordinator.CancelOrder(context.Background(), &CancelOrderCommand{OrderID: "nope", Actor: domain.SystemActor()})

	require.Error(t, err)
	assert.Equal(t, domain.KindOrderNotFound, domain.KindOf(err))
}

func TestCoordinator_CancelOrder_ClientGoneAfterCommit(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	coordinator := h.withOrders(&cancellingRepository{
		MemoryOrderRepository: h.orders,
		cancelAfter:           domain.StatusCancelled,
		cancel:                cancel,
	})
	order := h.seed(t, domain.StatusPaid, func(o *domain.Order) {
		o.References.PaymentRef = "pay_1"
	})
	h.inventory.EXPECT().Release(liveContext(), order.ID).Return(nil).Once()
	h.payment.EXPECT().RequestRefund(liveContext(), "pay_1", order.ID, mock.Anything, "changed my mind").Return(nil).Once()

	resp, err := coordinator.CancelOrder(ctx, &CancelOrderCommand{
		OrderID: order.ID.String(),
		Reason:  "changed my mind",
		Actor:   domain.Actor{ID: "user-1", Role: domain.RoleCustomer},
	})

	require.NoError(t, err)
	assert.Empty(t, resp.Compensations.Failed())
	assert.Error(t, ctx.Err())

	stored := h.reload(t, order.ID)
	assert.Equal(t, domain.StatusCancelled, stored.Status)
	assert.Equal(t, 1, stored.RefundAttempts)
	assert.False(t, stored.ManualReview.Required)
	assert.Equal(t, []string{events.OrderCancelledEvent}, h.publisher.Types())
}
