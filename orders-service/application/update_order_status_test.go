package application

import (
	"context"
	"testing"
	"time"

	"github.com/draftea/order-system/orders-service/domain"
	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCoordinator_UpdateStatus(t *testing.T) {
	admin := domain.Actor{ID: "ops-1", Role: domain.RoleAdmin}
	customer := domain.Actor{ID: "user-1", Role: domain.RoleCustomer}

	deliveredAgo := func(d time.Duration) func(order *domain.Order) {
		return func(order *domain.Order) {
			at := testNow.Add(-d)
			order.Milestones.DeliveredAt = &at
			order.References.PaymentRef = "pay_1"
		}
	}

	tests := []struct {
		name           string
		status         domain.Status
		seed           func(order *domain.Order)
		target         domain.Status
		options        StatusUpdateOptions
		actor          domain.Actor
		setupMocks     func(h *harness, order *domain.Order)
		expectedError  domain.ErrorKind
		expectedStatus domain.Status
		expectedEvents []string
		check          func(t *testing.T, h *harness, resp *UpdateStatusResponse)
	}{
		{
			name:           "system marks a processing order ready",
			status:         domain.StatusProcessing,
			target:         domain.StatusReadyForShipment,
			actor:          domain.SystemActor(),
			expectedStatus: domain.StatusReadyForShipment,
			expectedEvents: []string{events.OrderReadyForShipmentEvent},
		},
		{
			name:           "admin ships with carrier details in the request",
			status:         domain.StatusReadyForShipment,
			target:         domain.StatusShipped,
			options:        StatusUpdateOptions{Carrier: "fedex", TrackingRef: "7489"},
			actor:          admin,
			expectedStatus: domain.StatusShipped,
			expectedEvents: []string{events.OrderShippedEvent},
			check: func(t *testing.T, h *harness, resp *UpdateStatusResponse) {
				assert.Equal(t, "fedex", resp.Order.References.Carrier)
				assert.NotNil(t, resp.Order.Milestones.ShippedAt)
			},
		},
		{
			name:           "shipping without carrier fails the precondition",
			status:         domain.StatusReadyForShipment,
			target:         domain.StatusShipped,
			actor:          admin,
			expectedError:  domain.KindPreconditionFailed,
			expectedStatus: domain.StatusReadyForShipment,
		},
		{
			name:           "customer cannot ship",
			status:         domain.StatusReadyForShipment,
			target:         domain.StatusShipped,
			options:        StatusUpdateOptions{Carrier: "fedex", TrackingRef: "7489"},
			actor:          customer,
			expectedError:  domain.KindPermissionDenied,
			expectedStatus: domain.StatusReadyForShipment,
		},
		{
			name:           "skipping states is an invalid transition",
			status:         domain.StatusPaid,
			target:         domain.StatusShipped,
			actor:          admin,
			expectedError:  domain.KindInvalidTransition,
			expectedStatus: domain.StatusPaid,
		},
		{
			name:   "return within the window requests a refund",
			status: domain.StatusDelivered,
			seed:   deliveredAgo(24 * time.Hour),
			target: domain.StatusReturned,
			actor:  customer,
			setupMocks: func(h *harness, order *domain.Order) {
				h.payment.EXPECT().RequestRefund(mock.Anything, "pay_1", order.ID, mock.Anything, "order returned").Return(nil).Once()
			},
			expectedStatus: domain.StatusReturned,
			expectedEvents: []string{events.OrderReturnedEvent},
			check: func(t *testing.T, h *harness, resp *UpdateStatusResponse) {
				assert.Equal(t, 1, resp.Order.RefundAttempts)
			},
		},
		{
			name:           "return after the window fails the precondition",
			status:         domain.StatusDelivered,
			seed:           deliveredAgo(31 * 24 * time.Hour),
			target:         domain.StatusReturned,
			actor:          customer,
			expectedError:  domain.KindPreconditionFailed,
			expectedStatus: domain.StatusDelivered,
		},
		{
			name:   "failed refund on return flags the order",
			status: domain.StatusDelivered,
			seed:   deliveredAgo(time.Hour),
			target: domain.StatusReturned,
			actor:  admin,
			setupMocks: func(h *harness, order *domain.Order) {
				h.payment.EXPECT().RequestRefund(mock.Anything, "pay_1", order.ID, mock.Anything, mock.Anything).
					Return(domain.NewError(domain.KindPermanentDownstreamFailure, "payment voided")).Once()
			},
			expectedStatus: domain.StatusReturned,
			expectedEvents: []string{events.OrderReturnedEvent, events.OrderManualReviewRequiredEvent},
			check: func(t *testing.T, h *harness, resp *UpdateStatusResponse) {
				assert.True(t, resp.Order.ManualReview.Required)
				assert.Equal(t, 0, resp.Order.RefundAttempts)
			},
		},
		{
			name:           "requesting the current status is a no-op",
			status:         domain.StatusProcessing,
			target:         domain.StatusProcessing,
			actor:          admin,
			expectedStatus: domain.StatusProcessing,
			check: func(t *testing.T, h *harness, resp *UpdateStatusResponse) {
				assert.False(t, resp.Applied)
				assert.Len(t, h.history(t, resp.Order.ID), 1)
			},
		},
		{
			name:   "cancelling goes through the compensation flow",
			status: domain.StatusProcessing,
			target: domain.StatusCancelled,
			actor:  admin,
			setupMocks: func(h *harness, order *domain.Order) {
				h.inventory.EXPECT().Release(mock.Anything, order.ID).Return(nil).Once()
			},
			expectedStatus: domain.StatusCancelled,
			expectedEvents: []string{events.OrderCancelledEvent},
		},
		{
			name:           "unknown status is rejected",
			status:         domain.StatusProcessing,
			target:         domain.Status("LOST"),
			actor:          admin,
			expectedError:  domain.KindValidationFailed,
			expectedStatus: domain.StatusProcessing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			order := h.seed(t, tt.status, tt.seed)
			if tt.setupMocks != nil {
				tt.setupMocks(h, order)
			}

			resp, err := h.coordinator.UpdateStatus(context.Background(), &UpdateStatusCommand{
				OrderID: order.ID.String(),
				Status:  tt.target,
				Options: tt.options,
				Actor:   tt.actor,
			})

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Equal(t, tt.expectedError, domain.KindOf(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.status, resp.PreviousStatus)
				assert.Equal(t, tt.expectedStatus, resp.Order.Status)
			}

			assert.Equal(t, tt.expectedStatus, h.reload(t, order.ID).Status)
			assert.Equal(t, tt.expectedEvents, nilIfEmpty(h.publisher.Types()))

			if tt.check != nil {
				tt.check(t, h, resp)
			}
		})
	}
}

func TestCoordinator_BulkUpdateStatus(t *testing.T) {
	h := newHarness(t)
	ready := h.seed(t, domain.StatusProcessing, nil)
	shipped := h.seed(t, domain.StatusShipped, nil)
	alsoReady := h.seed(t, domain.StatusProcessing, nil)

	results, err := h.coordinator.BulkUpdateStatus(context.Background(), &BulkUpdateStatusCommand{
		OrderIDs: []string{ready.ID.String(), shipped.ID.String(), "missing", alsoReady.ID.String()},
		Status:   domain.StatusReadyForShipment,
		Actor:    domain.SystemActor(),
	})
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, ready.ID.String(), results[0].OrderID)
	assert.True(t, results[0].Success)
	assert.Equal(t, domain.StatusProcessing, results[0].PreviousStatus)
	require.NotNil(t, results[0].NewStatus)
	assert.Equal(t, domain.StatusReadyForShipment, *results[0].NewStatus)

	assert.False(t, results[1].Success)
	assert.Equal(t, domain.StatusShipped, results[1].PreviousStatus)
	assert.Nil(t, results[1].NewStatus)
	require.NotNil(t, results[1].Error)
	assert.Equal(t, domain.KindInvalidTransition, results[1].Error.Kind)

	assert.Equal(t, "missing", results[2].OrderID)
	require.NotNil(t, results[2].Error)
	assert.Equal(t, domain.KindOrderNotFound, results[2].Error.Kind)

	assert.True(t, results[3].Success)

	assert.Equal(t, domain.StatusReadyForShipment, h.reload(t, alsoReady.ID).Status)
	assert.Equal(t, domain.StatusShipped, h.reload(t, shipped.ID).Status)
}

func TestCoordinator_BulkUpdateStatus_PanicIsIsolated(t *testing.T) {
	h := newHarness(t)
	first := h.seed(t, domain.StatusPendingPayment, nil)
	boom := h.seed(t, domain.StatusPendingPayment, nil)
	last := h.seed(t, domain.StatusPendingPayment, nil)

	h.inventory.EXPECT().Release(mock.Anything, mock.Anything).RunAndReturn(func(_ context.Context, id models.ID) error {
		if id == boom.ID {
			panic("inventory client bug")
		}
		return nil
	}).Times(3)

	results, err := h.coordinator.BulkUpdateStatus(context.Background(), &BulkUpdateStatusCommand{
		OrderIDs: []string{first.ID.String(), boom.ID.String(), last.ID.String()},
		Status:   domain.StatusCancelled,
		Actor:    domain.Actor{ID: "ops-1", Role: domain.RoleAdmin},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[0].Success)
	assert.True(t, results[2].Success)

	assert.False(t, results[1].Success)
	assert.Equal(t, boom.ID.String(), results[1].OrderID)
	require.NotNil(t, results[1].Error)
	assert.Equal(t, domain.KindTransientInfrastructure, results[1].Error.Kind)
	assert.Contains(t, results[1].Error.Message, "inventory client bug")

	assert.Equal(t, domain.StatusCancelled, h.reload(t, first.ID).Status)
	assert.Equal(t, domain.StatusCancelled, h.reload(t, last.ID).Status)
}

func TestCoordinator_BulkUpdateStatus_Validation(t *testing.T) {
	tests := []struct {
		name    string
		command *BulkUpdateStatusCommand
	}{
		{name: "nil command"},
		{name: "no ids", command: &BulkUpdateStatusCommand{Status: domain.StatusCompleted}},
		{name: "unknown status", command: &BulkUpdateStatusCommand{OrderIDs: []string{"a"}, Status: "LOST"}},
		{name: "too many ids", command: &BulkUpdateStatusCommand{OrderIDs: make([]string, MaxBulkOrders+1), Status: domain.StatusCompleted}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			_, err := h.coordinator.BulkUpdateStatus(context.Background(), tt.command)

			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidationFailed))
		})
	}
}
