package application

import (
	"context"
	"testing"
	"time"

	"github.com/draftea/order-system/orders-service/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinator_GetOrder(t *testing.T) {
	h := newHarness(t)
	order := h.seed(t, domain.StatusPaid, func(o *domain.Order) { o.References.PaymentRef = "pay_1" })

	found, err := h.coordinator.GetOrder(context.Background(), order.ID.String())
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
	assert.Equal(t, "pay_1", found.References.PaymentRef)

	_, err = h.coordinator.GetOrder(context.Background(), "missing")
	assert.Equal(t, domain.KindOrderNotFound, domain.KindOf(err))

	_, err = h.coordinator.GetOrder(context.Background(), "  ")
	assert.Equal(t, domain.KindValidationFailed, domain.KindOf(err))
}

func TestCoordinator_GetOrderHistory(t *testing.T) {
	h := newHarness(t)
	order := h.seed(t, domain.StatusProcessing, nil)

	h.now = h.now.Add(time.Minute)
	_, err := h.coordinator.UpdateStatus(context.Background(), &UpdateStatusCommand{
		OrderID: order.ID.String(),
		Status:  domain.StatusReadyForShipment,
		Options: StatusUpdateOptions{Notes: "packed", Metadata: map[string]interface{}{"station": "B4"}},
		Actor:   domain.SystemActor(),
	})
	require.NoError(t, err)

	history, err := h.coordinator.GetOrderHistory(context.Background(), order.ID.String())
	require.NoError(t, err)
	require.Len(t, history, 2)

	last := history[1]
	assert.Equal(t, domain.StatusProcessing, last.FromStatus)
	assert.Equal(t, domain.StatusReadyForShipment, last.ToStatus)
	assert.Equal(t, "packed", last.Notes)
	assert.Equal(t, "B4", last.Metadata["station"])
	assert.True(t, last.CreatedAt.After(history[0].CreatedAt))

	_, err = h.coordinator.GetOrderHistory(context.Background(), "missing")
	assert.Equal(t, domain.KindOrderNotFound, domain.KindOf(err))
}

func TestCoordinator_AttachShipment(t *testing.T) {
	tests := []struct {
		name          string
		status        domain.Status
		command       AttachShipmentCommand
		expectedError domain.ErrorKind
	}{
		{
			name:    "attaches carrier details while processing",
			status:  domain.StatusProcessing,
			command: AttachShipmentCommand{Carrier: "ups", TrackingRef: "1Z1", ShipmentRef: "shp_1", Actor: domain.Actor{Role: domain.RoleShippingIntegration}},
		},
		{
			name:          "requires carrier and tracking",
			status:        domain.StatusProcessing,
			command:       AttachShipmentCommand{Carrier: "ups", Actor: domain.Actor{Role: domain.RoleAdmin}},
			expectedError: domain.KindValidationFailed,
		},
		{
			name:          "customers may not attach shipments",
			status:        domain.StatusProcessing,
			command:       AttachShipmentCommand{Carrier: "ups", TrackingRef: "1Z1", Actor: domain.Actor{Role: domain.RoleCustomer}},
			expectedError: domain.KindPermissionDenied,
		},
		{
			name:          "shipped orders keep their carrier",
			status:        domain.StatusShipped,
			command:       AttachShipmentCommand{Carrier: "ups", TrackingRef: "1Z1", Actor: domain.Actor{Role: domain.RoleAdmin}},
			expectedError: domain.KindPreconditionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			order := h.seed(t, tt.status, nil)
			tt.command.OrderID = order.ID.String()

			updated, err := h.coordinator.AttachShipment(context.Background(), &tt.command)

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Equal(t, tt.expectedError, domain.KindOf(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.status, updated.Status)
			assert.Equal(t, "ups", updated.References.Carrier)
			assert.Equal(t, "1Z1", updated.References.TrackingRef)
			assert.Equal(t, "shp_1", updated.References.ShipmentRef)
			assert.Equal(t, 2, updated.Version.Value)

			again, err := h.coordinator.AttachShipment(context.Background(), &tt.command)
			require.NoError(t, err)
			assert.Equal(t, 2, again.Version.Value)
		})
	}
}

func TestCoordinator_ManualReview(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	flaggedAt := testNow
	flagged := h.seed(t, domain.StatusCancelled, func(o *domain.Order) {
		o.ManualReview = domain.ManualReview{Required: true, Reason: "compensation_failed: release", FlaggedAt: &flaggedAt}
	})
	h.seed(t, domain.StatusPaid, func(o *domain.Order) { o.References.PaymentRef = "pay_1" })

	listed, err := h.coordinator.ListManualReview(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, flagged.ID, listed[0].ID)

	_, err = h.coordinator.ResolveManualReview(ctx, &ResolveManualReviewCommand{
		OrderID: flagged.ID.String(),
		Actor:   domain.Actor{ID: "user-1", Role: domain.RoleCustomer},
	})
	assert.Equal(t, domain.KindPermissionDenied, domain.KindOf(err))

	resolved, err := h.coordinator.ResolveManualReview(ctx, &ResolveManualReviewCommand{
		OrderID: flagged.ID.String(),
		Notes:   "released by hand",
		Actor:   domain.Actor{ID: "ops-1", Role: domain.RoleAdmin},
	})
	require.NoError(t, err)
	assert.False(t, resolved.ManualReview.Required)
	assert.Equal(t, domain.StatusCancelled, resolved.Status)

	_, err = h.coordinator.ResolveManualReview(ctx, &ResolveManualReviewCommand{
		OrderID: flagged.ID.String(),
		Actor:   domain.Actor{ID: "ops-1", Role: domain.RoleAdmin},
	})
	assert.Equal(t, domain.KindPreconditionFailed, domain.KindOf(err))

	listed, err = h.coordinator.ListManualReview(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, listed)
}
