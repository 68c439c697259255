package application

import (
	"context"
	"strings"

	"github.com/draftea/order-system/orders-service/domain"
	"github.com/draftea/order-system/shared/logging"
	"github.com/draftea/order-system/shared/models"
	"go.uber.org/zap"
)

// AttachShipmentCommand represents the command to attach carrier details to an order
type AttachShipmentCommand struct {
	OrderID     string       `json:"order_id"`
	Carrier     string       `json:"carrier"`
	TrackingRef string       `json:"tracking_ref"`
	ShipmentRef string       `json:"shipment_ref,omitempty"`
	Actor       domain.Actor `json:"-"`
}

var shipmentEditors = map[domain.ActorRole]bool{
	domain.RoleShippingIntegration: true,
	domain.RoleAdmin:               true,
	domain.RoleSystem:              true,
}

// AttachShipment stores carrier and tracking details ahead of the SHIPPED transition
func (c *Coordinator) AttachShipment(ctx context.Context, cmd *AttachShipmentCommand) (order *domain.Order, err error) {
	ctx, _, finish := startOperation(ctx, "attach_shipment")
	defer func() { finish(statusOf(err)) }()

	if cmd == nil || strings.TrimSpace(cmd.OrderID) == "" {
		return nil, domain.NewError(domain.KindValidationFailed, "order ID is required")
	}
	carrier := strings.TrimSpace(cmd.Carrier)
	trackingRef := strings.TrimSpace(cmd.TrackingRef)
	if carrier == "" || trackingRef == "" {
		return nil, domain.NewError(domain.KindValidationFailed, "carrier and tracking reference are required")
	}
	if !shipmentEditors[cmd.Actor.Role] {
		return nil, domain.NewError(domain.KindPermissionDenied, "role %s may not attach shipments", cmd.Actor.Role)
	}

	orderID := models.ID(strings.TrimSpace(cmd.OrderID))
	order, err = c.updateDetails(ctx, orderID, func(current *domain.Order) (*domain.OrderPatch, error) {
		if current.Status != domain.StatusProcessing && current.Status != domain.StatusReadyForShipment {
			return nil, domain.NewError(domain.KindPreconditionFailed, "shipment cannot be attached to an order in %s", current.Status)
		}
		refs := current.References
		if refs.Carrier == carrier && refs.TrackingRef == trackingRef && (cmd.ShipmentRef == "" || refs.ShipmentRef == cmd.ShipmentRef) {
			return nil, nil
		}
		return &domain.OrderPatch{Carrier: carrier, TrackingRef: trackingRef, ShipmentRef: strings.TrimSpace(cmd.ShipmentRef)}, nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("shipment attached",
		zap.String("order_id", orderID.String()),
		zap.String("carrier", carrier),
		zap.String("tracking_ref", trackingRef),
	)
	return order, nil
}
