package application

import (
	"context"
	"strings"

	"github.com/draftea/order-system/orders-service/domain"
	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/logging"
	"github.com/draftea/order-system/shared/models"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateOrderCommand represents the command to create an order
type CreateOrderCommand struct {
	OrderID  string            `json:"order_id,omitempty"`
	UserID   string            `json:"user_id"`
	Currency string            `json:"currency"`
	Items    []domain.LineItem `json:"items"`
	Tax      decimal.Decimal   `json:"tax"`
	Shipping decimal.Decimal   `json:"shipping"`
	Discount decimal.Decimal   `json:"discount"`
	Total    *decimal.Decimal  `json:"total,omitempty"`
	// PaymentRef is a pre-authorized payment intent; capture is requested once the order awaits payment
	PaymentRef string       `json:"payment_ref,omitempty"`
	Actor      domain.Actor `json:"-"`
}

// CreateOrder validates the request, checks stock, stores the order and drives it to
// PENDING_PAYMENT. It requests the reservation but does not wait for its confirmation.
func (c *Coordinator) CreateOrder(ctx context.Context, cmd *CreateOrderCommand) (order *domain.Order, err error) {
	ctx, _, finish := startOperation(ctx, "create_order")
	defer func() { finish(statusOf(err)) }()

	if cmd == nil {
		return nil, domain.NewError(domain.KindValidationFailed, "command is required")
	}

	now := c.now()
	order, err = domain.NewOrder(domain.OrderDraft{
		ID:       models.ID(strings.TrimSpace(cmd.OrderID)),
		UserID:   models.ID(strings.TrimSpace(cmd.UserID)),
		Items:    cmd.Items,
		Currency: cmd.Currency,
		Tax:      cmd.Tax,
		Shipping: cmd.Shipping,
		Discount: cmd.Discount,
		Total:    cmd.Total,
	}, c.config.TotalEpsilon, now)
	if err != nil {
		return nil, err
	}

	logger := logging.FromContext(ctx).With(zap.String("order_id", order.ID.String()))
	ctx = logging.WithLogger(ctx, logger)

	if err := c.checkAvailability(ctx, order.Items); err != nil {
		return nil, err
	}

	actor := cmd.Actor
	if actor.Role == "" {
		actor = domain.Actor{ID: order.UserID.String(), Role: domain.RoleCustomer}
	}

	entry := domain.NewStatusHistoryEntry(order.ID, "", domain.StatusCreated, actor, "order created", now)
	if err := c.orders.Create(ctx, order, entry); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return nil, domain.NewError(domain.KindValidationFailed, "order %s already exists", order.ID)
		}
		return nil, asTransient(err, "failed to create order")
	}
	logger.Info("order created", zap.String("total", order.Totals.Total.StringFixed(2)), zap.String("currency", order.Currency))

	outcome, err := c.transition(ctx, transitionRequest{
		OrderID: order.ID,
		Target:  domain.StatusPendingPayment,
		Actor:   domain.SystemActor(),
		Reason:  "awaiting payment",
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to move order to pending payment")
	}
	order = outcome.Order

	_ = c.emit(ctx,
		newOrderEvent(events.OrderCreatedEvent, order, "", "", now),
		newOrderEvent(events.OrderPendingPaymentEvent, order, domain.StatusCreated, "", c.now()),
	)

	if outcome.Decision.HasSideEffect(domain.SideEffectReserveInventory) {
		order, err = c.requestReservation(ctx, order)
		if err != nil {
			return nil, err
		}
	}

	if cmd.PaymentRef != "" && order.Status == domain.StatusPendingPayment {
		order = c.requestCapture(ctx, order, strings.TrimSpace(cmd.PaymentRef))
	}

	return order, nil
}

func (c *Coordinator) checkAvailability(ctx context.Context, items []domain.LineItem) error {
	var availability []domain.ItemAvailability
	err := c.callPort(ctx, "check availability", func(ctx context.Context) error {
		var err error
		availability, err = c.inventory.CheckAvailability(ctx, items)
		return err
	})
	if err != nil {
		return err
	}

	var missing []string
	for _, item := range availability {
		if !item.Sufficient() {
			missing = append(missing, item.ProductID)
		}
	}
	if len(missing) > 0 {
		return domain.NewError(domain.KindInventoryUnavailable, "insufficient stock for %s", strings.Join(missing, ", "))
	}
	return nil
}

// requestReservation asks inventory to hold the items. A rejection cancels the order;
// a transport failure leaves the order awaiting payment and flags it.
func (c *Coordinator) requestReservation(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	logger := logging.FromContext(ctx)

	var reservationRef string
	err := c.callPort(ctx, "reserve inventory", func(ctx context.Context) error {
		var err error
		reservationRef, err = c.inventory.Reserve(ctx, order.ID, order.Items)
		return err
	})

	switch {
	case err == nil:
		logger.Info("inventory reservation requested", zap.String("reservation_request", reservationRef))
		return order, nil
	case errors.Is(err, domain.ErrInventoryUnavailable):
		logger.Warn("inventory reservation rejected", zap.Error(err))
		if _, cancelErr := c.cancel(ctx, cancelRequest{
			OrderID: order.ID,
			Actor:   domain.SystemActor(),
			Reason:  "inventory reservation rejected",
			Failure: domain.FailureSignal{Kind: domain.FailureReservationRejected, Reason: "inventory reservation rejected"},
		}); cancelErr != nil {
			logger.Error("failed to cancel order after reservation rejection", zap.Error(cancelErr))
		}
		return nil, err
	default:
		flagged, flagErr := c.flagManualReview(ctx, order.ID, ReviewReservationFailed, err.Error(), false, nil)
		if flagErr != nil {
			logger.Error("failed to flag order for manual review", zap.Error(flagErr))
			return order, nil
		}
		return flagged, nil
	}
}

func (c *Coordinator) requestCapture(ctx context.Context, order *domain.Order, paymentRef string) *domain.Order {
	err := c.callPort(ctx, "request capture", func(ctx context.Context) error {
		return c.payment.RequestCapture(ctx, paymentRef, order.ID, order.Amount())
	})
	if err == nil {
		logging.FromContext(ctx).Info("payment capture requested", zap.String("payment_ref", paymentRef))
		return order
	}

	flagged, flagErr := c.flagManualReview(ctx, order.ID, ReviewCaptureFailed, err.Error(), false, nil)
	if flagErr != nil {
		logging.FromContext(ctx).Error("failed to flag order for manual review", zap.Error(flagErr))
		return order
	}
	return flagged
}
