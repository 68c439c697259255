package application

import (
	"context"
	"testing"
	"time"

	"github.com/draftea/order-system/orders-service/domain"
	"github.com/draftea/order-system/orders-service/infrastructure"
	"github.com/draftea/order-system/orders-service/mocks"
	"github.com/draftea/order-system/shared/events"
	sharedinfra "github.com/draftea/order-system/shared/infrastructure"
	"github.com/draftea/order-system/shared/models"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type harness struct {
	coordinator *Coordinator
	orders      *infrastructure.MemoryOrderRepository
	ledger      *infrastructure.MemoryEventLedger
	inventory   *mocks.MockInventoryPort
	payment     *mocks.MockPaymentPort
	publisher   *sharedinfra.MemoryEventPublisher
	now         time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		orders:    infrastructure.NewMemoryOrderRepository(),
		ledger:    infrastructure.NewMemoryEventLedger(),
		inventory: mocks.NewMockInventoryPort(t),
		payment:   mocks.NewMockPaymentPort(t),
		publisher: sharedinfra.NewMemoryEventPublisher(),
		now:       testNow,
	}

	h.coordinator = NewCoordinator(CoordinatorDependencies{
		Orders:    h.orders,
		Ledger:    h.ledger,
		Inventory: h.inventory,
		Payment:   h.payment,
		Publisher: h.publisher,
		Clock:     func() time.Time { return h.now },
	}, CoordinatorConfig{
		CASRetryInterval:    time.Millisecond,
		RefundRetryInterval: time.Millisecond,
		RefundMaxAttempts:   3,
	})

	return h
}

// withOrders builds a coordinator sharing the harness ports over another order store
func (h *harness) withOrders(orders domain.OrderRepository) *Coordinator {
	return NewCoordinator(CoordinatorDependencies{
		Orders:    orders,
		Ledger:    h.ledger,
		Inventory: h.inventory,
		Payment:   h.payment,
		Publisher: h.publisher,
		Clock:     func() time.Time { return h.now },
	}, h.coordinator.Config())
}

// cancellingRepository fails on a done context the way a database driver does, and
// cancels the caller right after the order is committed to cancelAfter
type cancellingRepository struct {
	*infrastructure.MemoryOrderRepository
	cancelAfter domain.Status
	cancel      context.CancelFunc
}

func (r *cancellingRepository) Load(ctx context.Context, id models.ID) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.MemoryOrderRepository.Load(ctx, id)
}

func (r *cancellingRepository) CompareAndSwapStatus(
	ctx context.Context,
	id models.ID,
	expectedVersion int,
	newStatus domain.Status,
	entry domain.StatusHistoryEntry,
	patch domain.OrderPatch,
) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	order, err := r.MemoryOrderRepository.CompareAndSwapStatus(ctx, id, expectedVersion, newStatus, entry, patch)
	if err == nil && newStatus == r.cancelAfter && r.cancel != nil {
		r.cancel()
	}
	return order, err
}

func (r *cancellingRepository) UpdateDetails(ctx context.Context, id models.ID, expectedVersion int, patch domain.OrderPatch) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.MemoryOrderRepository.UpdateDetails(ctx, id, expectedVersion, patch)
}

// liveContext matches port calls made with a context that is not done
func liveContext() interface{} {
	return mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil })
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testItems() []domain.LineItem {
	return []domain.LineItem{
		{ProductID: "sku-1", Quantity: 2, UnitPrice: dec("10.00")},
	}
}

// seed stores an order directly in the given status
func (h *harness) seed(t *testing.T, status domain.Status, mutate func(order *domain.Order)) *domain.Order {
	t.Helper()

	order, err := domain.NewOrder(domain.OrderDraft{
		UserID:   "user-1",
		Items:    testItems(),
		Currency: "USD",
		Tax:      dec("1.50"),
		Shipping: dec("5.00"),
	}, domain.DefaultTotalEpsilon, h.now)
	require.NoError(t, err)

	order.Status = status
	if mutate != nil {
		mutate(order)
	}

	entry := domain.NewStatusHistoryEntry(order.ID, "", status, domain.SystemActor(), "seeded", h.now)
	require.NoError(t, h.orders.Create(context.Background(), order, entry))
	return order
}

func (h *harness) reload(t *testing.T, id models.ID) *domain.Order {
	t.Helper()
	order, err := h.orders.Load(context.Background(), id)
	require.NoError(t, err)
	return order
}

func (h *harness) history(t *testing.T, id models.ID) []domain.StatusHistoryEntry {
	t.Helper()
	entries, err := h.orders.History(context.Background(), id)
	require.NoError(t, err)
	return entries
}

func inbound(orderID models.ID, eventType string, data InboundEventData) *events.Event {
	return events.NewEvent(orderID, eventType, data)
}

func statuses(entries []domain.StatusHistoryEntry) []domain.Status {
	out := make([]domain.Status, len(entries))
	for i, e := range entries {
		out[i] = e.ToStatus
	}
	return out
}

func TestTransition_RetriesVersionConflicts(t *testing.T) {
	repo := mocks.NewMockOrderRepository(t)
	coordinator := NewCoordinator(CoordinatorDependencies{Orders: repo}, CoordinatorConfig{CASRetryInterval: time.Millisecond})

	order, err := domain.NewOrder(domain.OrderDraft{UserID: "user-1", Items: testItems(), Currency: "USD"}, domain.DefaultTotalEpsilon, testNow)
	require.NoError(t, err)
	order.Status = domain.StatusProcessing

	moved := order.Clone()
	moved.Transition(domain.StatusReadyForShipment, domain.OrderPatch{}, testNow)

	repo.EXPECT().Load(mock.Anything, order.ID).Return(order.Clone(), nil).Times(2)
	repo.EXPECT().CompareAndSwapStatus(mock.Anything, order.ID, 1, domain.StatusReadyForShipment, mock.Anything, domain.OrderPatch{}).
		Return(nil, domain.NewError(domain.KindVersionConflict, "conflict")).Once()
	repo.EXPECT().CompareAndSwapStatus(mock.Anything, order.ID, 1, domain.StatusReadyForShipment, mock.Anything, domain.OrderPatch{}).
		Return(moved, nil).Once()

	outcome, err := coordinator.transition(context.Background(), transitionRequest{
		OrderID: order.ID,
		Target:  domain.StatusReadyForShipment,
		Actor:   domain.SystemActor(),
	})

	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.Equal(t, domain.StatusReadyForShipment, outcome.Order.Status)
}

func TestTransition_ConflictsExhaustAsRetryable(t *testing.T) {
	repo := mocks.NewMockOrderRepository(t)
	coordinator := NewCoordinator(CoordinatorDependencies{Orders: repo}, CoordinatorConfig{
		CASRetryInterval: time.Millisecond,
		CASMaxAttempts:   3,
	})

	order, err := domain.NewOrder(domain.OrderDraft{UserID: "user-1", Items: testItems(), Currency: "USD"}, domain.DefaultTotalEpsilon, testNow)
	require.NoError(t, err)
	order.Status = domain.StatusProcessing

	repo.EXPECT().Load(mock.Anything, order.ID).Return(order.Clone(), nil).Times(3)
	repo.EXPECT().CompareAndSwapStatus(mock.Anything, order.ID, 1, domain.StatusReadyForShipment, mock.Anything, domain.OrderPatch{}).
		Return(nil, domain.NewError(domain.KindVersionConflict, "conflict")).Times(3)

	_, err = coordinator.transition(context.Background(), transitionRequest{
		OrderID: order.ID,
		Target:  domain.StatusReadyForShipment,
		Actor:   domain.SystemActor(),
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrVersionConflict))
	assert.True(t, domain.IsRetryable(err))
}

func TestTransition_StoreFailureIsTransient(t *testing.T) {
	repo := mocks.NewMockOrderRepository(t)
	coordinator := NewCoordinator(CoordinatorDependencies{Orders: repo}, CoordinatorConfig{CASRetryInterval: time.Millisecond})

	repo.EXPECT().Load(mock.Anything, models.ID("order-1")).Return(nil, errors.New("connection reset")).Once()

	_, err := coordinator.transition(context.Background(), transitionRequest{
		OrderID: "order-1",
		Target:  domain.StatusReadyForShipment,
		Actor:   domain.SystemActor(),
	})

	require.Error(t, err)
	assert.Equal(t, domain.KindTransientInfrastructure, domain.KindOf(err))
}

func TestTransition_DecisionErrorsAreNotRetried(t *testing.T) {
	h := newHarness(t)
	order := h.seed(t, domain.StatusShipped, nil)

	_, err := h.coordinator.transition(context.Background(), transitionRequest{
		OrderID: order.ID,
		Target:  domain.StatusPaid,
		Actor:   domain.Actor{ID: "pay", Role: domain.RolePaymentIntegration},
	})

	require.Error(t, err)
	assert.Equal(t, domain.KindInvalidTransition, domain.KindOf(err))
	assert.Len(t, h.history(t, order.ID), 1)
}

func TestCoordinator_PublishFailureKeepsCommittedTransition(t *testing.T) {
	h := newHarness(t)
	publisher := mocks.NewMockPublisher(t)
	coordinator := NewCoordinator(CoordinatorDependencies{
		Orders:    h.orders,
		Ledger:    h.ledger,
		Inventory: h.inventory,
		Payment:   h.payment,
		Publisher: publisher,
		Clock:     func() time.Time { return h.now },
	}, CoordinatorConfig{CASRetryInterval: time.Millisecond})

	order := h.seed(t, domain.StatusProcessing, nil)
	publisher.EXPECT().Publish(mock.Anything, mock.MatchedBy(func(evt *events.Event) bool {
		return evt.EventType == events.OrderReadyForShipmentEvent && evt.AggregateID == order.ID
	})).Return(errors.New("sns unavailable")).Once()

	resp, err := coordinator.UpdateStatus(context.Background(), &UpdateStatusCommand{
		OrderID: order.ID.String(),
		Status:  domain.StatusReadyForShipment,
		Actor:   domain.SystemActor(),
	})

	require.NoError(t, err)
	assert.True(t, resp.Applied)
	assert.Equal(t, domain.StatusReadyForShipment, h.reload(t, order.ID).Status)
}
