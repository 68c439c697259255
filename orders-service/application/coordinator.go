package application

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/draftea/order-system/orders-service/domain"
	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/logging"
	"github.com/draftea/order-system/shared/models"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CoordinatorConfig holds the saga tuning knobs
type CoordinatorConfig struct {
	ReturnWindow        time.Duration
	DownstreamTimeout   time.Duration
	CASMaxAttempts      uint
	CASRetryInterval    time.Duration
	RefundMaxAttempts   int
	RefundRetryInterval time.Duration
	BulkConcurrency     int
	TotalEpsilon        decimal.Decimal
}

func (c CoordinatorConfig) withDefaults() CoordinatorConfig {
	if c.ReturnWindow <= 0 {
		c.ReturnWindow = domain.DefaultReturnWindow
	}
	if c.DownstreamTimeout <= 0 {
		c.DownstreamTimeout = 5 * time.Second
	}
	if c.CASMaxAttempts == 0 {
		c.CASMaxAttempts = 5
	}
	if c.CASRetryInterval <= 0 {
		c.CASRetryInterval = 10 * time.Millisecond
	}
	if c.RefundMaxAttempts <= 0 {
		c.RefundMaxAttempts = 3
	}
	if c.RefundRetryInterval <= 0 {
		c.RefundRetryInterval = 200 * time.Millisecond
	}
	if c.BulkConcurrency <= 0 {
		c.BulkConcurrency = 8
	}
	if c.TotalEpsilon.IsZero() {
		c.TotalEpsilon = domain.DefaultTotalEpsilon
	}
	return c
}

// CoordinatorDependencies are the ports the saga talks to
type CoordinatorDependencies struct {
	Orders    domain.OrderRepository
	Ledger    domain.ProcessedEventLedger
	Inventory domain.InventoryPort
	Payment   domain.PaymentPort
	Publisher events.Publisher
	Clock     func() time.Time
}

// Coordinator owns every write to order status and history. It keeps no per-call state,
// so one instance is shared by all HTTP requests and queue workers.
type Coordinator struct {
	orders    domain.OrderRepository
	ledger    domain.ProcessedEventLedger
	inventory domain.InventoryPort
	payment   domain.PaymentPort
	publisher events.Publisher
	machine   *domain.StateMachine
	config    CoordinatorConfig
	now       func() time.Time
}

// NewCoordinator creates the saga coordinator
func NewCoordinator(deps CoordinatorDependencies, config CoordinatorConfig) *Coordinator {
	config = config.withDefaults()

	clock := deps.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}

	return &Coordinator{
		orders:    deps.Orders,
		ledger:    deps.Ledger,
		inventory: deps.Inventory,
		payment:   deps.Payment,
		publisher: deps.Publisher,
		machine:   domain.NewStateMachine(config.ReturnWindow),
		config:    config,
		now:       clock,
	}
}

// Config returns the effective configuration
func (c *Coordinator) Config() CoordinatorConfig {
	return c.config
}

// errStale marks an event whose precondition no longer matches the order
var errStale = errors.New("stale event")

// transitionRequest describes one state machine gated status change
type transitionRequest struct {
	OrderID  models.ID
	Target   domain.Status
	Actor    domain.Actor
	Reason   string
	Notes    string
	Metadata map[string]interface{}
	Patch    domain.OrderPatch
	// AllowNoop turns "already in target" into a successful no-op
	AllowNoop bool
	// Guard runs on every freshly loaded order before the decision
	Guard func(order *domain.Order) error
	// Prepare runs after an allowed decision and may enrich the history entry before commit
	Prepare func(order *domain.Order, entry domain.StatusHistoryEntry) domain.StatusHistoryEntry
}

type transitionOutcome struct {
	Previous *domain.Order
	Order    *domain.Order
	Decision domain.TransitionResult
	Entry    domain.StatusHistoryEntry
	Applied  bool
}

// transition runs load → decide → compare-and-swap, retrying on version conflicts only
func (c *Coordinator) transition(ctx context.Context, req transitionRequest) (*transitionOutcome, error) {
	operation := func() (*transitionOutcome, error) {
		order, err := c.load(ctx, req.OrderID)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		if req.AllowNoop && order.Status == req.Target {
			return &transitionOutcome{Previous: order, Order: order}, nil
		}

		if req.Guard != nil {
			if err := req.Guard(order); err != nil {
				return nil, backoff.Permanent(err)
			}
		}

		now := c.now()
		decision := c.machine.Decide(order.Status, req.Target, req.Actor.Role, domain.FactsFor(order, req.Patch, now))
		if decision.Err != nil {
			return nil, backoff.Permanent(decision.Err)
		}

		entry := domain.NewStatusHistoryEntry(order.ID, order.Status, req.Target, req.Actor, req.Reason, now).
			WithNotes(req.Notes)
		for k, v := range req.Metadata {
			entry = entry.WithMetadata(k, v)
		}
		if req.Prepare != nil {
			entry = req.Prepare(order, entry)
		}

		updated, err := c.orders.CompareAndSwapStatus(ctx, order.ID, order.Version.Value, req.Target, entry, req.Patch)
		if err != nil {
			if errors.Is(err, domain.ErrVersionConflict) {
				return nil, err
			}
			return nil, backoff.Permanent(asTransient(err, "failed to persist status"))
		}

		return &transitionOutcome{
			Previous: order,
			Order:    updated,
			Decision: decision,
			Entry:    entry,
			Applied:  true,
		}, nil
	}

	outcome, err := backoff.Retry(ctx, operation, c.casRetryOptions()...)
	if err != nil {
		return nil, casExhausted(err)
	}

	if outcome.Applied {
		logging.FromContext(ctx).Info("order status changed",
			zap.String("order_id", outcome.Order.ID.String()),
			zap.String("from", outcome.Previous.Status.String()),
			zap.String("to", outcome.Order.Status.String()),
			zap.String("actor", string(req.Actor.Role)),
			zap.Int("version", outcome.Order.Version.Value),
		)
		recordTransition(ctx, outcome.Previous.Status, outcome.Order.Status)
	}

	return outcome, nil
}

// updateDetails applies a non-status patch under the same version check and retry policy.
// build returns a nil patch to skip the write.
func (c *Coordinator) updateDetails(ctx context.Context, orderID models.ID, build func(order *domain.Order) (*domain.OrderPatch, error)) (*domain.Order, error) {
	operation := func() (*domain.Order, error) {
		order, err := c.load(ctx, orderID)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		patch, err := build(order)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		if patch == nil {
			return order, nil
		}

		updated, err := c.orders.UpdateDetails(ctx, order.ID, order.Version.Value, *patch)
		if err != nil {
			if errors.Is(err, domain.ErrVersionConflict) {
				return nil, err
			}
			return nil, backoff.Permanent(asTransient(err, "failed to update order"))
		}
		return updated, nil
	}

	order, err := backoff.Retry(ctx, operation, c.casRetryOptions()...)
	if err != nil {
		return nil, casExhausted(err)
	}
	return order, nil
}

func (c *Coordinator) casRetryOptions() []backoff.RetryOption {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.config.CASRetryInterval
	b.MaxInterval = 20 * c.config.CASRetryInterval

	return []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.config.CASMaxAttempts),
	}
}

// casExhausted keeps version conflicts retryable by redelivery once local retries run out
func casExhausted(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.WrapError(domain.KindTransientInfrastructure, err, "operation cancelled")
	}
	return err
}

func (c *Coordinator) load(ctx context.Context, orderID models.ID) (*domain.Order, error) {
	order, err := c.orders.Load(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return nil, err
		}
		return nil, asTransient(err, "failed to load order")
	}
	return order, nil
}

// callPort runs a downstream call under the configured timeout. Deadline expiry and
// unclassified transport errors become TransientInfrastructureFailure.
func (c *Coordinator) callPort(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, c.config.DownstreamTimeout)
	defer cancel()

	if err := fn(callCtx); err != nil {
		return asTransient(err, operation)
	}
	return nil
}

func asTransient(err error, message string) error {
	if err == nil {
		return nil
	}
	if domain.KindOf(err) != "" {
		return errors.Wrap(err, message)
	}
	return domain.WrapError(domain.KindTransientInfrastructure, err, message)
}

// emit publishes outbound order events. Failures are logged and returned.
func (c *Coordinator) emit(ctx context.Context, evts ...*events.Event) error {
	if len(evts) == 0 || c.publisher == nil {
		return nil
	}

	err := c.callPort(ctx, "publish order events", func(ctx context.Context) error {
		return c.publisher.Publish(ctx, evts...)
	})
	if err != nil {
		types := make([]string, len(evts))
		for i, evt := range evts {
			types[i] = evt.EventType
		}
		logging.FromContext(ctx).Error("failed to publish order events",
			zap.Strings("event_types", types),
			zap.Error(err),
		)
	}
	return err
}
