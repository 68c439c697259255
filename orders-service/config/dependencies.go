package config

import (
	"context"
	"fmt"

	"github.com/draftea/order-system/orders-service/application"
	"github.com/draftea/order-system/orders-service/domain"
	"github.com/draftea/order-system/orders-service/handlers"
	"github.com/draftea/order-system/orders-service/infrastructure"
	"github.com/draftea/order-system/shared/events"
	sharedinfra "github.com/draftea/order-system/shared/infrastructure"
	"github.com/draftea/order-system/shared/telemetry"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Dependencies struct {
	// Storage
	DB    *sqlx.DB
	Redis *redis.Client

	Orders domain.OrderRepository
	Ledger domain.ProcessedEventLedger

	// Downstream services
	Inventory domain.InventoryPort
	Payment   domain.PaymentPort

	// Saga
	Coordinator *application.Coordinator

	// Handlers
	OrderHandlers      *handlers.OrderHandlers
	OrderEventHandlers *handlers.OrderEventHandlers

	// Messaging
	EventPublisher  events.Publisher
	EventSubscriber *sharedinfra.SQSEventSubscriber

	// Telemetry
	Telemetry         *telemetry.Telemetry
	TelemetryShutdown func()
}

func BuildDependencies(ctx context.Context, config *Config, logger *zap.Logger) (deps *Dependencies, err error) {
	built := &Dependencies{}
	defer func() {
		if err != nil {
			_ = built.Close()
		}
	}()
	deps = built

	if config.Telemetry.Enabled {
		telConfig := telemetry.OrderServiceConfig.
			WithOTLPEndpoint(config.Telemetry.OTLPEndpoint).
			WithVersion(config.Telemetry.ServiceVersion)
		tel, shutdown, err := telemetry.InitTelemetry(ctx, telConfig)
		if err != nil {
			logger.Warn("telemetry disabled", zap.Error(err))
		} else {
			deps.Telemetry = tel
			deps.TelemetryShutdown = shutdown
		}
	}

	if err := deps.buildStorage(ctx, config, logger); err != nil {
		return nil, err
	}

	deps.Inventory = infrastructure.NewInventoryHTTPClient(config.Downstream.InventoryURL, config.Downstream.Timeout)
	deps.Payment = infrastructure.NewPaymentHTTPClient(config.Downstream.PaymentURL, config.Downstream.Timeout)

	if err := deps.buildMessaging(ctx, config, logger); err != nil {
		return nil, err
	}

	epsilon, err := decimal.NewFromString(config.Saga.TotalEpsilon)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid saga.total_epsilon %q", config.Saga.TotalEpsilon)
	}

	deps.Coordinator = application.NewCoordinator(
		application.CoordinatorDependencies{
			Orders:    deps.Orders,
			Ledger:    deps.Ledger,
			Inventory: deps.Inventory,
			Payment:   deps.Payment,
			Publisher: deps.EventPublisher,
		},
		application.CoordinatorConfig{
			ReturnWindow:        config.Saga.ReturnWindow,
			DownstreamTimeout:   config.Downstream.Timeout,
			CASMaxAttempts:      config.Saga.CASMaxAttempts,
			RefundMaxAttempts:   config.Saga.RefundMaxAttempts,
			RefundRetryInterval: config.Saga.RefundRetryBackoff,
			BulkConcurrency:     config.Saga.BulkConcurrency,
			TotalEpsilon:        epsilon,
		},
	)

	deps.OrderHandlers = handlers.NewOrderHandlers(deps.Coordinator)
	deps.OrderEventHandlers = handlers.NewOrderEventHandlers(deps.Coordinator)

	return deps, nil
}

func (d *Dependencies) buildStorage(ctx context.Context, config *Config, logger *zap.Logger) error {
	if config.UsesPostgres() {
		db, err := sqlx.ConnectContext(ctx, "postgres", config.GetDatabaseURL())
		if err != nil {
			return errors.Wrap(err, "failed to connect to database")
		}
		d.DB = db

		if config.Database.Migrate {
			if err := infrastructure.Migrate(ctx, db); err != nil {
				return err
			}
		}
	}

	switch config.Store.Backend {
	case BackendPostgres:
		d.Orders = infrastructure.NewPostgresOrderRepository(d.DB)
	case BackendMemory:
		logger.Warn("orders are kept in memory and lost on restart")
		d.Orders = infrastructure.NewMemoryOrderRepository()
	}

	switch config.Ledger.Backend {
	case BackendPostgres:
		d.Ledger = infrastructure.NewPostgresEventLedger(d.DB)
	case BackendRedis:
		d.Redis = redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		if err := d.Redis.Ping(ctx).Err(); err != nil {
			return errors.Wrap(err, "failed to connect to redis")
		}
		d.Ledger = infrastructure.NewRedisEventLedger(d.Redis, config.ServiceName, config.Redis.LedgerTTL)
	case BackendMemory:
		d.Ledger = infrastructure.NewMemoryEventLedger()
	}

	logger.Info("storage ready",
		zap.String("store", config.Store.Backend),
		zap.String("ledger", config.Ledger.Backend),
	)
	return nil
}

func (d *Dependencies) buildMessaging(ctx context.Context, config *Config, logger *zap.Logger) error {
	if !config.AWS.Enabled {
		logger.Warn("AWS disabled, outbound events are only recorded in memory")
		d.EventPublisher = sharedinfra.NewMemoryEventPublisher()
		return nil
	}

	opts := sharedinfra.AWSOptions{
		Region:      config.AWS.Region,
		EndpointSNS: config.AWS.EndpointSNS,
		EndpointSQS: config.AWS.EndpointSQS,
	}
	awsCfg, err := sharedinfra.LoadAWSConfig(ctx, opts)
	if err != nil {
		return err
	}

	d.EventPublisher = sharedinfra.NewSNSEventPublisher(sharedinfra.NewSNSClient(awsCfg, opts), config.AWS.SNSTopicArn)
	d.EventSubscriber = sharedinfra.NewSQSEventSubscriber(
		sharedinfra.NewSQSClient(awsCfg, opts),
		config.AWS.SQSQueueURL,
		sharedinfra.WithWorkers(config.Subscriber.Workers),
		sharedinfra.WithVisibilityTimeout(config.Subscriber.VisibilityTimeout),
		sharedinfra.WithSubscriberLogger(logger.Named("sqs")),
	)
	return nil
}

// StartSubscriber registers the inbound event routes and starts polling
func (d *Dependencies) StartSubscriber(ctx context.Context) error {
	if d.EventSubscriber == nil {
		return nil
	}

	for _, pattern := range handlers.InboundPatterns {
		if err := d.EventSubscriber.Subscribe(ctx, pattern, d.OrderEventHandlers); err != nil {
			return errors.Wrapf(err, "failed to subscribe to %s", pattern)
		}
	}
	return d.EventSubscriber.Start(ctx)
}

// Close closes all dependencies
func (d *Dependencies) Close() error {
	var errs []error

	if d.EventSubscriber != nil {
		if err := d.EventSubscriber.Stop(context.Background()); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop event subscriber: %w", err))
		}
	}

	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if d.TelemetryShutdown != nil {
		d.TelemetryShutdown()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing dependencies: %v", errs)
	}

	return nil
}
