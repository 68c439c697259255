package application

import (
	"context"
	"time"

	"github.com/draftea/order-system/orders-service/domain"
	"github.com/draftea/order-system/shared/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// startOperation opens a span and returns a finisher that records the operation metrics
func startOperation(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span, func(status string)) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, operation, trace.WithAttributes(attrs...))

	finish := func(status string) {
		telemetry.RecordCounter(ctx, "order_saga_operations_total", "Total order saga operations", 1,
			attribute.String("operation", operation),
			attribute.String("status", status),
		)
		telemetry.RecordHistogram(ctx, "order_saga_operation_duration_seconds", "Order saga operation duration", time.Since(start).Seconds(),
			attribute.String("operation", operation),
			attribute.String("status", status),
		)
		span.End()
	}

	return ctx, span, finish
}

func statusOf(err error) string {
	if err == nil {
		return "success"
	}
	if kind := domain.KindOf(err); kind != "" {
		return string(kind)
	}
	return "error"
}

func recordTransition(ctx context.Context, from, to domain.Status) {
	telemetry.RecordCounter(ctx, "order_transitions_total", "Order status transitions", 1,
		attribute.String("from", from.String()),
		attribute.String("to", to.String()),
	)
}

func recordManualReview(ctx context.Context, reason string) {
	telemetry.RecordCounter(ctx, "order_manual_review_total", "Orders flagged for manual review", 1,
		attribute.String("reason", reason),
	)
}

func recordEventOutcome(ctx context.Context, eventType string, outcome domain.EventOutcome) {
	telemetry.RecordCounter(ctx, "order_inbound_events_total", "Inbound events by outcome", 1,
		attribute.String("event_type", eventType),
		attribute.String("outcome", string(outcome)),
	)
}
