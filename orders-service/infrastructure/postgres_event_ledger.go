package infrastructure

import (
	"context"

	"github.com/draftea/order-system/orders-service/domain"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// PostgresEventLedger implements ProcessedEventLedger on the processed_events table. The
// primary key on (source_type, event_id) settles concurrent marks.
type PostgresEventLedger struct {
	db *sqlx.DB
}

// NewPostgresEventLedger creates a new PostgresEventLedger
func NewPostgresEventLedger(db *sqlx.DB) *PostgresEventLedger {
	return &PostgresEventLedger{db: db}
}

// IsProcessed reports whether the event was already marked
func (l *PostgresEventLedger) IsProcessed(ctx context.Context, sourceType, eventID string) (bool, error) {
	var exists bool
	err := l.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM processed_events WHERE source_type = $1 AND event_id = $2)`,
		sourceType, eventID)
	if err != nil {
		return false, errors.Wrap(err, "failed to check processed event")
	}
	return exists, nil
}

// MarkProcessed inserts the record; a second insert for the same key returns ErrDuplicateKey
func (l *PostgresEventLedger) MarkProcessed(ctx context.Context, record domain.ProcessedEvent) error {
	_, err := l.db.NamedExecContext(ctx, `
		INSERT INTO processed_events (source_type, event_id, outcome, summary, processed_at)
		VALUES (:source_type, :event_id, :outcome, :summary, :processed_at)`, record)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.WrapError(domain.KindDuplicateKey, err, "event already processed")
		}
		return errors.Wrap(err, "failed to mark event processed")
	}
	return nil
}

// Get returns the stored record of an event
func (l *PostgresEventLedger) Get(ctx context.Context, sourceType, eventID string) (*domain.ProcessedEvent, error) {
	var record domain.ProcessedEvent
	err := l.db.GetContext(ctx, &record, `
		SELECT source_type, event_id, outcome, summary, processed_at
		FROM processed_events
		WHERE source_type = $1 AND event_id = $2`, sourceType, eventID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load processed event")
	}
	return &record, nil
}
