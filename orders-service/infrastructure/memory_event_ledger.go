package infrastructure

import (
	"context"
	"sync"

	"github.com/draftea/order-system/orders-service/domain"
)

type ledgerKey struct {
	sourceType string
	eventID    string
}

// MemoryEventLedger is an in-process idempotency ledger
type MemoryEventLedger struct {
	mu      sync.Mutex
	records map[ledgerKey]domain.ProcessedEvent
}

// NewMemoryEventLedger creates an empty MemoryEventLedger
func NewMemoryEventLedger() *MemoryEventLedger {
	return &MemoryEventLedger{records: make(map[ledgerKey]domain.ProcessedEvent)}
}

// IsProcessed reports whether the event was already marked
func (l *MemoryEventLedger) IsProcessed(ctx context.Context, sourceType, eventID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.records[ledgerKey{sourceType, eventID}]
	return ok, nil
}

// MarkProcessed records the event once; a second call fails with ErrDuplicateKey
func (l *MemoryEventLedger) MarkProcessed(ctx context.Context, record domain.ProcessedEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := ledgerKey{record.SourceType, record.EventID}
	if _, ok := l.records[key]; ok {
		return domain.NewError(domain.KindDuplicateKey, "event %s/%s already processed", record.SourceType, record.EventID)
	}
	l.records[key] = record
	return nil
}

// Get returns the stored record
func (l *MemoryEventLedger) Get(sourceType, eventID string) (domain.ProcessedEvent, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.records[ledgerKey{sourceType, eventID}]
	return record, ok
}
