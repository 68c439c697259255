package domain

import (
	"context"
	"time"

	"github.com/draftea/order-system/shared/models"
)

// OrderRepository is the aggregate store. Implementations apply the mutation through
// Order.Transition / Order.Apply so milestone rules stay in one place.
type OrderRepository interface {
	// Create persists a new order together with its first history entry
	Create(ctx context.Context, order *Order, entry StatusHistoryEntry) error
	// Load returns ErrOrderNotFound when the order does not exist
	Load(ctx context.Context, id models.ID) (*Order, error)
	// CompareAndSwapStatus moves the order to newStatus and appends entry in one atomic unit.
	// It returns ErrVersionConflict when the stored version differs from expectedVersion.
	CompareAndSwapStatus(ctx context.Context, id models.ID, expectedVersion int, newStatus Status, entry StatusHistoryEntry, patch OrderPatch) (*Order, error)
	// UpdateDetails applies a patch without a status change, with the same version check
	UpdateDetails(ctx context.Context, id models.ID, expectedVersion int, patch OrderPatch) (*Order, error)
	History(ctx context.Context, id models.ID) ([]StatusHistoryEntry, error)
	ListManualReview(ctx context.Context, limit, offset int) ([]*Order, error)
}

// EventOutcome is the fixed result recorded for a processed inbound event
type EventOutcome string

const (
	OutcomeApplied     EventOutcome = "applied"
	OutcomeStale       EventOutcome = "stale"
	OutcomeRejected    EventOutcome = "rejected"
	OutcomeCompensated EventOutcome = "compensated"
	OutcomeNotFound    EventOutcome = "not_found"
	OutcomeDuplicate   EventOutcome = "duplicate"
	OutcomeRetry       EventOutcome = "retry"
)

// ProcessedEvent is an idempotency record. Written once, never overwritten.
type ProcessedEvent struct {
	SourceType  string       `json:"source_type" db:"source_type"`
	EventID     string       `json:"event_id" db:"event_id"`
	Outcome     EventOutcome `json:"outcome" db:"outcome"`
	Summary     string       `json:"summary" db:"summary"`
	ProcessedAt time.Time    `json:"processed_at" db:"processed_at"`
}

// ProcessedEventLedger records which inbound events already took effect
type ProcessedEventLedger interface {
	IsProcessed(ctx context.Context, sourceType, eventID string) (bool, error)
	// MarkProcessed returns ErrDuplicateKey when the key was already written
	MarkProcessed(ctx context.Context, record ProcessedEvent) error
}

// ItemAvailability is the read-only stock answer for one line item
type ItemAvailability struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// Sufficient reports whether the requested quantity is in stock
func (a ItemAvailability) Sufficient() bool {
	return a.Available >= a.Requested
}

// InventoryPort is the inventory service contract
type InventoryPort interface {
	CheckAvailability(ctx context.Context, items []LineItem) ([]ItemAvailability, error)
	// Reserve returns the reservation reference, or ErrInventoryUnavailable when rejected
	Reserve(ctx context.Context, orderID models.ID, items []LineItem) (string, error)
	// Release must succeed when the reservation is already released
	Release(ctx context.Context, orderID models.ID) error
}

// PaymentPort is the payment service contract. Completion arrives later as inbound events.
type PaymentPort interface {
	RequestCapture(ctx context.Context, paymentRef string, orderID models.ID, amount models.Money) error
	RequestRefund(ctx context.Context, paymentRef string, orderID models.ID, amount models.Money, reason string) error
}
