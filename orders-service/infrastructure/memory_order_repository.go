package infrastructure

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/draftea/order-system/orders-service/domain"
	"github.com/draftea/order-system/shared/models"
)

// MemoryOrderRepository keeps orders in process. Used for local runs and tests.
type MemoryOrderRepository struct {
	mu      sync.RWMutex
	orders  map[models.ID]*domain.Order
	history map[models.ID][]domain.StatusHistoryEntry
	now     func() time.Time
}

// NewMemoryOrderRepository creates an empty MemoryOrderRepository
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders:  make(map[models.ID]*domain.Order),
		history: make(map[models.ID][]domain.StatusHistoryEntry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new order with its first history entry
func (r *MemoryOrderRepository) Create(ctx context.Context, order *domain.Order, entry domain.StatusHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[order.ID]; ok {
		return domain.NewError(domain.KindDuplicateKey, "order %s already exists", order.ID)
	}

	r.orders[order.ID] = order.Clone()
	r.history[order.ID] = append(r.history[order.ID], entry)
	return nil
}

// Load returns a copy of the stored order
func (r *MemoryOrderRepository) Load(ctx context.Context, id models.ID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, domain.NewError(domain.KindOrderNotFound, "order %s not found", id)
	}
	return order.Clone(), nil
}

// CompareAndSwapStatus transitions the order when its version still matches
func (r *MemoryOrderRepository) CompareAndSwapStatus(
	ctx context.Context,
	id models.ID,
	expectedVersion int,
	newStatus domain.Status,
	entry domain.StatusHistoryEntry,
	patch domain.OrderPatch,
) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, err := r.current(id, expectedVersion)
	if err != nil {
		return nil, err
	}

	updated := order.Clone()
	updated.Transition(newStatus, patch, entry.CreatedAt)
	r.orders[id] = updated
	r.history[id] = append(r.history[id], entry)

	return updated.Clone(), nil
}

// UpdateDetails applies a patch when the version still matches
func (r *MemoryOrderRepository) UpdateDetails(ctx context.Context, id models.ID, expectedVersion int, patch domain.OrderPatch) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, err := r.current(id, expectedVersion)
	if err != nil {
		return nil, err
	}

	updated := order.Clone()
	updated.Apply(patch, r.now())
	r.orders[id] = updated

	return updated.Clone(), nil
}

// History returns the status history, oldest first
func (r *MemoryOrderRepository) History(ctx context.Context, id models.ID) ([]domain.StatusHistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]domain.StatusHistoryEntry, len(r.history[id]))
	copy(entries, r.history[id])
	return entries, nil
}

// ListManualReview returns flagged orders, least recently updated first
func (r *MemoryOrderRepository) ListManualReview(ctx context.Context, limit, offset int) ([]*domain.Order, error) {
	r.mu.RLock()
	var flagged []*domain.Order
	for _, order := range r.orders {
		if order.ManualReview.Required {
			flagged = append(flagged, order.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(flagged, func(i, j int) bool {
		if flagged[i].Timestamps.UpdatedAt.Equal(flagged[j].Timestamps.UpdatedAt) {
			return flagged[i].ID < flagged[j].ID
		}
		return flagged[i].Timestamps.UpdatedAt.Before(flagged[j].Timestamps.UpdatedAt)
	})

	if offset >= len(flagged) {
		return []*domain.Order{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(flagged) {
		end = len(flagged)
	}
	return flagged[offset:end], nil
}

func (r *MemoryOrderRepository) current(id models.ID, expectedVersion int) (*domain.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.NewError(domain.KindOrderNotFound, "order %s not found", id)
	}
	if order.Version.Value != expectedVersion {
		return nil, domain.NewError(domain.KindVersionConflict,
			"order %s is at version %d, expected %d", id, order.Version.Value, expectedVersion)
	}
	return order, nil
}
