package infrastructure

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/draftea/order-system/orders-service/domain"
	"github.com/draftea/order-system/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// PostgresOrderRepository implements OrderRepository using PostgreSQL
type PostgresOrderRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPostgresOrderRepository creates a new PostgresOrderRepository
func NewPostgresOrderRepository(db *sqlx.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// postgresOrder represents an order row
type postgresOrder struct {
	ID                    string          `db:"id"`
	UserID                string          `db:"user_id"`
	Currency              string          `db:"currency"`
	Subtotal              decimal.Decimal `db:"subtotal"`
	Tax                   decimal.Decimal `db:"tax"`
	Shipping              decimal.Decimal `db:"shipping"`
	Discount              decimal.Decimal `db:"discount"`
	Total                 decimal.Decimal `db:"total"`
	Status                string          `db:"status"`
	PaymentRef            string          `db:"payment_ref"`
	ReservationRef        string          `db:"reservation_ref"`
	ShipmentRef           string          `db:"shipment_ref"`
	Carrier               string          `db:"carrier"`
	TrackingRef           string          `db:"tracking_ref"`
	PaidAt                *time.Time      `db:"paid_at"`
	ShippedAt             *time.Time      `db:"shipped_at"`
	DeliveredAt           *time.Time      `db:"delivered_at"`
	CancelledAt           *time.Time      `db:"cancelled_at"`
	RefundedAt            *time.Time      `db:"refunded_at"`
	ManualReview          bool            `db:"manual_review"`
	ManualReviewReason    string          `db:"manual_review_reason"`
	ManualReviewFlaggedAt *time.Time      `db:"manual_review_flagged_at"`
	RefundAttempts        int             `db:"refund_attempts"`
	CreatedAt             time.Time       `db:"created_at"`
	UpdatedAt             time.Time       `db:"updated_at"`
	Version               int             `db:"version"`
}

// postgresOrderItem represents an order line row
type postgresOrderItem struct {
	OrderID   string          `db:"order_id"`
	Position  int             `db:"position"`
	ProductID string          `db:"product_id"`
	VariantID string          `db:"variant_id"`
	Quantity  int             `db:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price"`
}

// postgresHistoryEntry represents a status history row
type postgresHistoryEntry struct {
	ID         string    `db:"id"`
	OrderID    string    `db:"order_id"`
	FromStatus string    `db:"from_status"`
	ToStatus   string    `db:"to_status"`
	ActorID    string    `db:"actor_id"`
	ActorRole  string    `db:"actor_role"`
	Reason     string    `db:"reason"`
	Notes      string    `db:"notes"`
	Metadata   []byte    `db:"metadata"`
	CreatedAt  time.Time `db:"created_at"`
}

const orderColumns = `
	id, user_id, currency, subtotal, tax, shipping, discount, total, status,
	payment_ref, reservation_ref, shipment_ref, carrier, tracking_ref,
	paid_at, shipped_at, delivered_at, cancelled_at, refunded_at,
	manual_review, manual_review_reason, manual_review_flagged_at,
	refund_attempts, created_at, updated_at, version`

// Create inserts the order, its items and the first history entry in one transaction
func (r *PostgresOrderRepository) Create(ctx context.Context, order *domain.Order, entry domain.StatusHistoryEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (` + orderColumns + `
		) VALUES (
			:id, :user_id, :currency, :subtotal, :tax, :shipping, :discount, :total, :status,
			:payment_ref, :reservation_ref, :shipment_ref, :carrier, :tracking_ref,
			:paid_at, :shipped_at, :delivered_at, :cancelled_at, :refunded_at,
			:manual_review, :manual_review_reason, :manual_review_flagged_at,
			:refund_attempts, :created_at, :updated_at, :version
		)`

	if _, err := tx.NamedExecContext(ctx, query, r.toPostgres(order)); err != nil {
		if isUniqueViolation(err) {
			return domain.WrapError(domain.KindDuplicateKey, err, "order already exists")
		}
		return errors.Wrap(err, "failed to insert order")
	}

	for i, item := range order.Items {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO order_items (order_id, position, product_id, variant_id, quantity, unit_price)
			VALUES (:order_id, :position, :product_id, :variant_id, :quantity, :unit_price)`,
			postgresOrderItem{
				OrderID:   order.ID.String(),
				Position:  i,
				ProductID: item.ProductID,
				VariantID: item.VariantID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			})
		if err != nil {
			return errors.Wrap(err, "failed to insert order item")
		}
	}

	if err := r.insertHistory(ctx, tx, entry); err != nil {
		return err
	}

	return errors.Wrap(tx.Commit(), "failed to commit order")
}

// Load finds an order by ID
func (r *PostgresOrderRepository) Load(ctx context.Context, id models.ID) (*domain.Order, error) {
	return r.load(ctx, r.db, id, false)
}

// CompareAndSwapStatus locks the row, checks the version, applies the transition and appends
// the history entry before committing
func (r *PostgresOrderRepository) CompareAndSwapStatus(
	ctx context.Context,
	id models.ID,
	expectedVersion int,
	newStatus domain.Status,
	entry domain.StatusHistoryEntry,
	patch domain.OrderPatch,
) (*domain.Order, error) {
	return r.mutate(ctx, id, expectedVersion, func(tx *sqlx.Tx, order *domain.Order) error {
		order.Transition(newStatus, patch, entry.CreatedAt)
		return r.insertHistoryAfter(ctx, tx, order, entry)
	})
}

// UpdateDetails applies a patch without changing the status
func (r *PostgresOrderRepository) UpdateDetails(ctx context.Context, id models.ID, expectedVersion int, patch domain.OrderPatch) (*domain.Order, error) {
	return r.mutate(ctx, id, expectedVersion, func(tx *sqlx.Tx, order *domain.Order) error {
		order.Apply(patch, r.now())
		return r.updateOrder(ctx, tx, order, expectedVersion)
	})
}

// History returns the status history of an order, oldest first
func (r *PostgresOrderRepository) History(ctx context.Context, id models.ID) ([]domain.StatusHistoryEntry, error) {
	query := `
		SELECT id, order_id, from_status, to_status, actor_id, actor_role,
			   reason, notes, metadata, created_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY id ASC`

	var rows []postgresHistoryEntry
	if err := r.db.SelectContext(ctx, &rows, query, id.String()); err != nil {
		return nil, errors.Wrap(err, "failed to load order history")
	}

	entries := make([]domain.StatusHistoryEntry, len(rows))
	for i, row := range rows {
		entry, err := historyToDomain(row)
		if err != nil {
			return nil, err
		}
		entries[i] = entry
	}
	return entries, nil
}

// ListManualReview returns the flagged orders, least recently updated first
func (r *PostgresOrderRepository) ListManualReview(ctx context.Context, limit, offset int) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE manual_review
		ORDER BY updated_at ASC, id ASC
		LIMIT $1 OFFSET $2`

	var rows []postgresOrder
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, errors.Wrap(err, "failed to list orders under review")
	}
	if len(rows) == 0 {
		return []*domain.Order{}, nil
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}

	itemsQuery, args, err := sqlx.In(`
		SELECT order_id, position, product_id, variant_id, quantity, unit_price
		FROM order_items
		WHERE order_id IN (?)
		ORDER BY order_id, position`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build items query")
	}

	var items []postgresOrderItem
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(itemsQuery), args...); err != nil {
		return nil, errors.Wrap(err, "failed to load order items")
	}

	byOrder := make(map[string][]postgresOrderItem, len(rows))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}

	orders := make([]*domain.Order, len(rows))
	for i := range rows {
		orders[i] = r.toDomain(&rows[i], byOrder[rows[i].ID])
	}
	return orders, nil
}

// mutate runs fn on the locked order inside a transaction
func (r *PostgresOrderRepository) mutate(ctx context.Context, id models.ID, expectedVersion int, fn func(tx *sqlx.Tx, order *domain.Order) error) (*domain.Order, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	order, err := r.load(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	if order.Version.Value != expectedVersion {
		return nil, domain.NewError(domain.KindVersionConflict,
			"order %s is at version %d, expected %d", id, order.Version.Value, expectedVersion)
	}

	if err := fn(tx, order); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit order")
	}
	return order, nil
}

func (r *PostgresOrderRepository) insertHistoryAfter(ctx context.Context, tx *sqlx.Tx, order *domain.Order, entry domain.StatusHistoryEntry) error {
	if err := r.updateOrder(ctx, tx, order, order.Version.Value-1); err != nil {
		return err
	}
	return r.insertHistory(ctx, tx, entry)
}

func (r *PostgresOrderRepository) updateOrder(ctx context.Context, tx *sqlx.Tx, order *domain.Order, expectedVersion int) error {
	query := `
		UPDATE orders SET
			status = :status,
			payment_ref = :payment_ref,
			reservation_ref = :reservation_ref,
			shipment_ref = :shipment_ref,
			carrier = :carrier,
			tracking_ref = :tracking_ref,
			paid_at = :paid_at,
			shipped_at = :shipped_at,
			delivered_at = :delivered_at,
			cancelled_at = :cancelled_at,
			refunded_at = :refunded_at,
			manual_review = :manual_review,
			manual_review_reason = :manual_review_reason,
			manual_review_flagged_at = :manual_review_flagged_at,
			refund_attempts = :refund_attempts,
			updated_at = :updated_at,
			version = :version
		WHERE id = :id AND version = :expected_version`

	row := r.toPostgres(order)
	params := map[string]interface{}{
		"id":                       row.ID,
		"status":                   row.Status,
		"payment_ref":              row.PaymentRef,
		"reservation_ref":          row.ReservationRef,
		"shipment_ref":             row.ShipmentRef,
		"carrier":                  row.Carrier,
		"tracking_ref":             row.TrackingRef,
		"paid_at":                  row.PaidAt,
		"shipped_at":               row.ShippedAt,
		"delivered_at":             row.DeliveredAt,
		"cancelled_at":             row.CancelledAt,
		"refunded_at":              row.RefundedAt,
		"manual_review":            row.ManualReview,
		"manual_review_reason":     row.ManualReviewReason,
		"manual_review_flagged_at": row.ManualReviewFlaggedAt,
		"refund_attempts":          row.RefundAttempts,
		"updated_at":               row.UpdatedAt,
		"version":                  row.Version,
		"expected_version":         expectedVersion,
	}

	result, err := tx.NamedExecContext(ctx, query, params)
	if err != nil {
		return errors.Wrap(err, "failed to update order")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return domain.NewError(domain.KindVersionConflict, "order %s changed concurrently", order.ID)
	}
	return nil
}

func (r *PostgresOrderRepository) insertHistory(ctx context.Context, tx *sqlx.Tx, entry domain.StatusHistoryEntry) error {
	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return errors.Wrap(err, "failed to marshal history metadata")
	}

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO order_status_history (
			id, order_id, from_status, to_status, actor_id, actor_role,
			reason, notes, metadata, created_at
		) VALUES (
			:id, :order_id, :from_status, :to_status, :actor_id, :actor_role,
			:reason, :notes, :metadata, :created_at
		)`,
		postgresHistoryEntry{
			ID:         entry.ID,
			OrderID:    entry.OrderID.String(),
			FromStatus: string(entry.FromStatus),
			ToStatus:   string(entry.ToStatus),
			ActorID:    entry.Actor.ID,
			ActorRole:  string(entry.Actor.Role),
			Reason:     entry.Reason,
			Notes:      entry.Notes,
			Metadata:   raw,
			CreatedAt:  entry.CreatedAt,
		})
	if err != nil {
		return errors.Wrap(err, "failed to insert history entry")
	}
	return nil
}

func (r *PostgresOrderRepository) load(ctx context.Context, q sqlx.QueryerContext, id models.ID, forUpdate bool) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var row postgresOrder
	if err := sqlx.GetContext(ctx, q, &row, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(domain.KindOrderNotFound, "order %s not found", id)
		}
		return nil, errors.Wrap(err, "failed to find order")
	}

	var items []postgresOrderItem
	err := sqlx.SelectContext(ctx, q, &items, `
		SELECT order_id, position, product_id, variant_id, quantity, unit_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY position ASC`, id.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to load order items")
	}

	return r.toDomain(&row, items), nil
}

// toPostgres converts a domain order to its row
func (r *PostgresOrderRepository) toPostgres(order *domain.Order) *postgresOrder {
	return &postgresOrder{
		ID:                    order.ID.String(),
		UserID:                order.UserID.String(),
		Currency:              order.Currency,
		Subtotal:              order.Totals.Subtotal,
		Tax:                   order.Totals.Tax,
		Shipping:              order.Totals.Shipping,
		Discount:              order.Totals.Discount,
		Total:                 order.Totals.Total,
		Status:                string(order.Status),
		PaymentRef:            order.References.PaymentRef,
		ReservationRef:        order.References.ReservationRef,
		ShipmentRef:           order.References.ShipmentRef,
		Carrier:               order.References.Carrier,
		TrackingRef:           order.References.TrackingRef,
		PaidAt:                order.Milestones.PaidAt,
		ShippedAt:             order.Milestones.ShippedAt,
		DeliveredAt:           order.Milestones.DeliveredAt,
		CancelledAt:           order.Milestones.CancelledAt,
		RefundedAt:            order.Milestones.RefundedAt,
		ManualReview:          order.ManualReview.Required,
		ManualReviewReason:    order.ManualReview.Reason,
		ManualReviewFlaggedAt: order.ManualReview.FlaggedAt,
		RefundAttempts:        order.RefundAttempts,
		CreatedAt:             order.Timestamps.CreatedAt,
		UpdatedAt:             order.Timestamps.UpdatedAt,
		Version:               order.Version.Value,
	}
}

// toDomain converts a row and its items to a domain order
func (r *PostgresOrderRepository) toDomain(row *postgresOrder, items []postgresOrderItem) *domain.Order {
	lineItems := make([]domain.LineItem, len(items))
	for i, item := range items {
		lineItems[i] = domain.LineItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}

	return &domain.Order{
		ID:       models.ID(row.ID),
		UserID:   models.ID(row.UserID),
		Items:    lineItems,
		Currency: row.Currency,
		Totals: domain.Totals{
			Subtotal: row.Subtotal,
			Tax:      row.Tax,
			Shipping: row.Shipping,
			Discount: row.Discount,
			Total:    row.Total,
		},
		Status: domain.Status(row.Status),
		References: domain.References{
			PaymentRef:     row.PaymentRef,
			ReservationRef: row.ReservationRef,
			ShipmentRef:    row.ShipmentRef,
			Carrier:        row.Carrier,
			TrackingRef:    row.TrackingRef,
		},
		Milestones: domain.Milestones{
			PaidAt:      row.PaidAt,
			ShippedAt:   row.ShippedAt,
			DeliveredAt: row.DeliveredAt,
			CancelledAt: row.CancelledAt,
			RefundedAt:  row.RefundedAt,
		},
		ManualReview: domain.ManualReview{
			Required:  row.ManualReview,
			Reason:    row.ManualReviewReason,
			FlaggedAt: row.ManualReviewFlaggedAt,
		},
		RefundAttempts: row.RefundAttempts,
		Timestamps: models.Timestamps{
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		},
		Version: models.Version{Value: row.Version},
	}
}

func historyToDomain(row postgresHistoryEntry) (domain.StatusHistoryEntry, error) {
	var metadata map[string]interface{}
	if len(row.Metadata) > 0 {
		if err := json.Unmarshal(row.Metadata, &metadata); err != nil {
			return domain.StatusHistoryEntry{}, errors.Wrap(err, "invalid history metadata")
		}
	}

	return domain.StatusHistoryEntry{
		ID:         row.ID,
		OrderID:    models.ID(row.OrderID),
		FromStatus: domain.Status(row.FromStatus),
		ToStatus:   domain.Status(row.ToStatus),
		Actor:      domain.Actor{ID: row.ActorID, Role: domain.ActorRole(row.ActorRole)},
		Reason:     row.Reason,
		Notes:      row.Notes,
		Metadata:   metadata,
		CreatedAt:  row.CreatedAt,
	}, nil
}
