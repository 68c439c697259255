package domain

import (
	"strings"
	"time"

	"github.com/draftea/order-system/shared/models"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// DefaultTotalEpsilon is the tolerance between a requested and a recomputed total
var DefaultTotalEpsilon = decimal.RequireFromString("0.01")

// LineItem is immutable once the order is created
type LineItem struct {
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// LineTotal returns quantity * unit price
func (i LineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Totals holds the monetary breakdown of an order
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeTotals derives subtotal and total from the items and adjustments
func ComputeTotals(items []LineItem, tax, shipping, discount decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Discount: discount,
		Total:    subtotal.Add(tax).Add(shipping).Sub(discount),
	}
}

// References are populated only once the matching side effect succeeded
type References struct {
	PaymentRef     string `json:"payment_ref,omitempty"`
	ReservationRef string `json:"reservation_ref,omitempty"`
	ShipmentRef    string `json:"shipment_ref,omitempty"`
	Carrier        string `json:"carrier,omitempty"`
	TrackingRef    string `json:"tracking_ref,omitempty"`
}

// Milestones are stamped at most once each
type Milestones struct {
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	ShippedAt   *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	RefundedAt  *time.Time `json:"refunded_at,omitempty"`
}

// ManualReview marks an order that a human has to reconcile
type ManualReview struct {
	Required  bool       `json:"required"`
	Reason    string     `json:"reason,omitempty"`
	FlaggedAt *time.Time `json:"flagged_at,omitempty"`
}

// Order is the saga aggregate root
type Order struct {
	ID             models.ID         `json:"id"`
	UserID         models.ID         `json:"user_id"`
	Items          []LineItem        `json:"items"`
	Currency       string            `json:"currency"`
	Totals         Totals            `json:"totals"`
	Status         Status            `json:"status"`
	References     References        `json:"references"`
	Milestones     Milestones        `json:"milestones"`
	ManualReview   ManualReview      `json:"manual_review"`
	RefundAttempts int               `json:"refund_attempts"`
	Timestamps     models.Timestamps `json:"timestamps"`
	Version        models.Version    `json:"version"`
}

// OrderDraft is the validated input for a new order
type OrderDraft struct {
	ID       models.ID
	UserID   models.ID
	Items    []LineItem
	Currency string
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Discount decimal.Decimal
	// Total is the caller's total, checked against the recomputed one when present
	Total *decimal.Decimal
}

// NewOrder validates the draft and builds an order in CREATED
func NewOrder(draft OrderDraft, epsilon decimal.Decimal, now time.Time) (*Order, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	totals := ComputeTotals(draft.Items, draft.Tax, draft.Shipping, draft.Discount)
	if totals.Total.IsNegative() {
		return nil, NewError(KindValidationFailed, "discount exceeds order value")
	}

	if draft.Total != nil && draft.Total.Sub(totals.Total).Abs().GreaterThan(epsilon) {
		return nil, NewError(KindValidationFailed,
			"total %s does not match computed total %s", draft.Total.StringFixed(2), totals.Total.StringFixed(2))
	}

	id := draft.ID
	if id.IsEmpty() {
		id = models.GenerateUUID()
	}

	items := make([]LineItem, len(draft.Items))
	copy(items, draft.Items)

	return &Order{
		ID:         id,
		UserID:     draft.UserID,
		Items:      items,
		Currency:   strings.ToUpper(draft.Currency),
		Totals:     totals,
		Status:     StatusCreated,
		Timestamps: models.NewTimestamps(now),
		Version:    models.NewVersion(),
	}, nil
}

func validateDraft(draft OrderDraft) error {
	if draft.UserID.IsEmpty() {
		return NewError(KindValidationFailed, "user ID is required")
	}

	if len(draft.Items) == 0 {
		return NewError(KindValidationFailed, "at least one line item is required")
	}

	if len(strings.TrimSpace(draft.Currency)) != 3 {
		return NewError(KindValidationFailed, "currency must be a 3 letter code")
	}

	for i, item := range draft.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return NewError(KindValidationFailed, "item %d: product ID is required", i)
		}
		if item.Quantity <= 0 {
			return NewError(KindValidationFailed, "item %d: quantity must be positive", i)
		}
		if item.UnitPrice.IsNegative() {
			return NewError(KindValidationFailed, "item %d: unit price must not be negative", i)
		}
	}

	for name, amount := range map[string]decimal.Decimal{
		"tax":      draft.Tax,
		"shipping": draft.Shipping,
		"discount": draft.Discount,
	} {
		if amount.IsNegative() {
			return NewError(KindValidationFailed, "%s must not be negative", name)
		}
	}

	return nil
}

// Amount returns the order total as money
func (o *Order) Amount() models.Money {
	return models.NewMoney(o.Totals.Total, o.Currency)
}

// HadReservation reports whether an inventory hold may exist for the order
func (o *Order) HadReservation() bool {
	return o.References.ReservationRef != "" || o.Status != StatusCreated
}

// OrderPatch carries non-status changes applied together with, or without, a transition
type OrderPatch struct {
	PaymentRef           string
	ReservationRef       string
	ShipmentRef          string
	Carrier              string
	TrackingRef          string
	ManualReview         *ManualReview
	IncrementRefundCount bool
}

// IsEmpty reports whether the patch changes nothing
func (p OrderPatch) IsEmpty() bool {
	return p == OrderPatch{}
}

// Apply attaches the patch to the order and bumps its version
func (o *Order) Apply(patch OrderPatch, now time.Time) {
	o.applyPatch(patch)
	o.Timestamps = o.Timestamps.Touch(now)
	o.Version = o.Version.Next()
}

// Transition moves the order to a new status, stamping milestones once
func (o *Order) Transition(to Status, patch OrderPatch, now time.Time) {
	o.applyPatch(patch)
	o.Status = to
	o.stampMilestone(to, now)
	o.Timestamps = o.Timestamps.Touch(now)
	o.Version = o.Version.Next()
}

func (o *Order) applyPatch(patch OrderPatch) {
	setIfPresent(&o.References.PaymentRef, patch.PaymentRef)
	setIfPresent(&o.References.ReservationRef, patch.ReservationRef)
	setIfPresent(&o.References.ShipmentRef, patch.ShipmentRef)
	setIfPresent(&o.References.Carrier, patch.Carrier)
	setIfPresent(&o.References.TrackingRef, patch.TrackingRef)

	if patch.ManualReview != nil {
		o.ManualReview = *patch.ManualReview
	}
	if patch.IncrementRefundCount {
		o.RefundAttempts++
	}
}

func setIfPresent(field *string, value string) {
	if value != "" {
		*field = value
	}
}

func (o *Order) stampMilestone(status Status, now time.Time) {
	// milestones never precede creation
	at := now
	if at.Before(o.Timestamps.CreatedAt) {
		at = o.Timestamps.CreatedAt
	}

	var field **time.Time
	switch status {
	case StatusPaid:
		field = &o.Milestones.PaidAt
	case StatusShipped:
		field = &o.Milestones.ShippedAt
	case StatusDelivered:
		field = &o.Milestones.DeliveredAt
	case StatusCancelled:
		field = &o.Milestones.CancelledAt
	case StatusRefunded:
		field = &o.Milestones.RefundedAt
	default:
		return
	}

	if *field == nil {
		*field = &at
	}
}

// Clone returns a deep copy
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}

	clone := *o
	clone.Items = make([]LineItem, len(o.Items))
	copy(clone.Items, o.Items)
	clone.Milestones = Milestones{
		PaidAt:      cloneTime(o.Milestones.PaidAt),
		ShippedAt:   cloneTime(o.Milestones.ShippedAt),
		DeliveredAt: cloneTime(o.Milestones.DeliveredAt),
		CancelledAt: cloneTime(o.Milestones.CancelledAt),
		RefundedAt:  cloneTime(o.Milestones.RefundedAt),
	}
	clone.ManualReview.FlaggedAt = cloneTime(o.ManualReview.FlaggedAt)

	return &clone
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// StatusHistoryEntry is an immutable record of one transition
type StatusHistoryEntry struct {
	ID         string                 `json:"id"`
	OrderID    models.ID              `json:"order_id"`
	FromStatus Status                 `json:"from_status,omitempty"`
	ToStatus   Status                 `json:"to_status"`
	Actor      Actor                  `json:"actor"`
	Reason     string                 `json:"reason,omitempty"`
	Notes      string                 `json:"notes,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// NewStatusHistoryEntry creates an entry with a time ordered identifier
func NewStatusHistoryEntry(orderID models.ID, from, to Status, actor Actor, reason string, now time.Time) StatusHistoryEntry {
	return StatusHistoryEntry{
		ID:         ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		OrderID:    orderID,
		FromStatus: from,
		ToStatus:   to,
		Actor:      actor,
		Reason:     reason,
		Metadata:   map[string]interface{}{},
		CreatedAt:  now,
	}
}

// WithNotes sets free form notes
func (e StatusHistoryEntry) WithNotes(notes string) StatusHistoryEntry {
	e.Notes = notes
	return e
}

// WithMetadata adds structured metadata
func (e StatusHistoryEntry) WithMetadata(key string, value interface{}) StatusHistoryEntry {
	metadata := make(map[string]interface{}, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		metadata[k] = v
	}
	metadata[key] = value
	e.Metadata = metadata
	return e
}
