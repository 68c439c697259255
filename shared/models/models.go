package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ID identifies orders and events. Generated values are UUIDv4; externally supplied ids are kept verbatim.
type ID string

// GenerateUUID creates a new random ID
func GenerateUUID() ID {
	return ID(uuid.NewString())
}

func (id ID) String() string {
	return string(id)
}

func (id ID) IsEmpty() bool {
	return id == ""
}

// Timestamps tracks creation and last modification
type Timestamps struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewTimestamps(now time.Time) Timestamps {
	return Timestamps{CreatedAt: now, UpdatedAt: now}
}

// Touch moves UpdatedAt forward, never backwards
func (t Timestamps) Touch(now time.Time) Timestamps {
	if now.After(t.UpdatedAt) {
		t.UpdatedAt = now
	}
	return t
}

// Version is the optimistic concurrency counter of an aggregate. It starts at 1.
type Version struct {
	Value int `json:"value"`
}

func NewVersion() Version {
	return Version{Value: 1}
}

func (v Version) Next() Version {
	return Version{Value: v.Value + 1}
}

// Money is an amount in one ISO 4217 currency
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

func (m Money) String() string {
	return m.Amount.StringFixed(2) + " " + m.Currency
}
