package entities

import (
	"bytes"
	"encoding/gob"
	"errors"
	"time"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusCancelled OrderStatus = "cancelled"
)

// Terminal reports whether no further business-meaningful transition is
// expected for the status under normal flow.
func (s OrderStatus) Terminal() bool {
	return s == StatusConfirmed || s == StatusCancelled
}

type Customer struct {
	Name    string
	Email   string
	Phone   string
	Address string
	City    string
	Region  string
}

type LineItem struct {
	ID        string
	Title     string
	Quantity  int
	UnitPrice int64
}

type Order struct {
	Reference    string
	PreferenceID string

	Customer Customer
	Items    []LineItem

	// Totals are snapshots taken at checkout time, in minor currency units.
	// They are never recomputed after creation.
	Subtotal     int64
	ShippingCost int64
	Total        int64

	Status        OrderStatus
	PaymentStatus PaymentStatus
	PaymentID     string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// StatusChange is the result of applying a reconciliation write to an order.
type StatusChange struct {
	Order    Order
	Previous OrderStatus
	// Applied is false when the configured policy skipped the write
	// (a stale non-terminal event against a terminal order).
	Applied bool
}

// ConfirmedEdge reports whether this change is the transition that produced
// the first confirmation. Repeat deliveries of an already-confirmed payment
// re-persist the same state but do not cross the edge again.
func (c StatusChange) ConfirmedEdge() bool {
	return c.Applied && c.Order.Status == StatusConfirmed && c.Previous != StatusConfirmed
}

// Anomaly is a reconciliation condition with no caller-visible failure:
// a webhook for an unknown reference, or an order insert that failed after
// the gateway preference was already created.
type Anomaly struct {
	Reference string
	PaymentID string
	Reason    string
	Detail    string
}

const (
	AnomalyUnknownReference   = "unknown_reference"
	AnomalyMissingReference   = "missing_reference"
	AnomalyDanglingPreference = "dangling_preference"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrOrderExists   = errors.New("order reference already exists")
	ErrInvalidOrder  = errors.New("invalid order data")
)

func (o *Order) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (o *Order) Unmarshal(data []byte) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(o); err != nil {
		return ErrInvalidOrder
	}
	return nil
}

func init() {
	gob.Register(Order{})
	gob.Register(Customer{})
	gob.Register(LineItem{})
}
