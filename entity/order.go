package entity

import (
	"time"

	"github.com/lithammer/shortuuid/v3"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusExpired   OrderStatus = "expired"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsTerminal reports whether no further transition may leave this status.
func (s OrderStatus) IsTerminal() bool {
	return s != OrderStatusPending
}

// TicketOrder groups the tickets of one purchase under a shared payment
// deadline. It is created together with its tickets in a single transaction
// and they transition together ever after.
type TicketOrder struct {
	ID          string          `db:"order_id"`
	ReferenceID string          `db:"reference_id"`
	UserID      string          `db:"user_id"`
	EventID     string          `db:"event_id"`
	Status      OrderStatus     `db:"status"`
	TotalAmount decimal.Decimal `db:"total_amount"`
	ExpiresAt   time.Time       `db:"expires_at"`
	CreatedAt   time.Time       `db:"created_at"`
}

// NewOrderReference returns the external-facing identifier for an order.
func NewOrderReference() string {
	return shortuuid.New()
}
