package entity

import "time"

type TicketStatus string

const (
	TicketStatusPending   TicketStatus = "pending"
	TicketStatusConfirmed TicketStatus = "confirmed"
	TicketStatusCancelled TicketStatus = "cancelled"
	TicketStatusExpired   TicketStatus = "expired"
)

// Ticket is one purchased seat; it never represents a quantity greater
// than one. Its status always mirrors the parent order's.
type Ticket struct {
	ID        string       `db:"ticket_id"`
	OrderID   string       `db:"order_id"`
	EventID   string       `db:"event_id"`
	TierID    string       `db:"tier_id"`
	UserID    string       `db:"user_id"`
	Status    TicketStatus `db:"status"`
	ExpiresAt time.Time    `db:"expires_at"`
}
