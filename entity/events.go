package entity

import (
	"time"

	"github.com/google/uuid"
)

type EventHeader struct {
	ID             string    `json:"id"`
	PublishedAt    time.Time `json:"published_at"`
	IdempotencyKey string    `json:"idempotency_key"`
}

func NewEventHeader() EventHeader {
	return EventHeader{
		ID:          uuid.NewString(),
		PublishedAt: time.Now().UTC(),
	}
}

func NewEventHeaderWithIdempotencyKey(idempotencyKey string) EventHeader {
	return EventHeader{
		ID:             uuid.NewString(),
		PublishedAt:    time.Now().UTC(),
		IdempotencyKey: idempotencyKey,
	}
}

// OrderCreated is published in the reservation transaction, so it reaches
// subscribers only after a successful commit.
type OrderCreated struct {
	Header      EventHeader `json:"header"`
	OrderID     string      `json:"order_id"`
	ReferenceID string      `json:"reference_id"`
	UserID      string      `json:"user_id"`
	EventID     string      `json:"event_id"`
	TicketIDs   []string    `json:"ticket_ids"`
	TotalAmount string      `json:"total_amount"`
	ExpiresAt   time.Time   `json:"expires_at"`
}

type OrderCompleted struct {
	Header    EventHeader `json:"header"`
	OrderID   string      `json:"order_id"`
	UserID    string      `json:"user_id"`
	EventID   string      `json:"event_id"`
	TicketIDs []string    `json:"ticket_ids"`
}

type OrderCanceled struct {
	Header    EventHeader `json:"header"`
	OrderID   string      `json:"order_id"`
	UserID    string      `json:"user_id"`
	EventID   string      `json:"event_id"`
	TicketIDs []string    `json:"ticket_ids"`
	Reason    string      `json:"reason"`
}

type OrderExpired struct {
	Header    EventHeader `json:"header"`
	OrderID   string      `json:"order_id"`
	UserID    string      `json:"user_id"`
	EventID   string      `json:"event_id"`
	TicketIDs []string    `json:"ticket_ids"`
}
