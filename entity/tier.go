package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TicketTier is a named class of ticket belonging to one event.
// Quantity == nil means the tier is unlimited. The sale window bounds are
// optional on both sides.
type TicketTier struct {
	ID           string          `db:"tier_id"`
	EventID      string          `db:"event_id"`
	Name         string          `db:"name"`
	Price        decimal.Decimal `db:"price"`
	Quantity     *int            `db:"quantity"`
	SaleStartsAt *time.Time      `db:"sale_starts_at"`
	SaleEndsAt   *time.Time      `db:"sale_ends_at"`
}

func (t TicketTier) SaleOpenAt(now time.Time) bool {
	if t.SaleStartsAt != nil && now.Before(*t.SaleStartsAt) {
		return false
	}
	if t.SaleEndsAt != nil && now.After(*t.SaleEndsAt) {
		return false
	}
	return true
}
