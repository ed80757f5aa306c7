package booking

import (
	"context"
	"fmt"
	"time"

	"boxoffice/entity"
)

type UsersRepository interface {
	Get(ctx context.Context, userID string) (entity.User, error)
}

type EventsRepository interface {
	Get(ctx context.Context, eventID string) (entity.Event, error)
}

type TiersRepository interface {
	FindByIDs(ctx context.Context, tierIDs []string) ([]entity.TicketTier, error)
}

// MembershipVerifier is the eligibility predicate consumed by the engine.
type MembershipVerifier interface {
	HasActiveMembership(ctx context.Context, userID string) (bool, error)
}

// Validator runs the read-only precondition checks for a proposed purchase.
// Its verdict is advisory: every capacity formula it evaluates is re-checked
// by the committer under lock, so it is safe to call without any lock.
type Validator struct {
	users      UsersRepository
	events     EventsRepository
	tiers      TiersRepository
	orders     OrdersRepository
	membership MembershipVerifier
}

func NewValidator(
	users UsersRepository,
	events EventsRepository,
	tiers TiersRepository,
	orders OrdersRepository,
	membership MembershipVerifier,
) *Validator {
	return &Validator{
		users:      users,
		events:     events,
		tiers:      tiers,
		orders:     orders,
		membership: membership,
	}
}

// Validate runs the precondition checks in a fixed order and returns the
// first failure. It never writes.
func (v *Validator) Validate(ctx context.Context, req entity.BookingRequest) error {
	now := time.Now().UTC()

	if _, err := v.users.Get(ctx, req.UserID); err != nil {
		return err
	}

	event, err := v.events.Get(ctx, req.EventID)
	if err != nil {
		return err
	}

	if len(req.Selections) == 0 {
		return entity.ErrNoTicketsSelected
	}

	if event.State == entity.EventStateCancelled {
		return entity.ErrEventCancelled
	}

	if !event.StartDate.After(now) {
		return entity.ErrEventInPast
	}

	if event.MembersOnly {
		active, err := v.membership.HasActiveMembership(ctx, req.UserID)
		if err != nil {
			return fmt.Errorf("could not check membership: %w", err)
		}
		if !active {
			return entity.ErrMembershipRequired
		}
	}

	tierIDs := req.TierIDs()

	tiers, err := v.tiers.FindByIDs(ctx, tierIDs)
	if err != nil {
		return fmt.Errorf("could not load tiers: %w", err)
	}
	if len(tiers) != len(tierIDs) {
		return entity.ErrInvalidTierSelection
	}

	for _, tier := range tiers {
		if tier.EventID != req.EventID {
			return entity.ErrInvalidTierSelection
		}
		if !tier.SaleOpenAt(now) {
			return entity.ErrInvalidTierSelection
		}
		if req.Selections[tier.ID] < 1 {
			return entity.ErrInvalidTierSelection
		}
	}

	active, err := v.orders.CountActiveByTier(ctx, tierIDs)
	if err != nil {
		return fmt.Errorf("could not count reserved tickets: %w", err)
	}

	for _, tier := range tiers {
		if tier.Quantity == nil {
			continue
		}
		if active[tier.ID]+req.Selections[tier.ID] > *tier.Quantity {
			return entity.ErrTierCapacityExceeded
		}
	}

	if event.MaxAttendees != nil {
		eventActive, err := v.orders.CountActiveByEvent(ctx, req.EventID)
		if err != nil {
			return fmt.Errorf("could not count reserved tickets for event: %w", err)
		}
		if eventActive+req.TotalQuantity() > *event.MaxAttendees {
			return entity.ErrEventAtCapacity
		}
	}

	pending, err := v.orders.HasPendingOrder(ctx, req.UserID, req.EventID)
	if err != nil {
		return fmt.Errorf("could not check pending orders: %w", err)
	}
	if pending {
		return entity.ErrConcurrentBooking
	}

	return nil
}
