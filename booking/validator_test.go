package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boxoffice/entity"
	"boxoffice/gateway"
)

func TestValidate_UnknownUser(t *testing.T) {
	validator := newValidator(t, nil)
	event := storeEvent(t, defaultEvent())
	tier := storeTier(t, entity.TicketTier{EventID: event.ID, Quantity: lo.ToPtr(10)})

	err := validator.Validate(context.Background(), entity.BookingRequest{
		UserID:     uuid.NewString(),
		EventID:    event.ID,
		Selections: map[string]int{tier.ID: 1},
	})
	assert.ErrorIs(t, err, entity.ErrUserNotFound)
}

func TestValidate_UnknownEvent(t *testing.T) {
	validator := newValidator(t, nil)
	userID := seedUser(t, nil)

	err := validator.Validate(context.Background(), entity.BookingRequest{
		UserID:     userID,
		EventID:    uuid.NewString(),
		Selections: map[string]int{uuid.NewString(): 1},
	})
	assert.ErrorIs(t, err, entity.ErrEventNotFound)
}

func TestValidate_NoTicketsSelected(t *testing.T) {
	validator := newValidator(t, nil)
	userID := seedUser(t, nil)
	event := storeEvent(t, defaultEvent())

	err := validator.Validate(context.Background(), entity.BookingRequest{
		UserID:  userID,
		EventID: event.ID,
	})
	assert.ErrorIs(t, err, entity.ErrNoTicketsSelected)
}

func TestValidate_CancelledEvent(t *testing.T) {
	validator := newValidator(t, nil)
	userID := seedUser(t, nil)

	event := defaultEvent()
	event.State = entity.EventStateCancelled
	event = storeEvent(t, event)
	tier := storeTier(t, entity.TicketTier{EventID: event.ID, Quantity: lo.ToPtr(10)})

	err := validator.Validate(context.Background(), entity.BookingRequest{
		UserID:     userID,
		EventID:    event.ID,
		Selections: map[string]int{tier.ID: 1},
	})
	assert.ErrorIs(t, err, entity.ErrEventCancelled)
}

func TestValidate_EventAlreadyStarted(t *testing.T) {
	validator := newValidator(t, nil)
	userID := seedUser(t, nil)

	event := defaultEvent()
	event.StartDate = time.Now().Add(-time.Hour)
	event = storeEvent(t, event)
	tier := storeTier(t, entity.TicketTier{EventID: event.ID, Quantity: lo.ToPtr(10)})

	err := validator.Validate(context.Background(), entity.BookingRequest{
		UserID:     userID,
		EventID:    event.ID,
		Selections: map[string]int{tier.ID: 1},
	})
	assert.ErrorIs(t, err, entity.ErrEventInPast)
}

func TestValidate_MembersOnly(t *testing.T) {
	membership := &gateway.MembershipMock{Members: map[string]bool{}}
	validator := newValidator(t, membership)

	event := defaultEvent()
	event.MembersOnly = true
	event = storeEvent(t, event)
	tier := storeTier(t, entity.TicketTier{EventID: event.ID, Quantity: lo.ToPtr(10)})

	userID := seedUser(t, nil)
	req := entity.BookingRequest{
		UserID:     userID,
		EventID:    event.ID,
		Selections: map[string]int{tier.ID: 1},
	}

	err := validator.Validate(context.Background(), req)
	assert.ErrorIs(t, err, entity.ErrMembershipRequired)

	membership.Members = map[string]bool{userID: true}
	assert.NoError(t, validator.Validate(context.Background(), req))
}

func TestValidate_MembershipFromUserRecord(t *testing.T) {
	validator := newValidator(t, nil)

	event := defaultEvent()
	event.MembersOnly = true
	event = storeEvent(t, event)
	tier := storeTier(t, entity.TicketTier{EventID: event.ID, Quantity: lo.ToPtr(10)})

	lapsed := seedUser(t, lo.ToPtr(time.Now().Add(-time.Hour)))
	err := validator.Validate(context.Background(), entity.BookingRequest{
		UserID:     lapsed,
		EventID:    event.ID,
		Selections: map[string]int{tier.ID: 1},
	})
	assert.ErrorIs(t, err, entity.ErrMembershipRequired)

	member := seedUser(t, lo.ToPtr(time.Now().Add(30*24*time.Hour)))
	err = validator.Validate(context.Background(), entity.BookingRequest{
		UserID:     member,
		EventID:    event.ID,
		Selections: map[string]int{tier.ID: 1},
	})
	assert.NoError(t, err)
}

func TestValidate_TierSelection(t *testing.T) {
	validator := newValidator(t, nil)
	userID := seedUser(t, nil)
	event := storeEvent(t, defaultEvent())
	tier := storeTier(t, entity.TicketTier{EventID: event.ID, Quantity: lo.ToPtr(10)})

	otherEvent := storeEvent(t, defaultEvent())
	otherTier := storeTier(t, entity.TicketTier{EventID: otherEvent.ID, Quantity: lo.ToPtr(10)})

	closed := storeTier(t, entity.TicketTier{
		EventID:    event.ID,
		Quantity:   lo.ToPtr(10),
		SaleEndsAt: lo.ToPtr(time.Now().Add(-time.Hour)),
	})

	notOpenYet := storeTier(t, entity.TicketTier{
		EventID:      event.ID,
		Quantity:     lo.ToPtr(10),
		SaleStartsAt: lo.ToPtr(time.Now().Add(time.Hour)),
	})

	for name, selections := range map[string]map[string]int{
		"unknown tier":        {uuid.NewString(): 1},
		"tier of other event": {otherTier.ID: 1},
		"sale ended":          {closed.ID: 1},
		"sale not started":    {notOpenYet.ID: 1},
		"zero quantity":       {tier.ID: 0},
		"negative quantity":   {tier.ID: -1},
	} {
		t.Run(name, func(t *testing.T) {
			err := validator.Validate(context.Background(), entity.BookingRequest{
				UserID:     userID,
				EventID:    event.ID,
				Selections: selections,
			})
			assert.ErrorIs(t, err, entity.ErrInvalidTierSelection)
		})
	}
}

func TestValidate_TierCapacity(t *testing.T) {
	validator := newValidator(t, nil)
	event := storeEvent(t, defaultEvent())
	tier := storeTier(t, entity.TicketTier{EventID: event.ID, Quantity: lo.ToPtr(2)})

	holder := seedUser(t, nil)
	reserveFor(t, holder, event.ID, tier.ID, 2, time.Now().Add(15*time.Minute))

	userID := seedUser(t, nil)
	err := validator.Validate(context.Background(), entity.BookingRequest{
		UserID:     userID,
		EventID:    event.ID,
		Selections: map[string]int{tier.ID: 1},
	})
	assert.ErrorIs(t, err, entity.ErrTierCapacityExceeded)
}

func TestValidate_EventCapacity(t *testing.T) {
	validator := newValidator(t, nil)

	event := defaultEvent()
	event.MaxAttendees = lo.ToPtr(3)
	event = storeEvent(t, event)

	regular := storeTier(t, entity.TicketTier{EventID: event.ID, Quantity: lo.ToPtr(10)})
	vip := storeTier(t, entity.TicketTier{EventID: event.ID, Quantity: lo.ToPtr(10)})

	holder := seedUser(t, nil)
	reserveFor(t, holder, event.ID, regular.ID, 2, time.Now().Add(15*time.Minute))

	userID := seedUser(t, nil)
	err := validator.Validate(context.Background(), entity.BookingRequest{
		UserID:     userID,
		EventID:    event.ID,
		Selections: map[string]int{vip.ID: 2},
	})
	assert.ErrorIs(t, err, entity.ErrEventAtCapacity)
}

func TestValidate_PendingOrderBlocksUser(t *testing.T) {
	validator := newValidator(t, nil)
	event := storeEvent(t, defaultEvent())
	tier := storeTier(t, entity.TicketTier{EventID: event.ID, Quantity: lo.ToPtr(10)})

	userID := seedUser(t, nil)
	reserveFor(t, userID, event.ID, tier.ID, 1, time.Now().Add(15*time.Minute))

	err := validator.Validate(context.Background(), entity.BookingRequest{
		UserID:     userID,
		EventID:    event.ID,
		Selections: map[string]int{tier.ID: 1},
	})
	assert.ErrorIs(t, err, entity.ErrConcurrentBooking)
}

func TestValidate_OK(t *testing.T) {
	validator := newValidator(t, nil)
	userID := seedUser(t, nil)
	event := storeEvent(t, defaultEvent())
	limited := storeTier(t, entity.TicketTier{EventID: event.ID, Quantity: lo.ToPtr(10)})
	unlimited := storeTier(t, entity.TicketTier{EventID: event.ID})

	err := validator.Validate(context.Background(), entity.BookingRequest{
		UserID:     userID,
		EventID:    event.ID,
		Selections: map[string]int{limited.ID: 2, unlimited.ID: 3},
	})
	require.NoError(t, err)
}
