package event

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"

	"boxoffice/entity"
)

// ExpiryScheduler arms the payment deadline for a reserved order.
type ExpiryScheduler interface {
	ScheduleExpiry(orderID string, at time.Time)
}

type Handler struct {
	scheduler ExpiryScheduler
}

func NewHandler(scheduler ExpiryScheduler) Handler {
	if scheduler == nil {
		panic("missing scheduler")
	}

	return Handler{
		scheduler: scheduler,
	}
}

// ScheduleOrderExpiryHandler consumes the engine's own OrderCreated events,
// which are delivered at-least-once and only after the reservation
// committed. Re-delivery is harmless: arming the timer twice leads to a
// second expiry attempt that hits an already-terminal order and no-ops.
func (h Handler) ScheduleOrderExpiryHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"ScheduleOrderExpiryHandler",
		func(ctx context.Context, event *entity.OrderCreated) error {
			log.FromContext(ctx).
				WithField("order_id", event.OrderID).
				WithField("expires_at", event.ExpiresAt).
				Info("Scheduling order expiry")

			h.scheduler.ScheduleExpiry(event.OrderID, event.ExpiresAt)
			return nil
		},
	)
}
