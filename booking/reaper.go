package booking

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
)

// Scheduler fires callbacks at a future instant or on a fixed interval.
// The reaper only needs at-least-once semantics from it: every fired action
// is an idempotent order transition.
type Scheduler interface {
	At(t time.Time, fn func(ctx context.Context))
	Every(interval time.Duration, fn func(ctx context.Context))
}

// Reaper releases abandoned reservations through two cooperating paths: a
// per-order deadline timer armed for each reservation, and a periodic sweep
// as the safety net for timers lost to a crash or restart. Both call the
// same idempotent expiry transition, so they are safe to race against each
// other and against payment completion.
type Reaper struct {
	service   *Service
	scheduler Scheduler
	interval  time.Duration
}

func NewReaper(service *Service, scheduler Scheduler, interval time.Duration) *Reaper {
	if service == nil {
		panic("missing service")
	}
	if scheduler == nil {
		panic("missing scheduler")
	}

	return &Reaper{
		service:   service,
		scheduler: scheduler,
		interval:  interval,
	}
}

// Start registers the periodic sweep.
func (r *Reaper) Start() {
	r.scheduler.Every(r.interval, func(ctx context.Context) {
		if err := r.service.SweepExpiredOrders(ctx); err != nil {
			log.FromContext(ctx).WithError(err).Error("Sweep finished with errors")
		}
	})
}

// ScheduleExpiry arms the deadline timer for one order.
func (r *Reaper) ScheduleExpiry(orderID string, at time.Time) {
	r.scheduler.At(at, func(ctx context.Context) {
		if err := r.service.ExpireOrder(ctx, orderID); err != nil {
			log.FromContext(ctx).
				WithField("order_id", orderID).
				WithError(err).
				Error("Could not expire order at deadline")
		}
	})
}
