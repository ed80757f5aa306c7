package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"boxoffice/entity"
	"boxoffice/metrics"
)

// OrdersRepository is the transactional store behind the engine. Reserve
// must be all-or-nothing and must re-check capacity under lock; the
// transition methods must be idempotent on terminal orders.
type OrdersRepository interface {
	Reserve(ctx context.Context, order entity.TicketOrder, tickets []entity.Ticket) error
	Complete(ctx context.Context, orderID string) error
	Cancel(ctx context.Context, orderID, reason string) error
	Expire(ctx context.Context, orderID string) error
	Get(ctx context.Context, orderID string) (entity.TicketOrder, error)
	CountActiveByTier(ctx context.Context, tierIDs []string) (map[string]int, error)
	CountActiveByEvent(ctx context.Context, eventID string) (int, error)
	HasPendingOrder(ctx context.Context, userID, eventID string) (bool, error)
	FindExpiredPending(ctx context.Context) ([]string, error)
}

const reserveMaxRetries = 3

// Service is the booking engine's programmatic API: validation, the atomic
// reservation, and the order lifecycle operations.
type Service struct {
	validator     *Validator
	tiers         TiersRepository
	orders        OrdersRepository
	paymentWindow time.Duration
}

func NewService(
	validator *Validator,
	tiers TiersRepository,
	orders OrdersRepository,
	paymentWindow time.Duration,
) *Service {
	if validator == nil {
		panic("missing validator")
	}
	if tiers == nil {
		panic("missing tiers repository")
	}
	if orders == nil {
		panic("missing orders repository")
	}

	return &Service{
		validator:     validator,
		tiers:         tiers,
		orders:        orders,
		paymentWindow: paymentWindow,
	}
}

func (s *Service) Validate(ctx context.Context, req entity.BookingRequest) error {
	return s.validator.Validate(ctx, req)
}

// Book validates the request, then reserves inventory atomically. Transient
// storage failures are retried a bounded number of times with backoff;
// validation and capacity errors are returned as-is, never retried.
func (s *Service) Book(ctx context.Context, req entity.BookingRequest) (entity.TicketOrder, error) {
	if err := s.validator.Validate(ctx, req); err != nil {
		metrics.BookingsTotal.WithLabelValues(bookingResult(err)).Inc()
		return entity.TicketOrder{}, err
	}

	order, tickets, err := s.buildOrder(ctx, req)
	if err != nil {
		return entity.TicketOrder{}, err
	}

	op := func() error {
		err := s.orders.Reserve(ctx, order, tickets)
		if err != nil && !entity.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	err = backoff.Retry(op, backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), reserveMaxRetries), ctx))
	metrics.BookingsTotal.WithLabelValues(bookingResult(err)).Inc()
	if err != nil {
		return entity.TicketOrder{}, err
	}

	log.FromContext(ctx).
		WithField("order_id", order.ID).
		WithField("expires_at", order.ExpiresAt).
		Info("Order reserved")

	return order, nil
}

func (s *Service) CompleteOrder(ctx context.Context, orderID string) error {
	return s.orders.Complete(ctx, orderID)
}

func (s *Service) CancelOrder(ctx context.Context, orderID, reason string) error {
	return s.orders.Cancel(ctx, orderID, reason)
}

func (s *Service) ExpireOrder(ctx context.Context, orderID string) error {
	err := s.orders.Expire(ctx, orderID)
	if err != nil {
		return err
	}

	metrics.OrdersExpiredTotal.Inc()
	return nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (entity.TicketOrder, error) {
	return s.orders.Get(ctx, orderID)
}

// SweepExpiredOrders expires every pending order whose payment window has
// elapsed. Individual failures do not stop the sweep; they are joined into
// the returned error.
func (s *Service) SweepExpiredOrders(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}()

	ids, err := s.orders.FindExpiredPending(ctx)
	if err != nil {
		return fmt.Errorf("could not find expired orders: %w", err)
	}

	var errs []error
	for _, id := range ids {
		if err := s.ExpireOrder(ctx, id); err != nil {
			log.FromContext(ctx).
				WithField("order_id", id).
				WithError(err).
				Error("Could not expire order during sweep")
			errs = append(errs, fmt.Errorf("order %s: %w", id, err))
		}
	}

	if len(ids) > 0 {
		log.FromContext(ctx).WithField("count", len(ids)).Info("Swept expired orders")
	}

	return errors.Join(errs...)
}

func (s *Service) buildOrder(ctx context.Context, req entity.BookingRequest) (entity.TicketOrder, []entity.Ticket, error) {
	tiers, err := s.tiers.FindByIDs(ctx, req.TierIDs())
	if err != nil {
		return entity.TicketOrder{}, nil, fmt.Errorf("could not load tiers: %w", err)
	}

	now := time.Now().UTC()
	order := entity.TicketOrder{
		ID:          uuid.NewString(),
		ReferenceID: entity.NewOrderReference(),
		UserID:      req.UserID,
		EventID:     req.EventID,
		Status:      entity.OrderStatusPending,
		TotalAmount: decimal.Zero,
		ExpiresAt:   now.Add(s.paymentWindow),
		CreatedAt:   now,
	}

	var tickets []entity.Ticket
	for _, tier := range tiers {
		quantity := req.Selections[tier.ID]
		order.TotalAmount = order.TotalAmount.Add(tier.Price.Mul(decimal.NewFromInt(int64(quantity))))

		for i := 0; i < quantity; i++ {
			tickets = append(tickets, entity.Ticket{
				ID:        uuid.NewString(),
				OrderID:   order.ID,
				EventID:   req.EventID,
				TierID:    tier.ID,
				UserID:    req.UserID,
				Status:    entity.TicketStatusPending,
				ExpiresAt: order.ExpiresAt,
			})
		}
	}

	return order, tickets, nil
}

func bookingResult(err error) string {
	switch {
	case err == nil:
		return "reserved"
	case errors.Is(err, entity.ErrTierCapacityExceeded),
		errors.Is(err, entity.ErrEventAtCapacity),
		errors.Is(err, entity.ErrCapacityExceeded):
		return "capacity_exceeded"
	case entity.IsTransient(err):
		return "transient_error"
	default:
		return "rejected"
	}
}
