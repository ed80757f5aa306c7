package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"boxoffice/db"
	"boxoffice/entity"
	"boxoffice/pubsub"
	"boxoffice/pubsub/outbox"
)

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Reserve materializes a validated order and its tickets, re-checking every
// capacity invariant under row locks inside one transaction. The request is
// all-or-nothing across every tier it touches: any capacity shortfall aborts
// the whole transaction.
//
// Lock ordering is fixed globally (tier rows in ascending tier id, then the
// event row if the event caps attendance), so concurrent reservations for
// overlapping tier sets serialize instead of deadlocking, and reservations
// for disjoint tier sets do not block one another.
func (r *PostgresRepository) Reserve(ctx context.Context, order entity.TicketOrder, tickets []entity.Ticket) error {
	requested := map[string]int{}
	for _, t := range tickets {
		requested[t.TierID]++
	}

	tierIDs := make([]string, 0, len(requested))
	for id := range requested {
		tierIDs = append(tierIDs, id)
	}

	err := db.UpdateInTx(ctx, r.db, sql.LevelReadCommitted, func(ctx context.Context, tx *sqlx.Tx) error {
		locked, err := lockTiers(ctx, tx, tierIDs)
		if err != nil {
			return err
		}
		if len(locked) != len(requested) {
			return entity.ErrInvalidTierSelection
		}

		maxAttendees, err := lockEventCap(ctx, tx, order.EventID)
		if err != nil {
			return err
		}

		active, err := countActiveByTierTx(ctx, tx, tierIDs)
		if err != nil {
			return err
		}

		for _, tier := range locked {
			if tier.Quantity == nil {
				continue
			}
			if active[tier.TierID]+requested[tier.TierID] > *tier.Quantity {
				return entity.ErrTierCapacityExceeded
			}
		}

		if maxAttendees != nil {
			var eventActive int
			err = tx.GetContext(ctx, &eventActive, `
				SELECT COUNT(*)
				FROM tickets
				WHERE event_id = $1 AND status IN ('pending', 'confirmed')
			`, order.EventID)
			if err != nil {
				return fmt.Errorf("could not count active tickets for event: %w", err)
			}

			if eventActive+len(tickets) > *maxAttendees {
				return entity.ErrEventAtCapacity
			}
		}

		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO ticket_orders (order_id, reference_id, user_id, event_id, status, total_amount, expires_at, created_at)
			VALUES (:order_id, :reference_id, :user_id, :event_id, :status, :total_amount, :expires_at, :created_at)
		`, order)
		if err != nil {
			return fmt.Errorf("could not insert order: %w", err)
		}

		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO tickets (ticket_id, order_id, event_id, tier_id, user_id, status, expires_at)
			VALUES (:ticket_id, :order_id, :event_id, :tier_id, :user_id, :status, :expires_at)
		`, tickets)
		if err != nil {
			return fmt.Errorf("could not insert tickets: %w", err)
		}

		return publishInTx(ctx, tx, entity.OrderCreated{
			Header:      entity.NewEventHeaderWithIdempotencyKey(order.ID),
			OrderID:     order.ID,
			ReferenceID: order.ReferenceID,
			UserID:      order.UserID,
			EventID:     order.EventID,
			TicketIDs:   ticketIDs(tickets),
			TotalAmount: order.TotalAmount.String(),
			ExpiresAt:   order.ExpiresAt,
		})
	})

	return db.TranslateError(err)
}

// Complete moves a pending order and all its tickets to their confirmed
// terminal state in one transaction. Completing a non-pending order is a
// no-op, not an error: whichever transition committed first stays final.
func (r *PostgresRepository) Complete(ctx context.Context, orderID string) error {
	return r.transition(ctx, orderID, entity.OrderStatusCompleted, entity.TicketStatusConfirmed,
		func(order entity.TicketOrder, ids []string) any {
			return entity.OrderCompleted{
				Header:    entity.NewEventHeaderWithIdempotencyKey(order.ID),
				OrderID:   order.ID,
				UserID:    order.UserID,
				EventID:   order.EventID,
				TicketIDs: ids,
			}
		})
}

func (r *PostgresRepository) Cancel(ctx context.Context, orderID, reason string) error {
	return r.transition(ctx, orderID, entity.OrderStatusCancelled, entity.TicketStatusCancelled,
		func(order entity.TicketOrder, ids []string) any {
			return entity.OrderCanceled{
				Header:    entity.NewEventHeaderWithIdempotencyKey(order.ID),
				OrderID:   order.ID,
				UserID:    order.UserID,
				EventID:   order.EventID,
				TicketIDs: ids,
				Reason:    reason,
			}
		})
}

func (r *PostgresRepository) Expire(ctx context.Context, orderID string) error {
	return r.transition(ctx, orderID, entity.OrderStatusExpired, entity.TicketStatusExpired,
		func(order entity.TicketOrder, ids []string) any {
			return entity.OrderExpired{
				Header:    entity.NewEventHeaderWithIdempotencyKey(order.ID),
				OrderID:   order.ID,
				UserID:    order.UserID,
				EventID:   order.EventID,
				TicketIDs: ids,
			}
		})
}

// transition is the single write path shared by complete, cancel and expire.
// Moving tickets out of the active statuses only frees capacity, so no tier
// locks are needed; the order row lock alone decides races between the three
// transitions, and the loser's re-check of status turns its attempt into a
// no-op.
func (r *PostgresRepository) transition(
	ctx context.Context,
	orderID string,
	orderStatus entity.OrderStatus,
	ticketStatus entity.TicketStatus,
	makeEvent func(order entity.TicketOrder, ticketIDs []string) any,
) error {
	err := db.UpdateInTx(ctx, r.db, sql.LevelReadCommitted, func(ctx context.Context, tx *sqlx.Tx) error {
		var order entity.TicketOrder
		err := tx.GetContext(ctx, &order, `
			SELECT order_id, reference_id, user_id, event_id, status, total_amount, expires_at, created_at
			FROM ticket_orders
			WHERE order_id = $1
			FOR UPDATE
		`, orderID)
		if errors.Is(err, sql.ErrNoRows) {
			return entity.ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("could not lock order: %w", err)
		}

		if order.Status.IsTerminal() {
			log.FromContext(ctx).
				WithField("order_id", orderID).
				WithField("status", order.Status).
				Info("Order already terminal, skipping transition")
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE ticket_orders SET status = $2 WHERE order_id = $1
		`, orderID, orderStatus)
		if err != nil {
			return fmt.Errorf("could not update order status: %w", err)
		}

		var ids []string
		err = tx.SelectContext(ctx, &ids, `
			UPDATE tickets SET status = $2 WHERE order_id = $1
			RETURNING ticket_id
		`, orderID, ticketStatus)
		if err != nil {
			return fmt.Errorf("could not update ticket statuses: %w", err)
		}

		return publishInTx(ctx, tx, makeEvent(order, ids))
	})

	return db.TranslateError(err)
}

func (r *PostgresRepository) Get(ctx context.Context, orderID string) (entity.TicketOrder, error) {
	var order entity.TicketOrder
	err := r.db.GetContext(ctx, &order, `
		SELECT order_id, reference_id, user_id, event_id, status, total_amount, expires_at, created_at
		FROM ticket_orders
		WHERE order_id = $1
	`, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.TicketOrder{}, entity.ErrOrderNotFound
	}

	return order, err
}

func (r *PostgresRepository) FindTickets(ctx context.Context, orderID string) ([]entity.Ticket, error) {
	var tickets []entity.Ticket
	err := r.db.SelectContext(ctx, &tickets, `
		SELECT ticket_id, order_id, event_id, tier_id, user_id, status, expires_at
		FROM tickets
		WHERE order_id = $1
		ORDER BY ticket_id
	`, orderID)
	return tickets, err
}

// CountActiveByTier derives per-tier reserved capacity by counting rows, the
// same formula the committer re-evaluates under lock. Tiers with no active
// tickets are absent from the result.
func (r *PostgresRepository) CountActiveByTier(ctx context.Context, tierIDs []string) (map[string]int, error) {
	return countActiveByTierTx(ctx, r.db, tierIDs)
}

func (r *PostgresRepository) CountActiveByEvent(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM tickets
		WHERE event_id = $1 AND status IN ('pending', 'confirmed')
	`, eventID)
	return count, err
}

func (r *PostgresRepository) HasPendingOrder(ctx context.Context, userID, eventID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM ticket_orders
			WHERE user_id = $1 AND event_id = $2 AND status = 'pending'
		)
	`, userID, eventID)
	return exists, err
}

// FindExpiredPending returns ids of pending orders whose payment window has
// elapsed, for the periodic sweep.
func (r *PostgresRepository) FindExpiredPending(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids, `
		SELECT order_id
		FROM ticket_orders
		WHERE status = 'pending' AND expires_at < NOW()
		ORDER BY expires_at
	`)
	return ids, err
}

type lockedTier struct {
	TierID   string `db:"tier_id"`
	Quantity *int   `db:"quantity"`
}

func lockTiers(ctx context.Context, tx *sqlx.Tx, tierIDs []string) ([]lockedTier, error) {
	var locked []lockedTier
	err := tx.SelectContext(ctx, &locked, `
		SELECT tier_id, quantity
		FROM ticket_tiers
		WHERE tier_id = ANY($1)
		ORDER BY tier_id
		FOR UPDATE
	`, pq.Array(tierIDs))
	if err != nil {
		return nil, fmt.Errorf("could not lock tiers: %w", err)
	}
	return locked, nil
}

// lockEventCap locks the event row only when the event actually caps
// attendance, so requests against uncapped events never serialize on it.
func lockEventCap(ctx context.Context, tx *sqlx.Tx, eventID string) (*int, error) {
	var maxAttendees *int
	err := tx.GetContext(ctx, &maxAttendees, `
		SELECT max_attendees FROM events WHERE event_id = $1
	`, eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not read event cap: %w", err)
	}
	if maxAttendees == nil {
		return nil, nil
	}

	err = tx.GetContext(ctx, &maxAttendees, `
		SELECT max_attendees FROM events WHERE event_id = $1 FOR UPDATE
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("could not lock event row: %w", err)
	}
	return maxAttendees, nil
}

func countActiveByTierTx(ctx context.Context, q sqlx.QueryerContext, tierIDs []string) (map[string]int, error) {
	var rows []struct {
		TierID string `db:"tier_id"`
		Active int    `db:"active"`
	}
	err := sqlx.SelectContext(ctx, q, &rows, `
		SELECT tier_id, COUNT(*) AS active
		FROM tickets
		WHERE tier_id = ANY($1) AND status IN ('pending', 'confirmed')
		GROUP BY tier_id
	`, pq.Array(tierIDs))
	if err != nil {
		return nil, fmt.Errorf("could not count active tickets: %w", err)
	}

	active := make(map[string]int, len(rows))
	for _, row := range rows {
		active[row.TierID] = row.Active
	}
	return active, nil
}

func publishInTx(ctx context.Context, tx *sqlx.Tx, event any) error {
	publisher, err := outbox.NewPublisherForTx(ctx, tx)
	if err != nil {
		return err
	}

	eventBus, err := pubsub.NewEventBus(publisher)
	if err != nil {
		return err
	}

	err = eventBus.Publish(ctx, event)
	if err != nil {
		return fmt.Errorf("could not publish event: %w", err)
	}
	return nil
}

func ticketIDs(tickets []entity.Ticket) []string {
	ids := make([]string, len(tickets))
	for i, t := range tickets {
		ids[i] = t.ID
	}
	return ids
}
