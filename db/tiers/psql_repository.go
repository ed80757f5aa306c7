package tiers

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"boxoffice/entity"
)

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Store(ctx context.Context, tier entity.TicketTier) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO ticket_tiers (tier_id, event_id, name, price, quantity, sale_starts_at, sale_ends_at)
		VALUES (:tier_id, :event_id, :name, :price, :quantity, :sale_starts_at, :sale_ends_at)
		ON CONFLICT DO NOTHING -- ignore if already exists
	`, tier)
	return err
}

func (r *PostgresRepository) Get(ctx context.Context, tierID string) (entity.TicketTier, error) {
	var tier entity.TicketTier
	err := r.db.GetContext(ctx, &tier, `
		SELECT tier_id, event_id, name, price, quantity, sale_starts_at, sale_ends_at
		FROM ticket_tiers
		WHERE tier_id = $1
	`, tierID)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.TicketTier{}, entity.ErrInvalidTierSelection
	}

	return tier, err
}

// FindByIDs returns the tiers for the given ids, in ascending id order.
// Missing ids are simply absent from the result; the caller decides whether
// that is an error.
func (r *PostgresRepository) FindByIDs(ctx context.Context, tierIDs []string) ([]entity.TicketTier, error) {
	var tiers []entity.TicketTier
	err := r.db.SelectContext(ctx, &tiers, `
		SELECT tier_id, event_id, name, price, quantity, sale_starts_at, sale_ends_at
		FROM ticket_tiers
		WHERE tier_id = ANY($1)
		ORDER BY tier_id
	`, pq.Array(tierIDs))
	return tiers, err
}

func (r *PostgresRepository) FindByEvent(ctx context.Context, eventID string) ([]entity.TicketTier, error) {
	var tiers []entity.TicketTier
	err := r.db.SelectContext(ctx, &tiers, `
		SELECT tier_id, event_id, name, price, quantity, sale_starts_at, sale_ends_at
		FROM ticket_tiers
		WHERE event_id = $1
		ORDER BY tier_id
	`, eventID)
	return tiers, err
}
