package events

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"boxoffice/entity"
)

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Store(ctx context.Context, event entity.Event) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO events (event_id, name, state, max_attendees, members_only, start_date)
		VALUES (:event_id, :name, :state, :max_attendees, :members_only, :start_date)
		ON CONFLICT DO NOTHING -- ignore if already exists
	`, event)
	return err
}

func (r *PostgresRepository) Get(ctx context.Context, eventID string) (entity.Event, error) {
	var event entity.Event
	err := r.db.GetContext(ctx, &event, `
		SELECT event_id, name, state, max_attendees, members_only, start_date
		FROM events
		WHERE event_id = $1
	`, eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Event{}, entity.ErrEventNotFound
	}

	return event, err
}
