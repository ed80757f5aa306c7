package users

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"boxoffice/entity"
)

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Store(ctx context.Context, user entity.User) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users (user_id, email, membership_expires_at)
		VALUES (:user_id, :email, :membership_expires_at)
		ON CONFLICT DO NOTHING -- ignore if already exists
	`, user)
	return err
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (entity.User, error) {
	var user entity.User
	err := r.db.GetContext(ctx, &user, `
		SELECT user_id, email, membership_expires_at
		FROM users
		WHERE user_id = $1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.User{}, entity.ErrUserNotFound
	}

	return user, err
}

// HasActiveMembership is the production implementation of the membership
// predicate consumed by the booking engine.
func (r *PostgresRepository) HasActiveMembership(ctx context.Context, userID string) (bool, error) {
	var active bool
	err := r.db.GetContext(ctx, &active, `
		SELECT membership_expires_at IS NOT NULL AND membership_expires_at > $2
		FROM users
		WHERE user_id = $1
	`, userID, time.Now().UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return false, entity.ErrUserNotFound
	}

	return active, err
}
