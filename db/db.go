package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schema = `
CREATE TABLE IF NOT EXISTS users (
	user_id UUID PRIMARY KEY,
	email VARCHAR(255) NOT NULL,
	membership_expires_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS events (
	event_id UUID PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	state VARCHAR(32) NOT NULL,
	max_attendees INT,
	members_only BOOLEAN NOT NULL DEFAULT FALSE,
	start_date TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS ticket_tiers (
	tier_id UUID PRIMARY KEY,
	event_id UUID NOT NULL REFERENCES events (event_id),
	name VARCHAR(255) NOT NULL,
	price NUMERIC(10, 2) NOT NULL,
	quantity INT,
	sale_starts_at TIMESTAMPTZ,
	sale_ends_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS ticket_orders (
	order_id UUID PRIMARY KEY,
	reference_id VARCHAR(64) NOT NULL UNIQUE,
	user_id UUID NOT NULL REFERENCES users (user_id),
	event_id UUID NOT NULL REFERENCES events (event_id),
	status VARCHAR(16) NOT NULL,
	total_amount NUMERIC(10, 2) NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- at most one pending order per (user, event)
CREATE UNIQUE INDEX IF NOT EXISTS ticket_orders_one_pending
	ON ticket_orders (user_id, event_id) WHERE status = 'pending';

CREATE INDEX IF NOT EXISTS ticket_orders_pending_expiry
	ON ticket_orders (expires_at) WHERE status = 'pending';

CREATE TABLE IF NOT EXISTS tickets (
	ticket_id UUID PRIMARY KEY,
	order_id UUID NOT NULL REFERENCES ticket_orders (order_id),
	event_id UUID NOT NULL REFERENCES events (event_id),
	tier_id UUID NOT NULL REFERENCES ticket_tiers (tier_id),
	user_id UUID NOT NULL REFERENCES users (user_id),
	status VARCHAR(16) NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS tickets_active_by_tier
	ON tickets (tier_id) WHERE status IN ('pending', 'confirmed');

CREATE INDEX IF NOT EXISTS tickets_active_by_event
	ON tickets (event_id) WHERE status IN ('pending', 'confirmed');

CREATE INDEX IF NOT EXISTS tickets_by_order ON tickets (order_id);
`

func InitializeDatabaseSchema(db *sqlx.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("could not initialize database schema: %w", err)
	}
	return nil
}

// UpdateInTx runs fn inside a transaction with the given isolation level,
// committing on nil and rolling back otherwise.
func UpdateInTx(
	ctx context.Context,
	db *sqlx.DB,
	isolation sql.IsolationLevel,
	fn func(ctx context.Context, tx *sqlx.Tx) error,
) (err error) {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: isolation})
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			rollbackErr := tx.Rollback()
			err = errors.Join(err, rollbackErr)
			return
		}
		err = tx.Commit()
	}()

	return fn(ctx, tx)
}
