package postgres

import (
	"context"
	"fmt"
)

// schema is applied in order at startup; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id          TEXT PRIMARY KEY,
		sku         TEXT NOT NULL UNIQUE,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category    TEXT NOT NULL DEFAULT '',
		price       NUMERIC(14,2) NOT NULL CHECK (price >= 0),
		discount    NUMERIC(14,2) NOT NULL DEFAULT 0 CHECK (discount >= 0 AND discount <= price),
		stock       INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
		status      TEXT NOT NULL DEFAULT 'active',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL,
		total_amount     NUMERIC(14,2) NOT NULL,
		shipping_fee     NUMERIC(14,2) NOT NULL DEFAULT 0,
		grand_total      NUMERIC(14,2) NOT NULL,
		payment_method   TEXT NOT NULL DEFAULT 'bank_transfer',
		bank_used        JSONB NOT NULL,
		payment_status   TEXT NOT NULL DEFAULT 'pending',
		order_status     TEXT NOT NULL DEFAULT 'pending',
		shipping_address JSONB NOT NULL,
		note             TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS orders_user_created_idx ON orders (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS order_lines (
		order_id   TEXT NOT NULL REFERENCES orders(id),
		position   INTEGER NOT NULL,
		product_id TEXT NOT NULL,
		name       TEXT NOT NULL,
		unit_price NUMERIC(14,2) NOT NULL,
		quantity   INTEGER NOT NULL CHECK (quantity > 0),
		subtotal   NUMERIC(14,2) NOT NULL,
		PRIMARY KEY (order_id, position)
	)`,
}

func Migrate(ctx context.Context, db Querier) error {
	for i, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}
	return nil
}
