package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS inventory_items (
		id               TEXT PRIMARY KEY,
		medicine_name    TEXT NOT NULL,
		pharmacy_name    TEXT NOT NULL DEFAULT '',
		batch_id         TEXT NOT NULL DEFAULT '',
		quantity         INTEGER NOT NULL CHECK (quantity >= 0),
		expiry_date      DATE NOT NULL,
		unit_price       NUMERIC(12,2) NOT NULL CHECK (unit_price >= 0),
		currency         CHAR(3) NOT NULL,
		storage_location TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS inventory_items_expiry_idx ON inventory_items (expiry_date)`,
	`CREATE SEQUENCE IF NOT EXISTS order_number_seq`,
	`CREATE TABLE IF NOT EXISTS orders (
		id           TEXT PRIMARY KEY,
		order_number TEXT NOT NULL UNIQUE,
		patient_name TEXT NOT NULL,
		medicines    TEXT[] NOT NULL,
		status       TEXT NOT NULL CHECK (status IN ('pending','processing','completed','cancelled')),
		order_date   DATE NOT NULL,
		total_amount NUMERIC(12,2) NOT NULL CHECK (total_amount >= 0),
		currency     CHAR(3) NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS orders_status_idx ON orders (status)`,
}

// Migrate creates the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
