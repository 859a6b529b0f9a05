// Package sqlite is the embedded store: inventory and orders on a single
// SQLite file, for local runs and HTTP tests without Postgres.
package sqlite

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Connect opens the database and applies the schema. SQLite allows one
// writer, so the pool is a single connection; this also keeps ":memory:"
// databases alive for the life of the pool.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS inventory_items (
		id               TEXT PRIMARY KEY,
		medicine_name    TEXT NOT NULL,
		pharmacy_name    TEXT NOT NULL DEFAULT '',
		batch_id         TEXT NOT NULL DEFAULT '',
		quantity         INTEGER NOT NULL CHECK (quantity >= 0),
		expiry_date      TEXT NOT NULL,
		unit_price       TEXT NOT NULL,
		currency         TEXT NOT NULL,
		storage_location TEXT NOT NULL DEFAULT '',
		created_at       DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at       DATETIME DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS orders (
		id           TEXT PRIMARY KEY,
		seq          INTEGER NOT NULL UNIQUE,
		order_number TEXT NOT NULL UNIQUE,
		patient_name TEXT NOT NULL,
		medicines    TEXT NOT NULL,
		status       TEXT NOT NULL,
		order_date   TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		currency     TEXT NOT NULL,
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	);`,
}

func Migrate(db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
