package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-pharma-stock/internal/money"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists inventory items. Save inserts or fully replaces by id;
// SaveAll does the same for a batch, storing all items or none.
type Store interface {
	List(ctx context.Context) ([]Item, error)
	Get(ctx context.Context, id string) (Item, error)
	Save(ctx context.Context, it Item) error
	SaveAll(ctx context.Context, items []Item) error
	Delete(ctx context.Context, id string) error
}

type Repo struct{ DB *pgxpool.Pool }

const selectItems = `SELECT id, medicine_name, pharmacy_name, batch_id, quantity, expiry_date,
                            unit_price::text, currency, storage_location
                     FROM inventory_items`

func scanItem(row pgx.Row) (Item, error) {
	var (
		it       Item
		price    string
		currency string
	)
	if err := row.Scan(&it.ID, &it.MedicineName, &it.PharmacyName, &it.BatchID, &it.Quantity,
		&it.ExpiryDate, &price, &currency, &it.StorageLocation); err != nil {
		return Item{}, err
	}
	m, err := money.Parse(price, currency)
	if err != nil {
		return Item{}, err
	}
	it.UnitPrice = m
	return it, nil
}

func (r *Repo) List(ctx context.Context) ([]Item, error) {
	rows, err := r.DB.Query(ctx, selectItems+` ORDER BY medicine_name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id string) (Item, error) {
	it, err := scanItem(r.DB.QueryRow(ctx, selectItems+` WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return it, err
}

const upsertItem = `
	INSERT INTO inventory_items(id, medicine_name, pharmacy_name, batch_id, quantity,
	                            expiry_date, unit_price, currency, storage_location)
	VALUES ($1,$2,$3,$4,$5,$6,$7::numeric,$8,$9)
	ON CONFLICT (id) DO UPDATE SET
		medicine_name=EXCLUDED.medicine_name, pharmacy_name=EXCLUDED.pharmacy_name,
		batch_id=EXCLUDED.batch_id, quantity=EXCLUDED.quantity,
		expiry_date=EXCLUDED.expiry_date, unit_price=EXCLUDED.unit_price,
		currency=EXCLUDED.currency, storage_location=EXCLUDED.storage_location,
		updated_at=now()`

func upsertArgs(it Item) []any {
	return []any{it.ID, it.MedicineName, it.PharmacyName, it.BatchID, it.Quantity,
		it.ExpiryDate, it.UnitPrice.Amount.String(), it.UnitPrice.Currency, it.StorageLocation}
}

func (r *Repo) Save(ctx context.Context, it Item) error {
	_, err := r.DB.Exec(ctx, upsertItem, upsertArgs(it)...)
	return err
}

// SaveAll upserts items in one transaction.
func (r *Repo) SaveAll(ctx context.Context, items []Item) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, it := range items {
		if _, err := tx.Exec(ctx, upsertItem, upsertArgs(it)...); err != nil {
			return fmt.Errorf("save item %s: %w", it.ID, err)
		}
	}
	return tx.Commit(ctx)
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM inventory_items WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
