package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ariefcatur/go-pharma-stock/internal/inventory"
	"github.com/ariefcatur/go-pharma-stock/internal/money"
)

const dateLayout = "2006-01-02"

type itemRow struct {
	ID              string `db:"id"`
	MedicineName    string `db:"medicine_name"`
	PharmacyName    string `db:"pharmacy_name"`
	BatchID         string `db:"batch_id"`
	Quantity        int    `db:"quantity"`
	ExpiryDate      string `db:"expiry_date"`
	UnitPrice       string `db:"unit_price"`
	Currency        string `db:"currency"`
	StorageLocation string `db:"storage_location"`
}

func (r itemRow) item() (inventory.Item, error) {
	expiry, err := time.Parse(dateLayout, r.ExpiryDate)
	if err != nil {
		return inventory.Item{}, err
	}
	price, err := money.Parse(r.UnitPrice, r.Currency)
	if err != nil {
		return inventory.Item{}, err
	}
	return inventory.Item{
		ID:              r.ID,
		MedicineName:    r.MedicineName,
		PharmacyName:    r.PharmacyName,
		BatchID:         r.BatchID,
		Quantity:        r.Quantity,
		ExpiryDate:      expiry,
		UnitPrice:       price,
		StorageLocation: r.StorageLocation,
	}, nil
}

// ItemStore implements inventory.Store.
type ItemStore struct{ DB *sqlx.DB }

const selectItems = `SELECT id, medicine_name, pharmacy_name, batch_id, quantity, expiry_date,
	unit_price, currency, storage_location FROM inventory_items`

func (s *ItemStore) List(ctx context.Context) ([]inventory.Item, error) {
	var rows []itemRow
	if err := s.DB.SelectContext(ctx, &rows, selectItems+` ORDER BY medicine_name, id`); err != nil {
		return nil, err
	}
	out := make([]inventory.Item, 0, len(rows))
	for _, r := range rows {
		it, err := r.item()
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}

func (s *ItemStore) Get(ctx context.Context, id string) (inventory.Item, error) {
	var r itemRow
	err := s.DB.GetContext(ctx, &r, selectItems+` WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return inventory.Item{}, inventory.ErrNotFound
	}
	if err != nil {
		return inventory.Item{}, err
	}
	return r.item()
}

const upsertItem = `
	INSERT INTO inventory_items (id, medicine_name, pharmacy_name, batch_id, quantity,
	                             expiry_date, unit_price, currency, storage_location)
	VALUES (:id, :medicine_name, :pharmacy_name, :batch_id, :quantity,
	        :expiry_date, :unit_price, :currency, :storage_location)
	ON CONFLICT (id) DO UPDATE SET
		medicine_name = excluded.medicine_name, pharmacy_name = excluded.pharmacy_name,
		batch_id = excluded.batch_id, quantity = excluded.quantity,
		expiry_date = excluded.expiry_date, unit_price = excluded.unit_price,
		currency = excluded.currency, storage_location = excluded.storage_location,
		updated_at = CURRENT_TIMESTAMP`

func rowOf(it inventory.Item) itemRow {
	return itemRow{
		ID:              it.ID,
		MedicineName:    it.MedicineName,
		PharmacyName:    it.PharmacyName,
		BatchID:         it.BatchID,
		Quantity:        it.Quantity,
		ExpiryDate:      it.ExpiryDate.UTC().Format(dateLayout),
		UnitPrice:       it.UnitPrice.Amount.String(),
		Currency:        it.UnitPrice.Currency,
		StorageLocation: it.StorageLocation,
	}
}

func (s *ItemStore) Save(ctx context.Context, it inventory.Item) error {
	_, err := s.DB.NamedExecContext(ctx, upsertItem, rowOf(it))
	return err
}

// SaveAll upserts items in one transaction.
func (s *ItemStore) SaveAll(ctx context.Context, items []inventory.Item) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, it := range items {
		if _, err := tx.NamedExecContext(ctx, upsertItem, rowOf(it)); err != nil {
			return fmt.Errorf("save item %s: %w", it.ID, err)
		}
	}
	return tx.Commit()
}

func (s *ItemStore) Delete(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return inventory.ErrNotFound
	}
	return nil
}
