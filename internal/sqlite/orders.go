package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ariefcatur/go-pharma-stock/internal/money"
	"github.com/ariefcatur/go-pharma-stock/internal/orders"
)

type orderRow struct {
	ID          string `db:"id"`
	OrderNumber string `db:"order_number"`
	PatientName string `db:"patient_name"`
	Medicines   string `db:"medicines"` // JSON array
	Status      string `db:"status"`
	OrderDate   string `db:"order_date"`
	TotalAmount string `db:"total_amount"`
	Currency    string `db:"currency"`
	CreatedAt   string `db:"created_at"` // RFC 3339
	UpdatedAt   string `db:"updated_at"`
}

func (r orderRow) order() (orders.Order, error) {
	var meds []string
	if err := json.Unmarshal([]byte(r.Medicines), &meds); err != nil {
		return orders.Order{}, fmt.Errorf("order %s medicines: %w", r.ID, err)
	}
	date, err := time.Parse(dateLayout, r.OrderDate)
	if err != nil {
		return orders.Order{}, err
	}
	total, err := money.Parse(r.TotalAmount, r.Currency)
	if err != nil {
		return orders.Order{}, err
	}
	created, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return orders.Order{}, err
	}
	updated, err := time.Parse(time.RFC3339Nano, r.UpdatedAt)
	if err != nil {
		return orders.Order{}, err
	}
	return orders.Order{
		ID:          r.ID,
		OrderNumber: r.OrderNumber,
		PatientName: r.PatientName,
		Medicines:   meds,
		Status:      orders.Status(r.Status),
		Date:        date,
		TotalAmount: total,
		CreatedAt:   created,
		UpdatedAt:   updated,
	}, nil
}

// OrderStore implements orders.Store.
type OrderStore struct{ DB *sqlx.DB }

const selectOrders = `SELECT id, order_number, patient_name, medicines, status, order_date,
	total_amount, currency, created_at, updated_at FROM orders`

func (s *OrderStore) List(ctx context.Context, status orders.Status) ([]orders.Order, error) {
	var rows []orderRow
	err := s.DB.SelectContext(ctx, &rows, selectOrders+`
		WHERE (? = '' OR status = ?)
		ORDER BY order_date DESC, seq DESC`, string(status), string(status))
	if err != nil {
		return nil, err
	}
	out := make([]orders.Order, 0, len(rows))
	for _, r := range rows {
		o, err := r.order()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *OrderStore) Get(ctx context.Context, id string) (orders.Order, error) {
	return getOrder(ctx, s.DB, id)
}

func getOrder(ctx context.Context, q sqlx.QueryerContext, id string) (orders.Order, error) {
	var r orderRow
	err := sqlx.GetContext(ctx, q, &r, selectOrders+` WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return orders.Order{}, orders.ErrNotFound
	}
	if err != nil {
		return orders.Order{}, err
	}
	return r.order()
}

func (s *OrderStore) Create(ctx context.Context, o orders.Order) (orders.Order, error) {
	meds, err := json.Marshal(o.Medicines)
	if err != nil {
		return orders.Order{}, err
	}

	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return orders.Order{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var seq int64
	if err := tx.GetContext(ctx, &seq, `SELECT COALESCE(MAX(seq), 0) + 1 FROM orders`); err != nil {
		return orders.Order{}, fmt.Errorf("next order number: %w", err)
	}
	o.OrderNumber = orders.FormatOrderNumber(seq)

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO orders (id, seq, order_number, patient_name, medicines, status, order_date,
		                    total_amount, currency, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, seq, o.OrderNumber, o.PatientName, string(meds), string(o.Status),
		o.Date.UTC().Format(dateLayout), o.TotalAmount.Amount.String(), o.TotalAmount.Currency, now, now,
	); err != nil {
		return orders.Order{}, err
	}
	created, err := getOrder(ctx, tx, o.ID)
	if err != nil {
		return orders.Order{}, err
	}
	if err := tx.Commit(); err != nil {
		return orders.Order{}, err
	}
	return created, nil
}

// ApplyAction runs read-check-write in one transaction; the single
// connection serializes concurrent actions.
func (s *OrderStore) ApplyAction(ctx context.Context, id string, action orders.Action) (orders.Order, orders.Status, error) {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return orders.Order{}, "", err
	}
	defer func() { _ = tx.Rollback() }()

	o, err := getOrder(ctx, tx, id)
	if err != nil {
		return orders.Order{}, "", err
	}
	from := o.Status
	next, err := orders.Transition(from, action)
	if err != nil {
		return orders.Order{}, from, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		string(next), time.Now().UTC().Format(time.RFC3339Nano), id); err != nil {
		return orders.Order{}, from, err
	}
	updated, err := getOrder(ctx, tx, id)
	if err != nil {
		return orders.Order{}, from, err
	}
	if err := tx.Commit(); err != nil {
		return orders.Order{}, from, err
	}
	return updated, from, nil
}
