package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-pharma-stock/internal/money"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists orders.
//   - Create assigns the order number and returns the stored order.
//   - ApplyAction moves one order atomically and reports the status it left.
//   - List with an empty status returns every order.
type Store interface {
	List(ctx context.Context, status Status) ([]Order, error)
	Get(ctx context.Context, id string) (Order, error)
	Create(ctx context.Context, o Order) (Order, error)
	ApplyAction(ctx context.Context, id string, action Action) (Order, Status, error)
}

type Repo struct{ DB *pgxpool.Pool }

const selectOrders = `SELECT id, order_number, patient_name, medicines, status, order_date,
                             total_amount::text, currency, created_at, updated_at
                      FROM orders`

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o        Order
		status   string
		amount   string
		currency string
	)
	if err := row.Scan(&o.ID, &o.OrderNumber, &o.PatientName, &o.Medicines, &status, &o.Date,
		&amount, &currency, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return Order{}, err
	}
	m, err := money.Parse(amount, currency)
	if err != nil {
		return Order{}, err
	}
	o.Status = Status(status)
	o.TotalAmount = m
	return o, nil
}

func (r *Repo) List(ctx context.Context, status Status) ([]Order, error) {
	rows, err := r.DB.Query(ctx, selectOrders+`
		WHERE ($1 = '' OR status = $1)
		ORDER BY order_date DESC, order_number DESC`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id string) (Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, selectOrders+` WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}

func (r *Repo) Create(ctx context.Context, o Order) (Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var seq int64
	if err := tx.QueryRow(ctx, `SELECT nextval('order_number_seq')`).Scan(&seq); err != nil {
		return Order{}, fmt.Errorf("next order number: %w", err)
	}
	o.OrderNumber = FormatOrderNumber(seq)

	if err := tx.QueryRow(ctx, `
		INSERT INTO orders(id, order_number, patient_name, medicines, status, order_date, total_amount, currency)
		VALUES ($1,$2,$3,$4,$5,$6,$7::numeric,$8)
		RETURNING created_at, updated_at`,
		o.ID, o.OrderNumber, o.PatientName, o.Medicines, string(o.Status), o.Date,
		o.TotalAmount.Amount.String(), o.TotalAmount.Currency,
	).Scan(&o.CreatedAt, &o.UpdatedAt); err != nil {
		return Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return o, nil
}

// ApplyAction locks the row so concurrent actions on one order serialize:
// the second one sees the status left by the first.
func (r *Repo) ApplyAction(ctx context.Context, id string, action Action) (Order, Status, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := scanOrder(tx.QueryRow(ctx, selectOrders+` WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, "", ErrNotFound
	}
	if err != nil {
		return Order{}, "", err
	}

	from := o.Status
	next, err := Transition(from, action)
	if err != nil {
		return Order{}, from, err
	}
	if err := tx.QueryRow(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1 RETURNING updated_at`,
		id, string(next)).Scan(&o.UpdatedAt); err != nil {
		return Order{}, from, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, from, err
	}
	o.Status = next
	return o, from, nil
}
