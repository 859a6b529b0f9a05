package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-pharma-stock/internal/inventory"
	"github.com/ariefcatur/go-pharma-stock/internal/money"
	"github.com/ariefcatur/go-pharma-stock/internal/orders"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Connect(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func inr(t *testing.T, amount string) money.Money {
	t.Helper()
	m, err := money.Parse(amount, "INR")
	require.NoError(t, err)
	return m
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))
}

func TestItemStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := &ItemStore{DB: openTestDB(t)}

	it := inventory.Item{
		ID:              inventory.NewID(),
		MedicineName:    "Paracetamol 500mg",
		PharmacyName:    "MedPlus Pharmacy",
		BatchID:         "PCM2024001",
		Quantity:        150,
		ExpiryDate:      time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		UnitPrice:       inr(t, "2.50"),
		StorageLocation: "Shelf A-1",
	}
	require.NoError(t, s.Save(ctx, it))

	got, err := s.Get(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, it.MedicineName, got.MedicineName)
	assert.Equal(t, it.ExpiryDate, got.ExpiryDate)
	assert.True(t, it.UnitPrice.Equal(got.UnitPrice))
	assert.Equal(t, "Shelf A-1", got.StorageLocation)

	it.Quantity = 10
	require.NoError(t, s.Save(ctx, it))
	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 10, list[0].Quantity)

	require.NoError(t, s.Delete(ctx, it.ID))
	assert.ErrorIs(t, s.Delete(ctx, it.ID), inventory.ErrNotFound)
	_, err = s.Get(ctx, it.ID)
	assert.ErrorIs(t, err, inventory.ErrNotFound)
}

func TestItemStore_RejectsNegativeQuantity(t *testing.T) {
	s := &ItemStore{DB: openTestDB(t)}
	err := s.Save(context.Background(), inventory.Item{
		ID: "x", MedicineName: "x", Quantity: -1,
		ExpiryDate: time.Now(), UnitPrice: inr(t, "1"),
	})
	assert.Error(t, err)
}

func TestItemStore_SaveAllIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := &ItemStore{DB: openTestDB(t)}
	expiry := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	good := inventory.Item{ID: "a", MedicineName: "Aspirin", Quantity: 40, ExpiryDate: expiry, UnitPrice: inr(t, "3")}
	bad := inventory.Item{ID: "b", MedicineName: "Ibuprofen", Quantity: -1, ExpiryDate: expiry, UnitPrice: inr(t, "4")}

	require.Error(t, s.SaveAll(ctx, []inventory.Item{good, bad}))
	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "a failed batch stores nothing")

	bad.Quantity = 12
	require.NoError(t, s.SaveAll(ctx, []inventory.Item{good, bad}))
	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func newOrder(t *testing.T, patient string, date time.Time) orders.Order {
	return orders.Order{
		ID:          patient,
		PatientName: patient,
		Medicines:   []string{"Insulin", "Metformin"},
		Status:      orders.StatusPending,
		Date:        date,
		TotalAmount: inr(t, "1200"),
	}
}

func TestOrderStore_CreateNumbersSequentially(t *testing.T) {
	ctx := context.Background()
	s := &OrderStore{DB: openTestDB(t)}
	day := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)

	a, err := s.Create(ctx, newOrder(t, "priya", day))
	require.NoError(t, err)
	assert.Equal(t, "ORD-001", a.OrderNumber)
	assert.Equal(t, []string{"Insulin", "Metformin"}, a.Medicines)
	assert.Equal(t, day, a.Date)
	assert.False(t, a.CreatedAt.IsZero())

	b, err := s.Create(ctx, newOrder(t, "amit", day.AddDate(0, 0, -1)))
	require.NoError(t, err)
	assert.Equal(t, "ORD-002", b.OrderNumber)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "priya", all[0].ID, "newest date first")
}

func TestOrderStore_ApplyAction(t *testing.T) {
	ctx := context.Background()
	s := &OrderStore{DB: openTestDB(t)}
	o, err := s.Create(ctx, newOrder(t, "rajesh", time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	got, from, err := s.ApplyAction(ctx, o.ID, orders.ActionProcess)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPending, from)
	assert.Equal(t, orders.StatusProcessing, got.Status)

	_, from, err = s.ApplyAction(ctx, o.ID, orders.ActionProcess)
	assert.ErrorIs(t, err, orders.ErrInvalidTransition)
	assert.Equal(t, orders.StatusProcessing, from)

	stored, err := s.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusProcessing, stored.Status, "failed action leaves the order untouched")

	processing, err := s.List(ctx, orders.StatusProcessing)
	require.NoError(t, err)
	assert.Len(t, processing, 1)
	pending, err := s.List(ctx, orders.StatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, _, err = s.ApplyAction(ctx, "missing", orders.ActionCancel)
	assert.ErrorIs(t, err, orders.ErrNotFound)
}
