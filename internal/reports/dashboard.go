package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/ariefcatur/go-pharma-stock/internal/inventory"
	"github.com/ariefcatur/go-pharma-stock/internal/money"
	"github.com/ariefcatur/go-pharma-stock/internal/orders"
)

type ItemLister interface {
	List(ctx context.Context) ([]inventory.Item, error)
}

type OrderLister interface {
	List(ctx context.Context, status orders.Status) ([]orders.Order, error)
}

// QuickStats backs the dashboard cards.
type QuickStats struct {
	TotalMedicines int                   `json:"total_medicines"`
	LowStock       int                   `json:"low_stock"`
	ExpiringSoon   int                   `json:"expiring_soon"`
	Expired        int                   `json:"expired"`
	OrdersToday    int                   `json:"orders_today"`
	OrdersByStatus map[orders.Status]int `json:"orders_by_status"`
	StockValue     money.Money           `json:"stock_value"`
}

func BuildQuickStats(items []inventory.Item, list []orders.Order, today time.Time) (QuickStats, error) {
	sum, err := inventory.Summarize(items, today)
	if err != nil {
		return QuickStats{}, err
	}
	return QuickStats{
		TotalMedicines: sum.Total,
		LowStock:       sum.LowStock,
		ExpiringSoon:   sum.ExpiringSoon,
		Expired:        sum.Expired,
		OrdersToday:    orders.DatedOn(list, today),
		OrdersByStatus: orders.CountByStatus(list),
		StockValue:     sum.TotalValue,
	}, nil
}

type Dashboard struct {
	Items           ItemLister
	Orders          OrderLister
	DefaultCurrency string
	Now             func() time.Time
}

func (d *Dashboard) QuickStats(ctx context.Context) (QuickStats, error) {
	items, err := d.Items.List(ctx)
	if err != nil {
		return QuickStats{}, fmt.Errorf("list items: %w", err)
	}
	list, err := d.Orders.List(ctx, "")
	if err != nil {
		return QuickStats{}, fmt.Errorf("list orders: %w", err)
	}
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	y, m, day := now().UTC().Date()
	qs, err := BuildQuickStats(items, list, time.Date(y, m, day, 0, 0, 0, 0, time.UTC))
	if err != nil {
		return QuickStats{}, err
	}
	if qs.StockValue.Currency == "" {
		qs.StockValue.Currency = d.DefaultCurrency
	}
	return qs, nil
}
