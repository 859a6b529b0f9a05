package inventory

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ariefcatur/go-pharma-stock/internal/money"
	"github.com/ariefcatur/go-pharma-stock/internal/palette"
	"github.com/ariefcatur/go-pharma-stock/internal/stock"
)

type Summary struct {
	Total        int         `json:"total"`
	LowStock     int         `json:"low_stock"`
	ExpiringSoon int         `json:"expiring_soon"`
	Expired      int         `json:"expired"`
	TotalValue   money.Money `json:"total_value"`
}

// Summarize counts items by the independent report predicates: one item
// may be both expired and low stock. Value is summed in the items' common
// currency; mixed currencies are an error.
func Summarize(items []Item, today time.Time) (Summary, error) {
	var s Summary
	for _, it := range items {
		s.Total++
		if stock.IsLowStock(it.Quantity) {
			s.LowStock++
		}
		if stock.IsExpiringSoon(it.ExpiryDate, today) {
			s.ExpiringSoon++
		}
		if stock.IsExpired(it.ExpiryDate, today) {
			s.Expired++
		}
		v, err := s.TotalValue.Add(it.Value())
		if err != nil {
			return Summary{}, fmt.Errorf("item %s: %w", it.ID, err)
		}
		s.TotalValue = v
	}
	return s, nil
}

type ExpiryAlert struct {
	ItemID       string        `json:"item_id"`
	MedicineName string        `json:"medicine_name"`
	BatchID      string        `json:"batch_id"`
	ExpiryDate   time.Time     `json:"expiry_date"`
	DaysLeft     int           `json:"days_left"`
	Color        palette.Color `json:"color"`
}

// ExpiryAlerts lists items expiring within the given number of days
// (inclusive, expired items included), soonest first.
func ExpiryAlerts(items []Item, today time.Time, within int) []ExpiryAlert {
	var out []ExpiryAlert
	for _, it := range items {
		days := stock.DaysUntilExpiry(it.ExpiryDate, today)
		if days > within {
			continue
		}
		color := palette.Warning
		if days <= stock.ExpiryWarningDays {
			color = palette.Danger
		}
		out = append(out, ExpiryAlert{
			ItemID:       it.ID,
			MedicineName: it.MedicineName,
			BatchID:      it.BatchID,
			ExpiryDate:   it.ExpiryDate,
			DaysLeft:     days,
			Color:        color,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DaysLeft < out[j].DaysLeft })
	return out
}

type Breakdown struct {
	InStock       int     `json:"in_stock"`
	LowStock      int     `json:"low_stock"`
	OutOfStock    int     `json:"out_of_stock"`
	InStockPct    float64 `json:"in_stock_pct"`
	LowStockPct   float64 `json:"low_stock_pct"`
	OutOfStockPct float64 `json:"out_of_stock_pct"`
}

// StockBreakdown splits items by quantity alone: out of stock at zero,
// low below the low-stock threshold, in stock otherwise.
func StockBreakdown(items []Item) Breakdown {
	var b Breakdown
	for _, it := range items {
		switch {
		case it.Quantity <= 0:
			b.OutOfStock++
		case stock.IsLowStock(it.Quantity):
			b.LowStock++
		default:
			b.InStock++
		}
	}
	total := len(items)
	b.InStockPct = percent(b.InStock, total)
	b.LowStockPct = percent(b.LowStock, total)
	b.OutOfStockPct = percent(b.OutOfStock, total)
	return b
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)*1000/float64(total)) / 10
}
