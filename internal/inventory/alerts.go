package inventory

import (
	"time"

	"github.com/ariefcatur/go-pharma-stock/internal/settings"
	"github.com/ariefcatur/go-pharma-stock/internal/stock"
)

type AlertKind string

const (
	AlertExpired      AlertKind = "expired"
	AlertExpiringSoon AlertKind = "expiring_soon"
	AlertLowStock     AlertKind = "low_stock"
	AlertReorder      AlertKind = "reorder"
)

type Alert struct {
	Kind     AlertKind `json:"kind"`
	Quantity int       `json:"quantity"`
	DaysLeft int       `json:"days_left"`
}

// EvaluateAlerts returns the alerts an item raises under the given
// settings. Disabled alert kinds are never returned.
func EvaluateAlerts(it Item, today time.Time, s settings.Settings) []Alert {
	days := stock.DaysUntilExpiry(it.ExpiryDate, today)
	mk := func(k AlertKind) Alert { return Alert{Kind: k, Quantity: it.Quantity, DaysLeft: days} }

	var out []Alert
	if s.ExpiryAlerts {
		switch {
		case stock.IsExpired(it.ExpiryDate, today):
			out = append(out, mk(AlertExpired))
		case stock.IsExpiringSoon(it.ExpiryDate, today):
			out = append(out, mk(AlertExpiringSoon))
		}
	}
	if s.LowStockAlerts && stock.IsLowStock(it.Quantity) {
		out = append(out, mk(AlertLowStock))
	}
	if s.AutoReorder && it.Quantity < s.ReorderLevel {
		out = append(out, mk(AlertReorder))
	}
	return out
}
