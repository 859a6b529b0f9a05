package stock

import (
	"math"
	"time"
)

const (
	ExpiryWarningDays = 30
	LowStockBelow     = 20
	MediumStockBelow  = 50
)

// DaysUntilExpiry rounds the remaining time up to whole days, so anything
// still ahead of today (even by an hour) counts as a day left.
func DaysUntilExpiry(expiry, today time.Time) int {
	return int(math.Ceil(expiry.Sub(today).Hours() / 24))
}

// Classify derives the tier of an inventory line. Rules are checked in
// order and the first match wins, so expiry always dominates quantity.
func Classify(quantity int, expiry, today time.Time) Tier {
	days := DaysUntilExpiry(expiry, today)
	switch {
	case days < 0:
		return TierExpired
	case days < ExpiryWarningDays:
		return TierExpiringSoon
	case quantity < LowStockBelow:
		return TierLowStock
	case quantity < MediumStockBelow:
		return TierMediumStock
	default:
		return TierGoodStock
	}
}

// The predicates below are independent of tier precedence: reports count
// by predicate, cards color by tier.

func IsExpired(expiry, today time.Time) bool {
	return DaysUntilExpiry(expiry, today) < 0
}

func IsExpiringSoon(expiry, today time.Time) bool {
	d := DaysUntilExpiry(expiry, today)
	return d >= 0 && d < ExpiryWarningDays
}

func IsLowStock(quantity int) bool {
	return quantity < LowStockBelow
}
