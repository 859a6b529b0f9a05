package stock

import "github.com/ariefcatur/go-pharma-stock/internal/palette"

type Tier string

const (
	TierExpired      Tier = "EXPIRED"
	TierExpiringSoon Tier = "EXPIRING_SOON"
	TierLowStock     Tier = "LOW_STOCK"
	TierMediumStock  Tier = "MEDIUM_STOCK"
	TierGoodStock    Tier = "GOOD_STOCK"
)

// Tiers in descending urgency.
var Tiers = []Tier{TierExpired, TierExpiringSoon, TierLowStock, TierMediumStock, TierGoodStock}

var tierColor = map[Tier]palette.Color{
	TierExpired:      palette.Danger,
	TierExpiringSoon: palette.Warning,
	TierLowStock:     palette.Warning,
	TierMediumStock:  palette.Secondary,
	TierGoodStock:    palette.Success,
}

var tierUrgency = map[Tier]int{
	TierExpired:      4,
	TierExpiringSoon: 3,
	TierLowStock:     2,
	TierMediumStock:  1,
	TierGoodStock:    0,
}

// Color is the card indicator color for t. Unknown tiers render gray.
func (t Tier) Color() palette.Color {
	if c, ok := tierColor[t]; ok {
		return c
	}
	return palette.Gray
}

// Urgency ranks tiers; higher is more urgent. Unknown tiers rank -1.
func (t Tier) Urgency() int {
	if u, ok := tierUrgency[t]; ok {
		return u
	}
	return -1
}

func (t Tier) Valid() bool {
	_, ok := tierUrgency[t]
	return ok
}
