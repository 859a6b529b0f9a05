package inventory

import (
	"errors"
	"time"

	"github.com/ariefcatur/go-pharma-stock/internal/money"
	"github.com/ariefcatur/go-pharma-stock/internal/palette"
	"github.com/ariefcatur/go-pharma-stock/internal/stock"
	"github.com/ariefcatur/go-pharma-stock/internal/validation"
)

var ErrNotFound = errors.New("inventory item not found")

type Item struct {
	ID              string
	MedicineName    string
	PharmacyName    string
	BatchID         string
	Quantity        int
	ExpiryDate      time.Time
	UnitPrice       money.Money
	StorageLocation string
}

func (it Item) Validate() error {
	v := validation.Violations{}
	validation.Required("medicine_name", it.MedicineName, v)
	validation.NonNegative("quantity", it.Quantity, v)
	if it.ExpiryDate.IsZero() {
		v["expiry_date"] = "required"
	}
	if it.UnitPrice.IsNegative() {
		v["unit_price"] = "must_not_be_negative"
	}
	return v.Err()
}

// Value is quantity × unit price.
func (it Item) Value() money.Money {
	return it.UnitPrice.Mul(int64(it.Quantity))
}

// View is an item as the stock screen shows it.
type View struct {
	Item
	Tier     stock.Tier
	Color    palette.Color
	DaysLeft int
	Expired  bool
}

func NewView(it Item, today time.Time) View {
	tier := stock.Classify(it.Quantity, it.ExpiryDate, today)
	return View{
		Item:     it,
		Tier:     tier,
		Color:    tier.Color(),
		DaysLeft: stock.DaysUntilExpiry(it.ExpiryDate, today),
		Expired:  stock.IsExpired(it.ExpiryDate, today),
	}
}
