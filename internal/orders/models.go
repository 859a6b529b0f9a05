package orders

import (
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-pharma-stock/internal/money"
	"github.com/ariefcatur/go-pharma-stock/internal/validation"
)

var ErrNotFound = errors.New("order not found")

type Order struct {
	ID          string
	OrderNumber string
	PatientName string
	Medicines   []string // in prescription order
	Status      Status
	Date        time.Time
	TotalAmount money.Money
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (o Order) Validate() error {
	v := validation.Violations{}
	validation.Required("patient_name", o.PatientName, v)
	if len(o.Medicines) == 0 {
		v["medicines"] = "required"
	}
	for _, m := range o.Medicines {
		if m == "" {
			v["medicines"] = "must_not_contain_blank"
			break
		}
	}
	if !o.Status.Valid() {
		v["status"] = "unknown"
	}
	if o.Date.IsZero() {
		v["date"] = "required"
	}
	if o.TotalAmount.IsNegative() {
		v["total_amount"] = "must_not_be_negative"
	}
	return v.Err()
}

// FormatOrderNumber renders the n-th order as ORD-001, ORD-002, ...
func FormatOrderNumber(n int64) string {
	return fmt.Sprintf("ORD-%03d", n)
}
