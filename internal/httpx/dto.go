package httpx

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-pharma-stock/internal/inventory"
	"github.com/ariefcatur/go-pharma-stock/internal/money"
	"github.com/ariefcatur/go-pharma-stock/internal/orders"
	"github.com/ariefcatur/go-pharma-stock/internal/palette"
	"github.com/ariefcatur/go-pharma-stock/internal/stock"
	"github.com/ariefcatur/go-pharma-stock/internal/validation"
)

const dateLayout = time.DateOnly

// parseMoney records a bad currency in v; a missing amount is zero.
func parseMoney(amount *decimal.Decimal, code, def string, v validation.Violations) money.Money {
	if strings.TrimSpace(code) == "" {
		code = def
	}
	d := decimal.Zero
	if amount != nil {
		d = *amount
	}
	m, err := money.New(d, code)
	if err != nil {
		v["currency"] = "invalid_currency"
	}
	return m
}

func parseDate(field, s string, required bool, v validation.Violations) time.Time {
	if strings.TrimSpace(s) == "" {
		if required {
			v[field] = "required"
		}
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		v[field] = "invalid_date"
	}
	return t
}

type itemReq struct {
	MedicineName    string           `json:"medicine_name"`
	PharmacyName    string           `json:"pharmacy_name"`
	BatchID         string           `json:"batch_id"`
	Quantity        *int             `json:"quantity"`
	ExpiryDate      string           `json:"expiry_date"` // 2006-01-02
	UnitPrice       *decimal.Decimal `json:"unit_price"`
	Currency        string           `json:"currency"`
	StorageLocation string           `json:"storage_location"`
}

func (req itemReq) item(defaultCurrency string) (inventory.Item, error) {
	v := validation.Violations{}
	if req.Quantity == nil {
		v["quantity"] = "required"
	}
	it := inventory.Item{
		MedicineName:    strings.TrimSpace(req.MedicineName),
		PharmacyName:    strings.TrimSpace(req.PharmacyName),
		BatchID:         strings.TrimSpace(req.BatchID),
		ExpiryDate:      parseDate("expiry_date", req.ExpiryDate, true, v),
		UnitPrice:       parseMoney(req.UnitPrice, req.Currency, defaultCurrency, v),
		StorageLocation: strings.TrimSpace(req.StorageLocation),
	}
	if req.Quantity != nil {
		it.Quantity = *req.Quantity
	}
	return it, v.Err()
}

type itemResp struct {
	ID               string        `json:"id"`
	MedicineName     string        `json:"medicine_name"`
	PharmacyName     string        `json:"pharmacy_name"`
	BatchID          string        `json:"batch_id"`
	Quantity         int           `json:"quantity"`
	ExpiryDate       string        `json:"expiry_date"`
	UnitPrice        money.Money   `json:"unit_price"`
	UnitPriceDisplay string        `json:"unit_price_display"`
	StockValue       string        `json:"stock_value_display"`
	StorageLocation  string        `json:"storage_location"`
	Tier             stock.Tier    `json:"tier"`
	Color            palette.Color `json:"color"`
	DaysLeft         int           `json:"days_left"`
	Expired          bool          `json:"expired"`
}

func toItemResp(v inventory.View) itemResp {
	return itemResp{
		ID:               v.ID,
		MedicineName:     v.MedicineName,
		PharmacyName:     v.PharmacyName,
		BatchID:          v.BatchID,
		Quantity:         v.Quantity,
		ExpiryDate:       v.ExpiryDate.Format(dateLayout),
		UnitPrice:        v.UnitPrice,
		UnitPriceDisplay: money.Format(v.UnitPrice),
		StockValue:       money.Format(v.Value()),
		StorageLocation:  v.StorageLocation,
		Tier:             v.Tier,
		Color:            v.Color,
		DaysLeft:         v.DaysLeft,
		Expired:          v.Expired,
	}
}

type saveItemResp struct {
	Item   itemResp          `json:"item"`
	Alerts []inventory.Alert `json:"alerts"`
}

type summaryResp struct {
	inventory.Summary
	TotalValueDisplay string `json:"total_value_display"`
}

type expiryAlertResp struct {
	ItemID       string        `json:"item_id"`
	MedicineName string        `json:"medicine_name"`
	BatchID      string        `json:"batch_id"`
	ExpiryDate   string        `json:"expiry_date"`
	DaysLeft     int           `json:"days_left"`
	Color        palette.Color `json:"color"`
}

type orderReq struct {
	PatientName string           `json:"patient_name"`
	Medicines   []string         `json:"medicines"`
	Date        string           `json:"date"` // optional, defaults to today
	TotalAmount *decimal.Decimal `json:"total_amount"`
	Currency    string           `json:"currency"`
}

func (req orderReq) order(defaultCurrency string) (orders.Order, error) {
	v := validation.Violations{}
	meds := make([]string, 0, len(req.Medicines))
	for _, m := range req.Medicines {
		meds = append(meds, strings.TrimSpace(m))
	}
	o := orders.Order{
		PatientName: req.PatientName,
		Medicines:   meds,
		Date:        parseDate("date", req.Date, false, v),
		TotalAmount: parseMoney(req.TotalAmount, req.Currency, defaultCurrency, v),
	}
	return o, v.Err()
}

type orderResp struct {
	ID           string          `json:"id"`
	OrderNumber  string          `json:"order_number"`
	PatientName  string          `json:"patient_name"`
	Medicines    []string        `json:"medicines"`
	Status       orders.Status   `json:"status"`
	StatusColor  palette.Color   `json:"status_color"`
	StatusIcon   string          `json:"status_icon"`
	NextActions  []orders.Action `json:"next_actions"`
	Date         string          `json:"date"`
	TotalAmount  money.Money     `json:"total_amount"`
	TotalDisplay string          `json:"total_display"`
}

func toOrderResp(o orders.Order) orderResp {
	next := orders.NextActions(o.Status)
	if next == nil {
		next = []orders.Action{}
	}
	return orderResp{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		PatientName:  o.PatientName,
		Medicines:    o.Medicines,
		Status:       o.Status,
		StatusColor:  o.Status.Color(),
		StatusIcon:   o.Status.Icon(),
		NextActions:  next,
		Date:         o.Date.Format(dateLayout),
		TotalAmount:  o.TotalAmount,
		TotalDisplay: money.Format(o.TotalAmount),
	}
}
