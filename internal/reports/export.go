package reports

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ariefcatur/go-pharma-stock/internal/inventory"
	"github.com/ariefcatur/go-pharma-stock/internal/money"
	"github.com/ariefcatur/go-pharma-stock/internal/validation"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	StockSheet = "Stock"
)

var stockHeader = []string{
	"ID", "Medicine Name", "Pharmacy Name", "Batch ID", "Quantity", "Expiry Date",
	"Days Left", "Status", "Unit Price", "Currency", "Stock Value", "Storage Location",
}

func stockRow(v inventory.View) []string {
	return []string{
		v.ID,
		v.MedicineName,
		v.PharmacyName,
		v.BatchID,
		strconv.Itoa(v.Quantity),
		v.ExpiryDate.Format(time.DateOnly),
		strconv.Itoa(v.DaysLeft),
		string(v.Tier),
		v.UnitPrice.Amount.StringFixed(2),
		v.UnitPrice.Currency,
		v.Value().Amount.StringFixed(2),
		v.StorageLocation,
	}
}

func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

func WriteCSV(w io.Writer, views []inventory.View) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(stockHeader); err != nil {
		return err
	}
	for _, v := range views {
		if err := cw.Write(stockRow(v)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteXLSX(w io.Writer, views []inventory.View) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", StockSheet); err != nil {
		return err
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(StockSheet, "A1", &stockHeader); err != nil {
		return err
	}
	if err := f.SetRowStyle(StockSheet, 1, 1, header); err != nil {
		return err
	}

	for i, v := range views {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		price, _ := v.UnitPrice.Amount.Float64()
		value, _ := v.Value().Amount.Float64()
		row := []any{
			v.ID, v.MedicineName, v.PharmacyName, v.BatchID, v.Quantity,
			v.ExpiryDate.Format(time.DateOnly), v.DaysLeft, string(v.Tier),
			price, v.UnitPrice.Currency, value, v.StorageLocation,
		}
		if err := f.SetSheetRow(StockSheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(StockSheet, "B", "B", 28); err != nil {
		return err
	}
	return f.Write(w)
}

// ReadXLSX parses a stock sheet laid out like WriteXLSX's output. Only the
// editable columns are read; ids, days left and status are derived.
// Each row carries its sheet line (header is line 1) and the cells that
// failed to parse. Rows with every cell blank are skipped.
func ReadXLSX(r io.Reader, defaultCurrency string) ([]inventory.ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read Excel file: %w", err)
	}
	defer f.Close()

	sheet := StockSheet
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("no sheet found in the Excel file")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("unable to read rows from sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	col := map[string]int{}
	for i, h := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"medicine name", "quantity", "expiry date", "unit price"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}
	get := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []inventory.ImportRow
	for n, row := range rows[1:] {
		if blank(row) {
			continue
		}
		out = append(out, parseStockRow(n+2, func(name string) string { return get(row, name) }, defaultCurrency))
	}
	return out, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseStockRow(line int, get func(string) string, defaultCurrency string) inventory.ImportRow {
	problems := validation.Violations{}
	it := inventory.Item{
		MedicineName:    get("medicine name"),
		PharmacyName:    get("pharmacy name"),
		BatchID:         get("batch id"),
		StorageLocation: get("storage location"),
	}

	if s := get("quantity"); s == "" {
		problems["quantity"] = "required"
	} else if qty, err := strconv.Atoi(s); err != nil {
		problems["quantity"] = "invalid_number"
	} else {
		it.Quantity = qty
	}

	if s := get("expiry date"); s != "" {
		if expiry, err := time.Parse(time.DateOnly, s); err != nil {
			problems["expiry_date"] = "invalid_date"
		} else {
			it.ExpiryDate = expiry
		}
	}

	code := get("currency")
	if code == "" {
		code = defaultCurrency
	}
	if s := get("unit price"); s == "" {
		problems["unit_price"] = "required"
	} else if price, err := money.Parse(s, code); err != nil {
		if errors.Is(err, money.ErrInvalidCurrency) {
			problems["currency"] = "invalid_currency"
		} else {
			problems["unit_price"] = "invalid_amount"
		}
	} else {
		it.UnitPrice = price
	}

	row := inventory.ImportRow{Line: line, Item: it}
	if !problems.Empty() {
		row.Problems = problems
	}
	return row
}
