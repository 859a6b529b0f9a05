package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ariefcatur/go-pharma-stock/internal/inventory"
	"github.com/ariefcatur/go-pharma-stock/internal/orders"
	"github.com/ariefcatur/go-pharma-stock/internal/reports"
	"github.com/ariefcatur/go-pharma-stock/internal/settings"
	"github.com/ariefcatur/go-pharma-stock/internal/sqlite"
	"github.com/ariefcatur/go-pharma-stock/internal/stock"
)

var today = time.Date(2025, 8, 5, 0, 0, 0, 0, time.UTC)

type testAPI struct {
	router    *chi.Mux
	inventory *inventory.Service
	reports   *ReportsHandler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db, err := sqlite.Connect(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	now := func() time.Time { return today.Add(11 * time.Hour) }
	itemStore := &sqlite.ItemStore{DB: db}
	orderStore := &sqlite.OrderStore{DB: db}
	settingsStore := &settings.MemoryStore{}

	inv := &inventory.Service{Store: itemStore, Settings: settingsStore, DefaultCurrency: "INR", ServiceName: "test", Now: now}
	ord := &orders.Service{Store: orderStore, DefaultCurrency: "INR", ServiceName: "test", Now: now}
	rep := &ReportsHandler{
		Inventory:      inv,
		Dashboard:      &reports.Dashboard{Items: itemStore, Orders: orderStore, DefaultCurrency: "INR", Now: now},
		Uploads:        reports.DirStore{Dir: t.TempDir()},
		UploadsEnabled: true,
	}

	r := NewRouter()
	(&InventoryHandler{Service: inv}).Register(r)
	(&OrdersHandler{Service: ord}).Register(r)
	rep.Register(r)
	(&SettingsHandler{Store: settingsStore}).Register(r)
	return &testAPI{router: r, inventory: inv, reports: rep}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func itemBody(name string, qty, days int, price string) map[string]any {
	return map[string]any{
		"medicine_name":    name,
		"pharmacy_name":    "MedPlus Pharmacy",
		"batch_id":         "B-" + name,
		"quantity":         qty,
		"expiry_date":      today.AddDate(0, 0, days).Format(time.DateOnly),
		"unit_price":       price,
		"storage_location": "Shelf A-1",
	}
}

func (a *testAPI) createItem(t *testing.T, name string, qty, days int, price string) itemResp {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/inventory", itemBody(name, qty, days, price))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[saveItemResp](t, rec).Item
}

func TestHealthz(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestInventory_CRUD(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/inventory", itemBody("Insulin", 25, 15, "450"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[saveItemResp](t, rec)
	assert.Equal(t, stock.Tier("EXPIRING_SOON"), created.Item.Tier)
	assert.Equal(t, "#F57C00", string(created.Item.Color))
	assert.Equal(t, 15, created.Item.DaysLeft)
	assert.Equal(t, "₹450.00", created.Item.UnitPriceDisplay)
	assert.Equal(t, "₹11,250.00", created.Item.StockValue)
	require.Len(t, created.Alerts, 1)
	assert.Equal(t, inventory.AlertExpiringSoon, created.Alerts[0].Kind)

	id := created.Item.ID
	rec = a.do(t, http.MethodGet, "/inventory/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Insulin", decode[itemResp](t, rec).MedicineName)

	rec = a.do(t, http.MethodPut, "/inventory/"+id, itemBody("Insulin", 80, 200, "450"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	replaced := decode[saveItemResp](t, rec)
	assert.Equal(t, id, replaced.Item.ID)
	assert.Equal(t, stock.Tier("GOOD_STOCK"), replaced.Item.Tier)
	assert.Empty(t, replaced.Alerts)

	a.createItem(t, "Aspirin", 5, 100, "1")
	rec = a.do(t, http.MethodGet, "/inventory?tier=LOW_STOCK", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	low := decode[[]itemResp](t, rec)
	require.Len(t, low, 1)
	assert.Equal(t, "Aspirin", low[0].MedicineName)

	rec = a.do(t, http.MethodGet, "/inventory?tier=BOGUS", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodDelete, "/inventory/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = a.do(t, http.MethodGet, "/inventory/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = a.do(t, http.MethodPut, "/inventory/"+id, itemBody("Insulin", 1, 1, "1"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInventory_Validation(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/inventory", map[string]any{"medicine_name": "", "expiry_date": "31/12/2025"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[errorResp](t, rec)
	assert.Equal(t, "required", resp.Fields["quantity"])
	assert.Equal(t, "invalid_date", resp.Fields["expiry_date"])

	body := itemBody("", 3, 10, "1")
	rec = a.do(t, http.MethodPost, "/inventory", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "required", decode[errorResp](t, rec).Fields["medicine_name"])

	body = itemBody("Aspirin", -1, 10, "1")
	rec = a.do(t, http.MethodPost, "/inventory", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "must_not_be_negative", decode[errorResp](t, rec).Fields["quantity"])

	body = itemBody("Aspirin", 1, 10, "1")
	body["currency"] = "XYZ1"
	rec = a.do(t, http.MethodPost, "/inventory", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_currency", decode[errorResp](t, rec).Fields["currency"])

	req := httptest.NewRequest(http.MethodPost, "/inventory", strings.NewReader("{"))
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestInventory_Classify(t *testing.T) {
	a := newTestAPI(t)
	tests := []struct {
		qty  int
		days int
		want string
	}{
		{100, -1, "EXPIRED"},
		{100, 0, "EXPIRING_SOON"},
		{10, 30, "LOW_STOCK"},
		{20, 30, "MEDIUM_STOCK"},
		{50, 30, "GOOD_STOCK"},
	}
	for _, tt := range tests {
		path := "/inventory/classify?quantity=" + strconv.Itoa(tt.qty) + "&expiry=" + today.AddDate(0, 0, tt.days).Format(time.DateOnly)
		rec := a.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		got := decode[classifyResp](t, rec)
		assert.Equal(t, tt.want, string(got.Tier), path)
		assert.Equal(t, tt.days, got.DaysLeft)
	}

	rec := a.do(t, http.MethodGet, "/inventory/classify?quantity=-1&expiry=2025-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = a.do(t, http.MethodGet, "/inventory/classify?quantity=1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReports(t *testing.T) {
	a := newTestAPI(t)
	a.createItem(t, "Paracetamol", 150, 148, "2")
	a.createItem(t, "Insulin", 25, 15, "450")
	a.createItem(t, "Old Syrup", 5, -3, "10")
	a.createItem(t, "Vitamin D", 0, 45, "3")

	rec := a.do(t, http.MethodGet, "/reports/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sum := decode[summaryResp](t, rec)
	assert.Equal(t, 4, sum.Total)
	assert.Equal(t, 2, sum.LowStock)
	assert.Equal(t, 1, sum.ExpiringSoon)
	assert.Equal(t, 1, sum.Expired)
	assert.Equal(t, "₹11,600.00", sum.TotalValueDisplay)

	rec = a.do(t, http.MethodGet, "/reports/expiry", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	exp := decode[[]expiryAlertResp](t, rec)
	require.Len(t, exp, 2)
	assert.Equal(t, "Old Syrup", exp[0].MedicineName)
	assert.Equal(t, -3, exp[0].DaysLeft)

	rec = a.do(t, http.MethodGet, "/reports/expiry?days=60", nil)
	assert.Len(t, decode[[]expiryAlertResp](t, rec), 3)
	rec = a.do(t, http.MethodGet, "/reports/expiry?days=soon", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodGet, "/reports/breakdown", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	b := decode[inventory.Breakdown](t, rec)
	assert.Equal(t, 2, b.InStock)
	assert.Equal(t, 1, b.LowStock)
	assert.Equal(t, 1, b.OutOfStock)
	assert.Equal(t, 50.0, b.InStockPct)
}

func TestReports_Export(t *testing.T) {
	a := newTestAPI(t)
	a.createItem(t, "Paracetamol", 150, 148, "2")

	rec := a.do(t, http.MethodGet, "/reports/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "stock-2025-08-05.csv")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "Paracetamol")

	rec = a.do(t, http.MethodGet, "/reports/export?format=xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue(reports.StockSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "Paracetamol", v)

	rec = a.do(t, http.MethodGet, "/reports/export?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func multipartBody(t *testing.T, field, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "nothing picked"))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (a *testAPI) post(t *testing.T, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func TestReports_Upload(t *testing.T) {
	a := newTestAPI(t)

	body, ct := multipartBody(t, "report", "scan.png", []byte("png-bytes"))
	rec := a.post(t, "/reports/uploads", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	up := decode[uploadResp](t, rec)
	require.Len(t, up.Uploaded, 1)
	assert.Equal(t, "scan.png", up.Uploaded[0].Name)
	assert.Equal(t, len("png-bytes"), up.Uploaded[0].Size)

	body, ct = multipartBody(t, "", "", nil)
	rec = a.post(t, "/reports/uploads", body, ct)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[uploadResp](t, rec).Canceled)

	a.reports.UploadsEnabled = false
	body, ct = multipartBody(t, "report", "scan.png", []byte("png-bytes"))
	rec = a.post(t, "/reports/uploads", body, ct)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestInventory_Import(t *testing.T) {
	a := newTestAPI(t)

	var sheet bytes.Buffer
	views := []inventory.View{
		inventory.NewView(inventory.Item{MedicineName: "Metformin", Quantity: 40, ExpiryDate: today.AddDate(1, 0, 0)}, today),
		inventory.NewView(inventory.Item{MedicineName: "Aspirin", Quantity: 8, ExpiryDate: today.AddDate(0, 0, 20)}, today),
	}
	require.NoError(t, reports.WriteXLSX(&sheet, views))

	body, ct := multipartBody(t, "file", "stock.xlsx", sheet.Bytes())
	rec := a.post(t, "/inventory/import", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	got := decode[[]itemResp](t, rec)
	require.Len(t, got, 2)
	assert.Equal(t, "INR", got[0].UnitPrice.Currency)

	rec = a.do(t, http.MethodGet, "/inventory", nil)
	assert.Len(t, decode[[]itemResp](t, rec), 2)

	body, ct = multipartBody(t, "file", "stock.xlsx", []byte("not a spreadsheet"))
	rec = a.post(t, "/inventory/import", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func sheetBytes(t *testing.T, rows [][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestInventory_ImportRejectsWholeSheet(t *testing.T) {
	a := newTestAPI(t)
	header := []string{"Medicine Name", "Quantity", "Expiry Date", "Unit Price"}

	body, ct := multipartBody(t, "file", "stock.xlsx", sheetBytes(t, [][]string{
		header,
		{"", "5", "2026-01-01", "1"},
		{"", "", "", ""},
		{"Aspirin", "-5", "2026-01-01", "1"},
		{"Cetirizine", "30", "2026-06-30", "1.25"},
	}))
	rec := a.post(t, "/inventory/import", body, ct)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]string{
		"row 2": "medicine_name required",
		"row 4": "quantity must_not_be_negative",
	}, decode[errorResp](t, rec).Fields)

	rec = a.do(t, http.MethodGet, "/inventory", nil)
	assert.Empty(t, decode[[]itemResp](t, rec))

	body, ct = multipartBody(t, "file", "stock.xlsx", sheetBytes(t, [][]string{
		header,
		{"", "5", "2026-01-01", "1"},
		{"Cetirizine", "30", "2026-06-30", "1.25"},
	}))
	rec = a.post(t, "/inventory/import", body, ct)
	require.Equal(t, http.StatusBadRequest, rec.Code, "a nameless row is not dropped")
	assert.Equal(t, "medicine_name required", decode[errorResp](t, rec).Fields["row 2"])
}

func TestOrders_Lifecycle(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/orders", map[string]any{
		"patient_name": "Rajesh Kumar",
		"medicines":    []string{"Paracetamol", "Amoxicillin"},
		"total_amount": 450,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	o := decode[orderResp](t, rec)
	assert.Equal(t, "ORD-001", o.OrderNumber)
	assert.Equal(t, orders.StatusPending, o.Status)
	assert.Equal(t, "time-outline", o.StatusIcon)
	assert.Equal(t, []orders.Action{orders.ActionProcess, orders.ActionCancel}, o.NextActions)
	assert.Equal(t, "2025-08-05", o.Date)
	assert.Equal(t, "₹450.00", o.TotalDisplay)

	rec = a.do(t, http.MethodPost, "/orders/"+o.ID+"/actions/process", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, orders.StatusProcessing, decode[orderResp](t, rec).Status)

	rec = a.do(t, http.MethodPost, "/orders/"+o.ID+"/actions/process", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, http.MethodPost, "/orders/"+o.ID+"/actions/ship", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/orders/"+o.ID+"/actions/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	done := decode[orderResp](t, rec)
	assert.Equal(t, orders.StatusCompleted, done.Status)
	assert.Empty(t, done.NextActions)

	rec = a.do(t, http.MethodPost, "/orders/"+o.ID+"/actions/cancel", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, http.MethodGet, "/orders/"+o.ID+"/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, orders.StatusCompleted, decode[orders.StatusSnapshot](t, rec).Status)

	rec = a.do(t, http.MethodPost, "/orders/missing/actions/cancel", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = a.do(t, http.MethodGet, "/orders/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrders_ListAndValidation(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/orders", map[string]any{"patient_name": "", "medicines": []string{}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decode[errorResp](t, rec).Fields
	assert.Equal(t, "required", fields["patient_name"])
	assert.Equal(t, "required", fields["medicines"])

	for _, name := range []string{"Priya Sharma", "Amit Singh"} {
		rec = a.do(t, http.MethodPost, "/orders", map[string]any{
			"patient_name": name, "medicines": []string{"Aspirin"}, "total_amount": "300", "date": "2025-08-04",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	last := decode[orderResp](t, rec)
	rec = a.do(t, http.MethodPost, "/orders/"+last.ID+"/actions/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/orders", nil)
	assert.Len(t, decode[[]orderResp](t, rec), 2)
	rec = a.do(t, http.MethodGet, "/orders?status=cancelled", nil)
	cancelled := decode[[]orderResp](t, rec)
	require.Len(t, cancelled, 1)
	assert.Equal(t, "#D32F2F", string(cancelled[0].StatusColor))
	rec = a.do(t, http.MethodGet, "/orders?status=lost", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboard(t *testing.T) {
	a := newTestAPI(t)
	a.createItem(t, "Insulin", 12, 15, "450")
	a.createItem(t, "Paracetamol", 150, 148, "2")
	rec := a.do(t, http.MethodPost, "/orders", map[string]any{"patient_name": "Rajesh", "medicines": []string{"Insulin"}})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.do(t, http.MethodGet, "/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	d := decode[dashboardResp](t, rec)
	assert.Equal(t, 2, d.TotalMedicines)
	assert.Equal(t, 1, d.LowStock)
	assert.Equal(t, 1, d.ExpiringSoon)
	assert.Equal(t, 1, d.OrdersToday)
	assert.Equal(t, 1, d.OrdersByStatus[orders.StatusPending])
	assert.Equal(t, "₹5,700.00", d.StockValueDisplay)
}

func TestSettings(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, settings.Defaults(), decode[settings.Settings](t, rec))

	rec = a.do(t, http.MethodPut, "/settings", map[string]any{"auto_reorder": true, "reorder_level": 60})
	require.Equal(t, http.StatusOK, rec.Code)
	s := decode[settings.Settings](t, rec)
	assert.True(t, s.AutoReorder)
	assert.Equal(t, 60, s.ReorderLevel)
	assert.True(t, s.Notifications, "omitted fields keep their values")

	created := a.do(t, http.MethodPost, "/inventory", itemBody("Metformin", 55, 200, "5"))
	require.Equal(t, http.StatusCreated, created.Code)
	alerts := decode[saveItemResp](t, created).Alerts
	require.Len(t, alerts, 1)
	assert.Equal(t, inventory.AlertReorder, alerts[0].Kind)

	rec = a.do(t, http.MethodPut, "/settings", map[string]any{"reorder_level": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodGet, "/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = a.do(t, http.MethodGet, "/notifications?limit=5", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	for _, bad := range []string{"abc", "0", "-3"} {
		rec = a.do(t, http.MethodGet, "/notifications?limit="+bad, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", bad)
	}
}
