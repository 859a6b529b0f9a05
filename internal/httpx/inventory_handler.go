package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-pharma-stock/internal/inventory"
	"github.com/ariefcatur/go-pharma-stock/internal/reports"
	"github.com/ariefcatur/go-pharma-stock/internal/stock"
)

const maxImportBytes = 10 << 20

type InventoryHandler struct {
	Service *inventory.Service
}

func (h *InventoryHandler) Register(r chi.Router) {
	r.Route("/inventory", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/classify", h.classify)
		r.Post("/import", h.importSheet)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.replace)
		r.Delete("/{id}", h.delete)
	})
}

// list accepts an optional ?tier= filter.
func (h *InventoryHandler) list(w http.ResponseWriter, r *http.Request) {
	tier := stock.Tier(r.URL.Query().Get("tier"))
	if tier != "" && !tier.Valid() {
		badRequest(w, "unknown tier")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	views, err := h.Service.List(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]itemResp, 0, len(views))
	for _, v := range views {
		if tier == "" || v.Tier == tier {
			out = append(out, toItemResp(v))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *InventoryHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	v, err := h.Service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResp(v))
}

func (h *InventoryHandler) decode(w http.ResponseWriter, r *http.Request) (inventory.Item, bool) {
	var req itemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return inventory.Item{}, false
	}
	it, err := req.item(h.Service.DefaultCurrency)
	if err != nil {
		writeError(w, r, err)
		return inventory.Item{}, false
	}
	return it, true
}

func (h *InventoryHandler) create(w http.ResponseWriter, r *http.Request) {
	it, ok := h.decode(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	v, alerts, err := h.Service.Create(ctx, it, traceID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saveItemResp{Item: toItemResp(v), Alerts: nonNil(alerts)})
}

func (h *InventoryHandler) replace(w http.ResponseWriter, r *http.Request) {
	it, ok := h.decode(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	v, alerts, err := h.Service.Replace(ctx, chi.URLParam(r, "id"), it, traceID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saveItemResp{Item: toItemResp(v), Alerts: nonNil(alerts)})
}

func (h *InventoryHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Service.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type classifyResp struct {
	Tier     stock.Tier `json:"tier"`
	Color    string     `json:"color"`
	Urgency  int        `json:"urgency"`
	DaysLeft int        `json:"days_left"`
}

// classify runs the stock classifier on ad-hoc input, for forms that
// preview the badge before saving.
func (h *InventoryHandler) classify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	qty, err := strconv.Atoi(q.Get("quantity"))
	if err != nil || qty < 0 {
		badRequest(w, "quantity must be a non-negative integer")
		return
	}
	expiry, err := time.Parse(dateLayout, q.Get("expiry"))
	if err != nil {
		badRequest(w, "expiry must be a date (YYYY-MM-DD)")
		return
	}
	today := h.Service.Today()
	tier := stock.Classify(qty, expiry, today)
	writeJSON(w, http.StatusOK, classifyResp{
		Tier:     tier,
		Color:    string(tier.Color()),
		Urgency:  tier.Urgency(),
		DaysLeft: stock.DaysUntilExpiry(expiry, today),
	})
}

// importSheet creates items from an uploaded XLSX sheet (multipart "file"),
// in the layout of the xlsx export.
func (h *InventoryHandler) importSheet(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "missing file")
		return
	}
	defer file.Close()

	rows, err := reports.ReadXLSX(file, h.Service.DefaultCurrency)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	views, err := h.Service.Import(ctx, rows, traceID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]itemResp, 0, len(views))
	for _, v := range views {
		out = append(out, toItemResp(v))
	}
	writeJSON(w, http.StatusCreated, out)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
