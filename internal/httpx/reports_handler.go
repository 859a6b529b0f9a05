package httpx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-pharma-stock/internal/inventory"
	"github.com/ariefcatur/go-pharma-stock/internal/money"
	"github.com/ariefcatur/go-pharma-stock/internal/reports"
	"github.com/ariefcatur/go-pharma-stock/internal/stock"
)

const maxUploadBytes = 20 << 20

type ReportsHandler struct {
	Inventory      *inventory.Service
	Dashboard      *reports.Dashboard
	Uploads        reports.ReportStore
	UploadsEnabled bool
}

func (h *ReportsHandler) Register(r chi.Router) {
	r.Get("/dashboard", h.dashboard)
	r.Route("/reports", func(r chi.Router) {
		r.Get("/summary", h.summary)
		r.Get("/expiry", h.expiry)
		r.Get("/breakdown", h.breakdown)
		r.Get("/export", h.export)
		r.Post("/uploads", h.upload)
	})
}

type dashboardResp struct {
	reports.QuickStats
	StockValueDisplay string `json:"stock_value_display"`
}

func (h *ReportsHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	qs, err := h.Dashboard.QuickStats(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboardResp{QuickStats: qs, StockValueDisplay: money.Format(qs.StockValue)})
}

func (h *ReportsHandler) summary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sum, err := h.Inventory.Summary(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResp{Summary: sum, TotalValueDisplay: money.Format(sum.TotalValue)})
}

// expiry lists items expiring within ?days= (default 30).
func (h *ReportsHandler) expiry(w http.ResponseWriter, r *http.Request) {
	days := stock.ExpiryWarningDays
	if s := r.URL.Query().Get("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			badRequest(w, "days must be a non-negative integer")
			return
		}
		days = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	alerts, err := h.Inventory.ExpiryAlerts(ctx, days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]expiryAlertResp, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, expiryAlertResp{
			ItemID:       a.ItemID,
			MedicineName: a.MedicineName,
			BatchID:      a.BatchID,
			ExpiryDate:   a.ExpiryDate.Format(dateLayout),
			DaysLeft:     a.DaysLeft,
			Color:        a.Color,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ReportsHandler) breakdown(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	b, err := h.Inventory.Breakdown(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *ReportsHandler) export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = reports.FormatCSV
	}
	if format != reports.FormatCSV && format != reports.FormatXLSX {
		badRequest(w, "format must be csv or xlsx")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	views, err := h.Inventory.List(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// render fully before writing headers so a failure can still be a 500
	var buf bytes.Buffer
	if format == reports.FormatXLSX {
		err = reports.WriteXLSX(&buf, views)
	} else {
		err = reports.WriteCSV(&buf, views)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	name := fmt.Sprintf("stock-%s.%s", h.Inventory.Today().Format(dateLayout), format)
	w.Header().Set("Content-Type", reports.ContentType(format))
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, &buf)
}

type uploadResp struct {
	Canceled bool               `json:"canceled"`
	Uploaded []reports.Uploaded `json:"uploaded"`
}

func (h *ReportsHandler) upload(w http.ResponseWriter, r *http.Request) {
	lib := &formLibrary{enabled: h.UploadsEnabled, w: w, r: r}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	uploaded, err := reports.UploadReport(ctx, lib, h.Uploads)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if lib.canceled {
		writeJSON(w, http.StatusOK, uploadResp{Canceled: true, Uploaded: []reports.Uploaded{}})
		return
	}
	writeJSON(w, http.StatusCreated, uploadResp{Uploaded: uploaded})
}

// formLibrary serves a multipart request as the media library: the feature
// switch is the permission, the "report" files are the pick, and a request
// without files is a canceled pick.
type formLibrary struct {
	enabled  bool
	canceled bool
	w        http.ResponseWriter
	r        *http.Request
}

func (l *formLibrary) RequestPermission(context.Context) (bool, error) {
	return l.enabled, nil
}

func (l *formLibrary) Pick(context.Context) (reports.PickResult, error) {
	l.r.Body = http.MaxBytesReader(l.w, l.r.Body, maxUploadBytes)
	if err := l.r.ParseMultipartForm(maxUploadBytes); err != nil || l.r.MultipartForm == nil {
		l.canceled = true
		return reports.PickResult{Canceled: true}, nil
	}
	files := l.r.MultipartForm.File["report"]
	if len(files) == 0 {
		l.canceled = true
		return reports.PickResult{Canceled: true}, nil
	}

	res := reports.PickResult{}
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return reports.PickResult{}, err
		}
		body, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return reports.PickResult{}, err
		}
		res.Assets = append(res.Assets, reports.Asset{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        body,
		})
	}
	return res, nil
}
