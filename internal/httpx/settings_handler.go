package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-pharma-stock/internal/notify"
	"github.com/ariefcatur/go-pharma-stock/internal/settings"
)

type SettingsHandler struct {
	Store settings.Store
	Feed  *notify.Feed // nil when Redis is off
}

func (h *SettingsHandler) Register(r chi.Router) {
	r.Get("/settings", h.get)
	r.Put("/settings", h.put)
	r.Get("/notifications", h.notifications)
}

func (h *SettingsHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	s, err := h.Store.Get(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// put overlays the request on the stored settings; omitted fields keep
// their values.
func (h *SettingsHandler) put(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	s, err := h.Store.Get(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if err := h.Store.Put(ctx, s); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// notifications lists the feed, newest first, up to ?limit= entries.
func (h *SettingsHandler) notifications(w http.ResponseWriter, r *http.Request) {
	limit := notify.FeedSize
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			badRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if h.Feed == nil {
		writeJSON(w, http.StatusOK, []notify.Notification{})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Feed.Recent(ctx, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
