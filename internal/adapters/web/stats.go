package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// metric handles GET /api/stats/{metric}. Metric names may contain a slash (stock/top).
func (h *Handler) metric(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	value, err := h.svc.GetMetric(r.Context(), name)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"metric": name, "value": value})
}

// dashboard handles GET /api/stats. Metrics that fail are listed under "errors"
// and the rest are still returned.
func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	result := h.svc.GetDashboard(r.Context())
	writeJSON(w, map[string]any{"metrics": result.Values, "errors": result.Errors})
}
