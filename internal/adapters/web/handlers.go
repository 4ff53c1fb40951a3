package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"retail-ops/internal/app"
	"retail-ops/internal/metrics"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Options configures NewHandler. Zero values disable the corresponding feature.
type Options struct {
	// AllowedOrigins is a comma-separated CORS allow list.
	AllowedOrigins string
	// JWTSecret enables bearer-token authentication on /api routes.
	JWTSecret string
	Logger    *zap.Logger
	Metrics   *metrics.Recorder
	// MetricsHandler, if set, is served at /metrics.
	MetricsHandler http.Handler
}

// Handler holds the ApplicationService and the request-scoped collaborators.
type Handler struct {
	svc       app.ApplicationService
	log       *zap.Logger
	metrics   *metrics.Recorder
	jwtSecret string
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{svc: svc, log: log, metrics: opts.Metrics, jwtSecret: opts.JWTSecret}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log, opts.Metrics))
	r.Use(Recoverer(log))
	r.Use(CORS(opts.AllowedOrigins))

	// ── Health and metrics (public) ──────────────────────────────────────────
	r.Get("/api/health", h.health)
	if opts.MetricsHandler != nil {
		r.Handle("/metrics", opts.MetricsHandler)
	}

	// ── API (bearer auth when a secret is configured) ────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(h.Authenticate)
		r.Use(MaxBodyBytes(1 << 20)) // 1 MB

		// Stock ledger
		r.Get("/api/warehouses", h.listWarehouses)
		r.Get("/api/warehouses/{id}/stock", h.getStock)
		r.Get("/api/warehouses/{id}/stock.xlsx", h.exportStock)
		r.Get("/api/warehouses/{id}/adjustments", h.listAdjustments)
		r.Post("/api/stock", h.adjustStock)
		r.Get("/api/stock/{id}", h.getStock)

		// Orders
		r.Get("/api/orders", h.listOrders)
		r.Post("/api/orders", h.placeOrder)
		r.Get("/api/orders/{id}", h.getOrder)
		r.Put("/api/orders/{id}", h.setOrderStatus)
		r.Put("/api/orders/{id}/status", h.setOrderStatus)

		// Dashboard statistics
		r.Get("/api/stats", h.dashboard)
		r.Get("/api/stats/*", h.metric)
	})

	return r
}

// health returns service status and whether the store answers.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
		Store  string `json:"store"`
	}

	if err := h.svc.Health(r.Context()); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		writeJSONStatus(w, http.StatusServiceUnavailable, response{Status: "degraded", Store: "unreachable"})
		return
	}
	writeJSON(w, response{Status: "ok", Store: "ok"})
}

// idParam parses the {id} URL parameter, writing a 400 on failure.
func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, "invalid id: "+raw, "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// decodeJSON decodes the request body into v. On failure it writes 413 for a body
// over the MaxBodyBytes limit, 400 otherwise, and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// wholeNumber reads a quantity given as a JSON integer literal. Fractions, quoted
// numbers, null and a missing field all yield 0, which the service then reports
// against that field together with the request's other failures.
func wholeNumber(raw json.RawMessage) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
