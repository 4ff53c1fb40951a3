package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"retail-ops/internal/app"
	"retail-ops/internal/core"
)

type warehouseJSON struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Capacity int64  `json:"capacity"`
	Manager  string `json:"manager"`
}

// listWarehouses handles GET /api/warehouses.
func (h *Handler) listWarehouses(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListWarehouses(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	out := make([]warehouseJSON, 0, len(result.Warehouses))
	for _, wh := range result.Warehouses {
		out = append(out, warehouseJSON{
			ID: wh.ID, Code: wh.Code, Name: wh.Name,
			Address: wh.Address, Capacity: wh.Capacity, Manager: wh.Manager,
		})
	}
	writeJSON(w, out)
}

// getStock handles GET /api/warehouses/{id}/stock.
func (h *Handler) getStock(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	stock, err := h.svc.GetStock(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, stock)
}

// exportStock handles GET /api/warehouses/{id}/stock.xlsx.
func (h *Handler) exportStock(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ExportStock(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
	_, _ = w.Write(result.Data)
}

// listAdjustments handles GET /api/warehouses/{id}/adjustments?limit=N.
func (h *Handler) listAdjustments(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, r, "limit must be a non-negative integer", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		limit = n
	}

	result, err := h.svc.ListAdjustments(r.Context(), id, limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	adjustments := result.Adjustments
	if adjustments == nil {
		adjustments = []core.StockAdjustment{}
	}
	writeJSON(w, map[string]any{"warehouse_id": result.WarehouseID, "adjustments": adjustments})
}

// adjustStock handles POST /api/stock.
func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WarehouseID int64           `json:"warehouse_id"`
		ProductName string          `json:"product_name"`
		QtyAdded    json.RawMessage `json:"qty_added"`
		Unit        string          `json:"unit"`
		Notes       string          `json:"notes"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	qty := wholeNumber(req.QtyAdded)

	result, err := h.svc.AdjustStock(r.Context(), app.AdjustStockRequest{
		WarehouseID: req.WarehouseID,
		ProductName: req.ProductName,
		QtyAdded:    qty,
		Unit:        req.Unit,
		Notes:       req.Notes,
		Actor:       actorFromContext(r.Context()),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	type response struct {
		Message     string    `json:"message"`
		Product     string    `json:"product"`
		Unit        core.Unit `json:"unit"`
		PreviousQty int64     `json:"previous_qty"`
		NewQty      int64     `json:"new_qty"`
	}
	writeJSONStatus(w, http.StatusCreated, response{
		Message:     "Stock updated",
		Product:     result.Product,
		Unit:        result.Unit,
		PreviousQty: result.PreviousQty,
		NewQty:      result.NewQty,
	})
}
