package web

import (
	"encoding/json"
	"net/http"

	"retail-ops/internal/app"
	"retail-ops/internal/core"
)

// placeOrder handles POST /api/orders.
func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StoreID    int64  `json:"store_id"`
		SupplierID int64  `json:"supplier_id"`
		Priority   string `json:"priority"`
		Notes      string `json:"notes"`
		Items      []struct {
			ProductName  string          `json:"product_name"`
			RequestedQty json.RawMessage `json:"requested_qty"`
		} `json:"items"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	items := make([]app.OrderItemRequest, 0, len(req.Items))
	for _, it := range req.Items {
		qty := wholeNumber(it.RequestedQty)
		items = append(items, app.OrderItemRequest{ProductName: it.ProductName, RequestedQty: qty})
	}

	result, err := h.svc.PlaceOrder(r.Context(), app.PlaceOrderRequest{
		StoreID:    req.StoreID,
		SupplierID: req.SupplierID,
		Priority:   req.Priority,
		Notes:      req.Notes,
		Items:      items,
		Actor:      actorFromContext(r.Context()),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result.Order)
}

// listOrders handles GET /api/orders?status=pending.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListOrders(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	orders := result.Orders
	if orders == nil {
		orders = []core.Order{}
	}
	writeJSON(w, orders)
}

// getOrder handles GET /api/orders/{id}.
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetOrder(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Order)
}

// setOrderStatus handles PUT /api/orders/{id}/status (and PUT /api/orders/{id}).
func (h *Handler) setOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status == "" {
		writeError(w, r, "status is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.SetOrderStatus(r.Context(), app.SetOrderStatusRequest{
		OrderID: id,
		Status:  req.Status,
		Actor:   actorFromContext(r.Context()),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Order)
}
