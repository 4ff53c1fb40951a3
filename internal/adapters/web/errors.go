package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"retail-ops/internal/core"

	"go.uber.org/zap"
)

type errorResponse struct {
	Error     string            `json:"error"`
	Code      string            `json:"code"`
	RequestID string            `json:"request_id,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeErrorResponse(w, r, status, errorResponse{Error: message, Code: code})
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, status int, resp errorResponse) {
	resp.RequestID = requestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeJSONStatus writes a JSON response with the given status.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorKinds maps service error kinds to HTTP status and code, checked in order.
var errorKinds = []struct {
	kind   error
	status int
	code   string
}{
	{core.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{core.ErrInsufficientStock, http.StatusConflict, "INSUFFICIENT_STOCK"},
	{core.ErrUnitMismatch, http.StatusConflict, "UNIT_MISMATCH"},
	{core.ErrIllegalTransition, http.StatusConflict, "ILLEGAL_TRANSITION"},
	{core.ErrInvalidQuantity, http.StatusBadRequest, "INVALID_QUANTITY"},
	{core.ErrInvalidInput, http.StatusBadRequest, "BAD_REQUEST"},
}

// writeServiceError translates a service error into a response. Unknown errors are
// logged and reported as 500 without leaking their text.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs core.ValidationErrors
	if errors.As(err, &verrs) {
		writeErrorResponse(w, r, http.StatusUnprocessableEntity, errorResponse{
			Error:  "validation failed",
			Code:   "VALIDATION_FAILED",
			Fields: verrs.Fields(),
		})
		return
	}

	for _, k := range errorKinds {
		if errors.Is(err, k.kind) {
			writeError(w, r, err.Error(), k.code, k.status)
			return
		}
	}

	h.log.Error("request failed",
		zap.String("request_id", requestIDFromContext(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
}
