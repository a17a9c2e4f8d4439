package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"paycycle/internal/core"
	"paycycle/internal/store"
)

// errorResponse is the wire shape of every error reply.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// writeDomainError maps validation and storage errors onto status codes
// and machine-readable error codes.
func writeDomainError(w http.ResponseWriter, err error) {
	var unknownType *core.UnknownCycleTypeError
	var outOfRange *core.PayDayOutOfRangeError

	switch {
	case errors.As(err, &unknownType):
		writeError(w, http.StatusUnprocessableEntity, "unknown_cycle_type", err.Error())
	case errors.As(err, &outOfRange):
		writeError(w, http.StatusUnprocessableEntity, "pay_day_out_of_range", err.Error())
	case errors.Is(err, core.ErrInvalidOffset):
		writeError(w, http.StatusUnprocessableEntity, "invalid_offset", err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "No pay cycle settings stored")
	case errors.Is(err, store.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already_exists", "Pay cycle settings already exist, use PUT to replace them")
	default:
		slog.Error("Unhandled error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}
