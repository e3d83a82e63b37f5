package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/isratransfer/trip-manager/backend/internal/domain"
)

// ErrorResponse is the JSON error envelope every endpoint returns on failure.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine-readable code and a human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON serializes v with the given status. Encoding failures are logged,
// not surfaced; headers are already gone by then.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError writes the standard error envelope.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// writeDomainError maps the domain error taxonomy onto HTTP statuses:
// not found → 404, validation / missing trip → 422, upstream → 502,
// anything else → 500 with a generic message (details go to the log only).
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", unwrapMessage(err))
	case errors.Is(err, domain.ErrMissingTrip):
		writeError(w, http.StatusUnprocessableEntity, "missing_trip", unwrapMessage(err))
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", unwrapMessage(err))
	case errors.Is(err, domain.ErrUpstream):
		writeError(w, http.StatusBadGateway, "upstream_error", "extraction provider failed; retry the request")
	default:
		slog.Error("internal error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// unwrapMessage strips the "layer.Type.Method: " wrapping prefixes from an
// error chain, leaving the human-readable tail.
// e.g. "service.ApplyService.Apply: flight proposal: proposal has no trip"
// → "flight proposal: proposal has no trip".
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for {
		idx := strings.Index(msg, ": ")
		if idx < 0 {
			return msg
		}
		head := msg[:idx]
		// Wrapping prefixes look like "service.ApplyService.Apply" or
		// "repo.ProposalRepo.GetByID"; real message segments contain spaces.
		if strings.ContainsRune(head, ' ') || !strings.ContainsRune(head, '.') {
			return msg
		}
		msg = msg[idx+2:]
	}
}
