package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/datenblick/datenblick/pkg/api"
)

// statusForError maps an APIError type to an HTTP status code.
func statusForError(e *api.APIError) int {
	switch e.Type {
	case api.ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case api.ErrorTypeNotFound:
		return http.StatusNotFound
	case api.ErrorTypeTooManyRequests:
		return http.StatusTooManyRequests
	case api.ErrorTypeStagingError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as a JSON error response. Non-APIErrors are wrapped
// as server errors; their detail is logged, not leaked to the client.
func writeError(w http.ResponseWriter, err error) {
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		slog.Error("unhandled error", "error", err)
		apiErr = api.NewServerError("internal server error")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusForError(apiErr))
	if encErr := json.NewEncoder(w).Encode(api.ErrorResponse{Error: apiErr}); encErr != nil {
		slog.Error("failed to write error response", "error", encErr)
	}
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
