package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"variantd/internal/orchestrator"
	"variantd/internal/registry"
	"variantd/internal/supervisor"
	"variantd/internal/variant"
	"variantd/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case orchestrator.IsSourceNotActive(err):
		return http.StatusNotFound
	case variant.IsInvalidPreset(err), variant.IsPresetNotFound(err), registry.IsInvalidPath(err):
		return http.StatusBadRequest
	case supervisor.IsLaunchFailed(err):
		return http.StatusBadGateway
	}
	var he HTTPError
	if errors.As(err, &he) {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
