package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/core"
	applog "github.com/Masaya-j9/account-book-monorepo-sub001/internal/log"
	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/services"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// respondError maps domain errors to status codes. Internal errors are
// logged but never leaked to the client.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFromError(err)

	resp := errorResponse{Error: err.Error()}
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
	}

	if status >= 500 {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldError, err)
		resp.Error = "internal server error"
	}

	respondJSON(w, status, resp)
}

func statusFromError(err error) int {
	switch {
	case core.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken),
		errors.Is(err, core.ErrTokenBlacklisted):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	respondJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}
