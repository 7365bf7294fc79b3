// Package handlers contains the HTTP handlers for the API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/careledger/backend/internal/api/middleware"
	"github.com/careledger/backend/internal/engine"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeEngineError maps engine error types onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	var (
		ve *engine.ValidationError
		te *engine.TransitionError
	)
	switch {
	case errors.Is(err, engine.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Event not found")
	case errors.As(err, &ve):
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, ve.Reason)
	case errors.As(err, &te):
		middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, te.Error())
	default:
		middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Operation failed")
	}
}
