package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tinywideclouds/go-microservice-base/pkg/response"

	"github.com/orderly-pos/go-push-service/pkg/push"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeServiceError maps the service error taxonomy onto HTTP statuses:
// validation 400, missing resources 404, anything else 500.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, push.ErrTokenRequired):
		response.WriteJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, push.ErrNoTokens), errors.Is(err, push.ErrNotFound):
		response.WriteJSONError(w, http.StatusNotFound, err.Error())
	default:
		logger.Error("Request failed", "op", op, "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "internal error")
	}
}
