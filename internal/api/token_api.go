package api

import (
	"context"
	"encoding/json"
	"net/http"

	"log/slog"

	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"github.com/tinywideclouds/go-microservice-base/pkg/response"
	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"

	"github.com/orderly-pos/go-push-service/pkg/push"
)

// TokenRegistry is the slice of the registry service the handlers use.
type TokenRegistry interface {
	Register(ctx context.Context, user urn.URN, token, deviceType string) (*push.RegisterResult, error)
	Deregister(ctx context.Context, user urn.URN, token string) (*push.RegisterResult, error)
	List(ctx context.Context, user urn.URN) ([]push.DeviceToken, error)
}

type TokenAPI struct {
	Registry TokenRegistry
	Logger   *slog.Logger
}

func NewTokenAPI(registry TokenRegistry, logger *slog.Logger) *TokenAPI {
	return &TokenAPI{
		Registry: registry,
		Logger:   logger,
	}
}

type RegisterTokenRequest struct {
	Token      string `json:"fcm_token"`
	DeviceType string `json:"device_type"`
}

func (api *TokenAPI) RegisterToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := callerURN(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}

	result, err := api.Registry.Register(ctx, user, req.Token, req.DeviceType)
	if err != nil {
		writeServiceError(w, api.Logger, "register token", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (api *TokenAPI) RemoveToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := callerURN(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req RegisterTokenRequest // only fcm_token is read
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}

	result, err := api.Registry.Deregister(ctx, user, req.Token)
	if err != nil {
		writeServiceError(w, api.Logger, "remove token", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (api *TokenAPI) ListTokens(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := callerURN(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	tokens, err := api.Registry.List(ctx, user)
	if err != nil {
		writeServiceError(w, api.Logger, "list tokens", err)
		return
	}

	writeJSON(w, http.StatusOK, push.RegisterResult{Tokens: tokens})
}

// callerURN resolves the authenticated user injected by the auth middleware.
func callerURN(ctx context.Context) (user urn.URN, ok bool) {
	userID, found := middleware.GetUserHandleFromContext(ctx)
	if !found {
		return user, false
	}
	parsed, err := urn.Parse(userID)
	if err != nil {
		return user, false
	}
	return parsed, true
}
