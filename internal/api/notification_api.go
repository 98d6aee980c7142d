package api

import (
	"context"
	"encoding/json"
	"net/http"

	"log/slog"

	"github.com/tinywideclouds/go-microservice-base/pkg/response"
	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"

	"github.com/orderly-pos/go-push-service/pkg/push"
)

// Orchestrator is the slice of the notify service the handlers use.
type Orchestrator interface {
	CreateAndDispatch(ctx context.Context, user urn.URN, in push.NotificationInput) (*push.Notification, *push.DispatchResult, error)
	History(ctx context.Context, user urn.URN, limit int) ([]push.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, user urn.URN) (int, error)
}

type NotificationAPI struct {
	Orchestrator Orchestrator
	Logger       *slog.Logger
}

func NewNotificationAPI(orchestrator Orchestrator, logger *slog.Logger) *NotificationAPI {
	return &NotificationAPI{
		Orchestrator: orchestrator,
		Logger:       logger,
	}
}

type CreateNotificationRequest struct {
	UserID   string            `json:"user_id,omitempty"`
	Title    string            `json:"title"`
	Message  string            `json:"message"`
	Type     string            `json:"type,omitempty"`
	ImageURL string            `json:"image_url,omitempty"`
	Data     map[string]string `json:"data,omitempty"`
}

type CreateNotificationResponse struct {
	Notification *push.Notification   `json:"notification"`
	Dispatch     *push.DispatchResult `json:"dispatch"`
}

// CreateNotification persists and dispatches a notification. The back office
// targets a customer via user_id; without one the notification goes to the
// authenticated caller.
func (api *NotificationAPI) CreateNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := callerURN(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Title == "" || req.Message == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "title and message are required")
		return
	}

	target := caller
	if req.UserID != "" {
		parsed, err := urn.Parse(req.UserID)
		if err != nil {
			response.WriteJSONError(w, http.StatusBadRequest, "invalid user_id")
			return
		}
		target = parsed
	}

	notification, dispatch, err := api.Orchestrator.CreateAndDispatch(ctx, target, push.NotificationInput{
		Title:    req.Title,
		Message:  req.Message,
		Type:     req.Type,
		ImageURL: req.ImageURL,
		Data:     req.Data,
	})
	if err != nil {
		writeServiceError(w, api.Logger, "create notification", err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateNotificationResponse{
		Notification: notification,
		Dispatch:     dispatch,
	})
}

func (api *NotificationAPI) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := callerURN(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	notifications, err := api.Orchestrator.History(ctx, user, 0)
	if err != nil {
		writeServiceError(w, api.Logger, "notification history", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": notifications})
}

func (api *NotificationAPI) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := callerURN(ctx); !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "missing notification id")
		return
	}

	if err := api.Orchestrator.MarkRead(ctx, id); err != nil {
		writeServiceError(w, api.Logger, "mark read", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (api *NotificationAPI) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := callerURN(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	modified, err := api.Orchestrator.MarkAllRead(ctx, user)
	if err != nil {
		writeServiceError(w, api.Logger, "mark all read", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"modified_count": modified})
}
