// Package notify is the entry point for business events: it persists the
// notification record and hands delivery to the dispatcher.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/orderly-pos/go-push-service/pkg/push"
	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"
)

// Dispatcher is the delivery contract the orchestrator depends on.
type Dispatcher interface {
	SendToUser(ctx context.Context, user urn.URN, msg push.Message, data map[string]string) (*push.DispatchResult, error)
}

type Service struct {
	notifications push.NotificationStore
	tokens        push.TokenStore
	dispatcher    Dispatcher
	logger        *slog.Logger
}

func NewService(notifications push.NotificationStore, tokens push.TokenStore, dispatcher Dispatcher, logger *slog.Logger) *Service {
	return &Service{
		notifications: notifications,
		tokens:        tokens,
		dispatcher:    dispatcher,
		logger:        logger.With("component", "Notifier"),
	}
}

// CreateAndDispatch persists a notification for the user and fans it out to
// their devices.
//
// The token check runs before the write: a user with no registered devices
// gets push.ErrNoTokens and nothing is persisted, so history never records a
// notification that could not even attempt delivery. Once the record is
// written it stays authoritative: a failed dispatch is reported in the
// result but never rolls the record back.
func (s *Service) CreateAndDispatch(ctx context.Context, user urn.URN, in push.NotificationInput) (*push.Notification, *push.DispatchResult, error) {
	tokens, err := s.tokens.List(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("token lookup: %w", err)
	}
	if len(tokens) == 0 {
		return nil, nil, push.ErrNoTokens
	}

	notification := &push.Notification{
		ID:        uuid.NewString(),
		User:      user,
		Title:     in.Title,
		Message:   in.Message,
		Type:      in.Type,
		ImageURL:  in.ImageURL,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		return nil, nil, fmt.Errorf("persist notification: %w", err)
	}

	data := make(map[string]string, len(in.Data)+2)
	for k, v := range in.Data {
		data[k] = v
	}
	data["notification_id"] = notification.ID
	if in.Type != "" {
		data["type"] = in.Type
	}

	msg := push.Message{Title: in.Title, Body: in.Message, ImageURL: in.ImageURL}
	result, err := s.dispatcher.SendToUser(ctx, user, msg, data)
	if err != nil {
		// Delivery is informational at this point; the record stands.
		s.logger.Error("Dispatch failed after notification persisted",
			"notification_id", notification.ID, "user", user.String(), "err", err)
		if result == nil {
			result = &push.DispatchResult{Success: false, Reason: err.Error()}
		}
	}

	return notification, result, nil
}

// History returns the user's notifications, newest first.
func (s *Service) History(ctx context.Context, user urn.URN, limit int) ([]push.Notification, error) {
	notifications, err := s.notifications.ListByUser(ctx, user, limit)
	if err != nil {
		return nil, fmt.Errorf("notification history: %w", err)
	}
	return notifications, nil
}

// MarkRead transitions one notification to read; idempotent.
func (s *Service) MarkRead(ctx context.Context, id string) error {
	return s.notifications.MarkRead(ctx, id)
}

// MarkAllRead marks every unread notification for the user and reports the
// number mutated.
func (s *Service) MarkAllRead(ctx context.Context, user urn.URN) (int, error) {
	modified, err := s.notifications.MarkAllRead(ctx, user)
	if err != nil {
		return modified, fmt.Errorf("mark all read: %w", err)
	}
	s.logger.Info("Notifications marked read", "user", user.String(), "count", modified)
	return modified, nil
}
