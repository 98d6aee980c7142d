// Package fcm sends notifications through Firebase Cloud Messaging.
package fcm

import (
	"context"
	"fmt"
	"log/slog"

	"firebase.google.com/go/v4/messaging"

	"github.com/orderly-pos/go-push-service/pkg/push"
)

// MessagingClient defines the subset of the Firebase Messaging API we use.
// This interface allows us to mock the client for unit testing.
type MessagingClient interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
}

type Gateway struct {
	client MessagingClient
	logger *slog.Logger
}

// NewGateway accepts the concrete client but stores it as the interface.
// Note: *messaging.Client automatically satisfies this interface.
func NewGateway(client MessagingClient, logger *slog.Logger) *Gateway {
	return &Gateway{
		client: client,
		logger: logger.With("component", "FCMGateway"),
	}
}

// Send delivers one message to one token. Rejections that mean the token is
// dead (unregistered / invalid registration) are wrapped with
// push.ErrInvalidToken so the dispatcher prunes them; everything else is
// reported as transient.
func (g *Gateway) Send(ctx context.Context, token push.DeviceToken, msg push.Message, data map[string]string) (string, error) {
	message := &messaging.Message{
		Token: token.Token,
		Data:  data,
		Notification: &messaging.Notification{
			Title:    msg.Title,
			Body:     msg.Body,
			ImageURL: msg.ImageURL,
		},
		Android: &messaging.AndroidConfig{
			Notification: &messaging.AndroidNotification{
				ClickAction: data["click_action"],
			},
		},
	}

	id, err := g.client.Send(ctx, message)
	if err != nil {
		if messaging.IsRegistrationTokenNotRegistered(err) || messaging.IsInvalidArgument(err) {
			return "", fmt.Errorf("%w: %v", push.ErrInvalidToken, err)
		}
		return "", fmt.Errorf("fcm transport failed: %w", err)
	}
	return id, nil
}
