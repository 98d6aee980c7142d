// Package apns provides the gateway for the Apple Push Notification Service.
package apns

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"

	"github.com/orderly-pos/go-push-service/pkg/push"
)

// APNSClient defines the subset of the apns2.Client methods we use.
// This allows mocking for unit tests.
type APNSClient interface {
	Push(n *apns2.Notification) (*apns2.Response, error)
}

type Gateway struct {
	client APNSClient
	topic  string // The App Bundle ID (e.g. com.orderly.pos)
	logger *slog.Logger
}

// Config holds the credentials required to sign APNs tokens.
type Config struct {
	KeyID    string
	TeamID   string
	BundleID string
	// P8KeyContent is the raw string content of the .p8 file
	P8KeyContent string
}

// NewGateway creates a configured APNs gateway.
// It parses the P8 key immediately to fail fast on startup if credentials are bad.
func NewGateway(cfg Config, logger *slog.Logger) (*Gateway, error) {
	authKey, err := token.AuthKeyFromBytes([]byte(cfg.P8KeyContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse APNs P8 key: %w", err)
	}

	tokenSource := &token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	}

	return &Gateway{
		client: apns2.NewTokenClient(tokenSource),
		topic:  cfg.BundleID,
		logger: logger.With("component", "APNSGateway"),
	}, nil
}

// Send pushes one notification to one device token.
// APNs is unary (one HTTP/2 request per token); the dispatcher above us
// handles the per-user parallelism.
func (g *Gateway) Send(_ context.Context, deviceToken push.DeviceToken, msg push.Message, data map[string]string) (string, error) {
	builder := payload.NewPayload().
		AlertTitle(msg.Title).
		AlertBody(msg.Body)
	for k, v := range data {
		builder.Custom(k, v)
	}

	res, err := g.client.Push(&apns2.Notification{
		DeviceToken: deviceToken.Token,
		Topic:       g.topic,
		Payload:     builder,
	})
	if err != nil {
		return "", fmt.Errorf("apns transport failed: %w", err)
	}

	if res.Sent() {
		return res.ApnsID, nil
	}

	switch res.Reason {
	case apns2.ReasonBadDeviceToken, apns2.ReasonUnregistered, apns2.ReasonDeviceTokenNotForTopic:
		// Token is dead; the dispatcher will prune it.
		return "", fmt.Errorf("%w: apns reason %s", push.ErrInvalidToken, res.Reason)
	default:
		// Other rejections (TopicDisallowed, PayloadEmpty) may be our
		// configuration's fault, not the token's.
		g.logger.Warn("APNs rejected notification", "reason", res.Reason, "status", res.StatusCode)
		return "", fmt.Errorf("apns rejected notification: %s", res.Reason)
	}
}
