// Package webpush delivers notifications to browsers over the Web Push
// protocol with VAPID auth.
package webpush

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"github.com/orderly-pos/go-push-service/pkg/push"
	"github.com/orderly-pos/go-push-service/pushservice/config"
)

type Gateway struct {
	subscriber string
	privateKey string
	publicKey  string
	logger     *slog.Logger
	httpClient *http.Client
}

func NewGateway(cfg config.VapidConfig, logger *slog.Logger) *Gateway {
	return &Gateway{
		privateKey: cfg.PrivateKey,
		publicKey:  cfg.PublicKey,
		subscriber: cfg.SubscriberEmail,
		logger:     logger.With("component", "WebPushGateway"),
		httpClient: &http.Client{},
	}
}

// Send pushes one notification to one browser subscription.
//
// The opaque token value for web devices is the marshaled PushSubscription
// JSON the browser handed to the client (endpoint + keys). A token that no
// longer parses is as dead as one the push service rejects.
func (g *Gateway) Send(ctx context.Context, token push.DeviceToken, msg push.Message, data map[string]string) (string, error) {
	var sub webpush.Subscription
	if err := json.Unmarshal([]byte(token.Token), &sub); err != nil || sub.Endpoint == "" {
		return "", fmt.Errorf("%w: malformed web subscription", push.ErrInvalidToken)
	}

	payloadBytes, err := json.Marshal(map[string]interface{}{
		"notification": map[string]string{
			"title": msg.Title,
			"body":  msg.Body,
			"image": msg.ImageURL,
		},
		"data": data,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payloadBytes, &sub, &webpush.Options{
		Subscriber:      g.subscriber,
		VAPIDPublicKey:  g.publicKey,
		VAPIDPrivateKey: g.privateKey,
		TTL:             60,
		HTTPClient:      g.httpClient,
	})
	if err != nil {
		return "", fmt.Errorf("webpush transport failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		return resp.Header.Get("Location"), nil
	case http.StatusGone, http.StatusNotFound:
		// 410 Gone / 404 Not Found: the subscription is dead.
		return "", fmt.Errorf("%w: push service returned %d", push.ErrInvalidToken, resp.StatusCode)
	default:
		g.logger.Warn("WebPush rejected", "status", resp.StatusCode, "endpoint", sub.Endpoint)
		return "", fmt.Errorf("webpush rejected with status %d", resp.StatusCode)
	}
}
