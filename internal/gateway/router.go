// Package gateway routes sends to the provider that understands the token's
// platform, behind the single push.Gateway contract the dispatcher uses.
package gateway

import (
	"context"
	"log/slog"

	"github.com/orderly-pos/go-push-service/pkg/push"
)

// Router implements push.Gateway by delegating on the token's platform.
// ios goes to APNs and web to the VAPID gateway when those are configured;
// everything else, android included, goes to FCM. FCM also handles FCM web
// tokens when no VAPID gateway is wired.
type Router struct {
	fcm    push.Gateway
	apns   push.Gateway
	web    push.Gateway
	logger *slog.Logger
}

func NewRouter(fcm, apns, web push.Gateway, logger *slog.Logger) *Router {
	return &Router{
		fcm:    fcm,
		apns:   apns,
		web:    web,
		logger: logger.With("component", "GatewayRouter"),
	}
}

func (r *Router) Send(ctx context.Context, token push.DeviceToken, msg push.Message, data map[string]string) (string, error) {
	switch token.Platform {
	case push.PlatformIOS:
		if r.apns != nil {
			return r.apns.Send(ctx, token, msg, data)
		}
	case push.PlatformWeb:
		if r.web != nil {
			return r.web.Send(ctx, token, msg, data)
		}
	}
	return r.fcm.Send(ctx, token, msg, data)
}
