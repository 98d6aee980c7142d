// Package registry owns the device-token lifecycle: add, refresh, remove,
// list. It is the only writer of the token store besides dispatch pruning.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/orderly-pos/go-push-service/pkg/push"
	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"
)

type Service struct {
	store  push.TokenStore
	logger *slog.Logger
}

func NewService(store push.TokenStore, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.With("component", "TokenRegistry"),
	}
}

// Register upserts a token for the user. Re-registering an existing token
// refreshes its platform and last-used timestamp instead of duplicating it.
func (s *Service) Register(ctx context.Context, user urn.URN, token, deviceType string) (*push.RegisterResult, error) {
	if token == "" {
		return nil, push.ErrTokenRequired
	}

	device := push.DeviceToken{
		Token:      token,
		Platform:   push.ParsePlatform(deviceType),
		LastUsedAt: time.Now().UTC(),
	}
	action, err := s.store.Register(ctx, user, device)
	if err != nil {
		return nil, fmt.Errorf("register token: %w", err)
	}

	tokens, err := s.store.List(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}

	s.logger.Info("Device token registered",
		"user", user.String(), "action", action, "platform", device.Platform)
	return &push.RegisterResult{Tokens: tokens, Action: action}, nil
}

// Deregister removes the token and returns the remaining list. Removing a
// token that was never registered is a success.
func (s *Service) Deregister(ctx context.Context, user urn.URN, token string) (*push.RegisterResult, error) {
	if token == "" {
		return nil, push.ErrTokenRequired
	}

	if err := s.store.Deregister(ctx, user, token); err != nil {
		return nil, fmt.Errorf("deregister token: %w", err)
	}

	tokens, err := s.store.List(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}

	s.logger.Info("Device token removed", "user", user.String())
	return &push.RegisterResult{Tokens: tokens}, nil
}

// List returns every device token registered for the user.
func (s *Service) List(ctx context.Context, user urn.URN) ([]push.DeviceToken, error) {
	tokens, err := s.store.List(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	return tokens, nil
}
