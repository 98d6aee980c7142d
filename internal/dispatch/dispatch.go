// Package dispatch fans a notification out to every device a user has
// registered and reconciles tokens the gateway reports as dead.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/orderly-pos/go-push-service/pkg/push"
	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"
)

// ClickAction is attached to every data payload so mobile clients route the
// tap to the notifications screen.
const ClickAction = "FLUTTER_NOTIFICATION_CLICK"

// DefaultSendTimeout bounds one gateway send so a single hung device cannot
// stall the whole fan-out.
const DefaultSendTimeout = 10 * time.Second

type Service struct {
	tokens      push.TokenStore
	gateway     push.Gateway
	sendTimeout time.Duration
	logger      *slog.Logger
}

func NewService(tokens push.TokenStore, gateway push.Gateway, sendTimeout time.Duration, logger *slog.Logger) *Service {
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}
	return &Service{
		tokens:      tokens,
		gateway:     gateway,
		sendTimeout: sendTimeout,
		logger:      logger.With("component", "Dispatcher"),
	}
}

type sendOutcome struct {
	token push.DeviceToken
	err   error
}

// SendToUser delivers msg to every token the user has registered.
//
// All sends run concurrently and every outcome settles before aggregation;
// one device failing never aborts the others. The overall result is a
// success if at least one device acknowledged. Tokens whose failure is
// permanent (push.ErrInvalidToken) are pruned globally; transient failures
// stay registered and get retried implicitly by the next notification.
//
// Partial failure is reported in the result, not as an error. The returned
// error is non-nil only when the token store itself could not be read.
func (s *Service) SendToUser(ctx context.Context, user urn.URN, msg push.Message, data map[string]string) (*push.DispatchResult, error) {
	tokens, err := s.tokens.List(ctx, user)
	if err != nil {
		s.logger.Error("Failed to resolve device tokens", "user", user.String(), "err", err)
		return &push.DispatchResult{Success: false, Reason: "token lookup failed"}, err
	}
	if len(tokens) == 0 {
		return &push.DispatchResult{Success: false, Reason: "no tokens"}, nil
	}

	payload := make(map[string]string, len(data)+2)
	for k, v := range data {
		payload[k] = v
	}
	payload["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	payload["click_action"] = ClickAction

	outcomes := make(chan sendOutcome, len(tokens))
	var wg sync.WaitGroup
	for _, token := range tokens {
		wg.Add(1)
		go func(token push.DeviceToken) {
			defer wg.Done()
			sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
			defer cancel()
			_, err := s.gateway.Send(sendCtx, token, msg, payload)
			outcomes <- sendOutcome{token: token, err: err}
		}(token)
	}
	wg.Wait()
	close(outcomes)

	result := &push.DispatchResult{TotalTokens: len(tokens)}
	var invalid []string
	for outcome := range outcomes {
		if outcome.err == nil {
			result.SuccessCount++
			continue
		}
		result.FailureCount++
		if errors.Is(outcome.err, push.ErrInvalidToken) {
			invalid = append(invalid, outcome.token.Token)
			continue
		}
		s.logger.Warn("Push send failed; token kept for retry",
			"user", user.String(), "platform", outcome.token.Platform, "err", outcome.err)
	}
	result.Success = result.SuccessCount > 0
	if !result.Success {
		result.Reason = "all sends failed"
	}

	// Self-healing: sweep dead tokens out of every profile holding them.
	for _, token := range invalid {
		owners, err := s.tokens.Prune(ctx, token)
		if err != nil {
			s.logger.Warn("Failed to prune invalid token", "err", err)
			continue
		}
		result.PrunedTokens = append(result.PrunedTokens, token)
		s.logger.Info("Pruned invalid token", "user", user.String(), "owners", len(owners))
	}

	return result, nil
}
