package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"

	"github.com/orderly-pos/go-push-service/pkg/push"
)

// Orchestrator is the slice of the notify service the processor uses.
type Orchestrator interface {
	CreateAndDispatch(ctx context.Context, user urn.URN, in push.NotificationInput) (*push.Notification, *push.DispatchResult, error)
}

// NewProcessor creates the pipeline stage that turns a validated order event
// into a persisted, dispatched notification.
func NewProcessor(orchestrator Orchestrator, logger *slog.Logger) messagepipeline.StreamProcessor[push.OrderEvent] {
	return func(ctx context.Context, original messagepipeline.Message, event *push.OrderEvent) error {
		procLogger := logger.With(
			"user_id", event.UserID,
			"pubsub_msg_id", original.ID,
		)

		user, err := urn.Parse(event.UserID)
		if err != nil {
			// The user reference is garbage; retrying will not fix it.
			procLogger.Error("Invalid user reference; dropping event", "err", err)
			return nil
		}

		notification, result, err := orchestrator.CreateAndDispatch(ctx, user, push.NotificationInput{
			Title:    event.Title,
			Message:  event.Message,
			Type:     event.Type,
			ImageURL: event.ImageURL,
			Data:     event.Data,
		})
		if err != nil {
			if errors.Is(err, push.ErrNoTokens) {
				procLogger.Info("No devices registered for user; dropping notification.")
				return nil
			}
			procLogger.Error("Failed to create notification", "err", err)
			return err // Retryable
		}

		procLogger.Info("Notification dispatched",
			"notification_id", notification.ID,
			"success_count", result.SuccessCount,
			"total_tokens", result.TotalTokens,
			"pruned", len(result.PrunedTokens),
		)
		return nil
	}
}
