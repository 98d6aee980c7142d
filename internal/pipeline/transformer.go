// Package pipeline contains the message processing components that turn
// published business events into dispatched notifications.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"

	"github.com/orderly-pos/go-push-service/pkg/push"
)

// OrderEventTransformer unmarshals and validates a raw message payload into
// a push.OrderEvent.
//
// Malformed payloads return an error with skip=true so the StreamingService
// can handle the Nack/DLQ logic instead of retrying a poison pill forever.
func OrderEventTransformer(
	_ context.Context,
	msg *messagepipeline.Message,
) (*push.OrderEvent, bool, error) {
	var event push.OrderEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return nil, true, fmt.Errorf("failed to unmarshal order event from message %s: %w", msg.ID, err)
	}

	if event.UserID == "" || event.Message == "" {
		return nil, true, fmt.Errorf("order event %s is missing user_id or message", msg.ID)
	}

	return &event, false, nil
}
