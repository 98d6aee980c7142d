package pipeline_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderly-pos/go-push-service/internal/pipeline"
	"github.com/orderly-pos/go-push-service/pkg/push"
)

func TestOrderEventTransformer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	validPayload, err := json.Marshal(push.OrderEvent{
		UserID:  "urn:pos:user:user-123",
		Title:   "Order confirmed",
		Message: "Your latte is being prepared",
		Type:    "order_status",
		Data:    map[string]string{"order_id": "o-42"},
	})
	require.NoError(t, err)

	missingUserPayload, err := json.Marshal(push.OrderEvent{
		Message: "orphan event",
	})
	require.NoError(t, err)

	missingMessagePayload, err := json.Marshal(push.OrderEvent{
		UserID: "urn:pos:user:user-123",
	})
	require.NoError(t, err)

	testCases := []struct {
		name                  string
		inputMessage          *messagepipeline.Message
		expectError           bool
		expectedErrorContains string
	}{
		{
			name: "Happy Path - Valid Event",
			inputMessage: &messagepipeline.Message{
				MessageData: messagepipeline.MessageData{ID: "msg-1", Payload: validPayload},
			},
			expectError: false,
		},
		{
			name: "Failure - Malformed JSON",
			inputMessage: &messagepipeline.Message{
				MessageData: messagepipeline.MessageData{ID: "msg-2", Payload: []byte("not-json")},
			},
			expectError:           true,
			expectedErrorContains: "failed to unmarshal order event",
		},
		{
			name: "Failure - Missing User",
			inputMessage: &messagepipeline.Message{
				MessageData: messagepipeline.MessageData{ID: "msg-3", Payload: missingUserPayload},
			},
			expectError:           true,
			expectedErrorContains: "missing user_id or message",
		},
		{
			name: "Failure - Missing Message Body",
			inputMessage: &messagepipeline.Message{
				MessageData: messagepipeline.MessageData{ID: "msg-4", Payload: missingMessagePayload},
			},
			expectError:           true,
			expectedErrorContains: "missing user_id or message",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			event, skip, err := pipeline.OrderEventTransformer(ctx, tc.inputMessage)

			if tc.expectError {
				require.Error(t, err)
				assert.True(t, skip)
				assert.Contains(t, err.Error(), tc.expectedErrorContains)
			} else {
				assert.NoError(t, err)
				assert.False(t, skip)
				require.NotNil(t, event)
				assert.Equal(t, "urn:pos:user:user-123", event.UserID)
				assert.Equal(t, "o-42", event.Data["order_id"])
			}
		})
	}
}
