package notify_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"

	"github.com/orderly-pos/go-push-service/internal/notify"
	"github.com/orderly-pos/go-push-service/pkg/push"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Mocks ---

type mockNotificationStore struct {
	mock.Mock
}

func (m *mockNotificationStore) Create(ctx context.Context, n *push.Notification) error {
	return m.Called(ctx, n).Error(0)
}
func (m *mockNotificationStore) ListByUser(ctx context.Context, user urn.URN, limit int) ([]push.Notification, error) {
	args := m.Called(ctx, user, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]push.Notification), args.Error(1)
}
func (m *mockNotificationStore) MarkRead(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockNotificationStore) MarkAllRead(ctx context.Context, user urn.URN) (int, error) {
	args := m.Called(ctx, user)
	return args.Int(0), args.Error(1)
}

type mockTokenStore struct {
	mock.Mock
}

func (m *mockTokenStore) Register(ctx context.Context, user urn.URN, token push.DeviceToken) (push.RegisterAction, error) {
	args := m.Called(ctx, user, token)
	return args.Get(0).(push.RegisterAction), args.Error(1)
}
func (m *mockTokenStore) Deregister(ctx context.Context, user urn.URN, token string) error {
	return m.Called(ctx, user, token).Error(0)
}
func (m *mockTokenStore) List(ctx context.Context, user urn.URN) ([]push.DeviceToken, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]push.DeviceToken), args.Error(1)
}
func (m *mockTokenStore) Prune(ctx context.Context, token string) ([]urn.URN, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]urn.URN), args.Error(1)
}

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) SendToUser(ctx context.Context, user urn.URN, msg push.Message, data map[string]string) (*push.DispatchResult, error) {
	args := m.Called(ctx, user, msg, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*push.DispatchResult), args.Error(1)
}

func TestCreateAndDispatch(t *testing.T) {
	ctx := context.Background()
	user, _ := urn.Parse("urn:pos:user:notify-1")
	input := push.NotificationInput{
		Title:   "Order ready",
		Message: "Table 4 is up",
		Type:    "order_status",
		Data:    map[string]string{"order_id": "o-77"},
	}

	oneToken := []push.DeviceToken{{Token: "tok-1", Platform: push.PlatformAndroid}}

	t.Run("No Devices Means Nothing Persisted", func(t *testing.T) {
		notifications := new(mockNotificationStore)
		tokens := new(mockTokenStore)
		dispatcher := new(mockDispatcher)
		tokens.On("List", mock.Anything, user).Return([]push.DeviceToken{}, nil)

		svc := notify.NewService(notifications, tokens, dispatcher, newTestLogger())
		n, result, err := svc.CreateAndDispatch(ctx, user, input)

		require.ErrorIs(t, err, push.ErrNoTokens)
		assert.Nil(t, n)
		assert.Nil(t, result)
		notifications.AssertNotCalled(t, "Create")
		dispatcher.AssertNotCalled(t, "SendToUser")
	})

	t.Run("Persists Then Dispatches With Tracking Data", func(t *testing.T) {
		notifications := new(mockNotificationStore)
		tokens := new(mockTokenStore)
		dispatcher := new(mockDispatcher)

		tokens.On("List", mock.Anything, user).Return(oneToken, nil)
		notifications.On("Create", mock.Anything, mock.MatchedBy(func(n *push.Notification) bool {
			return n.ID != "" && n.Title == input.Title && !n.IsRead && !n.CreatedAt.IsZero()
		})).Return(nil)
		dispatcher.On("SendToUser", mock.Anything, user,
			push.Message{Title: input.Title, Body: input.Message},
			mock.MatchedBy(func(data map[string]string) bool {
				return data["order_id"] == "o-77" && data["notification_id"] != "" && data["type"] == "order_status"
			}),
		).Return(&push.DispatchResult{Success: true, SuccessCount: 1, TotalTokens: 1}, nil)

		svc := notify.NewService(notifications, tokens, dispatcher, newTestLogger())
		n, result, err := svc.CreateAndDispatch(ctx, user, input)

		require.NoError(t, err)
		require.NotNil(t, n)
		assert.Equal(t, user, n.User)
		assert.True(t, result.Success)
		notifications.AssertExpectations(t)
		dispatcher.AssertExpectations(t)
	})

	t.Run("Dispatch Failure Does Not Roll Back The Record", func(t *testing.T) {
		notifications := new(mockNotificationStore)
		tokens := new(mockTokenStore)
		dispatcher := new(mockDispatcher)

		tokens.On("List", mock.Anything, user).Return(oneToken, nil)
		notifications.On("Create", mock.Anything, mock.Anything).Return(nil)
		dispatcher.On("SendToUser", mock.Anything, user, mock.Anything, mock.Anything).
			Return(nil, errors.New("gateway unreachable"))

		svc := notify.NewService(notifications, tokens, dispatcher, newTestLogger())
		n, result, err := svc.CreateAndDispatch(ctx, user, input)

		require.NoError(t, err)
		require.NotNil(t, n)
		require.NotNil(t, result)
		assert.False(t, result.Success)
		assert.Equal(t, "gateway unreachable", result.Reason)
	})

	t.Run("Persist Failure Aborts The Dispatch", func(t *testing.T) {
		notifications := new(mockNotificationStore)
		tokens := new(mockTokenStore)
		dispatcher := new(mockDispatcher)

		tokens.On("List", mock.Anything, user).Return(oneToken, nil)
		notifications.On("Create", mock.Anything, mock.Anything).Return(errors.New("firestore write failed"))

		svc := notify.NewService(notifications, tokens, dispatcher, newTestLogger())
		_, _, err := svc.CreateAndDispatch(ctx, user, input)

		require.Error(t, err)
		dispatcher.AssertNotCalled(t, "SendToUser")
	})

	t.Run("Token Lookup Failure Is Not ErrNoTokens", func(t *testing.T) {
		notifications := new(mockNotificationStore)
		tokens := new(mockTokenStore)
		dispatcher := new(mockDispatcher)

		tokens.On("List", mock.Anything, user).Return(nil, errors.New("firestore unavailable"))

		svc := notify.NewService(notifications, tokens, dispatcher, newTestLogger())
		_, _, err := svc.CreateAndDispatch(ctx, user, input)

		require.Error(t, err)
		assert.NotErrorIs(t, err, push.ErrNoTokens)
		notifications.AssertNotCalled(t, "Create")
	})
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	user, _ := urn.Parse("urn:pos:user:notify-2")

	notifications := new(mockNotificationStore)
	notifications.On("ListByUser", mock.Anything, user, 20).Return([]push.Notification{
		{ID: "n-2", Title: "Second"},
		{ID: "n-1", Title: "First"},
	}, nil)

	svc := notify.NewService(notifications, new(mockTokenStore), new(mockDispatcher), newTestLogger())
	history, err := svc.History(ctx, user, 20)

	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "n-2", history[0].ID)
}

func TestMarkRead(t *testing.T) {
	ctx := context.Background()

	t.Run("Passes Through", func(t *testing.T) {
		notifications := new(mockNotificationStore)
		notifications.On("MarkRead", mock.Anything, "n-1").Return(nil)

		svc := notify.NewService(notifications, new(mockTokenStore), new(mockDispatcher), newTestLogger())
		require.NoError(t, svc.MarkRead(ctx, "n-1"))
	})

	t.Run("Unknown ID Surfaces Not Found", func(t *testing.T) {
		notifications := new(mockNotificationStore)
		notifications.On("MarkRead", mock.Anything, "ghost").Return(push.ErrNotFound)

		svc := notify.NewService(notifications, new(mockTokenStore), new(mockDispatcher), newTestLogger())
		require.ErrorIs(t, svc.MarkRead(ctx, "ghost"), push.ErrNotFound)
	})
}

func TestMarkAllRead(t *testing.T) {
	ctx := context.Background()
	user, _ := urn.Parse("urn:pos:user:notify-3")

	notifications := new(mockNotificationStore)
	notifications.On("MarkAllRead", mock.Anything, user).Return(3, nil)

	svc := notify.NewService(notifications, new(mockTokenStore), new(mockDispatcher), newTestLogger())
	count, err := svc.MarkAllRead(ctx, user)

	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
