package push

import (
	"context"

	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"
)

// TokenStore is the persistence contract for device tokens.
// It owns the uniqueness invariant: at most one entry per (user, token).
type TokenStore interface {
	// Register upserts a token for a user and reports whether the entry was
	// created or refreshed. The upsert is atomic per (user, token) key.
	Register(ctx context.Context, user urn.URN, token DeviceToken) (RegisterAction, error)

	// Deregister removes a token from a user's device list. Removing a token
	// that is not present is not an error.
	Deregister(ctx context.Context, user urn.URN, token string) error

	// List returns every token registered for a user, empty if none.
	List(ctx context.Context, user urn.URN) ([]DeviceToken, error)

	// Prune removes the token value from every user holding it and returns
	// the affected owners. Used after a gateway reports a token as dead.
	Prune(ctx context.Context, token string) ([]urn.URN, error)
}

// NotificationStore is the persistence contract for notification history.
type NotificationStore interface {
	// Create persists a new notification record exactly once.
	Create(ctx context.Context, n *Notification) error

	// ListByUser returns a user's notifications, newest first.
	// A limit <= 0 means no limit.
	ListByUser(ctx context.Context, user urn.URN, limit int) ([]Notification, error)

	// MarkRead transitions a notification to read. Marking an already-read
	// notification is a no-op; a missing id returns ErrNotFound.
	MarkRead(ctx context.Context, id string) error

	// MarkAllRead marks every unread notification for a user and returns the
	// number of records mutated.
	MarkAllRead(ctx context.Context, user urn.URN) (int, error)
}

// Gateway delivers one message to one device token. Implementations wrap
// permanently-undeliverable failures with ErrInvalidToken so the dispatcher
// can prune; any other error is treated as transient.
type Gateway interface {
	Send(ctx context.Context, token DeviceToken, msg Message, data map[string]string) (string, error)
}
