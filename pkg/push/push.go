// Package push contains the public interfaces and domain models for the
// push-notification service: device tokens, persisted notifications, and the
// contracts the storage and gateway layers implement.
package push

import (
	"time"

	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"
)

// Platform identifies the client push SDK a device token was issued by.
type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
	PlatformWeb     Platform = "web"
)

// ParsePlatform normalizes a client-supplied device type. Unknown or empty
// values fall back to android, matching the registration default.
func ParsePlatform(s string) Platform {
	switch Platform(s) {
	case PlatformIOS:
		return PlatformIOS
	case PlatformWeb:
		return PlatformWeb
	default:
		return PlatformAndroid
	}
}

// DeviceToken is one registered device for a user. Token is opaque to us;
// for web devices it carries the marshaled push subscription JSON.
type DeviceToken struct {
	Token      string    `json:"token"`
	Platform   Platform  `json:"device_type"`
	LastUsedAt time.Time `json:"last_used_at"`
}

// Notification is a persisted per-user notification record. It is written
// once and afterwards only its read state changes.
type Notification struct {
	ID        string    `json:"id"`
	User      urn.URN   `json:"user"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	ImageURL  string    `json:"image_url,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is the displayable content handed to a gateway.
type Message struct {
	Title    string
	Body     string
	ImageURL string
}

// NotificationInput is the caller-supplied part of a new notification.
type NotificationInput struct {
	Title    string
	Message  string
	Type     string
	ImageURL string
	// Data is an opaque key/value payload forwarded to the devices.
	Data map[string]string
}

// RegisterAction reports whether a registration created a new entry or
// refreshed an existing one.
type RegisterAction string

const (
	ActionCreated RegisterAction = "created"
	ActionUpdated RegisterAction = "updated"
)

// RegisterResult is returned by the token registry after a mutation.
type RegisterResult struct {
	Tokens []DeviceToken  `json:"tokens"`
	Action RegisterAction `json:"action,omitempty"`
}

// DispatchResult aggregates the per-token outcomes of one fan-out.
// Success means at least one device acknowledged delivery.
type DispatchResult struct {
	Success      bool     `json:"success"`
	SuccessCount int      `json:"success_count"`
	FailureCount int      `json:"failure_count"`
	TotalTokens  int      `json:"total_tokens"`
	PrunedTokens []string `json:"pruned_tokens,omitempty"`
	Reason       string   `json:"reason,omitempty"`
}

// OrderEvent is the business event consumed from the ingestion pipeline
// (e.g. an order confirmation published by the POS backend).
type OrderEvent struct {
	UserID   string            `json:"user_id"`
	Title    string            `json:"title"`
	Message  string            `json:"message"`
	Type     string            `json:"type"`
	ImageURL string            `json:"image_url,omitempty"`
	Data     map[string]string `json:"data,omitempty"`
}
