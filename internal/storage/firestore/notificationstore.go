package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/orderly-pos/go-push-service/pkg/push"
	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"
)

// NotificationStore implements push.NotificationStore.
//
// Layout: notifications/{id}, with user + created_at fields backing the
// newest-first per-user history query (composite index).
type NotificationStore struct {
	client *firestore.Client
}

func NewNotificationStore(client *firestore.Client) *NotificationStore {
	return &NotificationStore{client: client}
}

type notificationRecord struct {
	User      string    `firestore:"user"`
	Title     string    `firestore:"title"`
	Message   string    `firestore:"message"`
	Type      string    `firestore:"type"`
	ImageURL  string    `firestore:"image_url,omitempty"`
	IsRead    bool      `firestore:"is_read"`
	CreatedAt time.Time `firestore:"created_at"`
}

func (s *NotificationStore) Create(ctx context.Context, n *push.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	record := notificationRecord{
		User:      n.User.String(),
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		ImageURL:  n.ImageURL,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
	// Create (not Set) so a duplicate id fails loudly instead of silently
	// rewriting history.
	if _, err := s.col().Doc(n.ID).Create(ctx, record); err != nil {
		return fmt.Errorf("notification create failed: %w", err)
	}
	return nil
}

func (s *NotificationStore) ListByUser(ctx context.Context, user urn.URN, limit int) ([]push.Notification, error) {
	query := s.col().
		Where("user", "==", user.String()).
		OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	notifications := make([]push.Notification, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("notification iteration failed: %w", err)
		}

		var record notificationRecord
		if err := doc.DataTo(&record); err != nil {
			continue
		}
		notifications = append(notifications, toNotification(doc.Ref.ID, record))
	}
	return notifications, nil
}

func (s *NotificationStore) MarkRead(ctx context.Context, id string) error {
	ref := s.col().Doc(id)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return push.ErrNotFound
			}
			return err
		}
		var record notificationRecord
		if err := doc.DataTo(&record); err != nil {
			return err
		}
		if record.IsRead {
			// Already read: idempotent success.
			return nil
		}
		return tx.Update(ref, []firestore.Update{{Path: "is_read", Value: true}})
	})
	if err != nil {
		if status.Code(err) == codes.NotFound || err == push.ErrNotFound {
			return push.ErrNotFound
		}
		return fmt.Errorf("mark read failed: %w", err)
	}
	return nil
}

func (s *NotificationStore) MarkAllRead(ctx context.Context, user urn.URN) (int, error) {
	iter := s.col().
		Where("user", "==", user.String()).
		Where("is_read", "==", false).
		Documents(ctx)
	defer iter.Stop()

	modified := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return modified, fmt.Errorf("unread iteration failed: %w", err)
		}
		if _, err := doc.Ref.Update(ctx, []firestore.Update{{Path: "is_read", Value: true}}); err != nil {
			return modified, fmt.Errorf("mark all read failed: %w", err)
		}
		modified++
	}
	return modified, nil
}

// --- Helpers ---

func (s *NotificationStore) col() *firestore.CollectionRef {
	return s.client.Collection("notifications")
}

func toNotification(id string, record notificationRecord) push.Notification {
	user, _ := urn.Parse(record.User)
	return push.Notification{
		ID:        id,
		User:      user,
		Title:     record.Title,
		Message:   record.Message,
		Type:      record.Type,
		ImageURL:  record.ImageURL,
		IsRead:    record.IsRead,
		CreatedAt: record.CreatedAt,
	}
}
