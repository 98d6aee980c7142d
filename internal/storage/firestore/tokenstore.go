// Package firestore implements the push persistence contracts on Google
// Cloud Firestore.
package firestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/orderly-pos/go-push-service/pkg/push"
	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"
)

// TokenStore implements push.TokenStore.
//
// Layout: users/{user}/devices/{sha256(token)}. Keying the document by the
// token hash makes Register a single atomic Set per (user, token): two
// concurrent registrations of the same token land on the same document, so
// the uniqueness invariant holds without a read-modify-write of the whole
// list.
type TokenStore struct {
	client *firestore.Client
}

func NewTokenStore(client *firestore.Client) *TokenStore {
	return &TokenStore{client: client}
}

// deviceRecord is the internal DB representation of one registered device.
type deviceRecord struct {
	Token      string    `firestore:"token"`
	Platform   string    `firestore:"platform"`
	LastUsedAt time.Time `firestore:"last_used_at"`
}

func (s *TokenStore) Register(ctx context.Context, user urn.URN, token push.DeviceToken) (push.RegisterAction, error) {
	ref := s.deviceRef(user, hashToken(token.Token))

	// The existence check is informational only (created vs updated); the
	// Set below is the atomic upsert either way.
	action := push.ActionUpdated
	if _, err := ref.Get(ctx); err != nil {
		if status.Code(err) != codes.NotFound {
			return "", fmt.Errorf("device lookup failed: %w", err)
		}
		action = push.ActionCreated
	}

	record := deviceRecord{
		Token:      token.Token,
		Platform:   string(token.Platform),
		LastUsedAt: token.LastUsedAt,
	}
	if _, err := ref.Set(ctx, record); err != nil {
		return "", fmt.Errorf("device upsert failed: %w", err)
	}
	return action, nil
}

func (s *TokenStore) Deregister(ctx context.Context, user urn.URN, token string) error {
	// Delete is a no-op for missing documents, which gives us idempotency
	// for free.
	if _, err := s.deviceRef(user, hashToken(token)).Delete(ctx); err != nil {
		return fmt.Errorf("device delete failed: %w", err)
	}
	return nil
}

func (s *TokenStore) List(ctx context.Context, user urn.URN) ([]push.DeviceToken, error) {
	iter := s.devicesCollection(user).Documents(ctx)
	defer iter.Stop()

	tokens := make([]push.DeviceToken, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("device iteration failed: %w", err)
		}

		var record deviceRecord
		if err := doc.DataTo(&record); err != nil {
			// Corrupt rows are skipped rather than failing the whole list.
			continue
		}
		if record.Token == "" {
			continue
		}
		tokens = append(tokens, push.DeviceToken{
			Token:      record.Token,
			Platform:   push.ParsePlatform(record.Platform),
			LastUsedAt: record.LastUsedAt,
		})
	}
	return tokens, nil
}

// Prune deletes every copy of the token value across all users via a
// collection-group query, so a token reported dead by a gateway stops being
// targeted regardless of which profile it ended up on.
func (s *TokenStore) Prune(ctx context.Context, token string) ([]urn.URN, error) {
	iter := s.client.CollectionGroup("devices").
		Where("token", "==", token).
		Documents(ctx)
	defer iter.Stop()

	var owners []urn.URN
	seen := make(map[string]bool)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return owners, fmt.Errorf("device sweep failed: %w", err)
		}

		if userDoc := doc.Ref.Parent.Parent; userDoc != nil && !seen[userDoc.ID] {
			seen[userDoc.ID] = true
			if owner, err := urn.Parse(userDoc.ID); err == nil {
				owners = append(owners, owner)
			}
		}
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return owners, fmt.Errorf("device prune delete failed: %w", err)
		}
	}
	return owners, nil
}

// --- Helpers ---

// deviceRef: users/{user}/devices/{tokenHash}
func (s *TokenStore) deviceRef(user urn.URN, docID string) *firestore.DocumentRef {
	return s.devicesCollection(user).Doc(docID)
}

func (s *TokenStore) devicesCollection(user urn.URN) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(user.String()).Collection("devices")
}

// hashToken keys device documents to prevent duplicates and hot-spotting.
func hashToken(t string) string {
	sum := sha256.Sum256([]byte(t))
	return hex.EncodeToString(sum[:])
}
