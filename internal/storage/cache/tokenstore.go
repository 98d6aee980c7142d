// Package cache adds a Redis read-aside layer in front of the token store.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/orderly-pos/go-push-service/pkg/push"
	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"
)

// CacheClient defines the subset of Redis commands we need.
type CacheClient interface {
	// Get returns the value or a specific error if not found.
	Get(ctx context.Context, key string, dest interface{}) error
	// Set stores the value with a TTL.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Del removes the key.
	Del(ctx context.Context, key string) error
}

// CachedTokenStore is a decorator that adds read-aside caching to any
// push.TokenStore. Writes go to the real store first, then invalidate, so a
// removed device stops receiving notifications immediately.
type CachedTokenStore struct {
	realStore push.TokenStore
	cache     CacheClient
	ttl       time.Duration
}

func NewCachedTokenStore(realStore push.TokenStore, cache CacheClient, ttl time.Duration) *CachedTokenStore {
	return &CachedTokenStore{
		realStore: realStore,
		cache:     cache,
		ttl:       ttl,
	}
}

// --- READ PATH (Read-Aside) ---

func (s *CachedTokenStore) List(ctx context.Context, user urn.URN) ([]push.DeviceToken, error) {
	key := s.cacheKey(user)

	var cached []push.DeviceToken
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	fresh, err := s.realStore.List(ctx, user)
	if err != nil {
		return nil, err
	}

	// Populate cache fire-and-forget: caching is an optimization, not a
	// transaction. If Redis is down we just serve from the store.
	_ = s.cache.Set(ctx, key, fresh, s.ttl)

	return fresh, nil
}

// --- WRITE PATHS (Invalidate-on-Write) ---

func (s *CachedTokenStore) Register(ctx context.Context, user urn.URN, token push.DeviceToken) (push.RegisterAction, error) {
	action, err := s.realStore.Register(ctx, user, token)
	if err != nil {
		return action, err
	}
	return action, s.invalidate(ctx, user)
}

func (s *CachedTokenStore) Deregister(ctx context.Context, user urn.URN, token string) error {
	if err := s.realStore.Deregister(ctx, user, token); err != nil {
		return err
	}
	return s.invalidate(ctx, user)
}

// Prune invalidates every owner the sweep touched, not just one user.
func (s *CachedTokenStore) Prune(ctx context.Context, token string) ([]urn.URN, error) {
	owners, err := s.realStore.Prune(ctx, token)
	for _, owner := range owners {
		_ = s.invalidate(ctx, owner)
	}
	return owners, err
}

// --- Helpers ---

func (s *CachedTokenStore) invalidate(ctx context.Context, user urn.URN) error {
	// The next List is forced back to the source of truth.
	return s.cache.Del(ctx, s.cacheKey(user))
}

func (s *CachedTokenStore) cacheKey(user urn.URN) string {
	return fmt.Sprintf("push:tokens:%s", user.String())
}
