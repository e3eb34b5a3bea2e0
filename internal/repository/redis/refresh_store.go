package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/reelhouse/reelhouse/internal/domain/auth"
)

var _ auth.RefreshTokenStore = (*RefreshTokenStore)(nil)

// RefreshTokenStore keeps one refresh-credential hash per user under
// "userId:<id>:refreshToken". SET with an expiry is a single command, so the
// value can never be observed without its TTL.
type RefreshTokenStore struct {
	client *Client
}

func NewRefreshTokenStore(client *Client) *RefreshTokenStore {
	return &RefreshTokenStore{client: client}
}

func refreshKey(userID int64) string {
	return fmt.Sprintf("userId:%d:refreshToken", userID)
}

func (s *RefreshTokenStore) Put(ctx context.Context, userID int64, hashedSecret string, ttl time.Duration) error {
	if err := s.client.Set(ctx, refreshKey(userID), hashedSecret, ttl).Err(); err != nil {
		return fmt.Errorf("refresh put: %w", err)
	}
	return nil
}

func (s *RefreshTokenStore) Get(ctx context.Context, userID int64) (string, error) {
	val, err := s.client.Get(ctx, refreshKey(userID)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", auth.ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("refresh get: %w", err)
	}
	return val, nil
}

func (s *RefreshTokenStore) Delete(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, refreshKey(userID)).Err(); err != nil {
		return fmt.Errorf("refresh delete: %w", err)
	}
	return nil
}
