package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RefreshStore records which refresh token is currently live for a user.
type RefreshStore interface {
	Put(ctx context.Context, userID int64, jti string, ttl time.Duration) error
	Get(ctx context.Context, userID int64) (string, error)
	Delete(ctx context.Context, userID int64) error
}

// RedisRefreshStore keeps one jti per user under refresh:<id> with a TTL
// matching the refresh-token lifetime. Rotation overwrites the key, which
// revokes every previously issued refresh token for that user; logout
// deletes it outright.
type RedisRefreshStore struct {
	client *redis.Client
}

func NewRedisRefreshStore(client *redis.Client) *RedisRefreshStore {
	return &RedisRefreshStore{client: client}
}

var _ RefreshStore = (*RedisRefreshStore)(nil)

func refreshKey(userID int64) string {
	return fmt.Sprintf("refresh:%d", userID)
}

func (s *RedisRefreshStore) Put(ctx context.Context, userID int64, jti string, ttl time.Duration) error {
	return s.client.Set(ctx, refreshKey(userID), jti, ttl).Err()
}

func (s *RedisRefreshStore) Get(ctx context.Context, userID int64) (string, error) {
	val, err := s.client.Get(ctx, refreshKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return val, nil
}

func (s *RedisRefreshStore) Delete(ctx context.Context, userID int64) error {
	return s.client.Del(ctx, refreshKey(userID)).Err()
}
