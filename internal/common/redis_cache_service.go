package common

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gatehouse/internal/logging"

	"github.com/redis/go-redis/v9"
)

const redisCacheTimeout = 2 * time.Second

// RedisCacheService keeps member role lists in Redis so several Gatehouse
// instances share one cache. Failures are logged and read as misses.
type RedisCacheService struct {
	client *redis.Client
	prefix string
}

func NewRedisCacheService(client *redis.Client, prefix string) *RedisCacheService {
	return &RedisCacheService{client: client, prefix: prefix}
}

func (r *RedisCacheService) key(userID string) string {
	return r.prefix + roleKey(userID)
}

func (r *RedisCacheService) Roles(userID string) ([]string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisCacheTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		logging.Warn("Role cache read failed", "user_id", userID, "error", err.Error())
		return nil, false
	}

	var roles []string
	if err := json.Unmarshal(data, &roles); err != nil {
		logging.Warn("Role cache entry unreadable, ignoring", "user_id", userID, "error", err.Error())
		return nil, false
	}
	return roles, true
}

func (r *RedisCacheService) StoreRoles(userID string, roles []string, ttl time.Duration) {
	if roles == nil {
		roles = []string{}
	}
	data, err := json.Marshal(roles)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisCacheTimeout)
	defer cancel()
	if err := r.client.Set(ctx, r.key(userID), data, ttl).Err(); err != nil {
		logging.Warn("Role cache write failed", "user_id", userID, "error", err.Error())
	}
}

func (r *RedisCacheService) ForgetRoles(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), redisCacheTimeout)
	defer cancel()
	if err := r.client.Del(ctx, r.key(userID)).Err(); err != nil {
		logging.Warn("Role cache delete failed", "user_id", userID, "error", err.Error())
	}
}
