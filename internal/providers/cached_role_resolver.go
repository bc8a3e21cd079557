package providers

import (
	"context"
	"time"

	"gatehouse/internal/common"
	"gatehouse/internal/metrics"

	"golang.org/x/sync/singleflight"
)

// CachedRoleResolver keeps recent role lookups and collapses concurrent
// lookups for the same user into one upstream call.
type CachedRoleResolver struct {
	next    RoleResolver
	cache   common.RoleCache
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.MetricsRegistry
}

var _ RoleResolver = (*CachedRoleResolver)(nil)

func NewCachedRoleResolver(next RoleResolver, cache common.RoleCache, ttl time.Duration, m *metrics.MetricsRegistry) *CachedRoleResolver {
	return &CachedRoleResolver{next: next, cache: cache, ttl: ttl, metrics: m}
}

func (c *CachedRoleResolver) MemberRoles(ctx context.Context, userID string) ([]string, error) {
	if roles, ok := c.cache.Roles(userID); ok {
		c.metrics.CacheHit("member_roles")
		return roles, nil
	}
	c.metrics.CacheMiss("member_roles")

	v, err, _ := c.group.Do(userID, func() (interface{}, error) {
		roles, err := c.next.MemberRoles(ctx, userID)
		if err != nil {
			return nil, err
		}
		c.cache.StoreRoles(userID, roles, c.ttl)
		return roles, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// Invalidate drops the cached roles, used after login so a fresh session
// never starts from stale roles.
func (c *CachedRoleResolver) Invalidate(userID string) {
	c.cache.ForgetRoles(userID)
}
