package common

import (
	"time"

	"gatehouse/internal/constants"
)

// RoleCache holds Discord member role lists by user id for the priority
// classifier and session tiers. CacheService keeps them in process and
// RedisCacheService shares them between instances.
type RoleCache interface {
	Roles(userID string) ([]string, bool)
	StoreRoles(userID string, roles []string, ttl time.Duration)
	ForgetRoles(userID string)
}

var (
	_ RoleCache = (*CacheService)(nil)
	_ RoleCache = (*RedisCacheService)(nil)
)

func roleKey(userID string) string {
	return string(constants.CachePrefixMemberRoles) + userID
}

func (cs *CacheService) Roles(userID string) ([]string, bool) {
	v, ok := cs.cache.Get(roleKey(userID))
	if !ok {
		return nil, false
	}
	roles, ok := v.([]string)
	return roles, ok
}

func (cs *CacheService) StoreRoles(userID string, roles []string, ttl time.Duration) {
	cs.cache.Set(roleKey(userID), roles, ttl)
}

func (cs *CacheService) ForgetRoles(userID string) {
	cs.cache.Delete(roleKey(userID))
}
