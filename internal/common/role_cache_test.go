package common

import (
	"testing"
	"time"
)

func TestCacheService_Roles(t *testing.T) {
	cache := NewCacheService(time.Minute, time.Minute)

	if _, ok := cache.Roles("7"); ok {
		t.Fatal("Expected miss on empty cache")
	}
	cache.StoreRoles("7", []string{"a", "b"}, time.Minute)

	roles, ok := cache.Roles("7")
	if !ok || len(roles) != 2 || roles[0] != "a" {
		t.Errorf("Expected [a b], got %v", roles)
	}

	cache.ForgetRoles("7")
	if _, ok := cache.Roles("7"); ok {
		t.Error("Expected miss after forget")
	}
}

func TestRedisCacheService_Roles(t *testing.T) {
	mr, client := setupRedis(t)
	cache := NewRedisCacheService(client, "test:")

	cache.StoreRoles("7", []string{"a", "b"}, time.Minute)
	if !mr.Exists("test:ROLES_7") {
		t.Fatal("Expected prefixed key in redis")
	}
	if ttl := mr.TTL("test:ROLES_7"); ttl != time.Minute {
		t.Errorf("Expected 1m ttl, got %v", ttl)
	}

	roles, ok := cache.Roles("7")
	if !ok || len(roles) != 2 || roles[1] != "b" {
		t.Errorf("Expected [a b], got %v", roles)
	}

	cache.ForgetRoles("7")
	if _, ok := cache.Roles("7"); ok {
		t.Error("Expected miss after forget")
	}
}

func TestRedisCacheService_EmptyRoleListIsAHit(t *testing.T) {
	_, client := setupRedis(t)
	cache := NewRedisCacheService(client, "test:")

	cache.StoreRoles("8", nil, time.Minute)
	roles, ok := cache.Roles("8")
	if !ok || len(roles) != 0 {
		t.Errorf("Expected cached empty list, got %v / %v", roles, ok)
	}
}

func TestRedisCacheService_CorruptEntryIsAMiss(t *testing.T) {
	mr, client := setupRedis(t)
	cache := NewRedisCacheService(client, "test:")

	if err := mr.Set("test:ROLES_9", "not json"); err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}
	if _, ok := cache.Roles("9"); ok {
		t.Error("Expected unreadable entry to read as a miss")
	}
}

func TestRoleSet(t *testing.T) {
	set := NewRoleSet([]string{"1", " ", "2"})

	if !set.Intersects([]string{"x", "2"}) {
		t.Error("Expected intersection")
	}
	if set.Intersects(nil) {
		t.Error("Expected no intersection with nil")
	}
	if !NewRoleSet(nil).Empty() {
		t.Error("Expected empty set")
	}
}
