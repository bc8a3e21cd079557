package common

import (
	"fmt"
	"time"
)

func GetResponseTime(init time.Time) string {
	timeDiff := time.Since(init).Milliseconds()
	return fmt.Sprintf("%dms", timeDiff)
}

// RoleSet is a set of Discord role ids.
type RoleSet map[string]struct{}

func NewRoleSet(ids []string) RoleSet {
	set := make(RoleSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Intersects reports whether any of roles is in the set.
func (s RoleSet) Intersects(roles []string) bool {
	for _, r := range roles {
		if _, ok := s[r]; ok {
			return true
		}
	}
	return false
}

func (s RoleSet) Empty() bool { return len(s) == 0 }

// Ptr returns a pointer to v, or nil for the zero value.
func Ptr[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}
