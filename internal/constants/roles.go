package constants

// AccessLevel is the permission tier resolved from a member's Discord roles.
type AccessLevel string

const (
	AccessMember AccessLevel = "member"
	AccessStaff  AccessLevel = "staff"
	AccessAdmin  AccessLevel = "admin"
)

// Stringer, convenient for fmt / logs
func (a AccessLevel) String() string { return string(a) }

// AtLeast reports whether a grants everything min grants.
func (a AccessLevel) AtLeast(min AccessLevel) bool {
	rank := map[AccessLevel]int{AccessMember: 0, AccessStaff: 1, AccessAdmin: 2}
	return rank[a] >= rank[min]
}
