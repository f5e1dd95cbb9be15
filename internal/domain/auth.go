package domain

import (
	"strings"
	"time"
)

// Role differentiates admin and employee accounts.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// ParseRole normalizes a raw role value. Unknown roles are rejected.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleEmployee:
		return RoleEmployee, true
	default:
		return "", false
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

func (r Role) String() string {
	return string(r)
}

// Claims is the decoded content of a session token.
type Claims struct {
	SubjectID string
	Role      Role
	Name      string
	ExpiresAt time.Time
}

// Expired reports whether the token is no longer usable at now.
// A token expiring exactly at now counts as expired.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}
