package enums

import (
	"fmt"
	"strings"
)

// Role is the authorization tier of a user.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleStoreUser Role = "store_user"
)

var validRoles = []Role{
	RoleAdmin,
	RoleStoreUser,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole accepts the canonical value case-insensitively.
func ParseRole(value string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validRoles {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
