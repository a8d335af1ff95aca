package enums

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role identifies which side of the marketplace an account participates on.
// Roles are mutually exclusive and fixed at registration.
type Role string

const (
	RoleBrand      Role = "brand"
	RoleInfluencer Role = "influencer"
)

var validRoles = []Role{
	RoleBrand,
	RoleInfluencer,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// Label is the display name of the role. Unknown values render as "Guest".
func (r Role) Label() string {
	switch r {
	case RoleBrand:
		return "Brand"
	case RoleInfluencer:
		return "Influencer"
	default:
		return "Guest"
	}
}

// UnmarshalJSON accepts any casing of the role tag.
func (r *Role) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("role must be a string: %w", err)
	}
	if parsed, err := ParseRole(raw); err == nil {
		*r = parsed
		return nil
	}
	*r = Role(strings.ToLower(strings.TrimSpace(raw)))
	return nil
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

// ParseRole converts raw input into a Role. Matching is case-insensitive so the
// backend's "Brand" / "Influencer" variant tags parse as well.
func ParseRole(value string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validRoles {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}

// Roles returns every known role in declaration order.
func Roles() []Role {
	out := make([]Role, len(validRoles))
	copy(out, validRoles)
	return out
}
