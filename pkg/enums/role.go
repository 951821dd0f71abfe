package enums

import "fmt"

// Role is the closed set of account roles.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
)

var validRoles = []Role{
	RoleCustomer,
	RoleVendor,
	RoleAdmin,
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

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}

// IsVendorOrAdmin is the capability check for catalog, order and billing management.
func (r Role) IsVendorOrAdmin() bool {
	return r == RoleVendor || r == RoleAdmin
}

// IsAdmin reports whether the role has unrestricted scope.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// SelfService reports whether the role may be chosen at registration.
func (r Role) SelfService() bool {
	return r == RoleCustomer || r == RoleVendor
}
