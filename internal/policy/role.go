package policy

import (
	"fmt"
	"strings"
)

// Role is the closed set of roles a profile can hold.
type Role int

const (
	// RoleUnknown is the zero value and never authorises anything.
	RoleUnknown Role = iota
	RoleAdmin
	RoleTeacher
	RoleStudent
	RoleSupport
)

var roleNames = map[Role]string{
	RoleAdmin:   "admin",
	RoleTeacher: "leerkracht",
	RoleStudent: "leerling",
	RoleSupport: "support",
}

// Roles lists every assignable role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleTeacher, RoleStudent, RoleSupport}
}

// String returns the value stored in the profiles.role column.
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}

// ParseRole converts a stored role string. English aliases are accepted for tokens minted by
// other services.
func ParseRole(value string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "admin":
		return RoleAdmin, nil
	case "leerkracht", "teacher":
		return RoleTeacher, nil
	case "leerling", "student":
		return RoleStudent, nil
	case "support", "support_staff", "support-staff":
		return RoleSupport, nil
	default:
		return RoleUnknown, fmt.Errorf("unknown role %q", value)
	}
}

// IsStaff reports whether the role may author knowledge-base content.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleTeacher
}

// Identity is the authenticated principal a decision is made for.
type Identity struct {
	UserID  string
	Role    Role
	Service bool
}

// ServiceIdentity returns the elevated credential used by trusted server-side flows.
func ServiceIdentity() Identity {
	return Identity{UserID: "service", Service: true}
}

// known reports whether the identity is an end user holding one of the assignable roles.
func (i Identity) known() bool {
	return i.UserID != "" && i.Role != RoleUnknown
}

// IsAdmin reports whether the identity is an end-user admin.
func (i Identity) IsAdmin() bool {
	return !i.Service && i.Role == RoleAdmin
}
