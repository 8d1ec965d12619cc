// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Unrestricted system access, including management registration
	RoleAdmin UserRole = "ROLE_ADMIN"

	// Can moderate user content and review flagged accounts
	RoleModerator UserRole = "ROLE_MODERATOR"

	// Staff accounts created through the employee sign-up flow
	RoleEmployee UserRole = "ROLE_EMPLOYEE"

	// Default role for standard registered users
	RoleUser UserRole = "ROLE_USER"
)

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	return r.level() > 0
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {

	// Linear scale (10-40) allows for future intermediate roles
	switch r {
	case RoleAdmin:
		return 40
	case RoleModerator:
		return 30
	case RoleEmployee:
		return 20
	case RoleUser:
		return 10
	default:
		return 0
	}
}
