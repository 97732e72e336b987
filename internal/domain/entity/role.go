package entity

// Role is the authorization level of an account.
type Role string

const (
	// RoleUser is the role of every newly registered account.
	RoleUser Role = "user"
	// RoleAdmin may curate the food catalog.
	RoleAdmin Role = "admin"
)

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// RoleOrDefault maps an empty or unknown stored value to RoleUser, so a row
// written before roles existed never gains privileges.
func RoleOrDefault(s string) Role {
	role := Role(s)
	if !role.IsValid() {
		return RoleUser
	}

	return role
}
