package models

// Role is the closed set of account roles.
type Role string

const (
	RoleUser   Role = "user"
	RoleAdmin  Role = "admin"
	RoleBanned Role = "banned"
)

// Valid reports whether r is one of the known roles. Anything else coming
// out of storage is treated as a bad record, not a new role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleBanned:
		return true
	}
	return false
}
