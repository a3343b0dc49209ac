package domain

// Role is the fixed set of authorization roles. There is no role hierarchy;
// authorization decisions compare against exactly one required role.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleStaff   Role = "STAFF"
)

// Valid reports whether the role is one of the enumerated values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }
