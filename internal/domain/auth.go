package domain

// Role is the coarse role label stored on a user row. It is a cached
// projection of profile membership, kept in sync by ProfileService.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleAgent Role = "agent"
	RoleUser  Role = "user"
)

// Valid reports whether r is one of the known coarse roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAgent, RoleUser:
		return true
	}
	return false
}

// IsStaff reports whether the role may work tickets on behalf of others.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleAgent
}
