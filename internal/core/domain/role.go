package domain

// Role is the privilege tier assigned to an account.
type Role string

const (
	RoleUser     Role = "User"
	RoleDesigner Role = "Designer"
	RoleAdmin    Role = "Admin"
)

// roleRanking defines the total order of roles, lowest first.
var roleRanking = []Role{RoleUser, RoleDesigner, RoleAdmin}

// ParseRole maps a textual role name onto a Role. Unknown names fall
// back to the least privileged role.
func ParseRole(name string) Role {
	for _, r := range roleRanking {
		if string(r) == name {
			return r
		}
	}
	return RoleUser
}

// Rank returns the position of the role in the privilege order.
func (r Role) Rank() int {
	for i, candidate := range roleRanking {
		if candidate == r {
			return i
		}
	}
	return 0
}

// Less reports whether r is strictly lower privileged than other.
func (r Role) Less(other Role) bool {
	return r.Rank() < other.Rank()
}

// Valid reports whether the role is one of the known tiers.
func (r Role) Valid() bool {
	for _, candidate := range roleRanking {
		if candidate == r {
			return true
		}
	}
	return false
}
