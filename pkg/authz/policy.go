package authz

// Role represents a user's role within a club
type Role string

const (
	RoleMember Role = "member" // Regular club member
	RoleAdmin  Role = "admin"  // Can manage club resources and members
	RoleOwner  Role = "owner"  // Full control over the club
)

// roleRank maps roles onto the total order MEMBER < ADMIN < OWNER.
// Unknown roles rank 0 and satisfy nothing.
var roleRank = map[Role]int{
	RoleMember: 1,
	RoleAdmin:  2,
	RoleOwner:  3,
}

// Valid reports whether the role is one of the known roles
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Satisfies reports whether the role meets or exceeds the required role
func (r Role) Satisfies(required Role) bool {
	have, ok := roleRank[r]
	if !ok {
		return false
	}
	want, ok := roleRank[required]
	if !ok {
		return false
	}
	return have >= want
}

// Capability represents a named operation gated by a minimum role
type Capability string

const (
	// Club-scoped capabilities require an active membership in the
	// target club at or above the stated role.
	CapabilityViewClub           Capability = "club:view"
	CapabilityManageClub         Capability = "club:manage"
	CapabilityManageMembers      Capability = "members:manage"
	CapabilityManageAthletes     Capability = "athletes:manage"
	CapabilityManagePerformances Capability = "performances:manage"
	CapabilityManageAgeGroups    Capability = "age_groups:manage"
	CapabilityViewAudit          Capability = "audit:view"

	// Global capabilities gate shared catalog data. They require
	// Admin or Owner in any club rather than membership in a
	// specific one.
	CapabilityManageDisciplines Capability = "disciplines:manage"
	CapabilityManageSeasons     Capability = "seasons:manage"
)

// capabilityPolicy declares the minimum role and scope class per capability
type capabilityPolicy struct {
	minRole Role
	global  bool
}

var policies = map[Capability]capabilityPolicy{
	CapabilityViewClub:           {minRole: RoleMember},
	CapabilityManageClub:         {minRole: RoleOwner},
	CapabilityManageMembers:      {minRole: RoleAdmin},
	CapabilityManageAthletes:     {minRole: RoleMember},
	CapabilityManagePerformances: {minRole: RoleMember},
	CapabilityManageAgeGroups:    {minRole: RoleAdmin},
	CapabilityViewAudit:          {minRole: RoleAdmin},
	CapabilityManageDisciplines:  {minRole: RoleAdmin, global: true},
	CapabilityManageSeasons:      {minRole: RoleAdmin, global: true},
}

// RequiredRole returns the minimum role for a capability.
// The second return value is false for unknown capabilities.
func RequiredRole(c Capability) (Role, bool) {
	p, ok := policies[c]
	if !ok {
		return "", false
	}
	return p.minRole, true
}

// IsGlobal reports whether the capability gates a shared catalog
// resource rather than club-scoped data
func IsGlobal(c Capability) bool {
	return policies[c].global
}
