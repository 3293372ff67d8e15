package authz

import "testing"

func TestRoleSatisfies(t *testing.T) {
	cases := []struct {
		have Role
		want Role
		ok   bool
	}{
		{RoleMember, RoleMember, true},
		{RoleMember, RoleAdmin, false},
		{RoleMember, RoleOwner, false},
		{RoleAdmin, RoleMember, true},
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleOwner, false},
		{RoleOwner, RoleMember, true},
		{RoleOwner, RoleAdmin, true},
		{RoleOwner, RoleOwner, true},
		{Role("coach"), RoleMember, false},
		{RoleOwner, Role("coach"), false},
	}

	for _, c := range cases {
		if got := c.have.Satisfies(c.want); got != c.ok {
			t.Errorf("%s.Satisfies(%s) = %v, want %v", c.have, c.want, got, c.ok)
		}
	}
}

// Role monotonicity: any capability satisfied by a role must also be
// satisfied by every higher role.
func TestRoleMonotonicity(t *testing.T) {
	order := []Role{RoleMember, RoleAdmin, RoleOwner}

	for cap := range policies {
		required, ok := RequiredRole(cap)
		if !ok {
			t.Fatalf("RequiredRole(%s) not found", cap)
		}
		satisfiedAt := -1
		for i, r := range order {
			if r.Satisfies(required) {
				satisfiedAt = i
				break
			}
		}
		if satisfiedAt == -1 {
			t.Errorf("capability %s is satisfiable by no role", cap)
			continue
		}
		for i := satisfiedAt; i < len(order); i++ {
			if !order[i].Satisfies(required) {
				t.Errorf("capability %s: %s satisfies but higher role %s does not", cap, order[satisfiedAt], order[i])
			}
		}
	}
}

func TestRequiredRole(t *testing.T) {
	if r, ok := RequiredRole(CapabilityManageAthletes); !ok || r != RoleMember {
		t.Errorf("RequiredRole(manage athletes) = %s, %v; want member, true", r, ok)
	}
	if r, ok := RequiredRole(CapabilityManageDisciplines); !ok || r != RoleAdmin {
		t.Errorf("RequiredRole(manage disciplines) = %s, %v; want admin, true", r, ok)
	}
	if r, ok := RequiredRole(CapabilityManageClub); !ok || r != RoleOwner {
		t.Errorf("RequiredRole(manage club) = %s, %v; want owner, true", r, ok)
	}
	if _, ok := RequiredRole(Capability("bogus:capability")); ok {
		t.Error("expected unknown capability to be rejected")
	}
}

func TestIsGlobal(t *testing.T) {
	if IsGlobal(CapabilityManageAthletes) {
		t.Error("manage athletes must be club-scoped")
	}
	if !IsGlobal(CapabilityManageDisciplines) {
		t.Error("manage disciplines must be global")
	}
	if !IsGlobal(CapabilityManageSeasons) {
		t.Error("manage seasons must be global")
	}
}
