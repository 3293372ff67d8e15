package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMembershipSource serves membership rows from memory. Only active
// rows are stored, mirroring the store's contract.
type fakeMembershipSource struct {
	roles map[int64]map[int64]Role // userID -> clubID -> role
	err   error
}

func (f *fakeMembershipSource) ActiveRole(_ context.Context, userID, clubID int64) (Role, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	role, ok := f.roles[userID][clubID]
	return role, ok, nil
}

func (f *fakeMembershipSource) ActiveClubRoles(_ context.Context, userID int64) ([]ClubRole, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []ClubRole
	for clubID, role := range f.roles[userID] {
		out = append(out, ClubRole{ClubID: clubID, Role: role})
	}
	return out, nil
}

func TestVerifyClubScoped(t *testing.T) {
	ctx := context.Background()
	source := &fakeMembershipSource{roles: map[int64]map[int64]Role{
		10: {1: RoleMember},
		11: {1: RoleAdmin, 2: RoleMember},
	}}
	v := NewVerifier(source)

	t.Run("member may manage athletes in own club", func(t *testing.T) {
		d, err := v.VerifyClub(ctx, 10, 1, CapabilityManageAthletes)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Empty(t, d.Reason)
	})

	t.Run("non-member denied with club access reason", func(t *testing.T) {
		d, err := v.VerifyClub(ctx, 10, 2, CapabilityManageAthletes)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonNoClubAccess, d.Reason)
	})

	t.Run("member denied admin capability with role reason", func(t *testing.T) {
		d, err := v.VerifyClub(ctx, 10, 1, CapabilityManageAgeGroups)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonInsufficientRole, d.Reason)
	})

	t.Run("admin satisfies member-level requirement", func(t *testing.T) {
		d, err := v.VerifyClub(ctx, 11, 1, CapabilityManageAthletes)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	})

	t.Run("admin role in one club grants nothing in another", func(t *testing.T) {
		d, err := v.VerifyClub(ctx, 11, 2, CapabilityManageAgeGroups)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonInsufficientRole, d.Reason)
	})
}

func TestVerifyGlobal(t *testing.T) {
	ctx := context.Background()
	source := &fakeMembershipSource{roles: map[int64]map[int64]Role{
		10: {1: RoleMember, 2: RoleMember},
		11: {1: RoleMember, 2: RoleAdmin},
		12: {},
	}}
	v := NewVerifier(source)

	t.Run("member-only user denied", func(t *testing.T) {
		d, err := v.Verify(ctx, 10, GlobalScope(CapabilityManageDisciplines))
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonGlobalRoleRequired, d.Reason)
	})

	t.Run("admin in any club allowed", func(t *testing.T) {
		d, err := v.Verify(ctx, 11, GlobalScope(CapabilityManageDisciplines))
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	})

	t.Run("user with no memberships denied", func(t *testing.T) {
		d, err := v.Verify(ctx, 12, GlobalScope(CapabilityManageSeasons))
		require.NoError(t, err)
		assert.False(t, d.Allowed)
	})
}

func TestVerifyErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("store failure surfaces as error, not decision", func(t *testing.T) {
		v := NewVerifier(&fakeMembershipSource{err: errors.New("connection reset")})
		d, err := v.VerifyClub(ctx, 10, 1, CapabilityManageAthletes)
		require.Error(t, err)
		assert.Nil(t, d)
	})

	t.Run("unknown capability is an error", func(t *testing.T) {
		v := NewVerifier(&fakeMembershipSource{})
		_, err := v.VerifyClub(ctx, 10, 1, Capability("nope"))
		require.Error(t, err)
	})

	t.Run("club-scoped capability without club id is an error", func(t *testing.T) {
		v := NewVerifier(&fakeMembershipSource{})
		_, err := v.Verify(ctx, 10, Scope{Capability: CapabilityManageAthletes})
		require.Error(t, err)
	})
}
