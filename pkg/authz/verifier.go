package authz

import (
	"context"
	"fmt"
)

// Denial reasons returned to callers. The reason distinguishes "not a
// member of this club" from "member but role too low" for actionable
// UI messaging; it never reveals which roles other users hold.
const (
	ReasonNoClubAccess       = "Access denied to this club"
	ReasonInsufficientRole   = "Insufficient permissions"
	ReasonGlobalRoleRequired = "Insufficient permissions - Admin or Owner role required"
)

// ClubRole is a (club, role) pair from an active membership
type ClubRole struct {
	ClubID int64
	Role   Role
}

// MembershipSource is the read surface the verifier needs from the
// membership store. Inactive memberships must be invisible through it.
type MembershipSource interface {
	// ActiveRole returns the role of the user's active membership in
	// the club. The second return value is false when no active
	// membership exists.
	ActiveRole(ctx context.Context, userID, clubID int64) (Role, bool, error)

	// ActiveClubRoles returns all of the user's active memberships.
	ActiveClubRoles(ctx context.Context, userID int64) ([]ClubRole, error)
}

// Scope identifies what a verification request is about: a capability,
// plus the target club for club-scoped capabilities.
type Scope struct {
	Capability Capability
	ClubID     *int64
}

// ClubScope builds a scope for a club-scoped capability
func ClubScope(capability Capability, clubID int64) Scope {
	return Scope{Capability: capability, ClubID: &clubID}
}

// GlobalScope builds a scope for a global capability
func GlobalScope(capability Capability) Scope {
	return Scope{Capability: capability}
}

// Decision is the outcome of a permission check
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func allow() *Decision {
	return &Decision{Allowed: true}
}

func deny(reason string) *Decision {
	return &Decision{Allowed: false, Reason: reason}
}

// Verifier checks whether a user may perform an operation. It has no
// state of its own: every call re-reads current membership rows so that
// role or activation changes take effect immediately. Session or token
// data is never consulted.
type Verifier struct {
	members MembershipSource
}

// NewVerifier creates a verifier backed by the given membership source
func NewVerifier(members MembershipSource) *Verifier {
	return &Verifier{members: members}
}

// Verify evaluates a scope for a user and returns an allow/deny
// decision with a reason. A non-nil error means the membership lookup
// itself failed; callers must treat that as an internal error, never as
// an implicit allow or deny.
func (v *Verifier) Verify(ctx context.Context, userID int64, scope Scope) (*Decision, error) {
	required, ok := RequiredRole(scope.Capability)
	if !ok {
		return nil, fmt.Errorf("unknown capability: %s", scope.Capability)
	}

	if IsGlobal(scope.Capability) {
		return v.verifyGlobal(ctx, userID, required)
	}

	if scope.ClubID == nil {
		return nil, fmt.Errorf("capability %s is club-scoped but no club id was given", scope.Capability)
	}
	return v.verifyClub(ctx, userID, *scope.ClubID, required)
}

// VerifyClub is shorthand for Verify with a club scope
func (v *Verifier) VerifyClub(ctx context.Context, userID, clubID int64, capability Capability) (*Decision, error) {
	return v.Verify(ctx, userID, ClubScope(capability, clubID))
}

func (v *Verifier) verifyClub(ctx context.Context, userID, clubID int64, required Role) (*Decision, error) {
	role, found, err := v.members.ActiveRole(ctx, userID, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up membership: %w", err)
	}
	if !found {
		return deny(ReasonNoClubAccess), nil
	}
	if !role.Satisfies(required) {
		return deny(ReasonInsufficientRole), nil
	}
	return allow(), nil
}

func (v *Verifier) verifyGlobal(ctx context.Context, userID int64, required Role) (*Decision, error) {
	memberships, err := v.members.ActiveClubRoles(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	for _, m := range memberships {
		if m.Role.Satisfies(required) {
			return allow(), nil
		}
	}
	return deny(ReasonGlobalRoleRequired), nil
}
