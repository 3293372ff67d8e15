package membership

import (
	"errors"
	"net/http"

	"github.com/daetalos/track-record-enterprise-sub000/pkg/authz"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/guard"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/httputil"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/observability"
)

// Handlers serves the club and membership endpoints. Creating a club
// needs only authentication; everything scoped to an existing club
// runs behind the guard's capability middleware.
type Handlers struct {
	store *Store
}

// NewHandlers creates membership handlers
func NewHandlers(store *Store) *Handlers {
	return &Handlers{store: store}
}

func writeMembershipError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httputil.WriteNotFound(w, "not found")
	case errors.Is(err, ErrClubNameTaken),
		errors.Is(err, ErrAlreadyMember):
		httputil.WriteConflict(w, err.Error())
	case errors.Is(err, ErrInvitationExpired),
		errors.Is(err, ErrInvitationAccepted):
		httputil.WriteErrorMessage(w, http.StatusGone, err.Error())
	default:
		observability.GetLogger(r.Context()).WithError(err).Error("membership store operation failed")
		httputil.WriteInternalError(w)
	}
}

type createClubRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateClub creates a club and makes the caller its owner
func (h *Handlers) CreateClub(w http.ResponseWriter, r *http.Request) {
	principal, ok := guard.PrincipalFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req createClubRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Name == "" {
		httputil.WriteBadRequest(w, "Club name is required")
		return
	}

	club := &Club{Name: req.Name, Description: req.Description}
	if err := h.store.CreateClub(r.Context(), club); err != nil {
		writeMembershipError(w, r, err)
		return
	}
	if err := h.store.AddMember(r.Context(), club.ID, principal.UserID, authz.RoleOwner, nil); err != nil {
		writeMembershipError(w, r, err)
		return
	}

	httputil.WriteCreated(w, club)
}

// ListMyClubs returns the clubs the caller actively belongs to
func (h *Handlers) ListMyClubs(w http.ResponseWriter, r *http.Request) {
	principal, ok := guard.PrincipalFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	clubs, err := h.store.ListClubsForUser(r.Context(), principal.UserID)
	if err != nil {
		writeMembershipError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, clubs)
}

// GetClub returns the authorized club's profile
func (h *Handlers) GetClub(w http.ResponseWriter, r *http.Request) {
	filter := guard.FilterFromContext(r.Context())
	club, err := h.store.GetClub(r.Context(), filter.ClubID())
	if err != nil {
		writeMembershipError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, club)
}

// UpdateClub updates the authorized club's profile
func (h *Handlers) UpdateClub(w http.ResponseWriter, r *http.Request) {
	filter := guard.FilterFromContext(r.Context())

	var req createClubRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Name == "" {
		httputil.WriteBadRequest(w, "Club name is required")
		return
	}

	club := &Club{ID: filter.ClubID(), Name: req.Name, Description: req.Description}
	if err := h.store.UpdateClub(r.Context(), club); err != nil {
		writeMembershipError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, club)
}

// ListMembers returns the authorized club's member list, inactive
// rows included so admins can reactivate
func (h *Handlers) ListMembers(w http.ResponseWriter, r *http.Request) {
	filter := guard.FilterFromContext(r.Context())
	members, err := h.store.ListMembers(r.Context(), filter.ClubID())
	if err != nil {
		writeMembershipError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, members)
}

type updateRoleRequest struct {
	Role authz.Role `json:"role"`
}

// UpdateMemberRole changes a member's role in the authorized club.
// Granting or revoking the owner role requires the caller to be an
// owner; admin suffices for every other change.
func (h *Handlers) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	principal, ok := guard.PrincipalFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	userID, ok := httputil.ParsePathInt64OrError(w, r, "userID")
	if !ok {
		return
	}
	var req updateRoleRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !req.Role.Valid() {
		httputil.WriteBadRequest(w, "invalid role")
		return
	}

	filter := guard.FilterFromContext(r.Context())
	target, err := h.store.GetMembership(r.Context(), filter.ClubID(), userID)
	if err != nil {
		writeMembershipError(w, r, err)
		return
	}
	if req.Role == authz.RoleOwner || target.Role == authz.RoleOwner {
		callerRole, found, err := h.store.ActiveRole(r.Context(), principal.UserID, filter.ClubID())
		if err != nil {
			writeMembershipError(w, r, err)
			return
		}
		if !found || !callerRole.Satisfies(authz.RoleOwner) {
			httputil.WriteForbidden(w, "Insufficient permissions")
			return
		}
	}

	if err := h.store.UpdateMemberRole(r.Context(), filter.ClubID(), userID, req.Role); err != nil {
		writeMembershipError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

// DeactivateMember removes a member's access while preserving the
// membership row. Takes effect on the member's very next request.
func (h *Handlers) DeactivateMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "userID")
	if !ok {
		return
	}
	filter := guard.FilterFromContext(r.Context())
	if err := h.store.DeactivateMember(r.Context(), filter.ClubID(), userID); err != nil {
		writeMembershipError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

// ReactivateMember restores a deactivated membership at its stored
// role
func (h *Handlers) ReactivateMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "userID")
	if !ok {
		return
	}
	filter := guard.FilterFromContext(r.Context())
	if err := h.store.ReactivateMember(r.Context(), filter.ClubID(), userID); err != nil {
		writeMembershipError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

type createInvitationRequest struct {
	Email string     `json:"email"`
	Role  authz.Role `json:"role"`
}

// CreateInvitation invites an email address to join the authorized
// club at a role
func (h *Handlers) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	principal, ok := guard.PrincipalFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req createInvitationRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Email == "" {
		httputil.WriteBadRequest(w, "Email is required")
		return
	}
	if !req.Role.Valid() {
		httputil.WriteBadRequest(w, "invalid role")
		return
	}

	filter := guard.FilterFromContext(r.Context())
	inv := &Invitation{
		ClubID:    filter.ClubID(),
		Email:     req.Email,
		Role:      req.Role,
		InvitedBy: principal.UserID,
	}
	if err := h.store.CreateInvitation(r.Context(), inv); err != nil {
		writeMembershipError(w, r, err)
		return
	}
	httputil.WriteCreated(w, inv)
}

// ListInvitations returns the authorized club's pending invitations
func (h *Handlers) ListInvitations(w http.ResponseWriter, r *http.Request) {
	filter := guard.FilterFromContext(r.Context())
	invitations, err := h.store.ListInvitations(r.Context(), filter.ClubID())
	if err != nil {
		writeMembershipError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, invitations)
}

// RevokeInvitation deletes a pending invitation of the authorized club
func (h *Handlers) RevokeInvitation(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	filter := guard.FilterFromContext(r.Context())
	if err := h.store.RevokeInvitation(r.Context(), filter.ClubID(), id); err != nil {
		writeMembershipError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

type acceptInvitationRequest struct {
	Token string `json:"token"`
}

// AcceptInvitation redeems an invitation token, creating the
// membership. Needs only authentication: the token itself is the
// authorization.
func (h *Handlers) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	principal, ok := guard.PrincipalFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req acceptInvitationRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Token == "" {
		httputil.WriteBadRequest(w, "Invitation token is required")
		return
	}

	if err := h.store.AcceptInvitation(r.Context(), req.Token, principal.UserID); err != nil {
		writeMembershipError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}
