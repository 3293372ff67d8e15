package guard

import (
	"context"
	"errors"
	"net/http"

	"github.com/daetalos/track-record-enterprise-sub000/pkg/authz"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/httputil"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/observability"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/session"
)

// SwitchRecorder receives successful club switches for the audit
// trail
type SwitchRecorder interface {
	RecordClubSwitch(ctx context.Context, userID, clubID int64, path string)
}

// SessionHandlers serves the session context endpoints. Both run
// behind Authenticate.
type SessionHandlers struct {
	sessions *session.Manager
	members  session.MembershipSource
	metrics  *observability.Metrics
	auditor  SwitchRecorder
}

// NewSessionHandlers creates session endpoints
func NewSessionHandlers(sessions *session.Manager, members session.MembershipSource, metrics *observability.Metrics, auditor SwitchRecorder) *SessionHandlers {
	return &SessionHandlers{sessions: sessions, members: members, metrics: metrics, auditor: auditor}
}

type switchClubRequest struct {
	ClubID int64 `json:"club_id"`
}

type sessionResponse struct {
	UserID         int64  `json:"user_id"`
	SelectedClubID *int64 `json:"selected_club_id,omitempty"`
}

// Current returns the caller's session context
func (h *SessionHandlers) Current(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	httputil.WriteSuccess(w, sessionResponse{
		UserID:         principal.UserID,
		SelectedClubID: principal.Session.SelectedClubID,
	})
}

// SwitchClub changes the caller's selected club. The target membership
// is re-verified inside the session manager; a denied switch leaves
// the previous selection in place.
func (h *SessionHandlers) SwitchClub(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req switchClubRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.ClubID == 0 {
		httputil.WriteBadRequest(w, "Club ID is required")
		return
	}

	sess, err := h.sessions.SwitchClub(r.Context(), principal.TokenHash, req.ClubID)
	if errors.Is(err, session.ErrNoAccess) {
		h.metrics.RecordClubSwitch(false)
		httputil.WriteForbidden(w, authz.ReasonNoClubAccess)
		return
	}
	if errors.Is(err, session.ErrNotFound) {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	if err != nil {
		observability.GetLogger(r.Context()).WithError(err).Error("failed to switch club")
		httputil.WriteInternalError(w)
		return
	}

	h.metrics.RecordClubSwitch(true)
	if h.auditor != nil {
		h.auditor.RecordClubSwitch(r.Context(), principal.UserID, req.ClubID, r.URL.Path)
	}

	httputil.WriteSuccess(w, sessionResponse{
		UserID:         sess.UserID,
		SelectedClubID: sess.SelectedClubID,
	})
}
