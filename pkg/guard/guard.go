// Package guard chains the request-side checks: bearer
// authentication, club context resolution, capability verification and
// the fail-closed club filter that scopes every query.
package guard

import (
	"context"
	"net/http"

	"github.com/daetalos/track-record-enterprise-sub000/pkg/auth"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/authz"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/contextkeys"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/httputil"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/observability"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/session"
)

// Principal is the authenticated caller attached to the request
// context by Authenticate.
type Principal struct {
	UserID    int64
	TokenHash string
	Session   *session.Session
}

// PrincipalFromContext extracts the authenticated principal
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(contextkeys.PrincipalKey).(*Principal)
	return p, ok
}

// Guard holds the collaborators every protected route needs
type Guard struct {
	sessions  *session.Manager
	verifier  *authz.Verifier
	generator *auth.TokenGenerator
	metrics   *observability.Metrics
	auditor   DenialRecorder
}

// DenialRecorder receives every authorization denial for the audit
// trail. Recording failures are logged, never surfaced to the caller.
type DenialRecorder interface {
	RecordDenial(ctx context.Context, userID int64, clubID *int64, capability, reason, path string)
}

// New creates a guard
func New(sessions *session.Manager, verifier *authz.Verifier, metrics *observability.Metrics, auditor DenialRecorder) *Guard {
	return &Guard{
		sessions:  sessions,
		verifier:  verifier,
		generator: auth.NewTokenGenerator(),
		metrics:   metrics,
		auditor:   auditor,
	}
}

// Authenticate resolves the bearer token to a live session and
// attaches the principal. Every failure mode is a plain 401 so probes
// cannot distinguish a malformed token from an expired one.
func (g *Guard) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := auth.BearerToken(r)
		if !ok {
			httputil.WriteUnauthorized(w, "Authentication required")
			return
		}
		if err := g.generator.ValidateTokenFormat(token); err != nil {
			httputil.WriteUnauthorized(w, "Authentication required")
			return
		}

		tokenHash := g.generator.HashToken(token)
		sess, err := g.sessions.Get(r.Context(), tokenHash)
		if err == session.ErrNotFound {
			httputil.WriteUnauthorized(w, "Authentication required")
			return
		}
		if err != nil {
			observability.GetLogger(r.Context()).WithError(err).Error("failed to load session")
			httputil.WriteInternalError(w)
			return
		}

		// Sliding expiry. Selection is untouched.
		if err := g.sessions.Touch(r.Context(), tokenHash); err != nil {
			observability.GetLogger(r.Context()).WithError(err).Warn("failed to refresh session")
		}

		principal := &Principal{UserID: sess.UserID, TokenHash: tokenHash, Session: sess}
		ctx := contextkeys.WithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireCapability verifies the principal holds the capability before
// the handler runs. For club-scoped capabilities the club comes from
// the explicit club_id query parameter, falling back to the session's
// selected club; neither present is a 400. The resolved club id is
// attached to the context for the club filter downstream.
func (g *Guard) RequireCapability(capability authz.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				httputil.WriteUnauthorized(w, "Authentication required")
				return
			}

			var scope authz.Scope
			var clubID *int64
			if authz.IsGlobal(capability) {
				scope = authz.GlobalScope(capability)
			} else {
				var err error
				clubID, err = g.resolveClub(r, principal)
				if err != nil {
					httputil.WriteBadRequest(w, "Club ID is required")
					return
				}
				if clubID == nil {
					httputil.WriteBadRequest(w, "Club ID is required")
					return
				}
				scope = authz.ClubScope(capability, *clubID)
			}

			decision, err := g.verifier.Verify(r.Context(), principal.UserID, scope)
			if err != nil {
				observability.GetLogger(r.Context()).WithError(err).Error("failed to verify capability")
				httputil.WriteInternalError(w)
				return
			}

			g.metrics.RecordDecision(string(capability), decision.Allowed)
			if !decision.Allowed {
				if g.auditor != nil {
					g.auditor.RecordDenial(r.Context(), principal.UserID, clubID, string(capability), decision.Reason, r.URL.Path)
				}
				httputil.WriteForbidden(w, decision.Reason)
				return
			}

			ctx := r.Context()
			if clubID != nil {
				ctx = contextkeys.WithClubID(ctx, *clubID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolveClub picks the club the request operates on. An explicit
// club_id query parameter always wins over the session selection, so a
// multi-club user can act outside their selected club without
// switching first.
func (g *Guard) resolveClub(r *http.Request, principal *Principal) (*int64, error) {
	clubID, err := httputil.ParseQueryInt64(r, "club_id")
	if err != nil {
		return nil, err
	}
	if clubID != nil {
		return clubID, nil
	}
	return principal.Session.SelectedClubID, nil
}
