// Package api assembles the HTTP surface: routes, middleware order
// and the capability each route demands.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/daetalos/track-record-enterprise-sub000/pkg/athletics"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/audit"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/auth"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/authz"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/guard"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/httputil"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/membership"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/observability"
)

// Server wires handlers, guard middleware and routing together
type Server struct {
	router *mux.Router
}

// Deps carries everything the server needs. All fields are required.
type Deps struct {
	Guard      *guard.Guard
	Auth       *auth.Handlers
	Sessions   *guard.SessionHandlers
	Membership *membership.Handlers
	Athletics  *athletics.Handlers
	Audit      *audit.Handlers
	Logger     *observability.Logger
	Metrics    *observability.Metrics
}

// NewServer builds the router. Middleware order is fixed: request id,
// logging and recovery wrap everything; authentication wraps every
// /api route except register and login; capability middleware wraps
// each protected route with the capability it needs.
func NewServer(d Deps) *Server {
	s := &Server{router: mux.NewRouter()}
	s.routes(d)
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes(d Deps) {
	s.router.Use(
		mux.MiddlewareFunc(httputil.RequestIDMiddleware),
		mux.MiddlewareFunc(httputil.LoggerMiddleware(d.Logger)),
		mux.MiddlewareFunc(d.Metrics.HTTPMiddleware),
		mux.MiddlewareFunc(httputil.RecoveryMiddleware(d.Logger)),
	)

	// Public endpoints
	s.router.HandleFunc("/api/auth/register", d.Auth.Register).Methods("POST")
	s.router.HandleFunc("/api/auth/login", d.Auth.Login).Methods("POST")

	// Everything below requires a live session.
	authed := s.router.PathPrefix("/api").Subrouter()
	authed.Use(mux.MiddlewareFunc(d.Guard.Authenticate))

	authed.HandleFunc("/auth/logout", d.Auth.Logout).Methods("POST")

	// Session context
	authed.HandleFunc("/session", d.Sessions.Current).Methods("GET")
	authed.HandleFunc("/session/club", d.Sessions.SwitchClub).Methods("POST")

	// Clubs
	authed.HandleFunc("/clubs", d.Membership.CreateClub).Methods("POST")
	authed.HandleFunc("/clubs", d.Membership.ListMyClubs).Methods("GET")
	authed.HandleFunc("/invitations/accept", d.Membership.AcceptInvitation).Methods("POST")

	require := func(c authz.Capability, h http.HandlerFunc) http.Handler {
		return d.Guard.RequireCapability(c)(h)
	}

	authed.Handle("/club", require(authz.CapabilityViewClub, d.Membership.GetClub)).Methods("GET")
	authed.Handle("/club", require(authz.CapabilityManageClub, d.Membership.UpdateClub)).Methods("PUT")

	// Members
	authed.Handle("/members", require(authz.CapabilityViewClub, d.Membership.ListMembers)).Methods("GET")
	authed.Handle("/members/{userID:[0-9]+}/role", require(authz.CapabilityManageMembers, d.Membership.UpdateMemberRole)).Methods("PUT")
	authed.Handle("/members/{userID:[0-9]+}/deactivate", require(authz.CapabilityManageMembers, d.Membership.DeactivateMember)).Methods("POST")
	authed.Handle("/members/{userID:[0-9]+}/reactivate", require(authz.CapabilityManageMembers, d.Membership.ReactivateMember)).Methods("POST")

	// Invitations
	authed.Handle("/invitations", require(authz.CapabilityManageMembers, d.Membership.CreateInvitation)).Methods("POST")
	authed.Handle("/invitations", require(authz.CapabilityManageMembers, d.Membership.ListInvitations)).Methods("GET")
	authed.Handle("/invitations/{id:[0-9]+}", require(authz.CapabilityManageMembers, d.Membership.RevokeInvitation)).Methods("DELETE")

	// Athletes
	authed.Handle("/athletes", require(authz.CapabilityManageAthletes, d.Athletics.ListAthletes)).Methods("GET")
	authed.Handle("/athletes", require(authz.CapabilityManageAthletes, d.Athletics.CreateAthlete)).Methods("POST")
	authed.Handle("/athletes/{id:[0-9]+}", require(authz.CapabilityManageAthletes, d.Athletics.GetAthlete)).Methods("GET")
	authed.Handle("/athletes/{id:[0-9]+}", require(authz.CapabilityManageAthletes, d.Athletics.UpdateAthlete)).Methods("PUT")
	authed.Handle("/athletes/{id:[0-9]+}", require(authz.CapabilityManageAthletes, d.Athletics.DeleteAthlete)).Methods("DELETE")

	// Performances
	authed.Handle("/performances", require(authz.CapabilityManagePerformances, d.Athletics.ListPerformances)).Methods("GET")
	authed.Handle("/performances", require(authz.CapabilityManagePerformances, d.Athletics.CreatePerformance)).Methods("POST")
	authed.Handle("/performances/{id:[0-9]+}", require(authz.CapabilityManagePerformances, d.Athletics.GetPerformance)).Methods("GET")
	authed.Handle("/performances/{id:[0-9]+}", require(authz.CapabilityManagePerformances, d.Athletics.UpdatePerformance)).Methods("PUT")
	authed.Handle("/performances/{id:[0-9]+}", require(authz.CapabilityManagePerformances, d.Athletics.DeletePerformance)).Methods("DELETE")

	// Age groups. Members can read their club's brackets; changing
	// them stays admin-gated.
	authed.Handle("/age-groups", require(authz.CapabilityViewClub, d.Athletics.ListAgeGroups)).Methods("GET")
	authed.Handle("/age-groups", require(authz.CapabilityManageAgeGroups, d.Athletics.CreateAgeGroup)).Methods("POST")
	authed.Handle("/age-groups/{id:[0-9]+}", require(authz.CapabilityManageAgeGroups, d.Athletics.UpdateAgeGroup)).Methods("PUT")
	authed.Handle("/age-groups/{id:[0-9]+}", require(authz.CapabilityManageAgeGroups, d.Athletics.DeleteAgeGroup)).Methods("DELETE")

	// Audit trail
	authed.Handle("/audit/denials", require(authz.CapabilityViewAudit, d.Audit.ListDenials)).Methods("GET")

	// Global catalogs. Reads need only authentication; writes need a
	// global admin-level capability.
	authed.HandleFunc("/disciplines", d.Athletics.ListDisciplines).Methods("GET")
	authed.Handle("/disciplines", require(authz.CapabilityManageDisciplines, d.Athletics.CreateDiscipline)).Methods("POST")
	authed.Handle("/disciplines/{id:[0-9]+}", require(authz.CapabilityManageDisciplines, d.Athletics.UpdateDiscipline)).Methods("PUT")
	authed.Handle("/disciplines/{id:[0-9]+}", require(authz.CapabilityManageDisciplines, d.Athletics.DeleteDiscipline)).Methods("DELETE")

	authed.HandleFunc("/seasons", d.Athletics.ListSeasons).Methods("GET")
	authed.Handle("/seasons", require(authz.CapabilityManageSeasons, d.Athletics.CreateSeason)).Methods("POST")
	authed.Handle("/seasons/{id:[0-9]+}", require(authz.CapabilityManageSeasons, d.Athletics.UpdateSeason)).Methods("PUT")
	authed.Handle("/seasons/{id:[0-9]+}", require(authz.CapabilityManageSeasons, d.Athletics.DeleteSeason)).Methods("DELETE")
}
