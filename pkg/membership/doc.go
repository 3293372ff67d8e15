// Package membership is the durable record of clubs and of the
// (user, club, role, active) relation that all authorization derives
// from.
//
// The store exposes two read paths: administrative reads (GetMembership,
// ListMembers) that see inactive rows, and the authorization reads
// (ActiveRole, ActiveClubRoles) through which deactivated memberships
// are invisible. The permission verifier and the session manager only
// ever use the latter.
package membership
