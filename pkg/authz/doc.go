// Package authz defines the role policy and permission verifier for
// club-scoped and global capabilities.
//
// Roles form a strict total order MEMBER < ADMIN < OWNER. Each
// capability declares the minimum role required and whether it is
// club-scoped (requires an active membership in the target club) or
// global (requires Admin or Owner in any club).
//
// The Verifier is stateless and re-reads membership rows on every
// check. Authorization decisions are never cached and never derived
// from session or token claims.
package authz
