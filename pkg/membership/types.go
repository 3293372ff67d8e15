package membership

import (
	"errors"
	"time"

	"github.com/daetalos/track-record-enterprise-sub000/pkg/authz"
)

// Sentinel errors returned by the store
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyMember      = errors.New("user is already a member of this club")
	ErrClubNameTaken      = errors.New("club name is already taken")
	ErrInvitationExpired  = errors.New("invitation expired")
	ErrInvitationAccepted = errors.New("invitation already accepted")
)

// Club represents a tenant: the unit of data isolation
type Club struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Membership is the (user, club, role, active) relation granting
// access. Deactivation, not deletion, is the removal path: an inactive
// row grants no capability regardless of its stored role, but the
// history is preserved.
type Membership struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	ClubID    int64      `json:"club_id"`
	Role      authz.Role `json:"role"`
	IsActive  bool       `json:"is_active"`
	InvitedBy *int64     `json:"invited_by,omitempty"`
	JoinedAt  time.Time  `json:"joined_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Member is a membership joined with the user's profile fields, used
// for club member listings
type Member struct {
	Membership
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// UserClub is a membership joined with the club record, used when
// listing the clubs a user belongs to
type UserClub struct {
	Club
	Role authz.Role `json:"role"`
}

// Invitation represents an email invitation to join a club at a role
type Invitation struct {
	ID         int64      `json:"id"`
	ClubID     int64      `json:"club_id"`
	Email      string     `json:"email"`
	Role       authz.Role `json:"role"`
	Token      string     `json:"token,omitempty"`
	InvitedBy  int64      `json:"invited_by"`
	InvitedAt  time.Time  `json:"invited_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	AcceptedBy *int64     `json:"accepted_by,omitempty"`
}
