package membership

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/daetalos/track-record-enterprise-sub000/pkg/authz"
)

// Store provides PostgreSQL-backed access to clubs and memberships.
// It is the single source of truth for authorization state: the
// verifier and the session manager both read through it.
type Store struct {
	db *sql.DB
}

// NewStore creates a new membership store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateClub creates a new club. Club names are unique system-wide.
func (s *Store) CreateClub(ctx context.Context, club *Club) error {
	query := `
		INSERT INTO clubs (name, description)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query, club.Name, club.Description).
		Scan(&club.ID, &club.CreatedAt, &club.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrClubNameTaken
		}
		return fmt.Errorf("failed to create club: %w", err)
	}
	return nil
}

// GetClub retrieves a club by id
func (s *Store) GetClub(ctx context.Context, id int64) (*Club, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM clubs
		WHERE id = $1
	`
	club := &Club{}
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&club.ID, &club.Name, &club.Description, &club.CreatedAt, &club.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get club: %w", err)
	}
	return club, nil
}

// UpdateClub updates a club's name and description
func (s *Store) UpdateClub(ctx context.Context, club *Club) error {
	query := `
		UPDATE clubs
		SET name = $1, description = $2, updated_at = NOW()
		WHERE id = $3
	`
	result, err := s.db.ExecContext(ctx, query, club.Name, club.Description, club.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrClubNameTaken
		}
		return fmt.Errorf("failed to update club: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListClubsForUser returns clubs where the user has an active
// membership, together with the role held
func (s *Store) ListClubsForUser(ctx context.Context, userID int64) ([]*UserClub, error) {
	query := `
		SELECT c.id, c.name, c.description, c.created_at, c.updated_at, m.role
		FROM clubs c
		JOIN memberships m ON m.club_id = c.id
		WHERE m.user_id = $1 AND m.is_active = TRUE
		ORDER BY c.name ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clubs: %w", err)
	}
	defer rows.Close()

	var clubs []*UserClub
	for rows.Next() {
		uc := &UserClub{}
		if err := rows.Scan(&uc.ID, &uc.Name, &uc.Description, &uc.CreatedAt, &uc.UpdatedAt, &uc.Role); err != nil {
			return nil, fmt.Errorf("failed to scan club: %w", err)
		}
		clubs = append(clubs, uc)
	}
	return clubs, rows.Err()
}

// AddMember adds a user to a club with a role. Adding an existing
// member, active or not, fails with ErrAlreadyMember.
func (s *Store) AddMember(ctx context.Context, clubID, userID int64, role authz.Role, invitedBy *int64) error {
	query := `
		INSERT INTO memberships (club_id, user_id, role, is_active, invited_by)
		VALUES ($1, $2, $3, TRUE, $4)
		ON CONFLICT (club_id, user_id) DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query, clubID, userID, role, invitedBy)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrAlreadyMember
	}
	return nil
}

// GetMembership retrieves a membership row regardless of active flag
func (s *Store) GetMembership(ctx context.Context, clubID, userID int64) (*Membership, error) {
	query := `
		SELECT id, user_id, club_id, role, is_active, invited_by, joined_at, created_at, updated_at
		FROM memberships
		WHERE club_id = $1 AND user_id = $2
	`
	m := &Membership{}
	err := s.db.QueryRowContext(ctx, query, clubID, userID).Scan(
		&m.ID, &m.UserID, &m.ClubID, &m.Role, &m.IsActive,
		&m.InvitedBy, &m.JoinedAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

// ListMembers returns all members of a club, including deactivated
// ones, joined with their profile fields
func (s *Store) ListMembers(ctx context.Context, clubID int64) ([]*Member, error) {
	query := `
		SELECT m.id, m.user_id, m.club_id, m.role, m.is_active, m.invited_by,
		       m.joined_at, m.created_at, m.updated_at, u.email, u.display_name
		FROM memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.club_id = $1
		ORDER BY m.created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		member := &Member{}
		if err := rows.Scan(
			&member.ID, &member.UserID, &member.ClubID, &member.Role, &member.IsActive,
			&member.InvitedBy, &member.JoinedAt, &member.CreatedAt, &member.UpdatedAt,
			&member.Email, &member.DisplayName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

// UpdateMemberRole changes a member's role
func (s *Store) UpdateMemberRole(ctx context.Context, clubID, userID int64, role authz.Role) error {
	query := `
		UPDATE memberships
		SET role = $1, updated_at = NOW()
		WHERE club_id = $2 AND user_id = $3
	`
	return s.execExpectingRow(ctx, query, role, clubID, userID)
}

// DeactivateMember flips the member's active flag off. The row is
// kept: history survives and the membership can be reactivated later.
func (s *Store) DeactivateMember(ctx context.Context, clubID, userID int64) error {
	query := `
		UPDATE memberships
		SET is_active = FALSE, updated_at = NOW()
		WHERE club_id = $1 AND user_id = $2
	`
	return s.execExpectingRow(ctx, query, clubID, userID)
}

// ReactivateMember flips the member's active flag back on
func (s *Store) ReactivateMember(ctx context.Context, clubID, userID int64) error {
	query := `
		UPDATE memberships
		SET is_active = TRUE, updated_at = NOW()
		WHERE club_id = $1 AND user_id = $2
	`
	return s.execExpectingRow(ctx, query, clubID, userID)
}

func (s *Store) execExpectingRow(ctx context.Context, query string, args ...interface{}) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update membership: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ActiveRole returns the role of the user's active membership in the
// club. Inactive rows are invisible here: a deactivated membership
// grants nothing regardless of its stored role.
func (s *Store) ActiveRole(ctx context.Context, userID, clubID int64) (authz.Role, bool, error) {
	query := `
		SELECT role
		FROM memberships
		WHERE user_id = $1 AND club_id = $2 AND is_active = TRUE
	`
	var role authz.Role
	err := s.db.QueryRowContext(ctx, query, userID, clubID).Scan(&role)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up active role: %w", err)
	}
	return role, true, nil
}

// ActiveClubRoles returns (club, role) pairs for all of the user's
// active memberships
func (s *Store) ActiveClubRoles(ctx context.Context, userID int64) ([]authz.ClubRole, error) {
	query := `
		SELECT club_id, role
		FROM memberships
		WHERE user_id = $1 AND is_active = TRUE
		ORDER BY club_id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active memberships: %w", err)
	}
	defer rows.Close()

	var out []authz.ClubRole
	for rows.Next() {
		var cr authz.ClubRole
		if err := rows.Scan(&cr.ClubID, &cr.Role); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		out = append(out, cr)
	}
	return out, rows.Err()
}

// ActiveClubIDs returns the ids of clubs where the user holds an
// active membership. Used by session auto-selection.
func (s *Store) ActiveClubIDs(ctx context.Context, userID int64) ([]int64, error) {
	clubRoles, err := s.ActiveClubRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(clubRoles))
	for _, cr := range clubRoles {
		ids = append(ids, cr.ClubID)
	}
	return ids, nil
}
