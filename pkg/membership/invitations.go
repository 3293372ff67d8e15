package membership

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/daetalos/track-record-enterprise-sub000/pkg/authz"
)

// invitationTTL is how long an invitation stays acceptable
const invitationTTL = 7 * 24 * time.Hour

// CreateInvitation creates (or refreshes) an invitation for an email
// address to join a club. An existing pending invitation for the same
// club and email is replaced with a fresh token and expiry.
func (s *Store) CreateInvitation(ctx context.Context, inv *Invitation) error {
	inv.Token = uuid.NewString()
	if inv.InvitedAt.IsZero() {
		inv.InvitedAt = time.Now()
	}
	if inv.ExpiresAt.IsZero() {
		inv.ExpiresAt = inv.InvitedAt.Add(invitationTTL)
	}

	query := `
		INSERT INTO club_invitations (club_id, email, role, token, invited_by, invited_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (club_id, email) DO UPDATE
		SET role = EXCLUDED.role, token = EXCLUDED.token,
		    invited_at = EXCLUDED.invited_at, expires_at = EXCLUDED.expires_at
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query, inv.ClubID, inv.Email, inv.Role,
		inv.Token, inv.InvitedBy, inv.InvitedAt, inv.ExpiresAt).Scan(&inv.ID)
	if err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

// GetInvitation retrieves an invitation by token
func (s *Store) GetInvitation(ctx context.Context, token string) (*Invitation, error) {
	query := `
		SELECT id, club_id, email, role, token, invited_by, invited_at, expires_at, accepted_at, accepted_by
		FROM club_invitations
		WHERE token = $1
	`
	inv := &Invitation{}
	err := s.db.QueryRowContext(ctx, query, token).Scan(
		&inv.ID, &inv.ClubID, &inv.Email, &inv.Role, &inv.Token,
		&inv.InvitedBy, &inv.InvitedAt, &inv.ExpiresAt, &inv.AcceptedAt, &inv.AcceptedBy,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return inv, nil
}

// ListInvitations lists pending invitations for a club
func (s *Store) ListInvitations(ctx context.Context, clubID int64) ([]*Invitation, error) {
	query := `
		SELECT id, club_id, email, role, token, invited_by, invited_at, expires_at, accepted_at, accepted_by
		FROM club_invitations
		WHERE club_id = $1 AND accepted_at IS NULL
		ORDER BY invited_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	var invitations []*Invitation
	for rows.Next() {
		inv := &Invitation{}
		if err := rows.Scan(
			&inv.ID, &inv.ClubID, &inv.Email, &inv.Role, &inv.Token,
			&inv.InvitedBy, &inv.InvitedAt, &inv.ExpiresAt, &inv.AcceptedAt, &inv.AcceptedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

// AcceptInvitation accepts an invitation and creates the membership at
// the invited role in one transaction
func (s *Store) AcceptInvitation(ctx context.Context, token string, userID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		SELECT id, club_id, role, expires_at, accepted_at
		FROM club_invitations
		WHERE token = $1
		FOR UPDATE
	`
	var id, clubID int64
	var role authz.Role
	var expiresAt time.Time
	var acceptedAt sql.NullTime

	err = tx.QueryRowContext(ctx, query, token).Scan(&id, &clubID, &role, &expiresAt, &acceptedAt)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get invitation: %w", err)
	}

	if acceptedAt.Valid {
		return ErrInvitationAccepted
	}
	if time.Now().After(expiresAt) {
		return ErrInvitationExpired
	}

	// A previous membership row, deactivated or not, is revived at the
	// invited role. Acceptance must always leave an active membership.
	query = `
		INSERT INTO memberships (club_id, user_id, role, is_active)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (club_id, user_id) DO UPDATE
		SET role = EXCLUDED.role, is_active = TRUE, updated_at = NOW()
	`
	if _, err := tx.ExecContext(ctx, query, clubID, userID, role); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	query = `UPDATE club_invitations SET accepted_at = NOW(), accepted_by = $1 WHERE id = $2`
	if _, err := tx.ExecContext(ctx, query, userID, id); err != nil {
		return fmt.Errorf("failed to update invitation: %w", err)
	}

	return tx.Commit()
}

// RevokeInvitation removes a pending invitation. The club id is bound
// into the delete so an id belonging to another club matches nothing.
func (s *Store) RevokeInvitation(ctx context.Context, clubID, id int64) error {
	query := `DELETE FROM club_invitations WHERE id = $1 AND club_id = $2 AND accepted_at IS NULL`
	result, err := s.db.ExecContext(ctx, query, id, clubID)
	if err != nil {
		return fmt.Errorf("failed to revoke invitation: %w", err)
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

// CleanupExpiredInvitations deletes invitations past their expiry that
// were never accepted. Run on a schedule.
func (s *Store) CleanupExpiredInvitations(ctx context.Context) (int64, error) {
	query := `DELETE FROM club_invitations WHERE expires_at < NOW() AND accepted_at IS NULL`
	result, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired invitations: %w", err)
	}
	return result.RowsAffected()
}
