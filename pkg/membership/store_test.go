package membership

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daetalos/track-record-enterprise-sub000/pkg/authz"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewStore(db), mock, db
}

func TestActiveRole(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()

	ctx := context.Background()

	t.Run("active membership returns role", func(t *testing.T) {
		mock.ExpectQuery(`SELECT role\s+FROM memberships\s+WHERE user_id = \$1 AND club_id = \$2 AND is_active = TRUE`).
			WithArgs(int64(10), int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("admin"))

		role, found, err := store.ActiveRole(ctx, 10, 1)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, authz.RoleAdmin, role)
	})

	t.Run("inactive membership is invisible", func(t *testing.T) {
		// The query itself filters on is_active, so a deactivated
		// row comes back as no rows at all.
		mock.ExpectQuery(`SELECT role\s+FROM memberships`).
			WithArgs(int64(10), int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"role"}))

		_, found, err := store.ActiveRole(ctx, 10, 2)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("query failure surfaces as error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT role\s+FROM memberships`).
			WithArgs(int64(10), int64(3)).
			WillReturnError(sql.ErrConnDone)

		_, _, err := store.ActiveRole(ctx, 10, 3)
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActiveClubRoles(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT club_id, role\s+FROM memberships\s+WHERE user_id = \$1 AND is_active = TRUE`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"club_id", "role"}).
			AddRow(1, "admin").
			AddRow(2, "member"))

	roles, err := store.ActiveClubRoles(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, authz.ClubRole{ClubID: 1, Role: authz.RoleAdmin}, roles[0])
	assert.Equal(t, authz.ClubRole{ClubID: 2, Role: authz.RoleMember}, roles[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddMember(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()

	ctx := context.Background()
	invitedBy := int64(5)

	t.Run("new member inserted", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO memberships`).
			WithArgs(int64(1), int64(10), authz.RoleMember, invitedBy).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := store.AddMember(ctx, 1, 10, authz.RoleMember, &invitedBy)
		assert.NoError(t, err)
	})

	t.Run("existing member rejected", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO memberships`).
			WithArgs(int64(1), int64(10), authz.RoleMember, invitedBy).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := store.AddMember(ctx, 1, 10, authz.RoleMember, &invitedBy)
		assert.ErrorIs(t, err, ErrAlreadyMember)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivateMember(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()

	ctx := context.Background()

	t.Run("flips active flag", func(t *testing.T) {
		mock.ExpectExec(`UPDATE memberships\s+SET is_active = FALSE`).
			WithArgs(int64(1), int64(10)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, store.DeactivateMember(ctx, 1, 10))
	})

	t.Run("unknown member is not found", func(t *testing.T) {
		mock.ExpectExec(`UPDATE memberships\s+SET is_active = FALSE`).
			WithArgs(int64(1), int64(99)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, store.DeactivateMember(ctx, 1, 99), ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetClub(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()

	ctx := context.Background()
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, name, description, created_at, updated_at\s+FROM clubs`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "created_at", "updated_at"}).
				AddRow(1, "Metro Runners", "road running club", now, now))

		club, err := store.GetClub(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Metro Runners", club.Name)
	})

	t.Run("missing", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, name, description, created_at, updated_at\s+FROM clubs`).
			WithArgs(int64(42)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "created_at", "updated_at"}))

		_, err := store.GetClub(ctx, 42)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMembers(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "club_id", "role", "is_active", "invited_by",
		"joined_at", "created_at", "updated_at", "email", "display_name",
	}).
		AddRow(1, 10, 1, "owner", true, nil, now, now, now, "owner@example.com", "Club Owner").
		AddRow(2, 11, 1, "member", false, int64(10), now, now, now, "former@example.com", "Former Member")

	mock.ExpectQuery(`FROM memberships m\s+JOIN users u ON u.id = m.user_id`).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	members, err := store.ListMembers(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.True(t, members[0].IsActive)
	assert.False(t, members[1].IsActive)
	assert.Equal(t, "former@example.com", members[1].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptInvitation(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()

	ctx := context.Background()

	t.Run("accepting creates membership at invited role", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id, club_id, role, expires_at, accepted_at\s+FROM club_invitations`).
			WithArgs("tok-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "club_id", "role", "expires_at", "accepted_at"}).
				AddRow(1, 2, "member", time.Now().Add(time.Hour), nil))
		mock.ExpectExec(`INSERT INTO memberships`).
			WithArgs(int64(2), int64(10), authz.RoleMember).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`UPDATE club_invitations SET accepted_at = NOW\(\)`).
			WithArgs(int64(10), int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, store.AcceptInvitation(ctx, "tok-1", 10))
	})

	t.Run("accepting revives a deactivated membership", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id, club_id, role, expires_at, accepted_at\s+FROM club_invitations`).
			WithArgs("tok-4").
			WillReturnRows(sqlmock.NewRows([]string{"id", "club_id", "role", "expires_at", "accepted_at"}).
				AddRow(4, 2, "admin", time.Now().Add(time.Hour), nil))
		mock.ExpectExec(`INSERT INTO memberships .+ ON CONFLICT \(club_id, user_id\) DO UPDATE SET role = EXCLUDED\.role, is_active = TRUE`).
			WithArgs(int64(2), int64(11), authz.RoleAdmin).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE club_invitations SET accepted_at = NOW\(\)`).
			WithArgs(int64(11), int64(4)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, store.AcceptInvitation(ctx, "tok-4", 11))
	})

	t.Run("expired invitation rejected", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id, club_id, role, expires_at, accepted_at\s+FROM club_invitations`).
			WithArgs("tok-2").
			WillReturnRows(sqlmock.NewRows([]string{"id", "club_id", "role", "expires_at", "accepted_at"}).
				AddRow(2, 2, "member", time.Now().Add(-time.Hour), nil))
		mock.ExpectRollback()

		assert.ErrorIs(t, store.AcceptInvitation(ctx, "tok-2", 10), ErrInvitationExpired)
	})

	t.Run("already accepted invitation rejected", func(t *testing.T) {
		accepted := time.Now().Add(-time.Minute)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id, club_id, role, expires_at, accepted_at\s+FROM club_invitations`).
			WithArgs("tok-3").
			WillReturnRows(sqlmock.NewRows([]string{"id", "club_id", "role", "expires_at", "accepted_at"}).
				AddRow(3, 2, "member", time.Now().Add(time.Hour), accepted))
		mock.ExpectRollback()

		assert.ErrorIs(t, store.AcceptInvitation(ctx, "tok-3", 10), ErrInvitationAccepted)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
