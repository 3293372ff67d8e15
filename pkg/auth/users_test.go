package auth

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthenticate(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	store := NewUserStore(db)
	now := time.Now()
	userRow := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "email", "display_name", "password_hash", "created_at", "updated_at"}).
			AddRow(int64(7), "coach@example.com", "Coach", string(hash), now, now)
	}

	t.Run("correct password", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email, display_name, password_hash").
			WithArgs("coach@example.com").
			WillReturnRows(userRow())

		user, err := store.Authenticate(context.Background(), "coach@example.com", "s3cret")
		require.NoError(t, err)
		assert.Equal(t, int64(7), user.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email, display_name, password_hash").
			WithArgs("coach@example.com").
			WillReturnRows(userRow())

		_, err := store.Authenticate(context.Background(), "coach@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email, display_name, password_hash").
			WithArgs("nobody@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "display_name", "password_hash", "created_at", "updated_at"}))

		_, err := store.Authenticate(context.Background(), "nobody@example.com", "s3cret")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("coach@example.com", "Coach", sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505"})

	store := NewUserStore(db)
	_, err = store.CreateUser(context.Background(), "coach@example.com", "Coach", "s3cret")
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}
