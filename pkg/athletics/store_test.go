package athletics

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daetalos/track-record-enterprise-sub000/pkg/guard"
)

func newStoreTest(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func TestListAthletesScopedToClub(t *testing.T) {
	store, mock := newStoreTest(t)
	now := time.Now()
	dob := time.Date(2012, 3, 5, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, club_id, first_name, last_name").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "club_id", "first_name", "last_name", "date_of_birth", "gender", "created_at", "updated_at",
		}).AddRow(int64(5), int64(42), "Ada", "Jones", dob, "F", now, now))

	athletes, err := store.ListAthletes(context.Background(), guard.FilterForClub(42))
	require.NoError(t, err)
	require.Len(t, athletes, 1)
	assert.Equal(t, int64(42), athletes[0].ClubID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAthletesFailClosedFilter(t *testing.T) {
	store, mock := newStoreTest(t)

	// An unresolved club context queries with the sentinel id, which
	// can never match a bigserial key.
	mock.ExpectQuery("SELECT id, club_id, first_name, last_name").
		WithArgs(int64(-1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "club_id", "first_name", "last_name", "date_of_birth", "gender", "created_at", "updated_at",
		}))

	athletes, err := store.ListAthletes(context.Background(), guard.FilterFromContext(context.Background()))
	require.NoError(t, err)
	assert.Empty(t, athletes)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAthleteNotFoundInForeignClub(t *testing.T) {
	store, mock := newStoreTest(t)

	mock.ExpectQuery("SELECT id, club_id, first_name, last_name").
		WithArgs(int64(5), int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "club_id", "first_name", "last_name", "date_of_birth", "gender", "created_at", "updated_at",
		}))

	_, err := store.GetAthlete(context.Background(), guard.FilterForClub(42), 5)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAthleteDuplicate(t *testing.T) {
	store, mock := newStoreTest(t)
	dob := time.Date(2012, 3, 5, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO athletes").
		WithArgs(int64(42), "Ada", "Jones", dob, "F").
		WillReturnError(&pq.Error{Code: "23505"})

	err := store.CreateAthlete(context.Background(), guard.FilterForClub(42),
		&Athlete{FirstName: "Ada", LastName: "Jones", DateOfBirth: dob, Gender: "F"})
	assert.ErrorIs(t, err, ErrDuplicateAthlete)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePerformanceDuplicate(t *testing.T) {
	store, mock := newStoreTest(t)
	recorded := time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC)
	seconds := 12.43

	mock.ExpectQuery("INSERT INTO performances").
		WithArgs(int64(42), int64(5), int64(1), int64(3), seconds, nil, recorded, "").
		WillReturnError(&pq.Error{Code: "23505"})

	err := store.CreatePerformance(context.Background(), guard.FilterForClub(42), &Performance{
		AthleteID:    5,
		DisciplineID: 1,
		SeasonID:     3,
		TimeSeconds:  &seconds,
		RecordedOn:   recorded,
	})
	assert.ErrorIs(t, err, ErrDuplicatePerformance)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePerformanceMissing(t *testing.T) {
	store, mock := newStoreTest(t)

	mock.ExpectExec("DELETE FROM performances").
		WithArgs(int64(9), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.DeletePerformance(context.Background(), guard.FilterForClub(42), 9)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAgeGroup(t *testing.T) {
	store, mock := newStoreTest(t)

	mock.ExpectExec("UPDATE age_groups").
		WithArgs("U12", 10, 11, int64(2), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.UpdateAgeGroup(context.Background(), guard.FilterForClub(42),
		&AgeGroup{ID: 2, Name: "U12", MinAge: 10, MaxAge: 11})
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListDisciplines(t *testing.T) {
	store, mock := newStoreTest(t)
	now := time.Now()

	mock.ExpectQuery("SELECT id, name, measurement, created_at").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "measurement", "created_at"}).
			AddRow(int64(1), "100m", "timed", now).
			AddRow(int64(2), "Long Jump", "measured", now))

	disciplines, err := store.ListDisciplines(context.Background())
	require.NoError(t, err)
	require.Len(t, disciplines, 2)
	assert.Equal(t, MeasurementTimed, disciplines[0].Measurement)

	assert.NoError(t, mock.ExpectationsWereMet())
}
