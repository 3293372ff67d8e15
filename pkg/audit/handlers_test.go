package audit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daetalos/track-record-enterprise-sub000/pkg/contextkeys"
)

func TestListDenialsHandler(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, user_id, club_id, event_type").
		WithArgs(int64(42), EventTypeAccessDenied, 10).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "club_id", "event_type", "capability", "reason", "request_id", "path", "created_at",
		}).AddRow(int64(1), int64(7), int64(42), EventTypeAccessDenied,
			"athletes:manage", "Insufficient permissions", "req-1", "/api/athletes", time.Now()))

	h := NewHandlers(NewRecorder(db))
	req := httptest.NewRequest(http.MethodGet, "/api/audit/denials?limit=10", nil)
	req = req.WithContext(contextkeys.WithClubID(context.Background(), 42))
	rec := httptest.NewRecorder()

	h.ListDenials(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "athletes:manage")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListDenialsHandlerNoClubContext(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, user_id, club_id, event_type").
		WithArgs(int64(-1), EventTypeAccessDenied, 50).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "club_id", "event_type", "capability", "reason", "request_id", "path", "created_at",
		}))

	h := NewHandlers(NewRecorder(db))
	req := httptest.NewRequest(http.MethodGet, "/api/audit/denials", nil)
	rec := httptest.NewRecorder()

	h.ListDenials(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
