package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daetalos/track-record-enterprise-sub000/pkg/athletics"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/audit"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/auth"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/authz"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/guard"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/membership"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/observability"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/session"
)

type noAuditor struct{}

func (noAuditor) RecordDenial(context.Context, int64, *int64, string, string, string) {}
func (noAuditor) RecordClubSwitch(context.Context, int64, int64, string)             {}

func newTestServer(t *testing.T) (*Server, *session.Manager, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	members := membership.NewStore(db)
	sessions := session.NewManager(client, members, time.Hour)
	metrics := observability.NewMetrics(nil)
	logger := observability.NewLogger(observability.ErrorLevel, os.Stderr)
	g := guard.New(sessions, authz.NewVerifier(members), metrics, noAuditor{})

	server := NewServer(Deps{
		Guard:      g,
		Auth:       auth.NewHandlers(auth.NewUserStore(db), sessions, logger),
		Sessions:   guard.NewSessionHandlers(sessions, members, metrics, noAuditor{}),
		Membership: membership.NewHandlers(members),
		Athletics:  athletics.NewHandlers(athletics.NewStore(db)),
		Audit:      audit.NewHandlers(audit.NewRecorder(db)),
		Logger:     logger,
		Metrics:    metrics,
	})
	return server, sessions, mock
}

func TestProtectedRoutesRequireAuthentication(t *testing.T) {
	server, _, _ := newTestServer(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/athletes"},
		{http.MethodGet, "/api/session"},
		{http.MethodPost, "/api/session/club"},
		{http.MethodGet, "/api/clubs"},
		{http.MethodGet, "/api/disciplines"},
		{http.MethodPost, "/api/auth/logout"},
	}
	for _, tt := range paths {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			server.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	server, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthenticatedSessionRoute(t *testing.T) {
	server, sessions, mock := newTestServer(t)

	tg := auth.NewTokenGenerator()
	token, tokenHash, err := tg.GenerateToken()
	require.NoError(t, err)

	// Session creation reads active memberships through the real
	// store; one row means the club is auto-selected.
	mock.ExpectQuery("SELECT club_id, role").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"club_id", "role"}).AddRow(int64(42), "member"))

	_, err = sessions.Create(context.Background(), tokenHash, 7)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"selected_club_id":42`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberCanListAgeGroups(t *testing.T) {
	server, sessions, mock := newTestServer(t)

	tg := auth.NewTokenGenerator()
	token, tokenHash, err := tg.GenerateToken()
	require.NoError(t, err)

	mock.ExpectQuery("SELECT club_id, role").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"club_id", "role"}).AddRow(int64(42), "member"))

	_, err = sessions.Create(context.Background(), tokenHash, 7)
	require.NoError(t, err)

	// Reading the brackets is a member-level view, not an admin write.
	mock.ExpectQuery("SELECT role").
		WithArgs(int64(7), int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("member"))
	mock.ExpectQuery("SELECT id, club_id, name, min_age, max_age").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "club_id", "name", "min_age", "max_age", "created_at"}).
			AddRow(int64(1), int64(42), "U13", 11, 12, time.Now()))

	req := httptest.NewRequest(http.MethodGet, "/api/age-groups", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "U13")
	assert.NoError(t, mock.ExpectationsWereMet())
}
