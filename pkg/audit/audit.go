// Package audit keeps a durable trail of authorization outcomes:
// every denial and every club switch, queryable for incident review.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/daetalos/track-record-enterprise-sub000/pkg/contextkeys"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/observability"
)

// Event types recorded in the trail
const (
	EventTypeAccessDenied = "access_denied"
	EventTypeClubSwitch   = "club_switch"
)

// Event is one audit trail row
type Event struct {
	ID         int64     `json:"id"`
	UserID     *int64    `json:"user_id,omitempty"`
	ClubID     *int64    `json:"club_id,omitempty"`
	EventType  string    `json:"event_type"`
	Capability string    `json:"capability,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	Path       string    `json:"path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Recorder writes audit events to PostgreSQL. Recording is best
// effort: a failed insert is logged and dropped, it never fails the
// request that triggered it.
type Recorder struct {
	db *sql.DB
}

// NewRecorder creates an audit recorder
func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{db: db}
}

// RecordDenial logs a denied authorization decision
func (r *Recorder) RecordDenial(ctx context.Context, userID int64, clubID *int64, capability, reason, path string) {
	r.insert(ctx, Event{
		UserID:     &userID,
		ClubID:     clubID,
		EventType:  EventTypeAccessDenied,
		Capability: capability,
		Reason:     reason,
		RequestID:  contextkeys.RequestID(ctx),
		Path:       path,
	})
}

// RecordClubSwitch logs a successful change of selected club
func (r *Recorder) RecordClubSwitch(ctx context.Context, userID, clubID int64, path string) {
	r.insert(ctx, Event{
		UserID:    &userID,
		ClubID:    &clubID,
		EventType: EventTypeClubSwitch,
		RequestID: contextkeys.RequestID(ctx),
		Path:      path,
	})
}

func (r *Recorder) insert(ctx context.Context, e Event) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_events (user_id, club_id, event_type, capability, reason, request_id, path)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.UserID, e.ClubID, e.EventType, nullable(e.Capability), nullable(e.Reason),
		nullable(e.RequestID), nullable(e.Path),
	)
	if err != nil {
		observability.GetLogger(ctx).WithError(err).
			WithField("event_type", e.EventType).
			Error("failed to record audit event")
	}
}

// ListDenials returns recent denial events for a club, newest first
func (r *Recorder) ListDenials(ctx context.Context, clubID int64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, club_id, event_type, capability, reason, request_id, path, created_at
		FROM audit_events
		WHERE club_id = $1 AND event_type = $2
		ORDER BY created_at DESC
		LIMIT $3`,
		clubID, EventTypeAccessDenied, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list denials: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var capability, reason, requestID, path sql.NullString
		if err := rows.Scan(&e.ID, &e.UserID, &e.ClubID, &e.EventType,
			&capability, &reason, &requestID, &path, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		e.Capability = capability.String
		e.Reason = reason.String
		e.RequestID = requestID.String
		e.Path = path.String
		events = append(events, e)
	}
	return events, rows.Err()
}

// CleanupOlderThan deletes audit rows past the retention window and
// returns how many were removed
func (r *Recorder) CleanupOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM audit_events WHERE created_at < $1",
		time.Now().Add(-retention),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up audit events: %w", err)
	}
	return res.RowsAffected()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
