package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/daetalos/track-record-enterprise-sub000/pkg/authz"
)

// Sentinel errors returned by the manager
var (
	// ErrNotFound means the token maps to no live session
	ErrNotFound = errors.New("session not found or expired")
	// ErrNoAccess means the switch target is not a club the user has
	// an active membership in
	ErrNoAccess = errors.New("no active membership in the requested club")
)

// Session is the per-login record: who is signed in and which club, if
// any, is currently selected. It carries no role; roles are re-derived
// from the membership store on every check, so a stale session cannot
// grant stale permissions.
type Session struct {
	UserID         int64     `json:"user_id"`
	SelectedClubID *int64    `json:"selected_club_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// MembershipSource is the read surface the manager needs for
// auto-selection and switch verification
type MembershipSource interface {
	ActiveRole(ctx context.Context, userID, clubID int64) (authz.Role, bool, error)
	ActiveClubIDs(ctx context.Context, userID int64) ([]int64, error)
}

// Manager stores sessions in Redis keyed by the sha256 hash of the
// bearer token, so sessions are shared across instances and a leaked
// Redis dump exposes no usable tokens.
type Manager struct {
	client  *redis.Client
	members MembershipSource
	ttl     time.Duration
	prefix  string
}

// NewManager creates a session manager
func NewManager(client *redis.Client, members MembershipSource, ttl time.Duration) *Manager {
	return &Manager{
		client:  client,
		members: members,
		ttl:     ttl,
		prefix:  "session",
	}
}

func (m *Manager) key(tokenHash string) string {
	return fmt.Sprintf("%s:%s", m.prefix, tokenHash)
}

// Create starts a session for a freshly authenticated user. When the
// user holds exactly one active membership that club is auto-selected;
// with zero or several memberships the selection stays unset and the
// caller must switch explicitly.
func (m *Manager) Create(ctx context.Context, tokenHash string, userID int64) (*Session, error) {
	clubIDs, err := m.members.ActiveClubIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}

	now := time.Now()
	sess := &Session{
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if len(clubIDs) == 1 {
		sess.SelectedClubID = &clubIDs[0]
	}

	if err := m.put(ctx, tokenHash, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get loads the session for a token hash
func (m *Manager) Get(ctx context.Context, tokenHash string) (*Session, error) {
	data, err := m.client.Get(ctx, m.key(tokenHash)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		// Corrupt entry: drop it rather than serve garbage.
		m.client.Del(ctx, m.key(tokenHash))
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

// SwitchClub changes the session's selected club. The target is
// re-verified against the membership store before anything is written:
// a forged or stale club id returns ErrNoAccess and leaves the previous
// selection untouched. This is the only operation that mutates the
// selection.
func (m *Manager) SwitchClub(ctx context.Context, tokenHash string, clubID int64) (*Session, error) {
	sess, err := m.Get(ctx, tokenHash)
	if err != nil {
		return nil, err
	}

	_, found, err := m.members.ActiveRole(ctx, sess.UserID, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}
	if !found {
		return nil, ErrNoAccess
	}

	sess.SelectedClubID = &clubID
	if err := m.put(ctx, tokenHash, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Touch extends the session's lifetime. It never changes the selected
// club: refresh and selection update are distinct operations.
func (m *Manager) Touch(ctx context.Context, tokenHash string) error {
	sess, err := m.Get(ctx, tokenHash)
	if err != nil {
		return err
	}
	sess.ExpiresAt = time.Now().Add(m.ttl)
	return m.put(ctx, tokenHash, sess)
}

// Destroy ends the session. Destroying an already-gone session is not
// an error.
func (m *Manager) Destroy(ctx context.Context, tokenHash string) error {
	if err := m.client.Del(ctx, m.key(tokenHash)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (m *Manager) put(ctx context.Context, tokenHash string, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return ErrNotFound
	}
	if err := m.client.Set(ctx, m.key(tokenHash), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}
