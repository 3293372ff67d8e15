package auth

import (
	"errors"
	"net/http"

	"github.com/daetalos/track-record-enterprise-sub000/pkg/httputil"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/observability"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/session"
)

// Handlers serves the authentication endpoints
type Handlers struct {
	users     *UserStore
	sessions  *session.Manager
	generator *TokenGenerator
	logger    *observability.Logger
}

// NewHandlers creates authentication handlers
func NewHandlers(users *UserStore, sessions *session.Manager, logger *observability.Logger) *Handlers {
	return &Handlers{
		users:     users,
		sessions:  sessions,
		generator: NewTokenGenerator(),
		logger:    logger,
	}
}

type registerRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string           `json:"token"`
	User    *User            `json:"user"`
	Session *session.Session `json:"session"`
}

// Register creates a new account
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		httputil.WriteBadRequest(w, "Email and password are required")
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.Email, req.DisplayName, req.Password)
	if errors.Is(err, ErrEmailTaken) {
		httputil.WriteConflict(w, "Email already registered")
		return
	}
	if err != nil {
		observability.GetLogger(r.Context()).WithError(err).Error("failed to register user")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteCreated(w, user)
}

// Login verifies credentials and starts a session. When the account
// belongs to exactly one club that club is selected immediately, so
// single-club users never see a club picker.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		httputil.WriteUnauthorized(w, "Invalid email or password")
		return
	}
	if err != nil {
		observability.GetLogger(r.Context()).WithError(err).Error("failed to authenticate user")
		httputil.WriteInternalError(w)
		return
	}

	token, tokenHash, err := h.generator.GenerateToken()
	if err != nil {
		observability.GetLogger(r.Context()).WithError(err).Error("failed to generate token")
		httputil.WriteInternalError(w)
		return
	}

	sess, err := h.sessions.Create(r.Context(), tokenHash, user.ID)
	if err != nil {
		observability.GetLogger(r.Context()).WithError(err).Error("failed to create session")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteSuccess(w, loginResponse{Token: token, User: user, Session: sess})
}

// Logout destroys the caller's session. The token is parsed directly
// so logout works even when the session has already expired.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := BearerToken(r)
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.sessions.Destroy(r.Context(), h.generator.HashToken(token)); err != nil {
		observability.GetLogger(r.Context()).WithError(err).Error("failed to destroy session")
		httputil.WriteInternalError(w)
		return
	}

	httputil.WriteNoContent(w)
}

// BearerToken extracts the bearer token from the Authorization header
func BearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return "", false
	}
	return header[len(prefix):], true
}
