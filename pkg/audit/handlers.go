package audit

import (
	"net/http"

	"github.com/daetalos/track-record-enterprise-sub000/pkg/guard"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/httputil"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/observability"
)

// Handlers serves the audit trail endpoints
type Handlers struct {
	recorder *Recorder
}

// NewHandlers creates audit handlers
func NewHandlers(recorder *Recorder) *Handlers {
	return &Handlers{recorder: recorder}
}

// ListDenials returns recent denied authorization attempts for the
// authorized club
func (h *Handlers) ListDenials(w http.ResponseWriter, r *http.Request) {
	filter := guard.FilterFromContext(r.Context())
	limit := httputil.ParseQueryInt(r, "limit", 50)

	events, err := h.recorder.ListDenials(r.Context(), filter.ClubID(), limit)
	if err != nil {
		observability.GetLogger(r.Context()).WithError(err).Error("failed to list audit denials")
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteSuccess(w, events)
}
