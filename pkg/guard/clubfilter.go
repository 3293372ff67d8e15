package guard

import (
	"context"
	"fmt"
	"net/http"

	"github.com/daetalos/track-record-enterprise-sub000/pkg/contextkeys"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/httputil"
)

// sentinelClubID matches no row. Club ids come from a bigserial
// column, so -1 can never identify a real club; a query filtered by it
// returns an empty set rather than an unscoped one.
const sentinelClubID int64 = -1

// ClubFilter scopes every data query to a single club. It is built
// from the request context after RequireCapability ran; if no club was
// resolved the filter carries the sentinel id, so a wiring mistake
// upstream yields zero rows instead of cross-club leakage.
type ClubFilter struct {
	clubID int64
}

// FilterFromContext derives the fail-closed filter for the request
func FilterFromContext(ctx context.Context) ClubFilter {
	clubID, ok := contextkeys.ClubID(ctx)
	if !ok {
		return ClubFilter{clubID: sentinelClubID}
	}
	return ClubFilter{clubID: clubID}
}

// FilterForClub builds a filter for an already-verified club id
func FilterForClub(clubID int64) ClubFilter {
	return ClubFilter{clubID: clubID}
}

// ClubID returns the id every query must filter by
func (f ClubFilter) ClubID() int64 {
	return f.clubID
}

// Owned is implemented by resources that record the club they belong
// to.
type Owned interface {
	OwnerClubID() int64
}

// CheckOwnership re-verifies that a fetched resource belongs to the
// club the request was authorized for. The store query already filters
// by club, but the recorded club id is checked again before the
// resource is acted on; a mismatch is always a 403 naming the resource,
// never a 404, because the caller proved the resource exists by id.
func CheckOwnership(w http.ResponseWriter, r *http.Request, resource Owned, resourceName string) bool {
	filter := FilterFromContext(r.Context())
	if resource.OwnerClubID() != filter.ClubID() {
		httputil.WriteForbidden(w, fmt.Sprintf("Access denied to this %s", resourceName))
		return false
	}
	return true
}
