package athletics

import (
	"errors"
	"net/http"

	"github.com/daetalos/track-record-enterprise-sub000/pkg/guard"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/httputil"
	"github.com/daetalos/track-record-enterprise-sub000/pkg/observability"
)

// Handlers serves the athletics endpoints. Club-scoped routes run
// behind the guard's capability middleware, so by the time a handler
// executes the club context is resolved and authorized; the handler
// still re-checks ownership of anything fetched by id.
type Handlers struct {
	store *Store
}

// NewHandlers creates athletics handlers
func NewHandlers(store *Store) *Handlers {
	return &Handlers{store: store}
}

func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		httputil.WriteBadRequest(w, vErr.Message)
	case errors.Is(err, ErrNotFound):
		httputil.WriteNotFound(w, "not found")
	case errors.Is(err, ErrDuplicateAthlete),
		errors.Is(err, ErrDuplicatePerformance),
		errors.Is(err, ErrNameTaken):
		httputil.WriteConflict(w, err.Error())
	default:
		observability.GetLogger(r.Context()).WithError(err).Error("athletics store operation failed")
		httputil.WriteInternalError(w)
	}
}

// ListAthletes returns the authorized club's roster
func (h *Handlers) ListAthletes(w http.ResponseWriter, r *http.Request) {
	athletes, err := h.store.ListAthletes(r.Context(), guard.FilterFromContext(r.Context()))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, athletes)
}

// CreateAthlete registers an athlete in the authorized club
func (h *Handlers) CreateAthlete(w http.ResponseWriter, r *http.Request) {
	var a Athlete
	if !httputil.ParseJSONOrError(w, r, &a) {
		return
	}
	if err := ValidateAthlete(&a); err != nil {
		writeStoreError(w, r, err)
		return
	}
	if err := h.store.CreateAthlete(r.Context(), guard.FilterFromContext(r.Context()), &a); err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteCreated(w, a)
}

// GetAthlete fetches one athlete by id
func (h *Handlers) GetAthlete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	athlete, err := h.store.GetAthlete(r.Context(), guard.FilterFromContext(r.Context()), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if !guard.CheckOwnership(w, r, athlete, "athlete") {
		return
	}
	httputil.WriteSuccess(w, athlete)
}

// UpdateAthlete updates one athlete by id
func (h *Handlers) UpdateAthlete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	filter := guard.FilterFromContext(r.Context())

	existing, err := h.store.GetAthlete(r.Context(), filter, id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if !guard.CheckOwnership(w, r, existing, "athlete") {
		return
	}

	var a Athlete
	if !httputil.ParseJSONOrError(w, r, &a) {
		return
	}
	a.ID = id
	if err := ValidateAthlete(&a); err != nil {
		writeStoreError(w, r, err)
		return
	}
	if err := h.store.UpdateAthlete(r.Context(), filter, &a); err != nil {
		writeStoreError(w, r, err)
		return
	}
	a.ClubID = existing.ClubID
	httputil.WriteSuccess(w, a)
}

// DeleteAthlete removes one athlete by id
func (h *Handlers) DeleteAthlete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	filter := guard.FilterFromContext(r.Context())

	existing, err := h.store.GetAthlete(r.Context(), filter, id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if !guard.CheckOwnership(w, r, existing, "athlete") {
		return
	}

	if err := h.store.DeleteAthlete(r.Context(), filter, id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

// ListPerformances returns the club's results, optionally one
// athlete's via the athlete_id query parameter
func (h *Handlers) ListPerformances(w http.ResponseWriter, r *http.Request) {
	athleteID, err := httputil.ParseQueryInt64(r, "athlete_id")
	if err != nil {
		httputil.WriteBadRequest(w, "invalid athlete_id")
		return
	}
	performances, err := h.store.ListPerformances(r.Context(), guard.FilterFromContext(r.Context()), athleteID)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, performances)
}

// CreatePerformance records a result. The athlete is fetched within
// the club filter and its recorded club re-checked, so a result can
// never be attached to another club's athlete.
func (h *Handlers) CreatePerformance(w http.ResponseWriter, r *http.Request) {
	var p Performance
	if !httputil.ParseJSONOrError(w, r, &p) {
		return
	}
	filter := guard.FilterFromContext(r.Context())

	if p.AthleteID == 0 || p.DisciplineID == 0 || p.SeasonID == 0 {
		httputil.WriteBadRequest(w, "athlete, discipline and season are required")
		return
	}

	athlete, err := h.store.GetAthlete(r.Context(), filter, p.AthleteID)
	if errors.Is(err, ErrNotFound) {
		httputil.WriteBadRequest(w, "unknown athlete")
		return
	}
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if !guard.CheckOwnership(w, r, athlete, "athlete") {
		return
	}

	discipline, err := h.store.GetDiscipline(r.Context(), p.DisciplineID)
	if errors.Is(err, ErrNotFound) {
		httputil.WriteBadRequest(w, "unknown discipline")
		return
	}
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	if err := ValidatePerformance(&p, discipline); err != nil {
		writeStoreError(w, r, err)
		return
	}
	if err := h.store.CreatePerformance(r.Context(), filter, &p); err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteCreated(w, p)
}

// GetPerformance fetches one performance by id
func (h *Handlers) GetPerformance(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	performance, err := h.store.GetPerformance(r.Context(), guard.FilterFromContext(r.Context()), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if !guard.CheckOwnership(w, r, performance, "performance") {
		return
	}
	httputil.WriteSuccess(w, performance)
}

// UpdatePerformance updates one performance by id
func (h *Handlers) UpdatePerformance(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	filter := guard.FilterFromContext(r.Context())

	existing, err := h.store.GetPerformance(r.Context(), filter, id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if !guard.CheckOwnership(w, r, existing, "performance") {
		return
	}

	var p Performance
	if !httputil.ParseJSONOrError(w, r, &p) {
		return
	}
	p.ID = id
	p.AthleteID = existing.AthleteID
	p.DisciplineID = existing.DisciplineID
	p.SeasonID = existing.SeasonID

	discipline, err := h.store.GetDiscipline(r.Context(), p.DisciplineID)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if err := ValidatePerformance(&p, discipline); err != nil {
		writeStoreError(w, r, err)
		return
	}
	if err := h.store.UpdatePerformance(r.Context(), filter, &p); err != nil {
		writeStoreError(w, r, err)
		return
	}
	p.ClubID = existing.ClubID
	httputil.WriteSuccess(w, p)
}

// DeletePerformance removes one performance by id
func (h *Handlers) DeletePerformance(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	filter := guard.FilterFromContext(r.Context())

	existing, err := h.store.GetPerformance(r.Context(), filter, id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if !guard.CheckOwnership(w, r, existing, "performance") {
		return
	}

	if err := h.store.DeletePerformance(r.Context(), filter, id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

// ListAgeGroups returns the club's age brackets
func (h *Handlers) ListAgeGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.store.ListAgeGroups(r.Context(), guard.FilterFromContext(r.Context()))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, groups)
}

// CreateAgeGroup adds an age bracket to the club
func (h *Handlers) CreateAgeGroup(w http.ResponseWriter, r *http.Request) {
	var g AgeGroup
	if !httputil.ParseJSONOrError(w, r, &g) {
		return
	}
	filter := guard.FilterFromContext(r.Context())

	existing, err := h.store.ListAgeGroups(r.Context(), filter)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if err := ValidateAgeGroup(&g, existing); err != nil {
		writeStoreError(w, r, err)
		return
	}
	if err := h.store.CreateAgeGroup(r.Context(), filter, &g); err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteCreated(w, g)
}

// UpdateAgeGroup updates one age bracket by id
func (h *Handlers) UpdateAgeGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	filter := guard.FilterFromContext(r.Context())

	current, err := h.store.GetAgeGroup(r.Context(), filter, id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if !guard.CheckOwnership(w, r, current, "age group") {
		return
	}

	var g AgeGroup
	if !httputil.ParseJSONOrError(w, r, &g) {
		return
	}
	g.ID = id

	existing, err := h.store.ListAgeGroups(r.Context(), filter)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if err := ValidateAgeGroup(&g, existing); err != nil {
		writeStoreError(w, r, err)
		return
	}
	if err := h.store.UpdateAgeGroup(r.Context(), filter, &g); err != nil {
		writeStoreError(w, r, err)
		return
	}
	g.ClubID = current.ClubID
	httputil.WriteSuccess(w, g)
}

// DeleteAgeGroup removes one age bracket by id
func (h *Handlers) DeleteAgeGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	filter := guard.FilterFromContext(r.Context())

	current, err := h.store.GetAgeGroup(r.Context(), filter, id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if !guard.CheckOwnership(w, r, current, "age group") {
		return
	}

	if err := h.store.DeleteAgeGroup(r.Context(), filter, id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

// ListDisciplines returns the global catalog. Requires only
// authentication.
func (h *Handlers) ListDisciplines(w http.ResponseWriter, r *http.Request) {
	disciplines, err := h.store.ListDisciplines(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, disciplines)
}

// CreateDiscipline adds to the global catalog
func (h *Handlers) CreateDiscipline(w http.ResponseWriter, r *http.Request) {
	var d Discipline
	if !httputil.ParseJSONOrError(w, r, &d) {
		return
	}
	if err := ValidateDiscipline(&d); err != nil {
		writeStoreError(w, r, err)
		return
	}
	if err := h.store.CreateDiscipline(r.Context(), &d); err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteCreated(w, d)
}

// UpdateDiscipline updates a global catalog entry
func (h *Handlers) UpdateDiscipline(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var d Discipline
	if !httputil.ParseJSONOrError(w, r, &d) {
		return
	}
	d.ID = id
	if err := ValidateDiscipline(&d); err != nil {
		writeStoreError(w, r, err)
		return
	}
	if err := h.store.UpdateDiscipline(r.Context(), &d); err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, d)
}

// DeleteDiscipline removes a global catalog entry
func (h *Handlers) DeleteDiscipline(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteDiscipline(r.Context(), id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

// ListSeasons returns the global catalog. Requires only
// authentication.
func (h *Handlers) ListSeasons(w http.ResponseWriter, r *http.Request) {
	seasons, err := h.store.ListSeasons(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, seasons)
}

// CreateSeason adds to the global catalog
func (h *Handlers) CreateSeason(w http.ResponseWriter, r *http.Request) {
	var s Season
	if !httputil.ParseJSONOrError(w, r, &s) {
		return
	}
	if err := ValidateSeason(&s); err != nil {
		writeStoreError(w, r, err)
		return
	}
	if err := h.store.CreateSeason(r.Context(), &s); err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteCreated(w, s)
}

// UpdateSeason updates a global catalog entry
func (h *Handlers) UpdateSeason(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var s Season
	if !httputil.ParseJSONOrError(w, r, &s) {
		return
	}
	s.ID = id
	if err := ValidateSeason(&s); err != nil {
		writeStoreError(w, r, err)
		return
	}
	if err := h.store.UpdateSeason(r.Context(), &s); err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, s)
}

// DeleteSeason removes a global catalog entry
func (h *Handlers) DeleteSeason(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteSeason(r.Context(), id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}
