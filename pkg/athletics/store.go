package athletics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/daetalos/track-record-enterprise-sub000/pkg/guard"
)

// Store provides athletics persistence backed by PostgreSQL. Every
// club-scoped read and write takes a guard.ClubFilter, so an
// unresolved club context yields zero rows rather than another club's
// data.
type Store struct {
	db *sql.DB
}

// NewStore creates an athletics store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateAthlete registers an athlete in the filter's club
func (s *Store) CreateAthlete(ctx context.Context, filter guard.ClubFilter, a *Athlete) error {
	a.ClubID = filter.ClubID()
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO athletes (club_id, first_name, last_name, date_of_birth, gender)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		a.ClubID, a.FirstName, a.LastName, a.DateOfBirth, a.Gender,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateAthlete
		}
		return fmt.Errorf("failed to create athlete: %w", err)
	}
	return nil
}

// GetAthlete fetches one athlete within the filter's club
func (s *Store) GetAthlete(ctx context.Context, filter guard.ClubFilter, id int64) (*Athlete, error) {
	var a Athlete
	err := s.db.QueryRowContext(ctx, `
		SELECT id, club_id, first_name, last_name, date_of_birth, gender, created_at, updated_at
		FROM athletes WHERE id = $1 AND club_id = $2`,
		id, filter.ClubID(),
	).Scan(&a.ID, &a.ClubID, &a.FirstName, &a.LastName, &a.DateOfBirth, &a.Gender,
		&a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get athlete: %w", err)
	}
	return &a, nil
}

// ListAthletes returns the filter's club roster ordered by name
func (s *Store) ListAthletes(ctx context.Context, filter guard.ClubFilter) ([]Athlete, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, club_id, first_name, last_name, date_of_birth, gender, created_at, updated_at
		FROM athletes WHERE club_id = $1
		ORDER BY last_name, first_name`,
		filter.ClubID(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list athletes: %w", err)
	}
	defer rows.Close()

	var athletes []Athlete
	for rows.Next() {
		var a Athlete
		if err := rows.Scan(&a.ID, &a.ClubID, &a.FirstName, &a.LastName, &a.DateOfBirth,
			&a.Gender, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan athlete: %w", err)
		}
		athletes = append(athletes, a)
	}
	return athletes, rows.Err()
}

// UpdateAthlete updates an athlete within the filter's club
func (s *Store) UpdateAthlete(ctx context.Context, filter guard.ClubFilter, a *Athlete) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE athletes
		SET first_name = $1, last_name = $2, date_of_birth = $3, gender = $4, updated_at = NOW()
		WHERE id = $5 AND club_id = $6`,
		a.FirstName, a.LastName, a.DateOfBirth, a.Gender, a.ID, filter.ClubID(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateAthlete
		}
		return fmt.Errorf("failed to update athlete: %w", err)
	}
	return requireRow(res)
}

// DeleteAthlete removes an athlete within the filter's club
func (s *Store) DeleteAthlete(ctx context.Context, filter guard.ClubFilter, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM athletes WHERE id = $1 AND club_id = $2",
		id, filter.ClubID(),
	)
	if err != nil {
		return fmt.Errorf("failed to delete athlete: %w", err)
	}
	return requireRow(res)
}

// CreatePerformance records a result in the filter's club
func (s *Store) CreatePerformance(ctx context.Context, filter guard.ClubFilter, p *Performance) error {
	p.ClubID = filter.ClubID()
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO performances (club_id, athlete_id, discipline_id, season_id, time_seconds, distance_metres, recorded_on, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		p.ClubID, p.AthleteID, p.DisciplineID, p.SeasonID,
		p.TimeSeconds, p.DistanceMetres, p.RecordedOn, p.Notes,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicatePerformance
		}
		return fmt.Errorf("failed to create performance: %w", err)
	}
	return nil
}

// GetPerformance fetches one performance within the filter's club
func (s *Store) GetPerformance(ctx context.Context, filter guard.ClubFilter, id int64) (*Performance, error) {
	var p Performance
	err := s.db.QueryRowContext(ctx, `
		SELECT id, club_id, athlete_id, discipline_id, season_id, time_seconds, distance_metres, recorded_on, notes, created_at, updated_at
		FROM performances WHERE id = $1 AND club_id = $2`,
		id, filter.ClubID(),
	).Scan(&p.ID, &p.ClubID, &p.AthleteID, &p.DisciplineID, &p.SeasonID,
		&p.TimeSeconds, &p.DistanceMetres, &p.RecordedOn, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get performance: %w", err)
	}
	return &p, nil
}

// ListPerformances returns the club's results, optionally narrowed to
// one athlete, newest first
func (s *Store) ListPerformances(ctx context.Context, filter guard.ClubFilter, athleteID *int64) ([]Performance, error) {
	query := `
		SELECT id, club_id, athlete_id, discipline_id, season_id, time_seconds, distance_metres, recorded_on, notes, created_at, updated_at
		FROM performances WHERE club_id = $1`
	args := []interface{}{filter.ClubID()}
	if athleteID != nil {
		query += " AND athlete_id = $2"
		args = append(args, *athleteID)
	}
	query += " ORDER BY recorded_on DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list performances: %w", err)
	}
	defer rows.Close()

	var performances []Performance
	for rows.Next() {
		var p Performance
		if err := rows.Scan(&p.ID, &p.ClubID, &p.AthleteID, &p.DisciplineID, &p.SeasonID,
			&p.TimeSeconds, &p.DistanceMetres, &p.RecordedOn, &p.Notes,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan performance: %w", err)
		}
		performances = append(performances, p)
	}
	return performances, rows.Err()
}

// UpdatePerformance updates a result within the filter's club
func (s *Store) UpdatePerformance(ctx context.Context, filter guard.ClubFilter, p *Performance) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE performances
		SET time_seconds = $1, distance_metres = $2, recorded_on = $3, notes = $4, updated_at = NOW()
		WHERE id = $5 AND club_id = $6`,
		p.TimeSeconds, p.DistanceMetres, p.RecordedOn, p.Notes, p.ID, filter.ClubID(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicatePerformance
		}
		return fmt.Errorf("failed to update performance: %w", err)
	}
	return requireRow(res)
}

// DeletePerformance removes a result within the filter's club
func (s *Store) DeletePerformance(ctx context.Context, filter guard.ClubFilter, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM performances WHERE id = $1 AND club_id = $2",
		id, filter.ClubID(),
	)
	if err != nil {
		return fmt.Errorf("failed to delete performance: %w", err)
	}
	return requireRow(res)
}

// CreateAgeGroup adds an age bracket to the filter's club
func (s *Store) CreateAgeGroup(ctx context.Context, filter guard.ClubFilter, g *AgeGroup) error {
	g.ClubID = filter.ClubID()
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO age_groups (club_id, name, min_age, max_age)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		g.ClubID, g.Name, g.MinAge, g.MaxAge,
	).Scan(&g.ID, &g.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrNameTaken
		}
		return fmt.Errorf("failed to create age group: %w", err)
	}
	return nil
}

// GetAgeGroup fetches one age group within the filter's club
func (s *Store) GetAgeGroup(ctx context.Context, filter guard.ClubFilter, id int64) (*AgeGroup, error) {
	var g AgeGroup
	err := s.db.QueryRowContext(ctx, `
		SELECT id, club_id, name, min_age, max_age, created_at
		FROM age_groups WHERE id = $1 AND club_id = $2`,
		id, filter.ClubID(),
	).Scan(&g.ID, &g.ClubID, &g.Name, &g.MinAge, &g.MaxAge, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get age group: %w", err)
	}
	return &g, nil
}

// ListAgeGroups returns the filter's club brackets ordered by range
func (s *Store) ListAgeGroups(ctx context.Context, filter guard.ClubFilter) ([]AgeGroup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, club_id, name, min_age, max_age, created_at
		FROM age_groups WHERE club_id = $1
		ORDER BY min_age`,
		filter.ClubID(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list age groups: %w", err)
	}
	defer rows.Close()

	var groups []AgeGroup
	for rows.Next() {
		var g AgeGroup
		if err := rows.Scan(&g.ID, &g.ClubID, &g.Name, &g.MinAge, &g.MaxAge, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan age group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// UpdateAgeGroup updates a bracket within the filter's club
func (s *Store) UpdateAgeGroup(ctx context.Context, filter guard.ClubFilter, g *AgeGroup) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE age_groups SET name = $1, min_age = $2, max_age = $3
		WHERE id = $4 AND club_id = $5`,
		g.Name, g.MinAge, g.MaxAge, g.ID, filter.ClubID(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrNameTaken
		}
		return fmt.Errorf("failed to update age group: %w", err)
	}
	return requireRow(res)
}

// DeleteAgeGroup removes a bracket within the filter's club
func (s *Store) DeleteAgeGroup(ctx context.Context, filter guard.ClubFilter, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM age_groups WHERE id = $1 AND club_id = $2",
		id, filter.ClubID(),
	)
	if err != nil {
		return fmt.Errorf("failed to delete age group: %w", err)
	}
	return requireRow(res)
}

// CreateDiscipline adds a global catalog entry
func (s *Store) CreateDiscipline(ctx context.Context, d *Discipline) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO disciplines (name, measurement)
		VALUES ($1, $2)
		RETURNING id, created_at`,
		d.Name, d.Measurement,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrNameTaken
		}
		return fmt.Errorf("failed to create discipline: %w", err)
	}
	return nil
}

// GetDiscipline fetches one global catalog entry
func (s *Store) GetDiscipline(ctx context.Context, id int64) (*Discipline, error) {
	var d Discipline
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, measurement, created_at
		FROM disciplines WHERE id = $1`, id,
	).Scan(&d.ID, &d.Name, &d.Measurement, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get discipline: %w", err)
	}
	return &d, nil
}

// ListDisciplines returns the global catalog ordered by name
func (s *Store) ListDisciplines(ctx context.Context) ([]Discipline, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, measurement, created_at
		FROM disciplines ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list disciplines: %w", err)
	}
	defer rows.Close()

	var disciplines []Discipline
	for rows.Next() {
		var d Discipline
		if err := rows.Scan(&d.ID, &d.Name, &d.Measurement, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan discipline: %w", err)
		}
		disciplines = append(disciplines, d)
	}
	return disciplines, rows.Err()
}

// UpdateDiscipline updates a global catalog entry
func (s *Store) UpdateDiscipline(ctx context.Context, d *Discipline) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE disciplines SET name = $1, measurement = $2 WHERE id = $3",
		d.Name, d.Measurement, d.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrNameTaken
		}
		return fmt.Errorf("failed to update discipline: %w", err)
	}
	return requireRow(res)
}

// DeleteDiscipline removes a global catalog entry
func (s *Store) DeleteDiscipline(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM disciplines WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete discipline: %w", err)
	}
	return requireRow(res)
}

// CreateSeason adds a global catalog entry
func (s *Store) CreateSeason(ctx context.Context, season *Season) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO seasons (name, start_date, end_date)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		season.Name, season.StartDate, season.EndDate,
	).Scan(&season.ID, &season.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrNameTaken
		}
		return fmt.Errorf("failed to create season: %w", err)
	}
	return nil
}

// GetSeason fetches one global catalog entry
func (s *Store) GetSeason(ctx context.Context, id int64) (*Season, error) {
	var season Season
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, start_date, end_date, created_at
		FROM seasons WHERE id = $1`, id,
	).Scan(&season.ID, &season.Name, &season.StartDate, &season.EndDate, &season.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get season: %w", err)
	}
	return &season, nil
}

// ListSeasons returns the global catalog, most recent first
func (s *Store) ListSeasons(ctx context.Context) ([]Season, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, start_date, end_date, created_at
		FROM seasons ORDER BY start_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list seasons: %w", err)
	}
	defer rows.Close()

	var seasons []Season
	for rows.Next() {
		var season Season
		if err := rows.Scan(&season.ID, &season.Name, &season.StartDate,
			&season.EndDate, &season.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan season: %w", err)
		}
		seasons = append(seasons, season)
	}
	return seasons, rows.Err()
}

// UpdateSeason updates a global catalog entry
func (s *Store) UpdateSeason(ctx context.Context, season *Season) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE seasons SET name = $1, start_date = $2, end_date = $3 WHERE id = $4",
		season.Name, season.StartDate, season.EndDate, season.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrNameTaken
		}
		return fmt.Errorf("failed to update season: %w", err)
	}
	return requireRow(res)
}

// DeleteSeason removes a global catalog entry
func (s *Store) DeleteSeason(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM seasons WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete season: %w", err)
	}
	return requireRow(res)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
