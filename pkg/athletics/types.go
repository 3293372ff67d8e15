package athletics

import (
	"errors"
	"time"
)

// Sentinel errors for the athletics stores
var (
	ErrNotFound             = errors.New("resource not found")
	ErrDuplicateAthlete     = errors.New("athlete already registered in this club")
	ErrDuplicatePerformance = errors.New("performance already recorded for this athlete, discipline, season and date")
	ErrNameTaken            = errors.New("name already in use")
)

// Measurement says how a discipline's results are expressed
type Measurement string

const (
	// MeasurementTimed is for track events, results in seconds
	MeasurementTimed Measurement = "timed"
	// MeasurementMeasured is for field events, results in metres
	MeasurementMeasured Measurement = "measured"
)

// Valid reports whether the measurement is a known kind
func (m Measurement) Valid() bool {
	return m == MeasurementTimed || m == MeasurementMeasured
}

// Athlete is a club's registered athlete. ClubID is the owning club
// and is re-checked against the request's club context on every
// by-id access.
type Athlete struct {
	ID          int64     `json:"id"`
	ClubID      int64     `json:"club_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	DateOfBirth time.Time `json:"date_of_birth"`
	Gender      string    `json:"gender"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OwnerClubID returns the club the athlete belongs to
func (a *Athlete) OwnerClubID() int64 { return a.ClubID }

// Performance is a single recorded result. Exactly one of TimeSeconds
// and DistanceMetres is set, matching the discipline's measurement.
type Performance struct {
	ID             int64     `json:"id"`
	ClubID         int64     `json:"club_id"`
	AthleteID      int64     `json:"athlete_id"`
	DisciplineID   int64     `json:"discipline_id"`
	SeasonID       int64     `json:"season_id"`
	TimeSeconds    *float64  `json:"time_seconds,omitempty"`
	DistanceMetres *float64  `json:"distance_metres,omitempty"`
	RecordedOn     time.Time `json:"recorded_on"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// OwnerClubID returns the club the performance belongs to
func (p *Performance) OwnerClubID() int64 { return p.ClubID }

// AgeGroup is a club-defined age bracket, inclusive on both ends
type AgeGroup struct {
	ID        int64     `json:"id"`
	ClubID    int64     `json:"club_id"`
	Name      string    `json:"name"`
	MinAge    int       `json:"min_age"`
	MaxAge    int       `json:"max_age"`
	CreatedAt time.Time `json:"created_at"`
}

// OwnerClubID returns the club the age group belongs to
func (g *AgeGroup) OwnerClubID() int64 { return g.ClubID }

// Discipline is a global catalog entry shared by all clubs
type Discipline struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Measurement Measurement `json:"measurement"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Season is a global catalog entry shared by all clubs
type Season struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
}
