package athletics

import (
	"fmt"
	"time"
)

// ValidationError is a caller mistake in the submitted resource.
// Handlers map it to a 400. Validators run only after the request is
// authorized, so a denied caller never learns whether their payload
// was valid.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ValidateAthlete checks the submitted athlete fields
func ValidateAthlete(a *Athlete) error {
	if a.FirstName == "" || a.LastName == "" {
		return invalid("first name and last name are required")
	}
	if a.DateOfBirth.IsZero() {
		return invalid("date of birth is required")
	}
	if a.DateOfBirth.After(time.Now()) {
		return invalid("date of birth cannot be in the future")
	}
	return nil
}

// ValidatePerformance checks the result against the discipline's
// measurement kind. Exactly one value field must be set and it must
// be the one the discipline measures.
func ValidatePerformance(p *Performance, discipline *Discipline) error {
	if p.AthleteID == 0 || p.DisciplineID == 0 || p.SeasonID == 0 {
		return invalid("athlete, discipline and season are required")
	}
	if p.RecordedOn.IsZero() {
		return invalid("recorded date is required")
	}
	if p.TimeSeconds != nil && p.DistanceMetres != nil {
		return invalid("a performance cannot carry both a time and a distance")
	}

	switch discipline.Measurement {
	case MeasurementTimed:
		if p.TimeSeconds == nil {
			return invalid("discipline %q is timed and requires time_seconds", discipline.Name)
		}
		if *p.TimeSeconds <= 0 {
			return invalid("time must be positive")
		}
	case MeasurementMeasured:
		if p.DistanceMetres == nil {
			return invalid("discipline %q is measured and requires distance_metres", discipline.Name)
		}
		if *p.DistanceMetres <= 0 {
			return invalid("distance must be positive")
		}
	default:
		return invalid("discipline %q has unknown measurement kind", discipline.Name)
	}
	return nil
}

// ValidateAgeGroup checks the range and rejects overlap with the
// club's existing groups. existing must already be club-filtered; the
// group itself is skipped by id so updates validate cleanly.
func ValidateAgeGroup(g *AgeGroup, existing []AgeGroup) error {
	if g.Name == "" {
		return invalid("name is required")
	}
	if g.MinAge < 0 {
		return invalid("minimum age cannot be negative")
	}
	if g.MinAge > g.MaxAge {
		return invalid("minimum age cannot exceed maximum age")
	}

	for _, other := range existing {
		if other.ID == g.ID {
			continue
		}
		if g.MinAge <= other.MaxAge && other.MinAge <= g.MaxAge {
			return invalid("age range overlaps existing group %q", other.Name)
		}
	}
	return nil
}

// ValidateDiscipline checks a global catalog entry
func ValidateDiscipline(d *Discipline) error {
	if d.Name == "" {
		return invalid("name is required")
	}
	if !d.Measurement.Valid() {
		return invalid("measurement must be %q or %q", MeasurementTimed, MeasurementMeasured)
	}
	return nil
}

// ValidateSeason checks a global catalog entry
func ValidateSeason(s *Season) error {
	if s.Name == "" {
		return invalid("name is required")
	}
	if s.StartDate.IsZero() || s.EndDate.IsZero() {
		return invalid("start and end dates are required")
	}
	if !s.StartDate.Before(s.EndDate) {
		return invalid("season must start before it ends")
	}
	return nil
}
