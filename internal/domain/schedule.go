package domain

import (
	"maps"
	"slices"
	"strings"
	"time"
)

// Assignments maps date-task keys to the assigned person.
type Assignments map[string]string

// Clone returns an independent copy.
func (a Assignments) Clone() Assignments {
	if a == nil {
		return Assignments{}
	}
	return maps.Clone(a)
}

// Equal reports whether both sets hold the same keys and values.
func (a Assignments) Equal(other Assignments) bool {
	return maps.Equal(a, other)
}

// Keys returns the date-task keys in lexical order.
func (a Assignments) Keys() []string {
	return slices.Sorted(maps.Keys(a))
}

// CountFor returns how many date tasks of one duty a person holds.
func (a Assignments) CountFor(person, duty string) int {
	count := 0
	for key, assigned := range a {
		if assigned == person && TaskName(key) == duty {
			count++
		}
	}
	return count
}

// Schedule represents one month of assignments.
type Schedule struct {
	Year        int
	Month       time.Month
	Assignments Assignments
	UpdatedAt   time.Time
}

// NewSchedule constructs a validated schedule.
func NewSchedule(year int, month time.Month, assignments Assignments, now time.Time) (Schedule, error) {
	if err := ValidateMonth(year, month); err != nil {
		return Schedule{}, err
	}
	return Schedule{
		Year:        year,
		Month:       month,
		Assignments: assignments.Clone(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// ValidateMonth checks the year and month of a schedule.
func ValidateMonth(year int, month time.Month) error {
	if year < 1900 || year > 9999 {
		return ErrInvalidYear
	}
	if month < time.January || month > time.December {
		return ErrInvalidMonth
	}
	return nil
}

// Replace swaps in a new assignment set, keeping values verbatim.
func (s *Schedule) Replace(assignments Assignments, now time.Time) {
	s.Assignments = assignments.Clone()
	s.UpdatedAt = now.UTC()
}

// Assign sets one assignment.
func (s *Schedule) Assign(key, person string, now time.Time) {
	if s.Assignments == nil {
		s.Assignments = Assignments{}
	}
	s.Assignments[key] = strings.TrimSpace(person)
	s.UpdatedAt = now.UTC()
}

// Title returns a display label such as "March 2026".
func (s Schedule) Title() string {
	return MonthTitle(s.Year, s.Month)
}

// MonthTitle formats a month label.
func MonthTitle(year int, month time.Month) string {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
}

// CommitRecord captures the assignments finalized for a month.
type CommitRecord struct {
	ID          string
	Year        int
	Month       time.Month
	Assignments Assignments
	CommittedAt time.Time
}

// HistoryEntry records that a person held a date task.
type HistoryEntry struct {
	DateTask   string
	Person     string
	RecordedAt time.Time
}
