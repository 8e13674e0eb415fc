package user

import (
	"fmt"
	"strings"
	"time"
)

// Weekday names used as schedule keys.
const (
	Monday    = "monday"
	Tuesday   = "tuesday"
	Wednesday = "wednesday"
	Thursday  = "thursday"
	Friday    = "friday"
	Saturday  = "saturday"
	Sunday    = "sunday"
)

// Weekdays lists the schedule keys in ISO order.
var Weekdays = []string{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

const (
	DefaultStart = "09:00"
	DefaultEnd   = "17:00"
)

// DaySchedule is one weekday entry of a recurring schedule.
type DaySchedule struct {
	Start     string `json:"start" yaml:"start"`
	End       string `json:"end" yaml:"end"`
	Available bool   `json:"available" yaml:"available"`
}

// WeekSchedule maps each ISO weekday name to its entry.
type WeekSchedule map[string]DaySchedule

// DefaultSchedule is Mon-Fri 09:00-17:00 with weekends off.
func DefaultSchedule() WeekSchedule {
	s := make(WeekSchedule, len(Weekdays))
	for _, day := range Weekdays {
		s[day] = DaySchedule{
			Start:     DefaultStart,
			End:       DefaultEnd,
			Available: day != Saturday && day != Sunday,
		}
	}
	return s
}

// NewSchedule builds a schedule where the listed days are available between
// start and end. Every other weekday is present but unavailable.
func NewSchedule(workDays []string, start, end string) (WeekSchedule, error) {
	if err := validateHours(start, end); err != nil {
		return nil, err
	}
	available := make(map[string]bool, len(workDays))
	for _, d := range workDays {
		name := strings.ToLower(strings.TrimSpace(d))
		if !IsWeekdayName(name) {
			return nil, fmt.Errorf("%w: unknown weekday %q", ErrInvalidSchedule, d)
		}
		available[name] = true
	}
	s := make(WeekSchedule, len(Weekdays))
	for _, day := range Weekdays {
		s[day] = DaySchedule{Start: start, End: end, Available: available[day]}
	}
	return s, nil
}

// Validate checks that exactly the seven weekday keys are present with valid hours.
func (s WeekSchedule) Validate() error {
	if len(s) != len(Weekdays) {
		return fmt.Errorf("%w: expected %d weekdays, got %d", ErrInvalidSchedule, len(Weekdays), len(s))
	}
	for _, day := range Weekdays {
		entry, ok := s[day]
		if !ok {
			return fmt.Errorf("%w: missing %s", ErrInvalidSchedule, day)
		}
		if err := validateHours(entry.Start, entry.End); err != nil {
			return err
		}
	}
	return nil
}

// WorkDays returns the available weekday names in ISO order.
func (s WeekSchedule) WorkDays() []string {
	days := make([]string, 0, len(Weekdays))
	for _, day := range Weekdays {
		if s[day].Available {
			days = append(days, day)
		}
	}
	return days
}

// Day returns the entry for a time.Weekday.
func (s WeekSchedule) Day(d time.Weekday) DaySchedule {
	return s[WeekdayName(d)]
}

// WeekdayName maps time.Weekday to the schedule key.
func WeekdayName(d time.Weekday) string {
	switch d {
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	case time.Saturday:
		return Saturday
	default:
		return Sunday
	}
}

// IsWeekdayName reports whether name is one of the seven schedule keys.
func IsWeekdayName(name string) bool {
	for _, day := range Weekdays {
		if day == name {
			return true
		}
	}
	return false
}

func validateHours(start, end string) error {
	s, err := time.Parse("15:04", start)
	if err != nil {
		return fmt.Errorf("%w: start time %q", ErrInvalidSchedule, start)
	}
	e, err := time.Parse("15:04", end)
	if err != nil {
		return fmt.Errorf("%w: end time %q", ErrInvalidSchedule, end)
	}
	if !s.Before(e) {
		return fmt.Errorf("%w: start %s must be before end %s", ErrInvalidSchedule, start, end)
	}
	return nil
}
