package availability

import (
	"time"

	"github.com/rpggio/duetrack/internal/domain/user"
)

// Oracle answers whether a user can take work due on a date. It is pure
// and safe for concurrent use.
type Oracle struct{}

// NewOracle creates an oracle.
func NewOracle() *Oracle {
	return &Oracle{}
}

// IsWorkDay reports whether the weekday of date, seen in the user's
// timezone, is available in the user's schedule.
func (o *Oracle) IsWorkDay(u *user.User, date time.Time) bool {
	local := inUserZone(u, date)
	return u.EffectiveSchedule().Day(local.Weekday()).Available
}

// IsOnVacation reports whether the calendar day of date, seen in the
// user's timezone, falls inside any vacation period. Both ends are inclusive.
func (o *Oracle) IsOnVacation(u *user.User, date time.Time) bool {
	day := civilDay(inUserZone(u, date))
	for _, v := range u.Vacations {
		if day >= civilDay(v.StartDate) && day <= civilDay(v.EndDate) {
			return true
		}
	}
	return false
}

// CanAssign reports whether work due on date may go to the user.
func (o *Oracle) CanAssign(u *user.User, date time.Time) bool {
	return o.IsWorkDay(u, date) && !o.IsOnVacation(u, date)
}

// inUserZone falls back to the date's own location when the user's timezone
// is empty or unknown.
func inUserZone(u *user.User, date time.Time) time.Time {
	if u.Timezone == "" {
		return date
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return date
	}
	return date.In(loc)
}

// civilDay encodes a date's year, month and day as a sortable integer.
func civilDay(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
