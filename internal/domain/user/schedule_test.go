package user_test

import (
	"testing"
	"time"

	"github.com/rpggio/duetrack/internal/domain/user"
	"github.com/stretchr/testify/require"
)

func TestDefaultSchedule(t *testing.T) {
	s := user.DefaultSchedule()
	require.NoError(t, s.Validate())
	require.Equal(t, []string{"monday", "tuesday", "wednesday", "thursday", "friday"}, s.WorkDays())
	require.False(t, s.Day(time.Saturday).Available)
	require.True(t, s.Day(time.Wednesday).Available)
}

func TestNewSchedule(t *testing.T) {
	s, err := user.NewSchedule([]string{"Monday", "saturday"}, "08:00", "12:30")
	require.NoError(t, err)
	require.NoError(t, s.Validate())
	require.Equal(t, []string{"monday", "saturday"}, s.WorkDays())
	require.Equal(t, "12:30", s[user.Tuesday].End)

	_, err = user.NewSchedule([]string{"funday"}, "08:00", "12:00")
	require.ErrorIs(t, err, user.ErrInvalidSchedule)

	_, err = user.NewSchedule([]string{"monday"}, "17:00", "09:00")
	require.ErrorIs(t, err, user.ErrInvalidSchedule)

	_, err = user.NewSchedule([]string{"monday"}, "9am", "17:00")
	require.ErrorIs(t, err, user.ErrInvalidSchedule)
}

func TestWeekSchedule_ValidateMissingDay(t *testing.T) {
	s := user.DefaultSchedule()
	delete(s, user.Sunday)
	require.ErrorIs(t, s.Validate(), user.ErrInvalidSchedule)
}

func TestUser_Defaults(t *testing.T) {
	u := user.User{}
	require.Equal(t, float64(user.DefaultMaxHoursPerWeek), u.Capacity())
	require.Equal(t, user.DefaultSchedule(), u.EffectiveSchedule())
}
