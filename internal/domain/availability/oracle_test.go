package availability_test

import (
	"testing"
	"time"

	"github.com/rpggio/duetrack/internal/domain/availability"
	"github.com/rpggio/duetrack/internal/domain/user"
	"github.com/stretchr/testify/require"
)

func TestOracle_IsWorkDayPerWeekday(t *testing.T) {
	schedule, err := user.NewSchedule([]string{"monday", "wednesday"}, "08:00", "12:00")
	require.NoError(t, err)
	u := &user.User{ID: "u1", Schedule: &schedule}
	oracle := availability.NewOracle()

	// 2024-06-10 is a Monday.
	monday := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	expected := []bool{true, false, true, false, false, false, false}
	for i, want := range expected {
		day := monday.AddDate(0, 0, i)
		require.Equal(t, want, oracle.IsWorkDay(u, day), day.Weekday().String())
	}
}

func TestOracle_DefaultScheduleSkipsWeekend(t *testing.T) {
	u := &user.User{ID: "u1"}
	oracle := availability.NewOracle()

	saturday := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	require.False(t, oracle.IsWorkDay(u, saturday))
	require.True(t, oracle.IsWorkDay(u, saturday.AddDate(0, 0, 2)))
}

func TestOracle_UsesUserTimezone(t *testing.T) {
	oracle := availability.NewOracle()
	// Monday 02:00 UTC is still Sunday in New York.
	date := time.Date(2024, 6, 10, 2, 0, 0, 0, time.UTC)

	require.False(t, oracle.IsWorkDay(&user.User{Timezone: "America/New_York"}, date))
	require.True(t, oracle.IsWorkDay(&user.User{Timezone: "UTC"}, date))
	require.True(t, oracle.IsWorkDay(&user.User{Timezone: "Not/AZone"}, date))
}

func TestOracle_VacationInclusive(t *testing.T) {
	u := &user.User{
		ID: "u1",
		Vacations: []user.VacationPeriod{{
			StartDate: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2024, 7, 5, 0, 0, 0, 0, time.UTC),
		}},
	}
	oracle := availability.NewOracle()

	require.False(t, oracle.IsOnVacation(u, time.Date(2024, 6, 30, 23, 0, 0, 0, time.UTC)))
	require.True(t, oracle.IsOnVacation(u, time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)))
	require.True(t, oracle.IsOnVacation(u, time.Date(2024, 7, 5, 18, 0, 0, 0, time.UTC)))
	require.False(t, oracle.IsOnVacation(u, time.Date(2024, 7, 6, 0, 0, 0, 0, time.UTC)))

	// Wednesday inside the vacation.
	require.False(t, oracle.CanAssign(u, time.Date(2024, 7, 3, 12, 0, 0, 0, time.UTC)))
	// Monday after it.
	require.True(t, oracle.CanAssign(u, time.Date(2024, 7, 8, 12, 0, 0, 0, time.UTC)))
}
