package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/duetrack/internal/domain/user"
	"github.com/rpggio/duetrack/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateDefaults(t *testing.T) {
	db := NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &user.User{ID: "u1", Name: "Ada", IsActive: true}
	require.NoError(t, repo.Create(ctx, u))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, user.RoleMember, got.Role)
	require.Equal(t, float64(user.DefaultMaxHoursPerWeek), got.MaxHoursPerWeek)
	require.Nil(t, got.Schedule)
	require.Empty(t, got.Vacations)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.ErrorIs(t, repo.Create(ctx, &user.User{ID: "u1", Name: "Dup"}), repository.ErrDuplicate)
}

func TestUserRepository_ScheduleAndVacations(t *testing.T) {
	db := NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	createTestUser(t, db, "u1", user.RoleMember)

	schedule, err := user.NewSchedule([]string{"monday", "tuesday"}, "08:00", "12:00")
	require.NoError(t, err)
	require.NoError(t, repo.UpdateSchedule(ctx, "u1", schedule, "Europe/Berlin"))
	require.ErrorIs(t, repo.UpdateSchedule(ctx, "missing", schedule, "UTC"), repository.ErrNotFound)

	second := &user.VacationPeriod{
		ID:        "v2",
		UserID:    "u1",
		StartDate: time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 8, 5, 0, 0, 0, 0, time.UTC),
	}
	first := &user.VacationPeriod{
		ID:        "v1",
		UserID:    "u1",
		StartDate: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC),
		Reason:    "trip",
	}
	require.NoError(t, repo.AddVacation(ctx, second))
	require.NoError(t, repo.AddVacation(ctx, first))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "Europe/Berlin", got.Timezone)
	require.NotNil(t, got.Schedule)
	require.True(t, (*got.Schedule)["monday"].Available)
	require.False(t, (*got.Schedule)["friday"].Available)
	require.Len(t, got.Vacations, 2)
	require.Equal(t, "v1", got.Vacations[0].ID)
	require.Equal(t, "trip", got.Vacations[0].Reason)

	err = repo.AddVacation(ctx, &user.VacationPeriod{ID: "v3", UserID: "missing", StartDate: testNow, EndDate: testNow})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_Listings(t *testing.T) {
	db := NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	createTestUser(t, db, "a", user.RoleAdmin)
	createTestUser(t, db, "m", user.RoleManager)
	createTestUser(t, db, "x", user.RoleMember)
	require.NoError(t, repo.Create(ctx, &user.User{ID: "gone", Name: "Gone", Role: user.RoleAdmin, IsActive: false}))

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 3)

	reviewers, err := repo.ListByRoles(ctx, []user.Role{user.RoleAdmin, user.RoleManager})
	require.NoError(t, err)
	require.Len(t, reviewers, 2)
	for _, u := range reviewers {
		require.True(t, u.Role.IsPrivileged())
	}

	byID, err := repo.ListByIDs(ctx, []string{"x", "missing", "a"})
	require.NoError(t, err)
	require.Len(t, byID, 2)
	require.Equal(t, "x", byID[0].ID)
	require.Equal(t, "a", byID[1].ID)

	empty, err := repo.ListByIDs(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}
