package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rpggio/duetrack/internal/domain/user"
	"github.com/rpggio/duetrack/internal/repository"
)

// UserRepository implements user.Repository for SQLite
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

type userRow struct {
	ID              string         `db:"id"`
	Name            string         `db:"name"`
	Email           string         `db:"email"`
	Role            string         `db:"role"`
	IsActive        bool           `db:"is_active"`
	Timezone        string         `db:"timezone"`
	MaxHoursPerWeek float64        `db:"max_hours_per_week"`
	CurrentWorkload float64        `db:"current_workload"`
	WorkSchedule    sql.NullString `db:"work_schedule"`
	CreatedAt       string         `db:"created_at"`
}

const userColumns = `id, name, email, role, is_active, timezone, max_hours_per_week, current_workload, work_schedule, created_at`

func (r userRow) toDomain() (user.User, error) {
	u := user.User{
		ID:              r.ID,
		Name:            r.Name,
		Email:           r.Email,
		Role:            user.Role(r.Role),
		IsActive:        r.IsActive,
		Timezone:        r.Timezone,
		MaxHoursPerWeek: r.MaxHoursPerWeek,
		CurrentWorkload: r.CurrentWorkload,
		Vacations:       []user.VacationPeriod{},
	}
	if r.WorkSchedule.Valid && r.WorkSchedule.String != "" {
		var schedule user.WeekSchedule
		if err := json.Unmarshal([]byte(r.WorkSchedule.String), &schedule); err != nil {
			return u, fmt.Errorf("failed to decode work schedule: %w", err)
		}
		u.Schedule = &schedule
	}
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return u, err
	}
	u.CreatedAt = createdAt
	return u, nil
}

type vacationRow struct {
	ID        string `db:"id"`
	UserID    string `db:"user_id"`
	StartDate string `db:"start_date"`
	EndDate   string `db:"end_date"`
	Reason    string `db:"reason"`
	CreatedAt string `db:"created_at"`
}

func (r vacationRow) toDomain() (user.VacationPeriod, error) {
	v := user.VacationPeriod{ID: r.ID, UserID: r.UserID, Reason: r.Reason}
	var err error
	if v.StartDate, err = parseTime(r.StartDate); err != nil {
		return v, err
	}
	if v.EndDate, err = parseTime(r.EndDate); err != nil {
		return v, err
	}
	if v.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return v, err
	}
	return v, nil
}

func encodeSchedule(s *user.WeekSchedule) (sql.NullString, error) {
	if s == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode work schedule: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// Create inserts a user together with any vacation periods it carries
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	if u.Role == "" {
		u.Role = user.RoleMember
	}
	if u.MaxHoursPerWeek <= 0 {
		u.MaxHoursPerWeek = user.DefaultMaxHoursPerWeek
	}
	schedule, err := encodeSchedule(u.Schedule)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		u.ID,
		u.Name,
		u.Email,
		string(u.Role),
		u.IsActive,
		u.Timezone,
		u.MaxHoursPerWeek,
		u.CurrentWorkload,
		schedule,
		formatTime(u.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", constraintError(err))
	}

	for i := range u.Vacations {
		v := &u.Vacations[i]
		v.UserID = u.ID
		if err := insertVacation(ctx, tx, v); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user: %w", err)
	}
	return nil
}

// Get retrieves a user with its vacation periods
func (r *UserRepository) Get(ctx context.Context, id string) (*user.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	users, err := r.hydrate(ctx, []userRow{row})
	if err != nil {
		return nil, err
	}
	return &users[0], nil
}

// ListActive returns every active user
func (r *UserRepository) ListActive(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT `+userColumns+` FROM users WHERE is_active = 1 ORDER BY name, id`); err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}
	return r.hydrate(ctx, rows)
}

// ListByIDs returns the users with the given IDs in the order given
func (r *UserRepository) ListByIDs(ctx context.Context, ids []string) ([]user.User, error) {
	if len(ids) == 0 {
		return []user.User{}, nil
	}
	query, args, err := sqlx.In(`SELECT `+userColumns+` FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build user query: %w", err)
	}
	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	users, err := r.hydrate(ctx, rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]user.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	ordered := make([]user.User, 0, len(users))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			ordered = append(ordered, u)
			delete(byID, id)
		}
	}
	return ordered, nil
}

// ListByRoles returns active users holding any of the given roles
func (r *UserRepository) ListByRoles(ctx context.Context, roles []user.Role) ([]user.User, error) {
	if len(roles) == 0 {
		return []user.User{}, nil
	}
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	query, args, err := sqlx.In(
		`SELECT `+userColumns+` FROM users WHERE is_active = 1 AND role IN (?) ORDER BY name, id`, names)
	if err != nil {
		return nil, fmt.Errorf("failed to build role query: %w", err)
	}
	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list users by role: %w", err)
	}
	return r.hydrate(ctx, rows)
}

// UpdateSchedule replaces a user's weekly schedule and timezone
func (r *UserRepository) UpdateSchedule(ctx context.Context, id string, schedule user.WeekSchedule, timezone string) error {
	encoded, err := encodeSchedule(&schedule)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET work_schedule = ?, timezone = ? WHERE id = ?`, encoded, timezone, id)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AddVacation appends a vacation period to a user
func (r *UserRepository) AddVacation(ctx context.Context, period *user.VacationPeriod) error {
	return insertVacation(ctx, r.db, period)
}

func insertVacation(ctx context.Context, exec sqlx.ExecerContext, v *user.VacationPeriod) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	_, err := exec.ExecContext(ctx, `
		INSERT INTO vacation_periods (id, user_id, start_date, end_date, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, v.ID, v.UserID, formatTime(v.StartDate), formatTime(v.EndDate), v.Reason, formatTime(v.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to add vacation: %w", constraintError(err))
	}
	return nil
}

func (r *UserRepository) hydrate(ctx context.Context, rows []userRow) ([]user.User, error) {
	users := make([]user.User, 0, len(rows))
	index := make(map[string]int, len(rows))
	for _, row := range rows {
		u, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		index[u.ID] = len(users)
		users = append(users, u)
	}
	if len(users) == 0 {
		return users, nil
	}

	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	query, args, err := sqlx.In(`
		SELECT id, user_id, start_date, end_date, reason, created_at
		FROM vacation_periods
		WHERE user_id IN (?)
		ORDER BY start_date, created_at
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build vacation query: %w", err)
	}
	var vacations []vacationRow
	if err := r.db.SelectContext(ctx, &vacations, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to load vacations: %w", err)
	}
	for _, row := range vacations {
		v, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		i := index[row.UserID]
		users[i].Vacations = append(users[i].Vacations, v)
	}
	return users, nil
}
