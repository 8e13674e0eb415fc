package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rpggio/duetrack/internal/domain/milestone"
	"github.com/rpggio/duetrack/internal/repository"
)

// MilestoneRepository implements milestone.Repository for SQLite
type MilestoneRepository struct {
	db *DB
}

// NewMilestoneRepository creates a new MilestoneRepository
func NewMilestoneRepository(db *DB) *MilestoneRepository {
	return &MilestoneRepository{db: db}
}

type milestoneRow struct {
	ID          string         `db:"id"`
	ProjectID   string         `db:"project_id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	DueDate     string         `db:"due_date"`
	Completed   bool           `db:"completed"`
	CompletedAt sql.NullString `db:"completed_at"`
	CreatedAt   string         `db:"created_at"`
}

const milestoneColumns = `id, project_id, title, description, due_date, completed, completed_at, created_at`

func (r milestoneRow) toDomain() (milestone.Milestone, error) {
	m := milestone.Milestone{
		ID:          r.ID,
		ProjectID:   r.ProjectID,
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
	}
	var err error
	if m.DueDate, err = parseTime(r.DueDate); err != nil {
		return m, err
	}
	if m.CompletedAt, err = parseNullTime(r.CompletedAt); err != nil {
		return m, err
	}
	if m.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return m, err
	}
	return m, nil
}

func milestonesFromRows(rows []milestoneRow) ([]milestone.Milestone, error) {
	out := make([]milestone.Milestone, 0, len(rows))
	for _, row := range rows {
		m, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Create inserts a milestone
func (r *MilestoneRepository) Create(ctx context.Context, m *milestone.Milestone) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO milestones (`+milestoneColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		m.ID,
		m.ProjectID,
		m.Title,
		m.Description,
		formatTime(m.DueDate),
		m.Completed,
		nullTime(m.CompletedAt),
		formatTime(m.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create milestone: %w", constraintError(err))
	}
	return nil
}

// Get retrieves a milestone of a project
func (r *MilestoneRepository) Get(ctx context.Context, projectID, id string) (*milestone.Milestone, error) {
	var row milestoneRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+milestoneColumns+` FROM milestones WHERE id = ? AND project_id = ?`, id, projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get milestone: %w", err)
	}
	m, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByProject returns a project's milestones by due date
func (r *MilestoneRepository) ListByProject(ctx context.Context, projectID string) ([]milestone.Milestone, error) {
	var rows []milestoneRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+milestoneColumns+`
		FROM milestones
		WHERE project_id = ?
		ORDER BY due_date, created_at
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	return milestonesFromRows(rows)
}

// ListDueBetween returns milestones due in [start, end]
func (r *MilestoneRepository) ListDueBetween(ctx context.Context, projectIDs []string, start, end time.Time) ([]milestone.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones WHERE due_date >= ? AND due_date <= ?`
	args := []any{formatTime(start), formatTime(end)}

	if projectIDs != nil {
		if len(projectIDs) == 0 {
			return []milestone.Milestone{}, nil
		}
		var err error
		query, args, err = sqlx.In(query+` AND project_id IN (?)`, formatTime(start), formatTime(end), projectIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to build milestone query: %w", err)
		}
		query = r.db.Rebind(query)
	}
	query += ` ORDER BY due_date, created_at`

	var rows []milestoneRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	return milestonesFromRows(rows)
}

// Complete marks an open milestone completed
func (r *MilestoneRepository) Complete(ctx context.Context, projectID, id string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE milestones SET completed = 1, completed_at = ?
		WHERE id = ? AND project_id = ? AND completed = 0
	`, formatTime(at), id, projectID)
	if err != nil {
		return false, fmt.Errorf("failed to complete milestone: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 1 {
		return true, nil
	}

	if _, err := r.Get(ctx, projectID, id); err != nil {
		return false, err
	}
	return false, nil
}
