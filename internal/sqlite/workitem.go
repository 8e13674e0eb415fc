package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rpggio/duetrack/internal/domain/workitem"
	"github.com/rpggio/duetrack/internal/repository"
)

// WorkItemRepository implements workitem.Repository for SQLite
type WorkItemRepository struct {
	db *DB
}

// NewWorkItemRepository creates a new WorkItemRepository
func NewWorkItemRepository(db *DB) *WorkItemRepository {
	return &WorkItemRepository{db: db}
}

type workItemRow struct {
	ID             string         `db:"id"`
	Kind           string         `db:"kind"`
	Title          string         `db:"title"`
	Description    string         `db:"description"`
	Deadline       sql.NullString `db:"deadline"`
	Status         string         `db:"status"`
	AssigneeID     sql.NullString `db:"assignee_id"`
	ProjectID      sql.NullString `db:"project_id"`
	EstimatedHours float64        `db:"estimated_hours"`
	CreatedAt      string         `db:"created_at"`
	UpdatedAt      string         `db:"updated_at"`
}

const workItemColumns = `id, kind, title, description, deadline, status, assignee_id, project_id, estimated_hours, created_at, updated_at`

func (r workItemRow) toDomain() (workitem.WorkItem, error) {
	item := workitem.WorkItem{
		ID:             r.ID,
		Kind:           workitem.Kind(r.Kind),
		Title:          r.Title,
		Description:    r.Description,
		Status:         workitem.Status(r.Status),
		AssigneeID:     stringPtr(r.AssigneeID),
		ProjectID:      stringPtr(r.ProjectID),
		EstimatedHours: r.EstimatedHours,
	}
	var err error
	if item.Deadline, err = parseNullTime(r.Deadline); err != nil {
		return item, err
	}
	if item.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return item, err
	}
	if item.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return item, err
	}
	return item, nil
}

// Create inserts a work item and, for projects, its member list
func (r *WorkItemRepository) Create(ctx context.Context, item *workitem.WorkItem) error {
	if err := workitem.Validate(item); err != nil {
		return err
	}
	now := time.Now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = item.CreatedAt
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO work_items (`+workItemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		item.ID,
		string(item.Kind),
		item.Title,
		item.Description,
		nullTime(item.Deadline),
		string(item.Status),
		nullString(item.AssigneeID),
		nullString(item.ProjectID),
		item.EstimatedHours,
		formatTime(item.CreatedAt),
		formatTime(item.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create work item: %w", constraintError(err))
	}

	if item.Kind == workitem.KindProject {
		for i, member := range item.Recipients() {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO project_members (project_id, user_id, position) VALUES (?, ?, ?)`,
				item.ID, member, i)
			if err != nil {
				return fmt.Errorf("failed to add project member: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit work item: %w", err)
	}
	return nil
}

// Get retrieves a work item by kind and ID
func (r *WorkItemRepository) Get(ctx context.Context, kind workitem.Kind, id string) (*workitem.WorkItem, error) {
	var row workItemRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+workItemColumns+` FROM work_items WHERE id = ? AND kind = ?`, id, string(kind))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get work item: %w", err)
	}

	item, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	items := []workitem.WorkItem{item}
	if err := r.loadMembers(ctx, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// List returns work items matching opts ordered by deadline
func (r *WorkItemRepository) List(ctx context.Context, opts workitem.ListOptions) ([]workitem.WorkItem, error) {
	var (
		where []string
		args  []any
	)
	if opts.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(opts.Kind))
	}
	if opts.UserID != "" {
		where = append(where, `(
			(kind = 'task' AND (assignee_id = ? OR project_id IN (SELECT project_id FROM project_members WHERE user_id = ?)))
			OR (kind = 'project' AND id IN (SELECT project_id FROM project_members WHERE user_id = ?))
		)`)
		args = append(args, opts.UserID, opts.UserID, opts.UserID)
	}
	if opts.AssigneeID != "" {
		where = append(where, "assignee_id = ?")
		args = append(args, opts.AssigneeID)
	}
	if opts.ProjectID != "" {
		where = append(where, "project_id = ?")
		args = append(args, opts.ProjectID)
	}
	if opts.HasDeadline || opts.DeadlineFrom != nil || opts.DeadlineUntil != nil {
		where = append(where, "deadline IS NOT NULL")
	}
	if opts.DeadlineFrom != nil {
		where = append(where, "deadline >= ?")
		args = append(args, formatTime(*opts.DeadlineFrom))
	}
	if opts.DeadlineUntil != nil {
		where = append(where, "deadline < ?")
		args = append(args, formatTime(*opts.DeadlineUntil))
	}
	if opts.OpenOnly {
		where = append(where, "NOT ((kind = 'task' AND status = 'done') OR (kind = 'project' AND status = 'completed'))")
	}

	query := `SELECT ` + workItemColumns + ` FROM work_items`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY deadline IS NULL, deadline, created_at, id"

	var rows []workItemRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list work items: %w", err)
	}

	items := make([]workitem.WorkItem, 0, len(rows))
	for _, row := range rows {
		item, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := r.loadMembers(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// SetAssignee sets the assignee of a task
func (r *WorkItemRepository) SetAssignee(ctx context.Context, taskID, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE work_items SET assignee_id = ?, updated_at = ? WHERE id = ? AND kind = 'task'`,
		userID, formatTime(time.Now()), taskID)
	if err != nil {
		return fmt.Errorf("failed to set assignee: %w", err)
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

func (r *WorkItemRepository) loadMembers(ctx context.Context, items []workitem.WorkItem) error {
	index := make(map[string]int)
	for i := range items {
		if items[i].Kind == workitem.KindProject {
			index[items[i].ID] = i
			items[i].Members = []string{}
		}
	}
	if len(index) == 0 {
		return nil
	}

	ids := make([]string, 0, len(index))
	for id := range index {
		ids = append(ids, id)
	}
	query, args, err := sqlx.In(
		`SELECT project_id, user_id FROM project_members WHERE project_id IN (?) ORDER BY project_id, position`, ids)
	if err != nil {
		return fmt.Errorf("failed to build member query: %w", err)
	}

	var rows []struct {
		ProjectID string `db:"project_id"`
		UserID    string `db:"user_id"`
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to load project members: %w", err)
	}
	for _, row := range rows {
		i := index[row.ProjectID]
		items[i].Members = append(items[i].Members, row.UserID)
	}
	return nil
}
