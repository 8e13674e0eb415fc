package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rpggio/duetrack/internal/domain/extension"
	"github.com/rpggio/duetrack/internal/domain/workitem"
	"github.com/rpggio/duetrack/internal/repository"
)

// ExtensionRepository implements extension.Repository for SQLite
type ExtensionRepository struct {
	db *DB
}

// NewExtensionRepository creates a new ExtensionRepository
func NewExtensionRepository(db *DB) *ExtensionRepository {
	return &ExtensionRepository{db: db}
}

type extensionRow struct {
	ID          string         `db:"id"`
	ItemKind    string         `db:"item_kind"`
	ItemID      string         `db:"item_id"`
	RequestedBy string         `db:"requested_by"`
	RequestedAt string         `db:"requested_at"`
	NewDeadline string         `db:"new_deadline"`
	Reason      string         `db:"reason"`
	Status      string         `db:"status"`
	ReviewedBy  sql.NullString `db:"reviewed_by"`
	ReviewedAt  sql.NullString `db:"reviewed_at"`
}

const extensionColumns = `id, item_kind, item_id, requested_by, requested_at, new_deadline, reason, status, reviewed_by, reviewed_at`

func (r extensionRow) toDomain() (*extension.Request, error) {
	req := &extension.Request{
		ID:          r.ID,
		ItemKind:    workitem.Kind(r.ItemKind),
		ItemID:      r.ItemID,
		RequestedBy: r.RequestedBy,
		Reason:      r.Reason,
		Status:      extension.Status(r.Status),
		ReviewedBy:  stringPtr(r.ReviewedBy),
	}
	var err error
	if req.RequestedAt, err = parseTime(r.RequestedAt); err != nil {
		return nil, err
	}
	if req.NewDeadline, err = parseTime(r.NewDeadline); err != nil {
		return nil, err
	}
	if req.ReviewedAt, err = parseNullTime(r.ReviewedAt); err != nil {
		return nil, err
	}
	return req, nil
}

// Create inserts a pending extension request
func (r *ExtensionRepository) Create(ctx context.Context, req *extension.Request) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO extension_requests (`+extensionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		req.ID,
		string(req.ItemKind),
		req.ItemID,
		req.RequestedBy,
		formatTime(req.RequestedAt),
		formatTime(req.NewDeadline),
		req.Reason,
		string(req.Status),
		nullString(req.ReviewedBy),
		nullTime(req.ReviewedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create extension request: %w", constraintError(err))
	}
	return nil
}

// Get retrieves an extension request by ID
func (r *ExtensionRepository) Get(ctx context.Context, id string) (*extension.Request, error) {
	return getExtension(ctx, r.db, id)
}

// ListByItem returns an item's requests in request order
func (r *ExtensionRepository) ListByItem(ctx context.Context, kind workitem.Kind, itemID string) ([]extension.Request, error) {
	var rows []extensionRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+extensionColumns+`
		FROM extension_requests
		WHERE item_kind = ? AND item_id = ?
		ORDER BY requested_at, rowid
	`, string(kind), itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list extension requests: %w", err)
	}

	out := make([]extension.Request, 0, len(rows))
	for _, row := range rows {
		req, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *req)
	}
	return out, nil
}

// Decide transitions a pending request and, on approval, moves the item's
// deadline in the same transaction.
func (r *ExtensionRepository) Decide(ctx context.Context, id string, decision extension.Status, reviewerID string, at time.Time) (*extension.Request, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE extension_requests
		SET status = ?, reviewed_by = ?, reviewed_at = ?
		WHERE id = ? AND status = 'pending'
	`, string(decision), reviewerID, formatTime(at), id)
	if err != nil {
		return nil, fmt.Errorf("failed to review extension request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		if _, err := getExtension(ctx, tx, id); err != nil {
			return nil, err
		}
		return nil, repository.ErrConflict
	}

	req, err := getExtension(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if decision == extension.StatusApproved {
		res, err := tx.ExecContext(ctx, `
			UPDATE work_items SET deadline = ?, updated_at = ?
			WHERE id = ? AND kind = ?
		`, formatTime(req.NewDeadline), formatTime(at), req.ItemID, string(req.ItemKind))
		if err != nil {
			return nil, fmt.Errorf("failed to apply extended deadline: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return nil, fmt.Errorf("failed to get rows affected: %w", err)
		} else if n == 0 {
			return nil, repository.ErrNotFound
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit extension review: %w", err)
	}
	return req, nil
}

func getExtension(ctx context.Context, q sqlx.QueryerContext, id string) (*extension.Request, error) {
	var row extensionRow
	err := sqlx.GetContext(ctx, q, &row, `SELECT `+extensionColumns+` FROM extension_requests WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get extension request: %w", err)
	}
	return row.toDomain()
}
