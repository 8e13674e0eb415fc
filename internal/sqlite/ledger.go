package sqlite

import (
	"context"
	"fmt"

	"github.com/rpggio/duetrack/internal/domain/deadline"
	"github.com/rpggio/duetrack/internal/domain/workitem"
)

// LedgerRepository implements deadline.LedgerRepository for SQLite
type LedgerRepository struct {
	db *DB
}

// NewLedgerRepository creates a new LedgerRepository
func NewLedgerRepository(db *DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Claim inserts the entry unless its key already exists
func (r *LedgerRepository) Claim(ctx context.Context, entry deadline.LedgerEntry) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO deadline_ledger (item_kind, item_id, threshold, recipient_id, sent_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (item_kind, item_id, threshold, recipient_id) DO NOTHING
	`,
		string(entry.ItemKind),
		entry.ItemID,
		string(entry.Threshold),
		entry.RecipientID,
		formatTime(entry.SentAt),
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim ledger entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n == 1, nil
}

// Release deletes a claimed entry
func (r *LedgerRepository) Release(ctx context.Context, entry deadline.LedgerEntry) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM deadline_ledger
		WHERE item_kind = ? AND item_id = ? AND threshold = ? AND recipient_id = ?
	`, string(entry.ItemKind), entry.ItemID, string(entry.Threshold), entry.RecipientID)
	if err != nil {
		return fmt.Errorf("failed to release ledger entry: %w", err)
	}
	return nil
}

// List returns the ledger entries of one work item
func (r *LedgerRepository) List(ctx context.Context, kind workitem.Kind, itemID string) ([]deadline.LedgerEntry, error) {
	var rows []struct {
		ItemKind    string `db:"item_kind"`
		ItemID      string `db:"item_id"`
		Threshold   string `db:"threshold"`
		RecipientID string `db:"recipient_id"`
		SentAt      string `db:"sent_at"`
	}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT item_kind, item_id, threshold, recipient_id, sent_at
		FROM deadline_ledger
		WHERE item_kind = ? AND item_id = ?
		ORDER BY sent_at, threshold, recipient_id
	`, string(kind), itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}

	entries := make([]deadline.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		sentAt, err := parseTime(row.SentAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, deadline.LedgerEntry{
			ItemKind:    workitem.Kind(row.ItemKind),
			ItemID:      row.ItemID,
			Threshold:   deadline.Threshold(row.Threshold),
			RecipientID: row.RecipientID,
			SentAt:      sentAt,
		})
	}
	return entries, nil
}
