package deadline

import (
	"context"

	"github.com/rpggio/duetrack/internal/domain/workitem"
)

// LedgerRepository persists the notification dedup ledger.
type LedgerRepository interface {
	// Claim inserts the entry if its key is absent and reports whether it did.
	Claim(ctx context.Context, entry LedgerEntry) (bool, error)
	// Release removes a claim so a later pass can retry it.
	Release(ctx context.Context, entry LedgerEntry) error
	List(ctx context.Context, kind workitem.Kind, itemID string) ([]LedgerEntry, error)
}
