package workitem

import (
	"context"
	"errors"
	"fmt"

	"github.com/rpggio/duetrack/internal/repository"
)

// Lookup fetches an item and maps a missing row to ErrItemNotFound.
func Lookup(ctx context.Context, repo Repository, kind Kind, id string) (*WorkItem, error) {
	item, err := repo.Get(ctx, kind, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s %s: %w", kind, id, ErrItemNotFound)
		}
		return nil, fmt.Errorf("getting %s: %w", kind, err)
	}
	return item, nil
}
