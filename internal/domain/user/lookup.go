package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/rpggio/duetrack/internal/repository"
)

// Lookup fetches a user and maps a missing row to ErrUserNotFound.
func Lookup(ctx context.Context, repo Repository, id string) (*User, error) {
	u, err := repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", id, ErrUserNotFound)
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}
