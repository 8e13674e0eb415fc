package mongo

import (
	"errors"

	"github.com/rpggio/duetrack/internal/repository"
	"go.mongodb.org/mongo-driver/mongo"
)

// translate maps driver errors onto repository errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repository.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return repository.ErrDuplicate
	}
	return err
}
