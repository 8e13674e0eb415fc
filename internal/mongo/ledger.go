package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/rpggio/duetrack/internal/domain/deadline"
	"github.com/rpggio/duetrack/internal/domain/workitem"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LedgerRepository implements deadline.LedgerRepository for MongoDB.
// Uniqueness comes from the index created by EnsureIndexes.
type LedgerRepository struct {
	coll *mongo.Collection
}

// NewLedgerRepository creates a new LedgerRepository
func NewLedgerRepository(s *Store) *LedgerRepository {
	return &LedgerRepository{coll: s.collection(collLedger)}
}

type ledgerDoc struct {
	ItemKind    string    `bson:"itemKind"`
	ItemID      string    `bson:"itemId"`
	Threshold   string    `bson:"threshold"`
	RecipientID string    `bson:"recipientId"`
	SentAt      time.Time `bson:"sentAt"`
}

func ledgerKey(entry deadline.LedgerEntry) bson.M {
	return bson.M{
		"itemKind":    string(entry.ItemKind),
		"itemId":      entry.ItemID,
		"threshold":   string(entry.Threshold),
		"recipientId": entry.RecipientID,
	}
}

// Claim inserts the entry unless its key already exists
func (r *LedgerRepository) Claim(ctx context.Context, entry deadline.LedgerEntry) (bool, error) {
	_, err := r.coll.InsertOne(ctx, ledgerDoc{
		ItemKind:    string(entry.ItemKind),
		ItemID:      entry.ItemID,
		Threshold:   string(entry.Threshold),
		RecipientID: entry.RecipientID,
		SentAt:      entry.SentAt.UTC(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to claim ledger entry: %w", err)
	}
	return true, nil
}

// Release deletes a claimed entry
func (r *LedgerRepository) Release(ctx context.Context, entry deadline.LedgerEntry) error {
	if _, err := r.coll.DeleteOne(ctx, ledgerKey(entry)); err != nil {
		return fmt.Errorf("failed to release ledger entry: %w", err)
	}
	return nil
}

// List returns the ledger entries of one work item
func (r *LedgerRepository) List(ctx context.Context, kind workitem.Kind, itemID string) ([]deadline.LedgerEntry, error) {
	cursor, err := r.coll.Find(ctx,
		bson.M{"itemKind": string(kind), "itemId": itemID},
		options.Find().SetSort(bson.D{
			{Key: "sentAt", Value: 1},
			{Key: "threshold", Value: 1},
			{Key: "recipientId", Value: 1},
		}))
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	var docs []ledgerDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode ledger entries: %w", err)
	}

	entries := make([]deadline.LedgerEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, deadline.LedgerEntry{
			ItemKind:    workitem.Kind(d.ItemKind),
			ItemID:      d.ItemID,
			Threshold:   deadline.Threshold(d.Threshold),
			RecipientID: d.RecipientID,
			SentAt:      d.SentAt,
		})
	}
	return entries, nil
}
