package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/duetrack/internal/domain/extension"
	"github.com/rpggio/duetrack/internal/domain/workitem"
	"github.com/rpggio/duetrack/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ExtensionRepository implements extension.Repository for MongoDB
type ExtensionRepository struct {
	coll  *mongo.Collection
	items *mongo.Collection
}

// NewExtensionRepository creates a new ExtensionRepository
func NewExtensionRepository(s *Store) *ExtensionRepository {
	return &ExtensionRepository{
		coll:  s.collection(collExtensions),
		items: s.collection(collWorkItems),
	}
}

type extensionDoc struct {
	ID          string     `bson:"_id"`
	ItemKind    string     `bson:"itemKind"`
	ItemID      string     `bson:"itemId"`
	RequestedBy string     `bson:"requestedBy"`
	RequestedAt time.Time  `bson:"requestedAt"`
	NewDeadline time.Time  `bson:"newDeadline"`
	Reason      string     `bson:"reason"`
	Status      string     `bson:"status"`
	ReviewedBy  *string    `bson:"reviewedBy,omitempty"`
	ReviewedAt  *time.Time `bson:"reviewedAt,omitempty"`
}

func (d extensionDoc) toDomain() *extension.Request {
	return &extension.Request{
		ID:          d.ID,
		ItemKind:    workitem.Kind(d.ItemKind),
		ItemID:      d.ItemID,
		RequestedBy: d.RequestedBy,
		RequestedAt: d.RequestedAt,
		NewDeadline: d.NewDeadline,
		Reason:      d.Reason,
		Status:      extension.Status(d.Status),
		ReviewedBy:  d.ReviewedBy,
		ReviewedAt:  d.ReviewedAt,
	}
}

// Create inserts a pending extension request
func (r *ExtensionRepository) Create(ctx context.Context, req *extension.Request) error {
	doc := extensionDoc{
		ID:          req.ID,
		ItemKind:    string(req.ItemKind),
		ItemID:      req.ItemID,
		RequestedBy: req.RequestedBy,
		RequestedAt: req.RequestedAt.UTC(),
		NewDeadline: req.NewDeadline.UTC(),
		Reason:      req.Reason,
		Status:      string(req.Status),
		ReviewedBy:  req.ReviewedBy,
		ReviewedAt:  req.ReviewedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create extension request: %w", translate(err))
	}
	return nil
}

// Get retrieves an extension request by ID
func (r *ExtensionRepository) Get(ctx context.Context, id string) (*extension.Request, error) {
	var doc extensionDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.toDomain(), nil
}

// ListByItem returns an item's requests in request order
func (r *ExtensionRepository) ListByItem(ctx context.Context, kind workitem.Kind, itemID string) ([]extension.Request, error) {
	cursor, err := r.coll.Find(ctx,
		bson.M{"itemKind": string(kind), "itemId": itemID},
		options.Find().SetSort(bson.D{{Key: "requestedAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list extension requests: %w", err)
	}
	var docs []extensionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode extension requests: %w", err)
	}
	out := make([]extension.Request, 0, len(docs))
	for _, d := range docs {
		out = append(out, *d.toDomain())
	}
	return out, nil
}

// Decide transitions a pending request with FindOneAndUpdate filtered on
// status. On approval the item's deadline follows; if the item is gone the
// request is put back to pending.
func (r *ExtensionRepository) Decide(ctx context.Context, id string, decision extension.Status, reviewerID string, at time.Time) (*extension.Request, error) {
	var doc extensionDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": string(extension.StatusPending)},
		bson.M{"$set": bson.M{
			"status":     string(decision),
			"reviewedBy": reviewerID,
			"reviewedAt": at.UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, err := r.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, repository.ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("failed to review extension request: %w", err)
	}

	if decision == extension.StatusApproved {
		res, err := r.items.UpdateOne(ctx,
			bson.M{"_id": doc.ItemID, "kind": doc.ItemKind},
			bson.M{"$set": bson.M{"deadline": doc.NewDeadline, "updatedAt": at.UTC()}})
		if err == nil && res.MatchedCount == 0 {
			err = repository.ErrNotFound
		}
		if err != nil {
			err = fmt.Errorf("failed to apply extended deadline: %w", err)
			if rerr := r.revert(ctx, id); rerr != nil {
				err = errors.Join(err, fmt.Errorf("failed to reopen extension request %s: %w", id, rerr))
			}
			return nil, err
		}
	}
	return doc.toDomain(), nil
}

// revert puts a reviewed request back to pending after its deadline
// could not be applied.
func (r *ExtensionRepository) revert(ctx context.Context, id string) error {
	res, err := r.coll.UpdateOne(context.WithoutCancel(ctx),
		bson.M{"_id": id},
		bson.M{
			"$set":   bson.M{"status": string(extension.StatusPending)},
			"$unset": bson.M{"reviewedBy": "", "reviewedAt": ""},
		})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
