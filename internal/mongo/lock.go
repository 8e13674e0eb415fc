package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LockRepository leases named job locks so only one instance runs a job
// at a time.
type LockRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewLockRepository creates a new LockRepository
func NewLockRepository(s *Store) *LockRepository {
	return &LockRepository{coll: s.collection(collJobLocks), now: time.Now}
}

// TryAcquire upserts the lease when it is expired or already held by owner.
// A live lease held by someone else makes the upsert collide on _id.
func (r *LockRepository) TryAcquire(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	now := r.now().UTC()
	_, err := r.coll.UpdateOne(ctx,
		bson.M{
			"_id": name,
			"$or": []bson.M{
				{"expiresAt": bson.M{"$lte": now}},
				{"owner": owner},
			},
		},
		bson.M{"$set": bson.M{"owner": owner, "expiresAt": now.Add(ttl)}},
		options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	return true, nil
}

// Release drops the lease if owner still holds it
func (r *LockRepository) Release(ctx context.Context, name, owner string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": name, "owner": owner}); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", name, err)
	}
	return nil
}
