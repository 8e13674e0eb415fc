// Package mongo implements the repositories on a MongoDB document store.
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	collWorkItems     = "work_items"
	collUsers         = "users"
	collLedger        = "deadline_ledger"
	collExtensions    = "extension_requests"
	collMilestones    = "milestones"
	collNotifications = "notifications"
	collJobLocks      = "job_locks"
)

// Store holds a connected client and the database the repositories use.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri, verifies the connection and selects database.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// EnsureIndexes creates the indexes the repositories rely on. The ledger's
// unique index is what makes Claim an insert-if-absent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		collWorkItems: {
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "deadline", Value: 1}}},
			{Keys: bson.D{{Key: "assigneeId", Value: 1}}},
			{Keys: bson.D{{Key: "projectId", Value: 1}}},
			{Keys: bson.D{{Key: "members", Value: 1}}},
		},
		collUsers: {
			{Keys: bson.D{{Key: "role", Value: 1}}},
		},
		collLedger: {
			{
				Keys: bson.D{
					{Key: "itemKind", Value: 1},
					{Key: "itemId", Value: 1},
					{Key: "threshold", Value: 1},
					{Key: "recipientId", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
		},
		collExtensions: {
			{Keys: bson.D{{Key: "itemKind", Value: 1}, {Key: "itemId", Value: 1}, {Key: "requestedAt", Value: 1}}},
		},
		collMilestones: {
			{Keys: bson.D{{Key: "projectId", Value: 1}, {Key: "dueDate", Value: 1}}},
			{Keys: bson.D{{Key: "dueDate", Value: 1}}},
		},
		collNotifications: {
			{Keys: bson.D{{Key: "recipientId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}

	for name, models := range indexes {
		if _, err := s.collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// Drop removes the database. Used by tests.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}
