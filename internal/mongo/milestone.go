package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/rpggio/duetrack/internal/domain/milestone"
	"github.com/rpggio/duetrack/internal/domain/workitem"
	"github.com/rpggio/duetrack/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MilestoneRepository implements milestone.Repository for MongoDB
type MilestoneRepository struct {
	coll  *mongo.Collection
	items *mongo.Collection
}

// NewMilestoneRepository creates a new MilestoneRepository
func NewMilestoneRepository(s *Store) *MilestoneRepository {
	return &MilestoneRepository{
		coll:  s.collection(collMilestones),
		items: s.collection(collWorkItems),
	}
}

type milestoneDoc struct {
	ID          string     `bson:"_id"`
	ProjectID   string     `bson:"projectId"`
	Title       string     `bson:"title"`
	Description string     `bson:"description"`
	DueDate     time.Time  `bson:"dueDate"`
	Completed   bool       `bson:"completed"`
	CompletedAt *time.Time `bson:"completedAt,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt"`
}

func (d milestoneDoc) toDomain() milestone.Milestone {
	return milestone.Milestone{
		ID:          d.ID,
		ProjectID:   d.ProjectID,
		Title:       d.Title,
		Description: d.Description,
		DueDate:     d.DueDate,
		Completed:   d.Completed,
		CompletedAt: d.CompletedAt,
		CreatedAt:   d.CreatedAt,
	}
}

var milestoneSort = bson.D{{Key: "dueDate", Value: 1}, {Key: "createdAt", Value: 1}}

// Create inserts a milestone. The project must exist.
func (r *MilestoneRepository) Create(ctx context.Context, m *milestone.Milestone) error {
	n, err := r.items.CountDocuments(ctx, bson.M{"_id": m.ProjectID, "kind": string(workitem.KindProject)})
	if err != nil {
		return fmt.Errorf("failed to check project: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("failed to create milestone: %w", repository.ErrNotFound)
	}

	doc := milestoneDoc{
		ID:          m.ID,
		ProjectID:   m.ProjectID,
		Title:       m.Title,
		Description: m.Description,
		DueDate:     m.DueDate.UTC(),
		Completed:   m.Completed,
		CompletedAt: m.CompletedAt,
		CreatedAt:   m.CreatedAt.UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create milestone: %w", translate(err))
	}
	return nil
}

// Get retrieves a milestone of a project
func (r *MilestoneRepository) Get(ctx context.Context, projectID, id string) (*milestone.Milestone, error) {
	var doc milestoneDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id, "projectId": projectID}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	m := doc.toDomain()
	return &m, nil
}

// ListByProject returns a project's milestones by due date
func (r *MilestoneRepository) ListByProject(ctx context.Context, projectID string) ([]milestone.Milestone, error) {
	return r.find(ctx, bson.M{"projectId": projectID})
}

// ListDueBetween returns milestones due in [start, end]
func (r *MilestoneRepository) ListDueBetween(ctx context.Context, projectIDs []string, start, end time.Time) ([]milestone.Milestone, error) {
	filter := bson.M{"dueDate": bson.M{"$gte": start.UTC(), "$lte": end.UTC()}}
	if projectIDs != nil {
		if len(projectIDs) == 0 {
			return []milestone.Milestone{}, nil
		}
		filter["projectId"] = bson.M{"$in": projectIDs}
	}
	return r.find(ctx, filter)
}

func (r *MilestoneRepository) find(ctx context.Context, filter bson.M) ([]milestone.Milestone, error) {
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(milestoneSort))
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	var docs []milestoneDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode milestones: %w", err)
	}
	out := make([]milestone.Milestone, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// Complete marks an open milestone completed
func (r *MilestoneRepository) Complete(ctx context.Context, projectID, id string, at time.Time) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "projectId": projectID, "completed": false},
		bson.M{"$set": bson.M{"completed": true, "completedAt": at.UTC()}})
	if err != nil {
		return false, fmt.Errorf("failed to complete milestone: %w", err)
	}
	if res.MatchedCount == 1 {
		return true, nil
	}
	if _, err := r.Get(ctx, projectID, id); err != nil {
		return false, err
	}
	return false, nil
}
