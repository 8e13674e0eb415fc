package mongo

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rpggio/duetrack/internal/domain/workitem"
	"github.com/rpggio/duetrack/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// WorkItemRepository implements workitem.Repository for MongoDB
type WorkItemRepository struct {
	coll *mongo.Collection
}

// NewWorkItemRepository creates a new WorkItemRepository
func NewWorkItemRepository(s *Store) *WorkItemRepository {
	return &WorkItemRepository{coll: s.collection(collWorkItems)}
}

type workItemDoc struct {
	ID             string     `bson:"_id"`
	Kind           string     `bson:"kind"`
	Title          string     `bson:"title"`
	Description    string     `bson:"description"`
	Deadline       *time.Time `bson:"deadline"`
	Status         string     `bson:"status"`
	AssigneeID     *string    `bson:"assigneeId,omitempty"`
	ProjectID      *string    `bson:"projectId,omitempty"`
	Members        []string   `bson:"members,omitempty"`
	EstimatedHours float64    `bson:"estimatedHours"`
	CreatedAt      time.Time  `bson:"createdAt"`
	UpdatedAt      time.Time  `bson:"updatedAt"`
}

func newWorkItemDoc(item *workitem.WorkItem) workItemDoc {
	doc := workItemDoc{
		ID:             item.ID,
		Kind:           string(item.Kind),
		Title:          item.Title,
		Description:    item.Description,
		Status:         string(item.Status),
		AssigneeID:     item.AssigneeID,
		ProjectID:      item.ProjectID,
		EstimatedHours: item.EstimatedHours,
		CreatedAt:      item.CreatedAt.UTC(),
		UpdatedAt:      item.UpdatedAt.UTC(),
	}
	if item.HasDeadline() {
		d := item.Deadline.UTC()
		doc.Deadline = &d
	}
	if item.Kind == workitem.KindProject {
		doc.Members = item.Recipients()
	}
	return doc
}

func (d workItemDoc) toDomain() workitem.WorkItem {
	item := workitem.WorkItem{
		ID:             d.ID,
		Kind:           workitem.Kind(d.Kind),
		Title:          d.Title,
		Description:    d.Description,
		Deadline:       d.Deadline,
		Status:         workitem.Status(d.Status),
		AssigneeID:     d.AssigneeID,
		ProjectID:      d.ProjectID,
		EstimatedHours: d.EstimatedHours,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	if item.Kind == workitem.KindProject {
		item.Members = append([]string{}, d.Members...)
	}
	return item
}

// Create inserts a work item. A task's project must exist.
func (r *WorkItemRepository) Create(ctx context.Context, item *workitem.WorkItem) error {
	if err := workitem.Validate(item); err != nil {
		return err
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = item.CreatedAt
	}

	if item.ProjectID != nil && *item.ProjectID != "" {
		n, err := r.coll.CountDocuments(ctx, bson.M{"_id": *item.ProjectID, "kind": string(workitem.KindProject)})
		if err != nil {
			return fmt.Errorf("failed to check project: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("failed to create work item: %w", repository.ErrNotFound)
		}
	}

	if _, err := r.coll.InsertOne(ctx, newWorkItemDoc(item)); err != nil {
		return fmt.Errorf("failed to create work item: %w", translate(err))
	}
	return nil
}

// Get retrieves a work item by kind and ID
func (r *WorkItemRepository) Get(ctx context.Context, kind workitem.Kind, id string) (*workitem.WorkItem, error) {
	var doc workItemDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id, "kind": string(kind)}).Decode(&doc)
	if err != nil {
		return nil, translate(err)
	}
	item := doc.toDomain()
	return &item, nil
}

// List returns work items matching opts ordered by deadline, undated last
func (r *WorkItemRepository) List(ctx context.Context, opts workitem.ListOptions) ([]workitem.WorkItem, error) {
	var memberOf []string
	if opts.UserID != "" {
		ids, err := r.projectIDsForMember(ctx, opts.UserID)
		if err != nil {
			return nil, err
		}
		memberOf = ids
	}

	findOpts := options.Find().SetSort(bson.D{
		{Key: "deadline", Value: 1},
		{Key: "createdAt", Value: 1},
		{Key: "_id", Value: 1},
	})
	cursor, err := r.coll.Find(ctx, listFilter(opts, memberOf), findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list work items: %w", err)
	}
	var docs []workItemDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode work items: %w", err)
	}

	items := make([]workitem.WorkItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doc.toDomain())
	}
	undatedLast(items)
	return items, nil
}

func (r *WorkItemRepository) projectIDsForMember(ctx context.Context, userID string) ([]string, error) {
	cursor, err := r.coll.Find(ctx,
		bson.M{"kind": string(workitem.KindProject), "members": userID},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list member projects: %w", err)
	}
	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode member projects: %w", err)
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

// listFilter translates ListOptions into a query document. memberOf holds
// the projects UserID belongs to.
func listFilter(opts workitem.ListOptions, memberOf []string) bson.M {
	filter := bson.M{}
	var and []bson.M

	if opts.Kind != "" {
		filter["kind"] = string(opts.Kind)
	}
	if opts.UserID != "" {
		if memberOf == nil {
			memberOf = []string{}
		}
		and = append(and, bson.M{"$or": []bson.M{
			{"kind": string(workitem.KindTask), "$or": []bson.M{
				{"assigneeId": opts.UserID},
				{"projectId": bson.M{"$in": memberOf}},
			}},
			{"kind": string(workitem.KindProject), "members": opts.UserID},
		}})
	}
	if opts.AssigneeID != "" {
		filter["assigneeId"] = opts.AssigneeID
	}
	if opts.ProjectID != "" {
		filter["projectId"] = opts.ProjectID
	}
	if opts.HasDeadline || opts.DeadlineFrom != nil || opts.DeadlineUntil != nil {
		deadline := bson.M{"$ne": nil}
		if opts.DeadlineFrom != nil {
			deadline["$gte"] = opts.DeadlineFrom.UTC()
		}
		if opts.DeadlineUntil != nil {
			deadline["$lt"] = opts.DeadlineUntil.UTC()
		}
		filter["deadline"] = deadline
	}
	if opts.OpenOnly {
		filter["$nor"] = []bson.M{
			{"kind": string(workitem.KindTask), "status": string(workitem.TaskDone)},
			{"kind": string(workitem.KindProject), "status": string(workitem.ProjectCompleted)},
		}
	}
	if len(and) > 0 {
		filter["$and"] = and
	}
	return filter
}

// undatedLast moves items without a deadline behind dated ones, keeping order.
func undatedLast(items []workitem.WorkItem) {
	slices.SortStableFunc(items, func(a, b workitem.WorkItem) int {
		switch {
		case a.HasDeadline() == b.HasDeadline():
			return 0
		case a.HasDeadline():
			return -1
		default:
			return 1
		}
	})
}

// SetAssignee sets the assignee of a task
func (r *WorkItemRepository) SetAssignee(ctx context.Context, taskID, userID string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": taskID, "kind": string(workitem.KindTask)},
		bson.M{"$set": bson.M{"assigneeId": userID, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("failed to set assignee: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
