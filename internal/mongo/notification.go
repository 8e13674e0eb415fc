package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/rpggio/duetrack/internal/domain/notification"
	"github.com/rpggio/duetrack/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationRepository implements notification.Repository for MongoDB
type NotificationRepository struct {
	coll *mongo.Collection
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(s *Store) *NotificationRepository {
	return &NotificationRepository{coll: s.collection(collNotifications)}
}

type relatedDoc struct {
	Kind        string `bson:"kind,omitempty"`
	ID          string `bson:"id,omitempty"`
	Title       string `bson:"title,omitempty"`
	ProjectName string `bson:"projectName,omitempty"`
	Status      string `bson:"status,omitempty"`
}

type notificationDoc struct {
	ID          string     `bson:"_id"`
	RecipientID string     `bson:"recipientId"`
	Title       string     `bson:"title"`
	Message     string     `bson:"message"`
	Type        string     `bson:"type"`
	Priority    string     `bson:"priority"`
	Read        bool       `bson:"read"`
	Related     relatedDoc `bson:"related"`
	EmailSent   bool       `bson:"emailSent"`
	EmailSentAt *time.Time `bson:"emailSentAt,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt"`
}

func (d notificationDoc) toDomain() notification.Notification {
	return notification.Notification{
		ID:          d.ID,
		RecipientID: d.RecipientID,
		Title:       d.Title,
		Message:     d.Message,
		Type:        notification.Type(d.Type),
		Priority:    notification.Priority(d.Priority),
		Read:        d.Read,
		Related: notification.Related{
			Kind:        d.Related.Kind,
			ID:          d.Related.ID,
			Title:       d.Related.Title,
			ProjectName: d.Related.ProjectName,
			Status:      d.Related.Status,
		},
		EmailSent:   d.EmailSent,
		EmailSentAt: d.EmailSentAt,
		CreatedAt:   d.CreatedAt,
	}
}

// Create inserts a notification
func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	doc := notificationDoc{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		Title:       n.Title,
		Message:     n.Message,
		Type:        string(n.Type),
		Priority:    string(n.Priority),
		Read:        n.Read,
		Related: relatedDoc{
			Kind:        n.Related.Kind,
			ID:          n.Related.ID,
			Title:       n.Related.Title,
			ProjectName: n.Related.ProjectName,
			Status:      n.Related.Status,
		},
		EmailSent:   n.EmailSent,
		EmailSentAt: n.EmailSentAt,
		CreatedAt:   n.CreatedAt.UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create notification: %w", translate(err))
	}
	return nil
}

// Get retrieves a notification by ID
func (r *NotificationRepository) Get(ctx context.Context, id string) (*notification.Notification, error) {
	var doc notificationDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	n := doc.toDomain()
	return &n, nil
}

// MarkEmailSent records a successful email delivery
func (r *NotificationRepository) MarkEmailSent(ctx context.Context, id string, at time.Time) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"emailSent": true, "emailSentAt": at.UTC()}})
}

// MarkRead marks one notification read
func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"read": true}})
}

// MarkAllRead marks every unread notification of a recipient read
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"recipientId": recipientID, "read": false},
		bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return res.ModifiedCount, nil
}

// ListByRecipient returns a recipient's notifications, newest first. A
// limit of zero returns all of them.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]notification.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.coll.Find(ctx, bson.M{"recipientId": recipientID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	var docs []notificationDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	out := make([]notification.Notification, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// Delete removes a notification
func (r *NotificationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteByRecipient removes every notification of a recipient
func (r *NotificationRepository) DeleteByRecipient(ctx context.Context, recipientID string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"recipientId": recipientID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete notifications: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *NotificationRepository) updateOne(ctx context.Context, id string, update bson.M) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
