package mongo

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rpggio/duetrack/internal/domain/user"
	"github.com/rpggio/duetrack/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository implements user.Repository for MongoDB. Vacation periods
// are embedded in the user document.
type UserRepository struct {
	coll *mongo.Collection
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(s *Store) *UserRepository {
	return &UserRepository{coll: s.collection(collUsers)}
}

type dayDoc struct {
	Start     string `bson:"start"`
	End       string `bson:"end"`
	Available bool   `bson:"available"`
}

type vacationDoc struct {
	ID        string    `bson:"id"`
	StartDate time.Time `bson:"startDate"`
	EndDate   time.Time `bson:"endDate"`
	Reason    string    `bson:"reason,omitempty"`
	CreatedAt time.Time `bson:"createdAt"`
}

type userDoc struct {
	ID              string            `bson:"_id"`
	Name            string            `bson:"name"`
	Email           string            `bson:"email"`
	Role            string            `bson:"role"`
	IsActive        bool              `bson:"isActive"`
	Timezone        string            `bson:"timezone"`
	MaxHoursPerWeek float64           `bson:"maxHoursPerWeek"`
	CurrentWorkload float64           `bson:"currentWorkload"`
	WorkSchedule    map[string]dayDoc `bson:"workSchedule,omitempty"`
	Vacations       []vacationDoc     `bson:"vacations"`
	CreatedAt       time.Time         `bson:"createdAt"`
}

func scheduleDoc(s user.WeekSchedule) map[string]dayDoc {
	out := make(map[string]dayDoc, len(s))
	for day, entry := range s {
		out[day] = dayDoc{Start: entry.Start, End: entry.End, Available: entry.Available}
	}
	return out
}

func newVacationDoc(v *user.VacationPeriod) vacationDoc {
	return vacationDoc{
		ID:        v.ID,
		StartDate: v.StartDate.UTC(),
		EndDate:   v.EndDate.UTC(),
		Reason:    v.Reason,
		CreatedAt: v.CreatedAt.UTC(),
	}
}

func (d userDoc) toDomain() user.User {
	u := user.User{
		ID:              d.ID,
		Name:            d.Name,
		Email:           d.Email,
		Role:            user.Role(d.Role),
		IsActive:        d.IsActive,
		Timezone:        d.Timezone,
		MaxHoursPerWeek: d.MaxHoursPerWeek,
		CurrentWorkload: d.CurrentWorkload,
		CreatedAt:       d.CreatedAt,
	}
	if d.WorkSchedule != nil {
		s := make(user.WeekSchedule, len(d.WorkSchedule))
		for day, entry := range d.WorkSchedule {
			s[day] = user.DaySchedule{Start: entry.Start, End: entry.End, Available: entry.Available}
		}
		u.Schedule = &s
	}
	for _, v := range d.Vacations {
		u.Vacations = append(u.Vacations, user.VacationPeriod{
			ID:        v.ID,
			UserID:    d.ID,
			StartDate: v.StartDate,
			EndDate:   v.EndDate,
			Reason:    v.Reason,
			CreatedAt: v.CreatedAt,
		})
	}
	slices.SortStableFunc(u.Vacations, func(a, b user.VacationPeriod) int {
		return a.StartDate.Compare(b.StartDate)
	})
	return u
}

// Create inserts a user together with any vacation periods it carries
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	if u.Role == "" {
		u.Role = user.RoleMember
	}
	if u.MaxHoursPerWeek <= 0 {
		u.MaxHoursPerWeek = user.DefaultMaxHoursPerWeek
	}

	doc := userDoc{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Role:            string(u.Role),
		IsActive:        u.IsActive,
		Timezone:        u.Timezone,
		MaxHoursPerWeek: u.MaxHoursPerWeek,
		CurrentWorkload: u.CurrentWorkload,
		Vacations:       []vacationDoc{},
		CreatedAt:       u.CreatedAt.UTC(),
	}
	if u.Schedule != nil {
		doc.WorkSchedule = scheduleDoc(*u.Schedule)
	}
	for i := range u.Vacations {
		v := &u.Vacations[i]
		v.UserID = u.ID
		if v.CreatedAt.IsZero() {
			v.CreatedAt = u.CreatedAt
		}
		doc.Vacations = append(doc.Vacations, newVacationDoc(v))
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create user: %w", translate(err))
	}
	return nil
}

// Get retrieves a user with its vacation periods
func (r *UserRepository) Get(ctx context.Context, id string) (*user.User, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	u := doc.toDomain()
	return &u, nil
}

// ListActive returns every active user
func (r *UserRepository) ListActive(ctx context.Context) ([]user.User, error) {
	return r.find(ctx, bson.M{"isActive": true})
}

// ListByIDs returns the users with the given IDs in the order given
func (r *UserRepository) ListByIDs(ctx context.Context, ids []string) ([]user.User, error) {
	if len(ids) == 0 {
		return []user.User{}, nil
	}
	users, err := r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]user.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	ordered := make([]user.User, 0, len(users))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			ordered = append(ordered, u)
			delete(byID, id)
		}
	}
	return ordered, nil
}

// ListByRoles returns active users holding any of the given roles
func (r *UserRepository) ListByRoles(ctx context.Context, roles []user.Role) ([]user.User, error) {
	if len(roles) == 0 {
		return []user.User{}, nil
	}
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	return r.find(ctx, bson.M{"isActive": true, "role": bson.M{"$in": names}})
}

func (r *UserRepository) find(ctx context.Context, filter bson.M) ([]user.User, error) {
	cursor, err := r.coll.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	users := make([]user.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, doc.toDomain())
	}
	return users, nil
}

// UpdateSchedule replaces a user's weekly schedule and timezone
func (r *UserRepository) UpdateSchedule(ctx context.Context, id string, schedule user.WeekSchedule, timezone string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"workSchedule": scheduleDoc(schedule),
		"timezone":     timezone,
	}})
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AddVacation appends a vacation period to a user with an atomic $push
func (r *UserRepository) AddVacation(ctx context.Context, period *user.VacationPeriod) error {
	if period.CreatedAt.IsZero() {
		period.CreatedAt = time.Now()
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": period.UserID},
		bson.M{"$push": bson.M{"vacations": newVacationDoc(period)}})
	if err != nil {
		return fmt.Errorf("failed to add vacation: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
