package users

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gu-collab/gucollab/internal/models"
)

// Store manages the users collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new users Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// EnsureIndexes creates the uniqueness indexes the signup path relies on.
// The roll number index is sparse so teachers (who carry none) don't collide.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_users_email").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "rollNumber", Value: 1}},
			Options: options.Index().SetName("idx_users_roll").SetUnique(true).SetSparse(true),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts a new user.
func (s *Store) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, user)
	return err
}

// FindByID retrieves a user by id.
func (s *Store) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail retrieves a user by lowercase email.
func (s *Store) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.c.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByRollNumber retrieves a student by roll number.
func (s *Store) FindByRollNumber(ctx context.Context, roll string) (*models.User, error) {
	var user models.User
	if err := s.c.FindOne(ctx, bson.M{"rollNumber": roll}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile applies the given field updates and returns the fresh document.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error) {
	set["updatedAt"] = time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetPassword replaces the credential hash for the given email.
func (s *Store) SetPassword(ctx context.Context, email, passwordHash string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": bson.M{
		"passwordHash": passwordHash,
		"updatedAt":    time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetAvatar stores the relative upload path of a user's avatar.
func (s *Store) SetAvatar(ctx context.Context, id primitive.ObjectID, path string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"profileImage": path,
		"updatedAt":    time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SearchByName returns up to limit users whose name contains the term,
// case-insensitively, projected down to the summary fields.
func (s *Store) SearchByName(ctx context.Context, term string, limit int64) ([]models.UserSummary, error) {
	filter := bson.M{"name": bson.M{"$regex": term, "$options": "i"}}
	opts := options.Find().
		SetLimit(limit).
		SetProjection(bson.M{
			"name": 1, "email": 1, "profileImage": 1,
			"role": 1, "course": 1, "department": 1,
		})

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.UserSummary
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Summaries resolves a set of user ids to display summaries.
func (s *Store) Summaries(ctx context.Context, ids []primitive.ObjectID) ([]models.UserSummary, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	opts := options.Find().SetProjection(bson.M{
		"name": 1, "email": 1, "profileImage": 1,
		"role": 1, "course": 1, "rollNumber": 1,
	})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.UserSummary
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TrackVisit bumps today's visit counter for a student, appending a fresh
// entry when today has none yet. Non-students are ignored.
func (s *Store) TrackVisit(ctx context.Context, id primitive.ObjectID) error {
	today := time.Now().UTC().Format("2006-01-02")

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "role": models.RoleStudent, "visits.date": today},
		bson.M{"$inc": bson.M{"visits.$.count": 1}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// No entry for today yet; the date guard keeps a concurrent tracker
	// from pushing a duplicate day.
	_, err = s.c.UpdateOne(ctx,
		bson.M{"_id": id, "role": models.RoleStudent, "visits.date": bson.M{"$ne": today}},
		bson.M{"$push": bson.M{"visits": models.Visit{Date: today, Count: 1}}},
	)
	return err
}

// AddCompletedProject appends a showcase entry and returns the updated list.
func (s *Store) AddCompletedProject(ctx context.Context, id primitive.ObjectID, entry models.CompletedProject) ([]models.CompletedProject, error) {
	entry.CreatedAt = time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$push": bson.M{"completedProjects": entry}},
		opts,
	).Decode(&user)
	if err != nil {
		return nil, err
	}
	return user.CompletedProjects, nil
}
