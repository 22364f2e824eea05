package announcements

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gu-collab/gucollab/internal/models"
)

// Store manages the announcements collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new announcements Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("announcements")}
}

// EnsureIndexes creates the visibility index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "isActive", Value: 1}, {Key: "deadline", Value: 1}},
			Options: options.Index().SetName("idx_announcements_visible"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts a new announcement.
func (s *Store) Create(ctx context.Context, a *models.Announcement) error {
	now := time.Now().UTC()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.Attachments == nil {
		a.Attachments = []models.Attachment{}
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, a)
	return err
}

// FindByID retrieves an announcement by id.
func (s *Store) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Announcement, error) {
	var a models.Announcement
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Active lists announcements visible to everyone: active, and either without
// a deadline or with one still ahead.
func (s *Store) Active(ctx context.Context, now time.Time) ([]models.Announcement, error) {
	filter := bson.M{
		"isActive": true,
		"$or": bson.A{
			bson.M{"deadline": nil},
			bson.M{"deadline": bson.M{"$gte": now}},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Announcement
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// All lists every announcement for the teacher management view.
func (s *Store) All(ctx context.Context) ([]models.Announcement, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Announcement
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies field updates and appends any new attachments, returning the
// fresh document.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, set bson.M, attachments []models.Attachment) (*models.Announcement, error) {
	set["updatedAt"] = time.Now().UTC()
	update := bson.M{"$set": set}
	if len(attachments) > 0 {
		update["$push"] = bson.M{"attachments": bson.M{"$each": attachments}}
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var a models.Announcement
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&a)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// SetActive flips the visibility flag and returns the fresh document.
func (s *Store) SetActive(ctx context.Context, id primitive.ObjectID, active bool) (*models.Announcement, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{
		"isActive":  active,
		"updatedAt": time.Now().UTC(),
	}}

	var a models.Announcement
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&a)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Delete removes the announcement document.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
