package requests

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gu-collab/gucollab/internal/models"
)

// Store manages the join requests collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new requests Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("requests")}
}

// EnsureIndexes creates lookup indexes for the inbox views.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_requests_user"),
		},
		{
			Keys:    bson.D{{Key: "projectId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_requests_project_status"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts a new pending request.
func (s *Store) Create(ctx context.Context, request *models.Request) error {
	now := time.Now().UTC()
	if request.ID.IsZero() {
		request.ID = primitive.NewObjectID()
	}
	if request.Status == "" {
		request.Status = models.RequestPending
	}
	request.CreatedAt = now
	request.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, request)
	return err
}

// FindByID retrieves a request by id.
func (s *Store) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	var request models.Request
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&request); err != nil {
		return nil, err
	}
	return &request, nil
}

// HasPending reports whether user already has a pending request on project.
func (s *Store) HasPending(ctx context.Context, projectID, userID primitive.ObjectID) (bool, error) {
	count, err := s.c.CountDocuments(ctx, bson.M{
		"projectId": projectID,
		"userId":    userID,
		"status":    models.RequestPending,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ByUser lists a user's requests, newest first.
func (s *Store) ByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Request, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Request
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PendingByProjects lists pending requests across the given projects,
// newest first.
func (s *Store) PendingByProjects(ctx context.Context, projectIDs []primitive.ObjectID) ([]models.Request, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{
		"projectId": bson.M{"$in": projectIDs},
		"status":    models.RequestPending,
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Request
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetStatus moves a request to a terminal status and returns the fresh
// document. Pending is the only status the transition fires from.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Request, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{
		"status":    status,
		"updatedAt": time.Now().UTC(),
	}}

	var request models.Request
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "status": models.RequestPending}, update, opts).Decode(&request)
	if err != nil {
		return nil, err
	}
	return &request, nil
}
