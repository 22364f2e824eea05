package projects

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gu-collab/gucollab/internal/models"
)

// Filter narrows project listings.
type Filter struct {
	Type      string
	Search    string
	TechStack []string
}

// Store manages the projects collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new projects Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("projects")}
}

// EnsureIndexes creates the index used to filter expired hackathon listings.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "type", Value: 1}, {Key: "deadline", Value: 1}},
			Options: options.Index().SetName("idx_projects_type_deadline"),
		},
		{
			Keys:    bson.D{{Key: "admin", Value: 1}},
			Options: options.Index().SetName("idx_projects_admin"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts a new project.
func (s *Store) Create(ctx context.Context, project *models.Project) error {
	now := time.Now().UTC()
	if project.ID.IsZero() {
		project.ID = primitive.NewObjectID()
	}
	if project.Status == "" {
		project.Status = models.ProjectStatusActive
	}
	project.CreatedAt = now
	project.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, project)
	return err
}

// FindByID retrieves a project by id.
func (s *Store) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var project models.Project
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&project); err != nil {
		return nil, err
	}
	return &project, nil
}

// Find lists projects matching the filter, newest first. Hackathon listings
// hide entries whose deadline has passed.
func (s *Store) Find(ctx context.Context, f Filter) ([]models.Project, error) {
	filter := bson.M{}

	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.Type == models.ProjectTypeHackathon {
		filter["deadline"] = bson.M{"$gte": time.Now().UTC()}
	}
	if f.Search != "" {
		filter["$or"] = bson.A{
			bson.M{"title": bson.M{"$regex": f.Search, "$options": "i"}},
			bson.M{"description": bson.M{"$regex": f.Search, "$options": "i"}},
		}
	}
	if len(f.TechStack) > 0 {
		filter["techStack"] = bson.M{"$in": f.TechStack}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Project
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ByAdmin lists projects administered by the given user.
func (s *Store) ByAdmin(ctx context.Context, adminID primitive.ObjectID) ([]models.Project, error) {
	cur, err := s.c.Find(ctx, bson.M{"admin": adminID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Project
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies the given field updates and returns the fresh document.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Project, error) {
	set["updatedAt"] = time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var project models.Project
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&project)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Delete removes the project document. Requests, chat messages, and
// notifications referencing it are deliberately left in place.
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

// AddMemberIfCapacity appends userID to members only while the member count
// is below requiredMembers, as a single conditional update so concurrent
// accepts cannot both slip past the guard. It reports false when the project
// was full (or the id unknown). Adding an existing member is a no-op that
// still reports true.
func (s *Store) AddMemberIfCapacity(ctx context.Context, id, userID primitive.ObjectID) (bool, error) {
	filter := bson.M{
		"_id": id,
		"$expr": bson.M{
			"$lt": bson.A{
				bson.M{"$size": bson.M{"$ifNull": bson.A{"$members", bson.A{}}}},
				"$requiredMembers",
			},
		},
	}
	update := bson.M{
		"$addToSet": bson.M{"members": userID},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	}

	res, err := s.c.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// RemoveMember pulls a member and returns the updated project.
func (s *Store) RemoveMember(ctx context.Context, id, memberID primitive.ObjectID) (*models.Project, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{
		"$pull": bson.M{"members": memberID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}

	var project models.Project
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&project)
	if err != nil {
		return nil, err
	}
	return &project, nil
}
