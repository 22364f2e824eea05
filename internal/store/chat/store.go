package chat

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gu-collab/gucollab/internal/models"
)

// HistoryLimit caps a project's history read.
const HistoryLimit = 100

// Store manages the chat messages collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new chat Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("chat_messages")}
}

// EnsureIndexes creates the history read index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "projectId", Value: 1}, {Key: "timestamp", Value: 1}},
			Options: options.Index().SetName("idx_chat_project_ts"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Insert persists a message with a server-assigned timestamp and id.
func (s *Store) Insert(ctx context.Context, msg *models.ChatMessage) error {
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, msg)
	return err
}

// ByProject returns up to HistoryLimit messages for a project in timestamp
// order. There is no pagination beyond the fixed cap.
func (s *Store) ByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.ChatMessage, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: 1}}).
		SetLimit(HistoryLimit)

	cur, err := s.c.Find(ctx, bson.M{"projectId": projectID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ChatMessage
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
