package resettokens

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gu-collab/gucollab/internal/models"
)

// TTL is the OTP validity window.
const TTL = 5 * time.Minute

// Store manages the password-reset token collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new reset token Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("reset_tokens")}
}

// EnsureIndexes creates the TTL index that reaps expired tokens at the store
// level. Expiry is still checked on read; the reaper runs on Mongo's own
// schedule.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetName("idx_reset_tokens_ttl").SetExpireAfterSeconds(0),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_reset_tokens_email"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Replace purges any previous tokens for the email and stores a fresh one,
// so at most one live OTP exists per address.
func (s *Store) Replace(ctx context.Context, email, otp string) (*models.ResetToken, error) {
	if _, err := s.c.DeleteMany(ctx, bson.M{"email": email}); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	token := &models.ResetToken{
		ID:        primitive.NewObjectID(),
		Email:     email,
		OTP:       otp,
		ExpiresAt: now.Add(TTL),
		CreatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// Find retrieves the token matching the email/OTP pair.
func (s *Store) Find(ctx context.Context, email, otp string) (*models.ResetToken, error) {
	var token models.ResetToken
	if err := s.c.FindOne(ctx, bson.M{"email": email, "otp": otp}).Decode(&token); err != nil {
		return nil, err
	}
	return &token, nil
}

// Delete removes a token by id (used or expired).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
