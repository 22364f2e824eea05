package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/gu-collab/gucollab/internal/store/users"
)

// VisitTracker records activity-calendar visits as fire-and-forget work.
// Tracking must never fail the surrounding request, so Track detaches from
// the caller's lifetime and only logs failures.
type VisitTracker struct {
	users *users.Store
	log   *zap.Logger
}

// NewVisitTracker creates a VisitTracker.
func NewVisitTracker(store *users.Store, log *zap.Logger) *VisitTracker {
	return &VisitTracker{users: store, log: log}
}

// Track bumps today's visit count for userID in the background.
func (v *VisitTracker) Track(userID primitive.ObjectID) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := v.users.TrackVisit(ctx, userID); err != nil {
			v.log.Warn("visit tracking failed",
				zap.String("user_id", userID.Hex()),
				zap.Error(err))
		}
	}()
}
