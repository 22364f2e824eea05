package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/gu-collab/gucollab/internal/models"
	"github.com/gu-collab/gucollab/internal/store/notifications"
)

// Notifier writes one notification document per interested user when a
// state-changing event occurs. Fan-out is synchronous and best-effort: a
// failed insert is logged and the remaining recipients still get theirs.
type Notifier struct {
	store *notifications.Store
	log   *zap.Logger
}

// NewNotifier creates a Notifier.
func NewNotifier(store *notifications.Store, log *zap.Logger) *Notifier {
	return &Notifier{store: store, log: log}
}

// NewMessage notifies every project participant except the sender.
func (n *Notifier) NewMessage(ctx context.Context, project *models.Project, senderID primitive.ObjectID, senderName string) {
	var recipients []primitive.ObjectID
	for _, id := range project.Participants() {
		if id != senderID {
			recipients = append(recipients, id)
		}
	}
	n.fanOut(ctx, recipients, models.Notification{
		Type:      models.NotificationNewMessage,
		Title:     "New Message",
		Message:   fmt.Sprintf("%s sent a message in %q", senderName, project.Title),
		ProjectID: project.ID,
	})
}

// JoinRequest notifies the project admin of a new request.
func (n *Notifier) JoinRequest(ctx context.Context, project *models.Project, requesterName string) {
	n.fanOut(ctx, []primitive.ObjectID{project.Admin}, models.Notification{
		Type:      models.NotificationJoinRequest,
		Title:     "New Join Request",
		Message:   fmt.Sprintf("%s requested to join %q", requesterName, project.Title),
		ProjectID: project.ID,
	})
}

// RequestAccepted notifies the requester their request went through.
func (n *Notifier) RequestAccepted(ctx context.Context, project *models.Project, requesterID primitive.ObjectID) {
	n.fanOut(ctx, []primitive.ObjectID{requesterID}, models.Notification{
		Type:      models.NotificationRequestAccepted,
		Title:     "Request Accepted",
		Message:   fmt.Sprintf("Your request to join %q has been accepted", project.Title),
		ProjectID: project.ID,
	})
}

// MemberRemoved notifies the removed member.
func (n *Notifier) MemberRemoved(ctx context.Context, project *models.Project, memberID primitive.ObjectID) {
	n.fanOut(ctx, []primitive.ObjectID{memberID}, models.Notification{
		Type:      models.NotificationMemberRemoved,
		Title:     "Removed from Project",
		Message:   fmt.Sprintf("You have been removed from %q", project.Title),
		ProjectID: project.ID,
	})
}

func (n *Notifier) fanOut(ctx context.Context, recipients []primitive.ObjectID, template models.Notification) {
	for _, userID := range recipients {
		doc := template
		doc.ID = primitive.ObjectID{}
		doc.UserID = userID
		if err := n.store.Create(ctx, &doc); err != nil {
			n.log.Error("notification insert failed",
				zap.String("type", template.Type),
				zap.String("user_id", userID.Hex()),
				zap.Error(err))
		}
	}
}
