package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	NotificationJoinRequest     = "join_request"
	NotificationRequestAccepted = "request_accepted"
	NotificationMemberRemoved   = "member_removed"
	NotificationChatMention     = "chat_mention"
	NotificationNewMessage      = "new_message"
)

// Notification is created by server-side events only, never by a client.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Type      string             `bson:"type" json:"type"`
	Title     string             `bson:"title" json:"title"`
	Message   string             `bson:"message" json:"message"`
	ProjectID primitive.ObjectID `bson:"projectId,omitempty" json:"projectId,omitempty"`
	Read      bool               `bson:"read" json:"read"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
