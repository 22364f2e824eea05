package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	AttachmentImage = "image"
	AttachmentPDF   = "pdf"
	AttachmentLink  = "link"
)

type Attachment struct {
	Type string `bson:"type" json:"type"`
	URL  string `bson:"url" json:"url"`
	Name string `bson:"name,omitempty" json:"name,omitempty"`
}

// Announcement is teacher-authored. Visibility to students requires
// isActive and a deadline that has not passed.
type Announcement struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title       string             `bson:"title" json:"title"`
	Content     string             `bson:"content" json:"content"`
	Author      primitive.ObjectID `bson:"author" json:"author"`
	Attachments []Attachment       `bson:"attachments" json:"attachments"`
	Deadline    *time.Time         `bson:"deadline,omitempty" json:"deadline,omitempty"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
