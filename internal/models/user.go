package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Role         string             `bson:"role" json:"role"`

	// Student-only fields.
	Course     string `bson:"course,omitempty" json:"course,omitempty"`
	RollNumber string `bson:"rollNumber,omitempty" json:"rollNumber,omitempty"`

	// Teacher-only field.
	Department string `bson:"department,omitempty" json:"department,omitempty"`

	ProfileImage string   `bson:"profileImage,omitempty" json:"profileImage,omitempty"`
	GithubID     string   `bson:"githubId,omitempty" json:"githubId,omitempty"`
	LinkedinID   string   `bson:"linkedinId,omitempty" json:"linkedinId,omitempty"`
	Bio          string   `bson:"bio,omitempty" json:"bio,omitempty"`
	Skills       []string `bson:"skills,omitempty" json:"skills,omitempty"`

	// Visits feeds the activity calendar: one entry per UTC day.
	Visits []Visit `bson:"visits,omitempty" json:"visits,omitempty"`

	CompletedProjects []CompletedProject `bson:"completedProjects,omitempty" json:"completedProjects,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Visit is one day of recorded activity, keyed by a UTC "YYYY-MM-DD" date.
type Visit struct {
	Date  string `bson:"date" json:"date"`
	Count int    `bson:"count" json:"count"`
}

// CompletedProject is a free-form showcase entry on a user's profile.
type CompletedProject struct {
	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Learnings   string    `bson:"learnings,omitempty" json:"learnings,omitempty"`
	GithubLink  string    `bson:"githubLink,omitempty" json:"githubLink,omitempty"`
	Hackathons  []string  `bson:"hackathons,omitempty" json:"hackathons,omitempty"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

// UserSummary is the projection embedded in project and request responses.
type UserSummary struct {
	ID           primitive.ObjectID `bson:"_id" json:"_id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	ProfileImage string             `bson:"profileImage,omitempty" json:"profileImage,omitempty"`
	Role         string             `bson:"role,omitempty" json:"role,omitempty"`
	Course       string             `bson:"course,omitempty" json:"course,omitempty"`
	RollNumber   string             `bson:"rollNumber,omitempty" json:"rollNumber,omitempty"`
	Department   string             `bson:"department,omitempty" json:"department,omitempty"`
}
