package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ProjectTypeProject   = "Project"
	ProjectTypeHackathon = "Hackathon Team Requirement"

	ProjectStatusActive    = "Active"
	ProjectStatusCompleted = "Completed"
	ProjectStatusCancelled = "Cancelled"
)

type Project struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Title           string               `bson:"title" json:"title"`
	Description     string               `bson:"description" json:"description"`
	TechStack       []string             `bson:"techStack" json:"techStack"`
	Type            string               `bson:"type" json:"type"`
	RequiredMembers int                  `bson:"requiredMembers" json:"requiredMembers"`
	Admin           primitive.ObjectID   `bson:"admin" json:"admin"`
	Members         []primitive.ObjectID `bson:"members" json:"members"`
	Deadline        *time.Time           `bson:"deadline,omitempty" json:"deadline,omitempty"`
	GithubLink      string               `bson:"githubLink,omitempty" json:"githubLink,omitempty"`
	Status          string               `bson:"status" json:"status"`
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// IsAdmin reports whether userID owns the project.
func (p *Project) IsAdmin(userID primitive.ObjectID) bool {
	return p.Admin == userID
}

// IsMember reports whether userID may act as a project member.
// The admin always counts as a member, listed or not.
func (p *Project) IsMember(userID primitive.ObjectID) bool {
	if p.IsAdmin(userID) {
		return true
	}
	for _, m := range p.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// Participants returns the admin and members with duplicates removed.
func (p *Project) Participants() []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(p.Members)+1)
	out := make([]primitive.ObjectID, 0, len(p.Members)+1)
	if !p.Admin.IsZero() {
		seen[p.Admin] = true
		out = append(out, p.Admin)
	}
	for _, m := range p.Members {
		if m.IsZero() || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
