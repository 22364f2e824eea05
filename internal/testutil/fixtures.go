package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/gu-collab/gucollab/internal/models"
	"github.com/gu-collab/gucollab/internal/store/projects"
	"github.com/gu-collab/gucollab/internal/store/users"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
	n  int
}

// NewFixtures creates a Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateStudent inserts a student user with a unique email and roll number.
func (f *Fixtures) CreateStudent(ctx context.Context, name string) models.User {
	f.t.Helper()
	f.n++

	user := models.User{
		Name:         name,
		Email:        fmt.Sprintf("student%d@geetauniversity.edu.in", f.n),
		PasswordHash: "not-a-real-hash",
		Role:         models.RoleStudent,
		Course:       "B.Tech CSE",
		RollNumber:   fmt.Sprintf("GU%04d", f.n),
	}
	if err := users.New(f.db).Create(ctx, &user); err != nil {
		f.t.Fatalf("create student: %v", err)
	}
	return user
}

// CreateTeacher inserts a teacher user with a unique email.
func (f *Fixtures) CreateTeacher(ctx context.Context, name string) models.User {
	f.t.Helper()
	f.n++

	user := models.User{
		Name:         name,
		Email:        fmt.Sprintf("teacher%d@geetauniversity.edu.in", f.n),
		PasswordHash: "not-a-real-hash",
		Role:         models.RoleTeacher,
		Department:   "Computer Science",
	}
	if err := users.New(f.db).Create(ctx, &user); err != nil {
		f.t.Fatalf("create teacher: %v", err)
	}
	return user
}

// CreateProject inserts a project administered by admin with the given
// member capacity. The admin is the first member.
func (f *Fixtures) CreateProject(ctx context.Context, admin primitive.ObjectID, requiredMembers int) models.Project {
	f.t.Helper()
	f.n++

	project := models.Project{
		Title:           fmt.Sprintf("Test Project %d", f.n),
		Description:     "A project created by the test fixtures",
		TechStack:       []string{"Go", "MongoDB"},
		Type:            models.ProjectTypeProject,
		RequiredMembers: requiredMembers,
		Admin:           admin,
		Members:         []primitive.ObjectID{admin},
	}
	if err := projects.New(f.db).Create(ctx, &project); err != nil {
		f.t.Fatalf("create project: %v", err)
	}
	return project
}

// CreateHackathon inserts a hackathon team listing with the given deadline.
func (f *Fixtures) CreateHackathon(ctx context.Context, admin primitive.ObjectID, deadline time.Time) models.Project {
	f.t.Helper()
	f.n++

	project := models.Project{
		Title:           fmt.Sprintf("Test Hackathon %d", f.n),
		Description:     "A hackathon listing created by the test fixtures",
		TechStack:       []string{"Go"},
		Type:            models.ProjectTypeHackathon,
		RequiredMembers: 4,
		Admin:           admin,
		Members:         []primitive.ObjectID{admin},
		Deadline:        &deadline,
	}
	if err := projects.New(f.db).Create(ctx, &project); err != nil {
		f.t.Fatalf("create hackathon: %v", err)
	}
	return project
}
