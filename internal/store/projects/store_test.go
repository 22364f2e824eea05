package projects_test

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gu-collab/gucollab/internal/models"
	"github.com/gu-collab/gucollab/internal/store/projects"
	"github.com/gu-collab/gucollab/internal/testutil"
)

func TestAddMemberIfCapacity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	store := projects.New(db)

	admin := fx.CreateStudent(ctx, "Admin")
	// Capacity 2: admin plus one seat.
	project := fx.CreateProject(ctx, admin.ID, 2)

	first := primitive.NewObjectID()
	added, err := store.AddMemberIfCapacity(ctx, project.ID, first)
	if err != nil {
		t.Fatalf("AddMemberIfCapacity: %v", err)
	}
	if !added {
		t.Fatal("expected first add to succeed")
	}

	second := primitive.NewObjectID()
	added, err = store.AddMemberIfCapacity(ctx, project.ID, second)
	if err != nil {
		t.Fatalf("AddMemberIfCapacity: %v", err)
	}
	if added {
		t.Fatal("expected add to a full project to fail")
	}

	got, err := store.FindByID(ctx, project.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if len(got.Members) != 2 {
		t.Fatalf("member count = %d, want 2", len(got.Members))
	}
	if got.IsMember(second) {
		t.Error("rejected applicant ended up in members")
	}
}

func TestAddMemberIfCapacityUnknownProject(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := projects.New(db)

	added, err := store.AddMemberIfCapacity(ctx, primitive.NewObjectID(), primitive.NewObjectID())
	if err != nil {
		t.Fatalf("AddMemberIfCapacity: %v", err)
	}
	if added {
		t.Fatal("expected add against unknown project to report false")
	}
}

func TestFindHidesExpiredHackathons(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	store := projects.New(db)

	admin := fx.CreateStudent(ctx, "Admin")
	live := fx.CreateHackathon(ctx, admin.ID, time.Now().UTC().Add(48*time.Hour))
	fx.CreateHackathon(ctx, admin.ID, time.Now().UTC().Add(-48*time.Hour))

	got, err := store.Find(ctx, projects.Filter{Type: models.ProjectTypeHackathon})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("hackathon listing count = %d, want 1", len(got))
	}
	if got[0].ID != live.ID {
		t.Error("expired hackathon returned instead of the live one")
	}
}

func TestFindSearchFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	store := projects.New(db)

	admin := fx.CreateStudent(ctx, "Admin")
	match := models.Project{
		Title:           "Compiler playground",
		Description:     "Build a toy compiler",
		Type:            models.ProjectTypeProject,
		RequiredMembers: 3,
		Admin:           admin.ID,
		Members:         []primitive.ObjectID{admin.ID},
	}
	if err := store.Create(ctx, &match); err != nil {
		t.Fatalf("Create: %v", err)
	}
	fx.CreateProject(ctx, admin.ID, 3)

	got, err := store.Find(ctx, projects.Filter{Search: "compiler"})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 1 || got[0].ID != match.ID {
		t.Fatalf("search returned %d projects, want just the compiler one", len(got))
	}
}

func TestRemoveMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	store := projects.New(db)

	admin := fx.CreateStudent(ctx, "Admin")
	member := fx.CreateStudent(ctx, "Member")
	project := fx.CreateProject(ctx, admin.ID, 3)

	if _, err := store.AddMemberIfCapacity(ctx, project.ID, member.ID); err != nil {
		t.Fatalf("AddMemberIfCapacity: %v", err)
	}

	updated, err := store.RemoveMember(ctx, project.ID, member.ID)
	if err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	if updated.IsMember(member.ID) {
		t.Error("member still present after removal")
	}
	if !updated.IsMember(admin.ID) {
		t.Error("admin lost membership")
	}
}
