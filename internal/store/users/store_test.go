package users_test

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gu-collab/gucollab/internal/store/users"
	"github.com/gu-collab/gucollab/internal/testutil"
)

func TestTrackVisitDedupesByDay(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	store := users.New(db)

	student := fx.CreateStudent(ctx, "Visitor")

	for i := 0; i < 3; i++ {
		if err := store.TrackVisit(ctx, student.ID); err != nil {
			t.Fatalf("TrackVisit: %v", err)
		}
	}

	got, err := store.FindByID(ctx, student.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if len(got.Visits) != 1 {
		t.Fatalf("visit entries = %d, want 1 per day", len(got.Visits))
	}
	if got.Visits[0].Count != 3 {
		t.Fatalf("visit count = %d, want 3", got.Visits[0].Count)
	}
}

func TestTrackVisitIgnoresTeachers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	store := users.New(db)

	teacher := fx.CreateTeacher(ctx, "Prof")

	if err := store.TrackVisit(ctx, teacher.ID); err != nil {
		t.Fatalf("TrackVisit: %v", err)
	}

	got, err := store.FindByID(ctx, teacher.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if len(got.Visits) != 0 {
		t.Fatalf("teacher accumulated %d visit entries, want 0", len(got.Visits))
	}
}

func TestSearchByName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	store := users.New(db)

	fx.CreateStudent(ctx, "Aarav Sharma")
	fx.CreateStudent(ctx, "Saanvi Sharma")
	fx.CreateStudent(ctx, "Ishaan Gupta")

	got, err := store.SearchByName(ctx, "sharma", 10)
	if err != nil {
		t.Fatalf("SearchByName: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("matches = %d, want 2", len(got))
	}
	for _, s := range got {
		if s.Name == "Ishaan Gupta" {
			t.Error("non-matching user returned")
		}
	}
}

func TestSummaries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	store := users.New(db)

	a := fx.CreateStudent(ctx, "A")
	b := fx.CreateStudent(ctx, "B")
	fx.CreateStudent(ctx, "C")

	got, err := store.Summaries(ctx, []primitive.ObjectID{a.ID, b.ID})
	if err != nil {
		t.Fatalf("Summaries: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("summaries = %d, want 2", len(got))
	}
}
