package requests_test

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/gu-collab/gucollab/internal/models"
	"github.com/gu-collab/gucollab/internal/store/requests"
	"github.com/gu-collab/gucollab/internal/testutil"
)

func TestHasPending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := requests.New(db)

	projectID := primitive.NewObjectID()
	userID := primitive.NewObjectID()

	pending, err := store.HasPending(ctx, projectID, userID)
	if err != nil {
		t.Fatalf("HasPending: %v", err)
	}
	if pending {
		t.Fatal("no request yet, HasPending should report false")
	}

	req := models.Request{ProjectID: projectID, UserID: userID, Message: "let me in"}
	if err := store.Create(ctx, &req); err != nil {
		t.Fatalf("Create: %v", err)
	}

	pending, err = store.HasPending(ctx, projectID, userID)
	if err != nil {
		t.Fatalf("HasPending: %v", err)
	}
	if !pending {
		t.Fatal("pending request not detected")
	}

	if _, err := store.SetStatus(ctx, req.ID, models.RequestRejected); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	pending, err = store.HasPending(ctx, projectID, userID)
	if err != nil {
		t.Fatalf("HasPending: %v", err)
	}
	if pending {
		t.Fatal("rejected request still counts as pending")
	}
}

func TestSetStatusOnlyFiresFromPending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := requests.New(db)

	req := models.Request{ProjectID: primitive.NewObjectID(), UserID: primitive.NewObjectID()}
	if err := store.Create(ctx, &req); err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := store.SetStatus(ctx, req.ID, models.RequestAccepted)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if updated.Status != models.RequestAccepted {
		t.Fatalf("status = %q, want %q", updated.Status, models.RequestAccepted)
	}

	// A second transition on the same request must not match.
	if _, err := store.SetStatus(ctx, req.ID, models.RequestRejected); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Fatalf("second transition: err = %v, want ErrNoDocuments", err)
	}

	got, err := store.FindByID(ctx, req.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Status != models.RequestAccepted {
		t.Fatalf("status after rejected transition = %q, want %q", got.Status, models.RequestAccepted)
	}
}

func TestPendingByProjects(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := requests.New(db)

	first := primitive.NewObjectID()
	second := primitive.NewObjectID()
	other := primitive.NewObjectID()

	for _, projectID := range []primitive.ObjectID{first, second, other} {
		req := models.Request{ProjectID: projectID, UserID: primitive.NewObjectID()}
		if err := store.Create(ctx, &req); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	accepted := models.Request{ProjectID: first, UserID: primitive.NewObjectID()}
	if err := store.Create(ctx, &accepted); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.SetStatus(ctx, accepted.ID, models.RequestAccepted); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	got, err := store.PendingByProjects(ctx, []primitive.ObjectID{first, second})
	if err != nil {
		t.Fatalf("PendingByProjects: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("pending count = %d, want 2", len(got))
	}
	for _, r := range got {
		if r.ProjectID == other {
			t.Error("request from an unrelated project leaked into the inbox")
		}
		if r.Status != models.RequestPending {
			t.Errorf("non-pending request %s in inbox", r.ID.Hex())
		}
	}
}

func TestPendingByProjectsEmpty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := requests.New(db)

	got, err := store.PendingByProjects(ctx, nil)
	if err != nil {
		t.Fatalf("PendingByProjects: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no requests for empty project list, got %d", len(got))
	}
}
