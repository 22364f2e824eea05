package notifications_test

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gu-collab/gucollab/internal/models"
	"github.com/gu-collab/gucollab/internal/store/notifications"
	"github.com/gu-collab/gucollab/internal/testutil"
)

func TestMarkAllReadScopedToUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := notifications.New(db)

	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	for _, userID := range []primitive.ObjectID{alice, alice, bob} {
		n := models.Notification{
			UserID:  userID,
			Type:    models.NotificationNewMessage,
			Title:   "New Message",
			Message: "hello",
		}
		if err := store.Create(ctx, &n); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	if err := store.MarkAllRead(ctx, alice); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}

	count, err := store.CountUnread(ctx, alice)
	if err != nil {
		t.Fatalf("CountUnread: %v", err)
	}
	if count != 0 {
		t.Fatalf("alice unread = %d, want 0", count)
	}

	count, err = store.CountUnread(ctx, bob)
	if err != nil {
		t.Fatalf("CountUnread: %v", err)
	}
	if count != 1 {
		t.Fatalf("bob unread = %d, want 1; bulk mark leaked across users", count)
	}
}

func TestDeleteUnreadJoinRequestsKeepsReadOnes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := notifications.New(db)

	admin := primitive.NewObjectID()
	projectID := primitive.NewObjectID()

	unread := models.Notification{
		UserID:    admin,
		Type:      models.NotificationJoinRequest,
		Title:     "New Join Request",
		Message:   "someone wants in",
		ProjectID: projectID,
	}
	if err := store.Create(ctx, &unread); err != nil {
		t.Fatalf("Create: %v", err)
	}

	read := models.Notification{
		UserID:    admin,
		Type:      models.NotificationJoinRequest,
		Title:     "New Join Request",
		Message:   "someone else wants in",
		ProjectID: projectID,
	}
	if err := store.Create(ctx, &read); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.MarkRead(ctx, read.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}

	otherProject := models.Notification{
		UserID:    admin,
		Type:      models.NotificationJoinRequest,
		Title:     "New Join Request",
		Message:   "different project",
		ProjectID: primitive.NewObjectID(),
	}
	if err := store.Create(ctx, &otherProject); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.DeleteUnreadJoinRequests(ctx, admin, projectID); err != nil {
		t.Fatalf("DeleteUnreadJoinRequests: %v", err)
	}

	remaining, err := store.ByUser(ctx, admin, 50)
	if err != nil {
		t.Fatalf("ByUser: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("remaining = %d, want 2 (read one and other-project one)", len(remaining))
	}
	for _, n := range remaining {
		if n.ID == unread.ID {
			t.Error("unread join_request notification survived the cleanup")
		}
	}
}

func TestByUserLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := notifications.New(db)

	userID := primitive.NewObjectID()
	for i := 0; i < 5; i++ {
		n := models.Notification{
			UserID:  userID,
			Type:    models.NotificationNewMessage,
			Title:   "New Message",
			Message: "hello",
		}
		if err := store.Create(ctx, &n); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := store.ByUser(ctx, userID, 3)
	if err != nil {
		t.Fatalf("ByUser: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("limited list = %d, want 3", len(got))
	}
}
