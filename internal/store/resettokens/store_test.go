package resettokens_test

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/gu-collab/gucollab/internal/store/resettokens"
	"github.com/gu-collab/gucollab/internal/testutil"
)

func TestReplaceKeepsOneTokenPerEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := resettokens.New(db)

	email := "student@geetauniversity.edu.in"

	if _, err := store.Replace(ctx, email, "111111"); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	fresh, err := store.Replace(ctx, email, "222222")
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}

	// The first OTP must be gone.
	if _, err := store.Find(ctx, email, "111111"); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Fatalf("old OTP lookup: err = %v, want ErrNoDocuments", err)
	}

	got, err := store.Find(ctx, email, "222222")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got.ID != fresh.ID {
		t.Error("found token is not the freshly issued one")
	}
}

func TestTokenExpiry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := resettokens.New(db)

	token, err := store.Replace(ctx, "student@geetauniversity.edu.in", "123456")
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}

	if token.Expired(time.Now().UTC()) {
		t.Error("fresh token reported expired")
	}
	if !token.Expired(time.Now().UTC().Add(resettokens.TTL + time.Second)) {
		t.Error("token past TTL not reported expired")
	}
}

func TestDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := resettokens.New(db)

	email := "student@geetauniversity.edu.in"
	token, err := store.Replace(ctx, email, "123456")
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}

	if err := store.Delete(ctx, token.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Find(ctx, email, "123456"); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Fatalf("deleted token lookup: err = %v, want ErrNoDocuments", err)
	}
}
