package tokenstore_test

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	tokenstore "github.com/unionhubhq/unionhub/internal/app/store/devicetokens"
	"github.com/unionhubhq/unionhub/internal/testutil"
)

func TestRegister_IsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := tokenstore.New(db)
	ctx := testutil.TestContext(t)

	userID := primitive.NewObjectID()
	if err := store.Register(ctx, userID, "tok-1", "ios"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := store.Register(ctx, userID, "tok-1", "ios"); err != nil {
		t.Fatalf("Register again: %v", err)
	}

	tokens, err := store.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(tokens) != 1 || tokens[0] != "tok-1" {
		t.Errorf("tokens = %v, want [tok-1]", tokens)
	}
}

func TestUnregister_RemovesOnlyThatToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := tokenstore.New(db)
	ctx := testutil.TestContext(t)

	userID := primitive.NewObjectID()
	for _, tok := range []string{"tok-phone", "tok-laptop"} {
		if err := store.Register(ctx, userID, tok, "web"); err != nil {
			t.Fatalf("Register %s: %v", tok, err)
		}
	}

	if err := store.Unregister(ctx, userID, "tok-phone"); err != nil {
		t.Fatalf("Unregister: %v", err)
	}

	tokens, err := store.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(tokens) != 1 || tokens[0] != "tok-laptop" {
		t.Errorf("tokens = %v, want [tok-laptop]", tokens)
	}
}

func TestDeleteByUser_ClearsEverything(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := tokenstore.New(db)
	ctx := testutil.TestContext(t)

	userID := primitive.NewObjectID()
	other := primitive.NewObjectID()
	_ = store.Register(ctx, userID, "tok-1", "ios")
	_ = store.Register(ctx, userID, "tok-2", "android")
	_ = store.Register(ctx, other, "tok-3", "web")

	n, err := store.DeleteByUser(ctx, userID)
	if err != nil {
		t.Fatalf("DeleteByUser: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}

	tokens, err := store.ListByUser(ctx, other)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(tokens) != 1 {
		t.Errorf("other user's tokens = %v, want one entry", tokens)
	}
}
