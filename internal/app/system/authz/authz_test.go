package authz_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/unionhubhq/unionhub/internal/app/system/auth"
	"github.com/unionhubhq/unionhub/internal/app/system/authz"
)

func requestAs(id, role string) *http.Request {
	req := httptest.NewRequest("GET", "/", nil)
	return auth.WithTestUser(req, &auth.SessionUser{ID: id, Name: "Dana", Role: role})
}

func TestUserCtx_ValidUser(t *testing.T) {
	id := primitive.NewObjectID()
	role, name, userID, ok := authz.UserCtx(requestAs(id.Hex(), "Board"))

	if !ok {
		t.Fatal("expected ok for a valid session user")
	}
	if role != "board" {
		t.Errorf("role = %q, want lowercased board", role)
	}
	if name != "Dana" {
		t.Errorf("name = %q", name)
	}
	if userID != id {
		t.Errorf("userID = %s, want %s", userID.Hex(), id.Hex())
	}
}

func TestUserCtx_NoUserFailsClosed(t *testing.T) {
	role, _, userID, ok := authz.UserCtx(httptest.NewRequest("GET", "/", nil))
	if ok {
		t.Error("expected ok=false without a session user")
	}
	if role != "visitor" || !userID.IsZero() {
		t.Errorf("got role=%q id=%s, want visitor/zero", role, userID.Hex())
	}
}

func TestUserCtx_MalformedIDFailsClosed(t *testing.T) {
	_, _, _, ok := authz.UserCtx(requestAs("not-an-object-id", "admin"))
	if ok {
		t.Error("expected ok=false for a malformed session ID")
	}
}
