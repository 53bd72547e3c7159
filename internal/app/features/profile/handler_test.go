package profile_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap"

	uierrors "github.com/unionhubhq/unionhub/internal/app/features/errors"
	"github.com/unionhubhq/unionhub/internal/app/features/profile"
	tokenstore "github.com/unionhubhq/unionhub/internal/app/store/devicetokens"
	userstore "github.com/unionhubhq/unionhub/internal/app/store/users"
	"github.com/unionhubhq/unionhub/internal/app/system/auth"
	"github.com/unionhubhq/unionhub/internal/domain/models"
	"github.com/unionhubhq/unionhub/internal/testutil"
)

func newTestHandler(t *testing.T) (*profile.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	sessionMgr, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "unionhub_test", "", false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	handler := profile.NewHandler(db, sessionMgr, uierrors.NewErrorLogger(logger), logger)
	return handler, testutil.NewFixtures(t, db)
}

func userRequest(method, target string, user models.User, body string, contentType string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return testutil.WithUser(req, testutil.TestUser{
		ID:   user.ID.Hex(),
		Name: user.DisplayName,
		Role: user.Role,
	})
}

func TestHandleUpdate_ChangesDisplayName(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	member := fixtures.CreateMember(ctx, "Old Name", "member@example.com")

	form := url.Values{"display_name": {"New Name"}}
	req := userRequest("POST", "/profile", member, form.Encode(), "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	handler.HandleUpdate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d: %s", http.StatusSeeOther, rec.Code, rec.Body.String())
	}

	updated, err := userstore.New(fixtures.DB()).GetByID(ctx, member.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if updated.DisplayName != "New Name" {
		t.Errorf("display name = %q, want %q", updated.DisplayName, "New Name")
	}
}

func TestHandleUpdate_RejectsEmptyName(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	member := fixtures.CreateMember(ctx, "Member", "member@example.com")

	form := url.Values{"display_name": {"   "}}
	req := userRequest("POST", "/profile", member, form.Encode(), "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	func() {
		// Render panics without the template engine booted; the
		// status is already written by then.
		defer func() { _ = recover() }()
		handler.HandleUpdate(rec, req)
	}()

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, rec.Code)
	}
}

func TestHandleRegisterDevice_RecordsToken(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	member := fixtures.CreateMember(ctx, "Member", "member@example.com")

	req := userRequest("POST", "/profile/devices", member,
		`{"token":"fcm-token-1","platform":"web"}`, "application/json")

	rec := httptest.NewRecorder()
	handler.HandleRegisterDevice(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	tokens, err := tokenstore.New(fixtures.DB()).ListByUser(ctx, member.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(tokens) != 1 || tokens[0] != "fcm-token-1" {
		t.Errorf("tokens = %v, want [fcm-token-1]", tokens)
	}
}

func TestHandleRegisterDevice_IsIdempotent(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	member := fixtures.CreateMember(ctx, "Member", "member@example.com")
	fixtures.CreateDeviceToken(ctx, member.ID, "fcm-token-1")

	req := userRequest("POST", "/profile/devices", member,
		`{"token":"fcm-token-1","platform":"web"}`, "application/json")

	rec := httptest.NewRecorder()
	handler.HandleRegisterDevice(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	tokens, err := tokenstore.New(fixtures.DB()).ListByUser(ctx, member.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(tokens) != 1 {
		t.Errorf("tokens = %v, want a single entry", tokens)
	}
}

func TestHandleRegisterDevice_RejectsBadPlatform(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	member := fixtures.CreateMember(ctx, "Member", "member@example.com")

	req := userRequest("POST", "/profile/devices", member,
		`{"token":"fcm-token-1","platform":"blackberry"}`, "application/json")

	rec := httptest.NewRecorder()
	handler.HandleRegisterDevice(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestHandleUnregisterDevice_RemovesToken(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	member := fixtures.CreateMember(ctx, "Member", "member@example.com")
	fixtures.CreateDeviceToken(ctx, member.ID, "fcm-token-1")

	req := userRequest("POST", "/profile/devices/remove", member,
		`{"token":"fcm-token-1"}`, "application/json")

	rec := httptest.NewRecorder()
	handler.HandleUnregisterDevice(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	tokens, err := tokenstore.New(fixtures.DB()).ListByUser(ctx, member.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(tokens) != 0 {
		t.Errorf("tokens = %v, want none", tokens)
	}
}
