package vault_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap"

	uierrors "github.com/unionhubhq/unionhub/internal/app/features/errors"
	"github.com/unionhubhq/unionhub/internal/app/features/vault"
	resourcestore "github.com/unionhubhq/unionhub/internal/app/store/vault"
	"github.com/unionhubhq/unionhub/internal/app/system/unionctx"
	"github.com/unionhubhq/unionhub/internal/domain/models"
	"github.com/unionhubhq/unionhub/internal/testutil"
)

func newTestHandler(t *testing.T) (*vault.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	handler := vault.NewHandler(db, uierrors.NewErrorLogger(zap.NewNop()), zap.NewNop())
	return handler, testutil.NewFixtures(t, db)
}

func vaultRequest(method, target string, user models.User, union models.Union, form url.Values) *http.Request {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req = testutil.WithUser(req, testutil.TestUser{
		ID:   user.ID.Hex(),
		Name: user.DisplayName,
		Role: user.Role,
	})
	return unionctx.WithSelection(req, unionctx.Selection{
		Union:  union,
		Unions: []models.Union{union},
	})
}

func TestHandleCreate_LinkResource(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	admin := fixtures.CreateAdmin(ctx, "Admin", "admin@example.com")
	union := fixtures.CreateUnion(ctx, "local-417", "Local 417", admin.ID)

	form := url.Values{
		"title": {"Current contract"},
		"type":  {models.ResourceLink},
		"url":   {"https://example.org/contract.pdf"},
	}
	req := vaultRequest("POST", "/vault", admin, union, form)

	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d: %s", http.StatusSeeOther, rec.Code, rec.Body.String())
	}

	store := resourcestore.New(fixtures.DB())
	resources, err := store.ListByUnion(ctx, union.Code, false)
	if err != nil {
		t.Fatalf("ListByUnion: %v", err)
	}
	if len(resources) != 1 {
		t.Fatalf("resources: got %d, want 1", len(resources))
	}
	if resources[0].Visibility != models.VisibilityPublic {
		t.Errorf("visibility = %q, want public", resources[0].Visibility)
	}
	if resources[0].CreatedByID != admin.ID {
		t.Errorf("creator = %s", resources[0].CreatedByID.Hex())
	}
}

func TestHandleCreate_RejectsBadURLScheme(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	admin := fixtures.CreateAdmin(ctx, "Admin", "admin@example.com")
	union := fixtures.CreateUnion(ctx, "local-417", "Local 417", admin.ID)

	form := url.Values{
		"title": {"Sketchy"},
		"type":  {models.ResourceLink},
		"url":   {"javascript:alert(1)"},
	}
	req := vaultRequest("POST", "/vault", admin, union, form)

	rec := httptest.NewRecorder()
	func() {
		// Render panics without the template engine booted; the
		// status is already written by then.
		defer func() { _ = recover() }()
		handler.HandleCreate(rec, req)
	}()

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, rec.Code)
	}
}

func TestHandleCreate_RequiresUnionAdmin(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	admin := fixtures.CreateAdmin(ctx, "Admin", "admin@example.com")
	member := fixtures.CreateMember(ctx, "Member", "member@example.com")
	union := fixtures.CreateUnion(ctx, "local-417", "Local 417", admin.ID, member.ID)

	form := url.Values{
		"title": {"Not allowed"},
		"type":  {models.ResourceLink},
		"url":   {"https://example.org/doc"},
	}
	req := vaultRequest("POST", "/vault", member, union, form)

	rec := httptest.NewRecorder()
	func() {
		defer func() { _ = recover() }()
		handler.HandleCreate(rec, req)
	}()

	resources, err := resourcestore.New(fixtures.DB()).ListByUnion(ctx, union.Code, false)
	if err != nil {
		t.Fatalf("ListByUnion: %v", err)
	}
	if len(resources) != 0 {
		t.Errorf("member was able to add a vault document")
	}
}

func TestServeShow_AdminOnlyHiddenFromMembers(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	admin := fixtures.CreateAdmin(ctx, "Admin", "admin@example.com")
	member := fixtures.CreateMember(ctx, "Member", "member@example.com")
	union := fixtures.CreateUnion(ctx, "local-417", "Local 417", admin.ID, member.ID)
	res := fixtures.CreateResource(ctx, union.Code, "Grievance playbook", models.VisibilityAdmin, admin)

	req := vaultRequest("GET", "/vault/"+res.ID.Hex(), member, union, nil)
	req = testutil.WithChiURLParam(req, "id", res.ID.Hex())

	rec := httptest.NewRecorder()
	handler.ServeShow(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestServeShow_OtherUnionIsHidden(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	admin := fixtures.CreateAdmin(ctx, "Admin", "admin@example.com")
	union := fixtures.CreateUnion(ctx, "local-417", "Local 417", admin.ID)
	otherUnion := fixtures.CreateUnion(ctx, "north-end", "North End", admin.ID)
	foreign := fixtures.CreateResource(ctx, otherUnion.Code, "Their bylaws", models.VisibilityPublic, admin)

	req := vaultRequest("GET", "/vault/"+foreign.ID.Hex(), admin, union, nil)
	req = testutil.WithChiURLParam(req, "id", foreign.ID.Hex())

	rec := httptest.NewRecorder()
	handler.ServeShow(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestHandleDelete_RemovesResource(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	admin := fixtures.CreateAdmin(ctx, "Admin", "admin@example.com")
	union := fixtures.CreateUnion(ctx, "local-417", "Local 417", admin.ID)
	res := fixtures.CreateResource(ctx, union.Code, "Old bylaws", models.VisibilityPublic, admin)

	req := vaultRequest("POST", "/vault/"+res.ID.Hex()+"/delete", admin, union, nil)
	req = testutil.WithChiURLParam(req, "id", res.ID.Hex())

	rec := httptest.NewRecorder()
	handler.HandleDelete(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if _, err := resourcestore.New(fixtures.DB()).GetByID(ctx, res.ID); err == nil {
		t.Errorf("resource still exists after delete")
	}
}
