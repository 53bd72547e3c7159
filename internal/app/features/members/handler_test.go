package members_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap"

	uierrors "github.com/unionhubhq/unionhub/internal/app/features/errors"
	"github.com/unionhubhq/unionhub/internal/app/features/members"
	"github.com/unionhubhq/unionhub/internal/app/store/audit"
	userstore "github.com/unionhubhq/unionhub/internal/app/store/users"
	"github.com/unionhubhq/unionhub/internal/app/system/auditlog"
	"github.com/unionhubhq/unionhub/internal/domain/models"
	"github.com/unionhubhq/unionhub/internal/testutil"
)

func newTestHandler(t *testing.T) (*members.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	handler := members.NewHandler(db, uierrors.NewErrorLogger(zap.NewNop()), nil, zap.NewNop())
	return handler, testutil.NewFixtures(t, db)
}

func adminRequest(method, target string, acting models.User, form url.Values) *http.Request {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return testutil.WithUser(req, testutil.TestUser{
		ID:   acting.ID.Hex(),
		Name: acting.DisplayName,
		Role: acting.Role,
	})
}

func TestHandleUpdate_VerifiesMemberNumber(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	admin := fixtures.CreateAdmin(ctx, "Admin", "admin@example.com")
	member := fixtures.CreateMember(ctx, "Member", "member@example.com")

	form := url.Values{
		"role":          {models.RoleMember},
		"tier":          {models.TierGold},
		"member_number": {"1042"},
	}
	req := adminRequest("POST", "/members/"+member.ID.Hex(), admin, form)
	req = testutil.WithChiURLParam(req, "id", member.ID.Hex())

	rec := httptest.NewRecorder()
	handler.HandleUpdate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d: %s", http.StatusSeeOther, rec.Code, rec.Body.String())
	}

	updated, err := userstore.New(fixtures.DB()).GetByID(ctx, member.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if updated.Tier != models.TierGold {
		t.Errorf("tier = %q, want gold", updated.Tier)
	}
	if updated.MemberNumber == nil || *updated.MemberNumber != 1042 {
		t.Errorf("member number = %v, want 1042", updated.MemberNumber)
	}
}

func TestHandleUpdate_BansUser(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	admin := fixtures.CreateAdmin(ctx, "Admin", "admin@example.com")
	member := fixtures.CreateMember(ctx, "Member", "member@example.com")

	form := url.Values{
		"role":   {models.RoleMember},
		"tier":   {models.TierStandard},
		"banned": {"1"},
	}
	req := adminRequest("POST", "/members/"+member.ID.Hex(), admin, form)
	req = testutil.WithChiURLParam(req, "id", member.ID.Hex())

	rec := httptest.NewRecorder()
	handler.HandleUpdate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}

	updated, err := userstore.New(fixtures.DB()).GetByID(ctx, member.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !updated.Banned {
		t.Errorf("user was not banned")
	}
}

func TestHandleUpdate_RejectsSelfDemotion(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	admin := fixtures.CreateAdmin(ctx, "Admin", "admin@example.com")

	form := url.Values{
		"role": {models.RoleMember},
		"tier": {models.TierStandard},
	}
	req := adminRequest("POST", "/members/"+admin.ID.Hex(), admin, form)
	req = testutil.WithChiURLParam(req, "id", admin.ID.Hex())

	rec := httptest.NewRecorder()
	func() {
		// Render panics without the template engine booted; the
		// status is already written by then.
		defer func() { _ = recover() }()
		handler.HandleUpdate(rec, req)
	}()

	updated, err := userstore.New(fixtures.DB()).GetByID(ctx, admin.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if updated.Role != models.RoleAdmin {
		t.Errorf("admin demoted themselves to %q", updated.Role)
	}
}

func TestHandleUpdate_RejectsSelfBan(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	admin := fixtures.CreateAdmin(ctx, "Admin", "admin@example.com")

	form := url.Values{
		"role":   {models.RoleAdmin},
		"tier":   {models.TierStandard},
		"banned": {"1"},
	}
	req := adminRequest("POST", "/members/"+admin.ID.Hex(), admin, form)
	req = testutil.WithChiURLParam(req, "id", admin.ID.Hex())

	rec := httptest.NewRecorder()
	func() {
		defer func() { _ = recover() }()
		handler.HandleUpdate(rec, req)
	}()

	updated, err := userstore.New(fixtures.DB()).GetByID(ctx, admin.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if updated.Banned {
		t.Errorf("admin banned themselves")
	}
}

func TestHandleUpdate_UnknownUserIs404(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	admin := fixtures.CreateAdmin(ctx, "Admin", "admin@example.com")

	form := url.Values{"role": {models.RoleMember}}
	req := adminRequest("POST", "/members/000000000000000000000000", admin, form)
	req = testutil.WithChiURLParam(req, "id", "000000000000000000000000")

	rec := httptest.NewRecorder()
	handler.HandleUpdate(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestHandleUpdate_RecordsAuditTrail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	auditStore := audit.New(db)
	trail := auditlog.New(auditStore, zap.NewNop(), auditlog.Config{Admin: "db"})
	handler := members.NewHandler(db, uierrors.NewErrorLogger(zap.NewNop()), trail, zap.NewNop())
	fixtures := testutil.NewFixtures(t, db)
	ctx := testutil.TestContext(t)

	admin := fixtures.CreateAdmin(ctx, "Admin", "admin@example.com")
	member := fixtures.CreateMember(ctx, "Member", "member@example.com")

	form := url.Values{
		"role":   {models.RoleMember},
		"tier":   {models.TierGold},
		"banned": {"1"},
	}
	req := adminRequest("POST", "/members/"+member.ID.Hex(), admin, form)
	req = testutil.WithChiURLParam(req, "id", member.ID.Hex())

	rec := httptest.NewRecorder()
	handler.HandleUpdate(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}

	updates, err := auditStore.Recent(ctx, audit.EventMemberUpdated, 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(updates) != 1 {
		t.Fatalf("member_updated events = %d, want 1", len(updates))
	}
	ev := updates[0]
	if ev.ActorID == nil || *ev.ActorID != admin.ID {
		t.Errorf("actor = %v, want the acting admin", ev.ActorID)
	}
	if ev.UserID == nil || *ev.UserID != member.ID {
		t.Errorf("user = %v, want the edited member", ev.UserID)
	}
	if !strings.Contains(ev.Details["fields_changed"], "tier") {
		t.Errorf("fields_changed = %q, want tier listed", ev.Details["fields_changed"])
	}

	bans, err := auditStore.Recent(ctx, audit.EventMemberBanned, 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(bans) != 1 {
		t.Fatalf("member_banned events = %d, want 1", len(bans))
	}
}
