package announcements_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/unionhubhq/unionhub/internal/app/features/announcements"
	uierrors "github.com/unionhubhq/unionhub/internal/app/features/errors"
	"github.com/unionhubhq/unionhub/internal/app/push"
	announcementstore "github.com/unionhubhq/unionhub/internal/app/store/announcements"
	devicetokens "github.com/unionhubhq/unionhub/internal/app/store/devicetokens"
	unionstore "github.com/unionhubhq/unionhub/internal/app/store/unions"
	"github.com/unionhubhq/unionhub/internal/app/system/unionctx"
	"github.com/unionhubhq/unionhub/internal/domain/models"
	"github.com/unionhubhq/unionhub/internal/testutil"
)

type nopSender struct{}

func (nopSender) Multicast(ctx context.Context, tokens []string, n push.Notification) error {
	return nil
}

func newTestHandler(t *testing.T) (*announcements.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	pushSvc := push.NewService(unionstore.New(db), devicetokens.New(db), nopSender{}, logger)
	handler := announcements.NewHandler(db, pushSvc, uierrors.NewErrorLogger(logger), logger)
	return handler, testutil.NewFixtures(t, db)
}

func announcementRequest(method, target string, user models.User, union models.Union, form url.Values) *http.Request {
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

func TestHandleCreate_PostsAndRedirects(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	admin := fixtures.CreateAdmin(ctx, "Admin", "admin@example.com")
	union := fixtures.CreateUnion(ctx, "local-417", "Local 417", admin.ID)

	form := url.Values{
		"title":    {"Contract vote Thursday"},
		"category": {models.AnnouncementUrgent},
		"content":  {"Polls open at <b>6pm</b>.<script>alert(1)</script>"},
	}
	req := announcementRequest("POST", "/announcements", admin, union, form)

	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d: %s", http.StatusSeeOther, rec.Code, rec.Body.String())
	}

	store := announcementstore.New(fixtures.DB())
	anns, err := store.ListByUnion(ctx, union.Code, "", 0)
	if err != nil {
		t.Fatalf("ListByUnion: %v", err)
	}
	if len(anns) != 1 {
		t.Fatalf("announcements: got %d, want 1", len(anns))
	}
	ann := anns[0]
	if ann.Title != "Contract vote Thursday" {
		t.Errorf("title = %q", ann.Title)
	}
	if ann.Category != models.AnnouncementUrgent {
		t.Errorf("category = %q", ann.Category)
	}
	if strings.Contains(ann.Content, "<script>") {
		t.Errorf("content was not sanitized: %q", ann.Content)
	}
	if !strings.Contains(ann.Content, "<b>6pm</b>") {
		t.Errorf("formatting markup was stripped: %q", ann.Content)
	}
	if ann.AuthorID != admin.ID || ann.AuthorName != "Admin" {
		t.Errorf("author = %s/%q", ann.AuthorID.Hex(), ann.AuthorName)
	}

	loc := rec.Header().Get("Location")
	if loc != "/announcements/"+ann.ID.Hex() {
		t.Errorf("redirect = %q", loc)
	}
}

func TestHandleCreate_RequiresUnionAdmin(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	admin := fixtures.CreateAdmin(ctx, "Admin", "admin@example.com")
	member := fixtures.CreateMember(ctx, "Member", "member@example.com")
	union := fixtures.CreateUnion(ctx, "local-417", "Local 417", admin.ID, member.ID)

	form := url.Values{
		"title":    {"Unofficial notice"},
		"category": {models.AnnouncementGeneral},
		"content":  {"hi"},
	}
	req := announcementRequest("POST", "/announcements", member, union, form)

	rec := httptest.NewRecorder()
	func() {
		// Render panics without the template engine booted; the
		// forbidden status is already written by then.
		defer func() { _ = recover() }()
		handler.HandleCreate(rec, req)
	}()

	store := announcementstore.New(fixtures.DB())
	anns, err := store.ListByUnion(ctx, union.Code, "", 0)
	if err != nil {
		t.Fatalf("ListByUnion: %v", err)
	}
	if len(anns) != 0 {
		t.Errorf("member was able to post an announcement")
	}
}

func TestHandleCreate_RejectsEmptyTitle(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	admin := fixtures.CreateAdmin(ctx, "Admin", "admin@example.com")
	union := fixtures.CreateUnion(ctx, "local-417", "Local 417", admin.ID)

	form := url.Values{
		"title":    {"   "},
		"category": {models.AnnouncementGeneral},
		"content":  {"body"},
	}
	req := announcementRequest("POST", "/announcements", admin, union, form)

	rec := httptest.NewRecorder()
	func() {
		defer func() { _ = recover() }()
		handler.HandleCreate(rec, req)
	}()

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, rec.Code)
	}
}

func TestServeShow_OtherUnionIsHidden(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	admin := fixtures.CreateAdmin(ctx, "Admin", "admin@example.com")
	union := fixtures.CreateUnion(ctx, "local-417", "Local 417", admin.ID)
	otherUnion := fixtures.CreateUnion(ctx, "north-end", "North End", admin.ID)
	foreign := fixtures.CreateAnnouncement(ctx, otherUnion.Code, "Their news", models.AnnouncementGeneral, admin)

	req := announcementRequest("GET", "/announcements/"+foreign.ID.Hex(), admin, union, nil)
	req = testutil.WithChiURLParam(req, "id", foreign.ID.Hex())

	rec := httptest.NewRecorder()
	handler.ServeShow(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestHandleUpdate_SavesEdits(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	admin := fixtures.CreateAdmin(ctx, "Admin", "admin@example.com")
	union := fixtures.CreateUnion(ctx, "local-417", "Local 417", admin.ID)
	ann := fixtures.CreateAnnouncement(ctx, union.Code, "Draft title", models.AnnouncementGeneral, admin)

	form := url.Values{
		"title":    {"Final title"},
		"category": {models.AnnouncementEvent},
	}
	req := announcementRequest("POST", "/announcements/"+ann.ID.Hex(), admin, union, form)
	req = testutil.WithChiURLParam(req, "id", ann.ID.Hex())

	rec := httptest.NewRecorder()
	handler.HandleUpdate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}

	store := announcementstore.New(fixtures.DB())
	updated, err := store.GetByID(ctx, ann.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if updated.Title != "Final title" {
		t.Errorf("title = %q", updated.Title)
	}
	if updated.Category != models.AnnouncementEvent {
		t.Errorf("category = %q", updated.Category)
	}
	if updated.Content != ann.Content {
		t.Errorf("content changed unexpectedly: %q", updated.Content)
	}
}

func TestHandleDelete_RemovesAnnouncement(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	admin := fixtures.CreateAdmin(ctx, "Admin", "admin@example.com")
	union := fixtures.CreateUnion(ctx, "local-417", "Local 417", admin.ID)
	ann := fixtures.CreateAnnouncement(ctx, union.Code, "Old news", models.AnnouncementGeneral, admin)

	req := announcementRequest("POST", "/announcements/"+ann.ID.Hex()+"/delete", admin, union, nil)
	req = testutil.WithChiURLParam(req, "id", ann.ID.Hex())

	rec := httptest.NewRecorder()
	handler.HandleDelete(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if _, err := announcementstore.New(fixtures.DB()).GetByID(ctx, ann.ID); err == nil {
		t.Errorf("announcement still exists after delete")
	}
}
