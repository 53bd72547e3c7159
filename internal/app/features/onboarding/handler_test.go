package onboarding_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap"

	uierrors "github.com/unionhubhq/unionhub/internal/app/features/errors"
	"github.com/unionhubhq/unionhub/internal/app/features/onboarding"
	"github.com/unionhubhq/unionhub/internal/testutil"
)

// sessionSpy records which union was persisted as active.
type sessionSpy struct {
	code string
}

func (s *sessionSpy) SetActiveUnion(w http.ResponseWriter, r *http.Request, code string) error {
	s.code = code
	return nil
}

func newTestHandler(t *testing.T) (*onboarding.Handler, *testutil.Fixtures, *sessionSpy) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	spy := &sessionSpy{}
	handler := onboarding.NewHandler(db, spy, uierrors.NewErrorLogger(logger), logger)
	return handler, testutil.NewFixtures(t, db), spy
}

func postForm(target string, form url.Values, user testutil.TestUser) *http.Request {
	req := httptest.NewRequest("POST", target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return testutil.WithUser(req, user)
}

func TestHandleCreate_Success(t *testing.T) {
	handler, _, spy := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, postForm("/onboarding/create", url.Values{
		"name": {"Local 417 Supporters"},
		"code": {"Local 417"},
	}, testutil.MemberUser()))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if location := rec.Header().Get("Location"); location != "/dashboard" {
		t.Errorf("Location: got %q, want %q", location, "/dashboard")
	}
	// Invite code is canonicalized before it becomes the union key.
	if spy.code != "local-417" {
		t.Errorf("active union: got %q, want %q", spy.code, "local-417")
	}
}

func TestHandleCreate_DuplicateCode(t *testing.T) {
	handler, fixtures, _ := newTestHandler(t)
	ctx := testutil.TestContext(t)

	admin := fixtures.CreateAdmin(ctx, "Admin", "admin@example.com")
	fixtures.CreateUnion(ctx, "local-417", "Local 417", admin.ID)

	rec := httptest.NewRecorder()
	func() {
		defer func() { recover() }()
		handler.HandleCreate(rec, postForm("/onboarding/create", url.Values{
			"name": {"Another"},
			"code": {"local-417"},
		}, testutil.MemberUser()))
	}()

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, rec.Code)
	}
}

func TestHandleJoin_Success(t *testing.T) {
	handler, fixtures, spy := newTestHandler(t)
	ctx := testutil.TestContext(t)

	admin := fixtures.CreateAdmin(ctx, "Admin", "admin@example.com")
	fixtures.CreateUnion(ctx, "local-417", "Local 417", admin.ID)

	rec := httptest.NewRecorder()
	handler.HandleJoin(rec, postForm("/onboarding/join", url.Values{
		"code": {"LOCAL 417"},
	}, testutil.MemberUser()))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if spy.code != "local-417" {
		t.Errorf("active union: got %q, want %q", spy.code, "local-417")
	}
}

func TestHandleJoin_UnknownCode(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	func() {
		defer func() { recover() }()
		handler.HandleJoin(rec, postForm("/onboarding/join", url.Values{
			"code": {"no-such-union"},
		}, testutil.MemberUser()))
	}()

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, rec.Code)
	}
}
