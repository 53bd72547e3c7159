package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/unionhubhq/unionhub/internal/app/system/auth"
)

const testKey = "0123456789abcdef0123456789abcdef"

func newManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(testKey, "unionhub_test", "", false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	return sm
}

// requestWithCookies replays the cookies a recorder captured onto a
// fresh request, the way a browser would on the next page load.
func requestWithCookies(target string, rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest("GET", target, nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestSignInRoundTrip(t *testing.T) {
	sm := newManager(t)

	rec := httptest.NewRecorder()
	signInReq := httptest.NewRequest("POST", "/login", nil)
	err := sm.SignIn(rec, signInReq, auth.SessionUser{
		ID:    "abc123",
		Name:  "Dana",
		Email: "dana@example.com",
		Role:  "member",
	})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	var got *auth.SessionUser
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	})
	sm.LoadSessionUser(next).ServeHTTP(httptest.NewRecorder(), requestWithCookies("/dashboard", rec))

	if got == nil {
		t.Fatal("no user in context after sign-in")
	}
	if got.ID != "abc123" || got.Name != "Dana" || got.Role != "member" {
		t.Errorf("unexpected session user: %+v", got)
	}
}

func TestSignOutClearsSession(t *testing.T) {
	sm := newManager(t)

	rec := httptest.NewRecorder()
	signInReq := httptest.NewRequest("POST", "/login", nil)
	if err := sm.SignIn(rec, signInReq, auth.SessionUser{ID: "abc123", Role: "member"}); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	outRec := httptest.NewRecorder()
	if err := sm.SignOut(outRec, requestWithCookies("/logout", rec)); err != nil {
		t.Fatalf("SignOut: %v", err)
	}

	var found bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = auth.CurrentUser(r)
	})
	sm.LoadSessionUser(next).ServeHTTP(httptest.NewRecorder(), requestWithCookies("/dashboard", outRec))

	if found {
		t.Error("user still in context after sign-out")
	}
}

func TestActiveUnionRoundTrip(t *testing.T) {
	sm := newManager(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/unions/switch", nil)
	if err := sm.SetActiveUnion(rec, req, "local-417"); err != nil {
		t.Fatalf("SetActiveUnion: %v", err)
	}

	if got := sm.ActiveUnion(requestWithCookies("/dashboard", rec)); got != "local-417" {
		t.Errorf("ActiveUnion = %q, want local-417", got)
	}
}

func TestNewSessionManager_RejectsEmptyKey(t *testing.T) {
	if _, err := auth.NewSessionManager("", "name", "", false, zap.NewNop()); err == nil {
		t.Error("expected an error for an empty session key")
	}
}

func TestRequireSignedIn_RedirectsAnonymousHTML(t *testing.T) {
	sm := newManager(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler ran for an anonymous request")
	})

	req := httptest.NewRequest("GET", "/dashboard", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	sm.RequireSignedIn(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login?return=%2Fdashboard" {
		t.Errorf("redirect = %q", loc)
	}
}

func TestRequireSignedIn_401ForAnonymousAPI(t *testing.T) {
	sm := newManager(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler ran for an anonymous request")
	})

	req := httptest.NewRequest("GET", "/groups/abc/messages", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	sm.RequireSignedIn(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireRole_ForbidsWrongRole(t *testing.T) {
	sm := newManager(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler ran for a member on an admin route")
	})

	req := httptest.NewRequest("GET", "/members", nil)
	req.Header.Set("Accept", "text/html")
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "abc", Role: "member"})
	rec := httptest.NewRecorder()
	sm.RequireRole("admin")(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/forbidden" {
		t.Errorf("redirect = %q", loc)
	}
}

func TestRequireRole_AllowsMatchingRole(t *testing.T) {
	sm := newManager(t)

	var ran bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { ran = true })

	req := httptest.NewRequest("GET", "/members", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "abc", Role: "admin"})
	sm.RequireRole("admin")(next).ServeHTTP(httptest.NewRecorder(), req)

	if !ran {
		t.Error("handler did not run for an admin")
	}
}
