package unionctx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/unionhubhq/unionhub/internal/app/system/auth"
	"github.com/unionhubhq/unionhub/internal/app/system/unionctx"
	"github.com/unionhubhq/unionhub/internal/domain/models"
)

type fakeLister struct {
	unions []models.Union
	err    error
}

func (f fakeLister) ListByMember(ctx context.Context, userID primitive.ObjectID) ([]models.Union, error) {
	return f.unions, f.err
}

func union(code string) models.Union {
	return models.Union{Code: code, Name: code}
}

func TestResolve_PreferredWinsWhenStillMember(t *testing.T) {
	resolver := unionctx.New(fakeLister{unions: []models.Union{union("local-417"), union("north-end")}}, zap.NewNop())

	sel := resolver.Resolve(context.Background(), primitive.NewObjectID(), "north-end")

	if sel.None || sel.Corrected {
		t.Fatalf("unexpected selection flags: %+v", sel)
	}
	if sel.Union.Code != "north-end" {
		t.Errorf("active = %q, want north-end", sel.Union.Code)
	}
	if len(sel.Unions) != 2 {
		t.Errorf("memberships = %d, want 2", len(sel.Unions))
	}
}

func TestResolve_StalePreferenceFallsBackAndFlags(t *testing.T) {
	resolver := unionctx.New(fakeLister{unions: []models.Union{union("local-417")}}, zap.NewNop())

	sel := resolver.Resolve(context.Background(), primitive.NewObjectID(), "org-stale")

	if sel.Union.Code != "local-417" {
		t.Errorf("active = %q, want fallback local-417", sel.Union.Code)
	}
	if !sel.Corrected {
		t.Error("Corrected flag not set for a stale preference")
	}
}

func TestResolve_NoPreferencePicksFirstWithoutCorrection(t *testing.T) {
	resolver := unionctx.New(fakeLister{unions: []models.Union{union("local-417"), union("north-end")}}, zap.NewNop())

	sel := resolver.Resolve(context.Background(), primitive.NewObjectID(), "")

	if sel.Union.Code != "local-417" {
		t.Errorf("active = %q, want first local-417", sel.Union.Code)
	}
	if sel.Corrected {
		t.Error("Corrected set when there was no stored preference")
	}
}

func TestResolve_NoMemberships(t *testing.T) {
	resolver := unionctx.New(fakeLister{}, zap.NewNop())

	sel := resolver.Resolve(context.Background(), primitive.NewObjectID(), "")
	if !sel.None {
		t.Error("None not set for a user with zero memberships")
	}
}

func TestResolve_FetchErrorReportsNone(t *testing.T) {
	resolver := unionctx.New(fakeLister{err: errors.New("boom")}, zap.NewNop())

	sel := resolver.Resolve(context.Background(), primitive.NewObjectID(), "local-417")
	if !sel.None {
		t.Error("fetch error should present as no union selected")
	}
}

func TestValidate(t *testing.T) {
	resolver := unionctx.New(fakeLister{unions: []models.Union{union("local-417")}}, zap.NewNop())
	userID := primitive.NewObjectID()

	if _, ok := resolver.Validate(context.Background(), userID, "local-417"); !ok {
		t.Error("Validate rejected a real membership")
	}
	if _, ok := resolver.Validate(context.Background(), userID, "north-end"); ok {
		t.Error("Validate accepted a union the user is not in")
	}
}

func newSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "unionhub_test", "", false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	return sm
}

func signedInRequest(target string) *http.Request {
	req := httptest.NewRequest("GET", target, nil)
	return auth.WithTestUser(req, &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: "member"})
}

func TestRequireUnion_InjectsSelection(t *testing.T) {
	resolver := unionctx.New(fakeLister{unions: []models.Union{union("local-417")}}, zap.NewNop())
	sm := newSessionManager(t)

	var got unionctx.Selection
	var found bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = unionctx.Active(r)
	})

	rec := httptest.NewRecorder()
	unionctx.RequireUnion(resolver, sm)(next).ServeHTTP(rec, signedInRequest("/dashboard"))

	if !found {
		t.Fatal("no selection in context")
	}
	if got.Union.Code != "local-417" {
		t.Errorf("active = %q", got.Union.Code)
	}
}

func TestRequireUnion_NoUnionRedirectsToOnboarding(t *testing.T) {
	resolver := unionctx.New(fakeLister{}, zap.NewNop())
	sm := newSessionManager(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler ran for a user with no unions")
	})

	rec := httptest.NewRecorder()
	unionctx.RequireUnion(resolver, sm)(next).ServeHTTP(rec, signedInRequest("/dashboard"))

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/onboarding" {
		t.Errorf("got %d -> %q, want 303 -> /onboarding", rec.Code, rec.Header().Get("Location"))
	}
}

func TestRequireUnion_NeverLoopsOnOnboarding(t *testing.T) {
	resolver := unionctx.New(fakeLister{}, zap.NewNop())
	sm := newSessionManager(t)

	var ran bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { ran = true })

	rec := httptest.NewRecorder()
	unionctx.RequireUnion(resolver, sm)(next).ServeHTTP(rec, signedInRequest("/onboarding"))

	if !ran {
		t.Error("onboarding request was redirected away from onboarding")
	}
}

func TestRequireUnion_AnonymousRedirectsToLogin(t *testing.T) {
	resolver := unionctx.New(fakeLister{unions: []models.Union{union("local-417")}}, zap.NewNop())
	sm := newSessionManager(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler ran for an anonymous request")
	})

	rec := httptest.NewRecorder()
	unionctx.RequireUnion(resolver, sm)(next).ServeHTTP(rec, httptest.NewRequest("GET", "/dashboard", nil))

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Errorf("got %d -> %q, want 303 -> /login", rec.Code, rec.Header().Get("Location"))
	}
}

func TestRequireUnion_RewritesStalePreferenceInSession(t *testing.T) {
	resolver := unionctx.New(fakeLister{unions: []models.Union{union("local-417")}}, zap.NewNop())
	sm := newSessionManager(t)

	// Persist a preference for a union the user no longer belongs to.
	seed := httptest.NewRecorder()
	if err := sm.SetActiveUnion(seed, httptest.NewRequest("GET", "/", nil), "org-stale"); err != nil {
		t.Fatalf("SetActiveUnion: %v", err)
	}

	req := signedInRequest("/dashboard")
	for _, c := range seed.Result().Cookies() {
		req.AddCookie(c)
	}
	if got := sm.ActiveUnion(req); got != "org-stale" {
		t.Fatalf("seeded preference = %q, want org-stale", got)
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	rec := httptest.NewRecorder()
	unionctx.RequireUnion(resolver, sm)(next).ServeHTTP(rec, req)

	// The middleware must have re-saved the session with the corrected
	// code; replay the rewritten cookie and read the preference back.
	replay := httptest.NewRequest("GET", "/dashboard", nil)
	for _, c := range rec.Result().Cookies() {
		replay.AddCookie(c)
	}
	if got := sm.ActiveUnion(replay); got != "local-417" {
		t.Errorf("preference after correction = %q, want local-417", got)
	}
}
