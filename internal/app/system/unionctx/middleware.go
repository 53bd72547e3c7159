package unionctx

import (
	"context"
	"net/http"
	"strings"

	"github.com/unionhubhq/unionhub/internal/app/system/auth"
	"github.com/unionhubhq/unionhub/internal/app/system/authz"
)

type ctxKey string

const selectionKey ctxKey = "unionSelection"

// Active returns the resolved selection for this request, if the
// RequireUnion middleware ran.
func Active(r *http.Request) (Selection, bool) {
	sel, ok := r.Context().Value(selectionKey).(Selection)
	return sel, ok
}

// WithSelection injects a selection into the request context.
// Exported for handler tests; production code uses RequireUnion.
func WithSelection(r *http.Request, sel Selection) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), selectionKey, sel))
}

// RequireUnion resolves the active union for every request behind it
// and stores the Selection in context. Users with zero memberships are
// redirected to onboarding — unless they are already there, so the
// redirect can never loop. When the resolver had to correct a stale
// preference, the corrected choice is written back to the session.
func RequireUnion(resolver *Resolver, sessionMgr *auth.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _, userID, ok := authz.UserCtx(r)
			if !ok {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			preferred := sessionMgr.ActiveUnion(r)
			sel := resolver.Resolve(r.Context(), userID, preferred)

			if sel.None {
				if onOnboarding(r.URL.Path) {
					next.ServeHTTP(w, r)
					return
				}
				http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
				return
			}

			if sel.Union.Code != preferred {
				// Covers both the corrected-stale case and the very
				// first selection (no preference stored yet).
				_ = sessionMgr.SetActiveUnion(w, r, sel.Union.Code)
			}

			next.ServeHTTP(w, WithSelection(r, sel))
		})
	}
}

func onOnboarding(path string) bool {
	return path == "/onboarding" || strings.HasPrefix(path, "/onboarding/")
}
