package auth

import (
	"net/http"
	"strings"
)

// Path sets for the session guard.
//
// protectedPrefixes covers member-only areas: anonymous visitors are
// bounced to the login page. authOnlyPaths are the auth screens, which
// make no sense for a signed-in user and bounce home instead.
var (
	protectedPrefixes = []string{"/vault", "/groups", "/profile"}
	authOnlyPaths     = map[string]struct{}{
		"/login":    {},
		"/register": {},
	}
)

// Guard decides allow / redirect-home / redirect-login for every
// request, before any other request-scoped logic runs. It relies on
// LoadSessionUser having populated the context, so mount it directly
// after that middleware and before everything else.
//
// Rules:
//   - authenticated user on /login or /register  → 303 to /
//   - unauthenticated user under a protected prefix → 303 to /login
//   - everything else passes through unchanged
//
// There is deliberately no retry path here: a session that failed to
// decode has already been treated as "unauthenticated" upstream.
func (sm *SessionManager) Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, signedIn := CurrentUser(r)
		path := r.URL.Path

		if signedIn {
			if _, authOnly := authOnlyPaths[path]; authOnly {
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		for _, prefix := range protectedPrefixes {
			if path == prefix || strings.HasPrefix(path, prefix+"/") {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
