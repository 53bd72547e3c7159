// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	uierrors "github.com/unionhubhq/unionhub/internal/app/features/errors"
	"github.com/unionhubhq/unionhub/internal/app/store/users"
	"github.com/unionhubhq/unionhub/internal/app/system/auth"
	"github.com/unionhubhq/unionhub/internal/app/system/timeouts"
	"github.com/unionhubhq/unionhub/internal/domain/models"
)

const stateCookie = "oauth_state"

// Handler handles Google OAuth authentication.
type Handler struct {
	DB         *mongo.Database
	Users      *users.Store
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger

	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "https://unionhub.app/auth/google/callback"
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, clientID, clientSecret, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		DB:           db,
		Users:        users.New(db),
		Log:          logger,
		SessionMgr:   sessionMgr,
		ErrLog:       errLog,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
	}
}

// oauth2Config returns the Google OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google                                                             |
| Initiates the Google OAuth flow by redirecting to Google's consent screen.   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		http.Redirect(w, r, "/login?error=google_not_configured", http.StatusSeeOther)
		return
	}

	state, err := newState()
	if err != nil {
		h.ErrLog.LogServerError(w, r, "generate oauth state failed", err, "Could not start Google sign-in.", "/login")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth/google",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.oauth2Config().AuthCodeURL(state), http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		http.Redirect(w, r, "/login?error=google_not_configured", http.StatusSeeOther)
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		h.Log.Warn("oauth state mismatch")
		http.Redirect(w, r, "/login?error=Sign-in+attempt+expired", http.StatusSeeOther)
		return
	}
	// One-shot: clear the state cookie.
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/auth/google", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Redirect(w, r, "/login?error=Google+sign-in+was+cancelled", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("oauth code exchange failed", zap.Error(err))
		http.Redirect(w, r, "/login?error=Google+sign-in+failed", http.StatusSeeOther)
		return
	}

	info, err := h.fetchUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("fetch google userinfo failed", zap.Error(err))
		http.Redirect(w, r, "/login?error=Google+sign-in+failed", http.StatusSeeOther)
		return
	}
	if info.Email == "" {
		http.Redirect(w, r, "/login?error=Google+account+has+no+email", http.StatusSeeOther)
		return
	}

	user, created, err := h.findOrCreateUser(ctx, info)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "upsert google user failed", err, "Could not sign you in with Google.", "/login")
		return
	}
	if user.Banned {
		http.Redirect(w, r, "/login?error=This+account+has+been+suspended", http.StatusSeeOther)
		return
	}

	if err := h.SessionMgr.SignIn(w, r, auth.SessionUser{
		ID:    user.ID.Hex(),
		Name:  user.DisplayName,
		Email: user.Email,
		Role:  user.Role,
	}); err != nil {
		h.ErrLog.LogServerError(w, r, "start session failed", err, "Could not sign you in. Try again.", "/login")
		return
	}

	h.Log.Info("user signed in",
		zap.String("user_id", user.ID.Hex()),
		zap.String("method", "google"),
		zap.Bool("created", created))

	if created {
		http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// googleUserInfo is the subset of the userinfo response we use.
type googleUserInfo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h *Handler) fetchUserInfo(ctx context.Context, token *oauth2.Token) (googleUserInfo, error) {
	var info googleUserInfo

	client := h.oauth2Config().Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return info, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return info, fmt.Errorf("userinfo returned %s", resp.Status)
	}

	err = json.NewDecoder(resp.Body).Decode(&info)
	return info, err
}

func (h *Handler) findOrCreateUser(ctx context.Context, info googleUserInfo) (models.User, bool, error) {
	user, err := h.Users.GetByEmailCI(ctx, info.Email)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, users.ErrNotFound) {
		return models.User{}, false, err
	}

	name := info.Name
	if name == "" {
		name = info.Email
	}
	user, err = h.Users.Create(ctx, models.User{
		Email:       info.Email,
		DisplayName: name,
		AuthMethod:  "google",
	})
	if err != nil {
		return models.User{}, false, err
	}
	return user, true, nil
}

func newState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
