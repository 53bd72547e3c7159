// internal/app/features/login/login.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/unionhubhq/unionhub/internal/app/store/users"
	"github.com/unionhubhq/unionhub/internal/app/system/auth"
	"github.com/unionhubhq/unionhub/internal/app/system/normalize"
	"github.com/unionhubhq/unionhub/internal/app/system/timeouts"
	"github.com/unionhubhq/unionhub/internal/app/system/viewdata"
)

// ServeLogin shows the sign-in form.
// GET /login
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	data := loginFormData{
		BaseVM:        viewdata.NewBaseVM(r, "Sign in", "/"),
		Error:         normalize.AuthError(normalize.QueryParam(r.URL.Query().Get("error"))),
		ReturnURL:     normalize.QueryParam(r.URL.Query().Get("return")),
		GoogleEnabled: h.GoogleEnabled,
	}
	templates.Render(w, r, "login", data)
}

// HandleLoginPost verifies credentials and starts a session.
// POST /login
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse login form failed", err, "Invalid form data.", "/login")
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	returnURL := strings.TrimSpace(r.PostFormValue("return"))

	render := func(msg string) {
		data := loginFormData{
			BaseVM:        viewdata.NewBaseVM(r, "Sign in", "/"),
			Error:         msg,
			Email:         email,
			ReturnURL:     returnURL,
			GoogleEnabled: h.GoogleEnabled,
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		templates.Render(w, r, "login", data)
	}

	if email == "" || password == "" {
		render("Enter your email and password.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	// Throttle before touching the store so a guessing run can't even
	// learn which emails exist.
	if ok, msg := h.Limits.Check(r, email); !ok {
		h.Audit.LoginRateLimited(ctx, r, email)
		w.WriteHeader(http.StatusTooManyRequests)
		data := loginFormData{
			BaseVM:        viewdata.NewBaseVM(r, "Sign in", "/"),
			Error:         msg,
			Email:         email,
			ReturnURL:     returnURL,
			GoogleEnabled: h.GoogleEnabled,
		}
		templates.Render(w, r, "login", data)
		return
	}

	user, err := h.Users.GetByEmailCI(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			h.Audit.LoginFailed(ctx, r, email, "user not found")
			render("Email or password is incorrect.")
			return
		}
		h.ErrLog.LogServerError(w, r, "load user for login failed", err, "A database error occurred.", "/login")
		return
	}

	if user.Banned {
		h.Audit.LoginFailed(ctx, r, email, "account suspended")
		render("This account has been suspended.")
		return
	}
	if user.PasswordHash == "" {
		render("This account signs in with Google.")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		h.Audit.LoginFailed(ctx, r, email, "wrong password")
		render("Email or password is incorrect.")
		return
	}
	h.Limits.ResetEmail(email)

	if err := h.SessionMgr.SignIn(w, r, auth.SessionUser{
		ID:    user.ID.Hex(),
		Name:  user.DisplayName,
		Email: user.Email,
		Role:  user.Role,
	}); err != nil {
		h.ErrLog.LogServerError(w, r, "start session failed", err, "Could not sign you in. Try again.", "/login")
		return
	}

	h.Audit.LoginSuccess(ctx, r, user.ID, "password")
	h.Log.Info("user signed in",
		zap.String("user_id", user.ID.Hex()),
		zap.String("method", "password"))

	dest := "/dashboard"
	if returnURL != "" && strings.HasPrefix(returnURL, "/") && !strings.HasPrefix(returnURL, "//") {
		dest = returnURL
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}
