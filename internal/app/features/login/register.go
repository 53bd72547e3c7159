// internal/app/features/login/register.go
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
	"github.com/unionhubhq/unionhub/internal/app/system/timeouts"
	"github.com/unionhubhq/unionhub/internal/app/system/viewdata"
	"github.com/unionhubhq/unionhub/internal/domain/models"
)

const minPasswordLen = 8

// ServeRegister shows the sign-up form.
// GET /register
func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	data := registerFormData{
		BaseVM: viewdata.NewBaseVM(r, "Create account", "/login"),
	}
	templates.Render(w, r, "register", data)
}

// HandleRegisterPost creates the account and profile, then signs the
// user in. A profile write failure is surfaced to the user rather than
// leaving a half-created account behind silently.
// POST /register
func (h *Handler) HandleRegisterPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse register form failed", err, "Invalid form data.", "/register")
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	displayName := strings.TrimSpace(r.PostFormValue("display_name"))
	password := r.PostFormValue("password")

	render := func(msg string) {
		data := registerFormData{
			BaseVM:      viewdata.NewBaseVM(r, "Create account", "/login"),
			Error:       msg,
			Email:       email,
			DisplayName: displayName,
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		templates.Render(w, r, "register", data)
	}

	switch {
	case email == "" || !strings.Contains(email, "@"):
		render("Enter a valid email address.")
		return
	case displayName == "":
		render("Enter a display name.")
		return
	case len(password) < minPasswordLen:
		render("Password must be at least 8 characters.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password failed", err, "Could not create your account. Try again.", "/register")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.Create(ctx, models.User{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		AuthMethod:   "password",
	})
	if err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			render("An account with that email already exists.")
			return
		}
		// The account may exist without a profile at this point; tell
		// the user instead of dropping them on a broken dashboard.
		h.ErrLog.LogServerError(w, r, "create user failed", err,
			"Your account could not be fully created. Try signing up again.", "/register")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, auth.SessionUser{
		ID:    user.ID.Hex(),
		Name:  user.DisplayName,
		Email: user.Email,
		Role:  user.Role,
	}); err != nil {
		h.ErrLog.LogServerError(w, r, "start session after signup failed", err,
			"Account created. Please sign in.", "/login")
		return
	}

	h.Log.Info("user registered", zap.String("user_id", user.ID.Hex()))
	http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
}
