// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"

	uierrors "github.com/unionhubhq/unionhub/internal/app/features/errors"
	"github.com/unionhubhq/unionhub/internal/app/system/auth"
	"github.com/unionhubhq/unionhub/internal/app/system/authz"
	"github.com/unionhubhq/unionhub/internal/app/system/timeouts"
	"github.com/unionhubhq/unionhub/internal/app/system/viewdata"
)

const maxDisplayNameLen = 80

type profileVM struct {
	viewdata.BaseVM
	Error        string
	DisplayName  string
	Email        string
	AccountRole  string
	Tier         string
	MemberNumber string
	Verified     bool
	AuthMethod   string
}

// ServeProfile shows the signed-in user's account page.
// GET /profile
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	h.renderProfile(w, r, "", http.StatusOK)
}

// HandleUpdate changes the display name and refreshes the session so
// the new name shows immediately.
// POST /profile
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse profile form failed", err, "Invalid form data.", "/profile")
		return
	}

	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	name := strings.TrimSpace(r.PostFormValue("display_name"))
	if name == "" || len(name) > maxDisplayNameLen {
		h.renderProfile(w, r, "Display name must be between 1 and 80 characters.", http.StatusUnprocessableEntity)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, userID, name); err != nil {
		h.ErrLog.LogServerError(w, r, "update profile failed", err, "Could not save your profile.", "/profile")
		return
	}

	user, err := h.Users.GetByID(ctx, userID)
	if err == nil {
		if err := h.SessionMgr.SignIn(w, r, auth.SessionUser{
			ID:    user.ID.Hex(),
			Name:  user.DisplayName,
			Email: user.Email,
			Role:  user.Role,
		}); err != nil {
			h.Log.Warn("session refresh after profile update failed", zap.Error(err))
		}
	}

	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func (h *Handler) renderProfile(w http.ResponseWriter, r *http.Request, formErr string, status int) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load profile failed", err, "A database error occurred.", "/dashboard")
		return
	}

	vm := profileVM{
		BaseVM:      viewdata.NewBaseVM(r, "Your profile", "/dashboard"),
		Error:       formErr,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		AccountRole: user.Role,
		Tier:        user.Tier,
		AuthMethod:  user.AuthMethod,
	}
	if user.MemberNumber != nil {
		vm.Verified = true
		vm.MemberNumber = strconv.Itoa(*user.MemberNumber)
	}

	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	templates.Render(w, r, "profile", vm)
}
