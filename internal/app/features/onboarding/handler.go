// internal/app/features/onboarding/handler.go
package onboarding

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	uierrors "github.com/unionhubhq/unionhub/internal/app/features/errors"
	"github.com/unionhubhq/unionhub/internal/app/store/unions"
	"github.com/unionhubhq/unionhub/internal/app/system/authz"
	"github.com/unionhubhq/unionhub/internal/app/system/normalize"
	"github.com/unionhubhq/unionhub/internal/app/system/timeouts"
	"github.com/unionhubhq/unionhub/internal/app/system/viewdata"
)

// Handler owns the first-run flow: create a union or join one by
// invite code. Users land here whenever they belong to no union.
type Handler struct {
	DB         *mongo.Database
	Unions     *unions.Store
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
	SessionMgr activeUnionSetter
}

// activeUnionSetter is the slice of the session manager onboarding
// needs: persisting the newly selected union.
type activeUnionSetter interface {
	SetActiveUnion(w http.ResponseWriter, r *http.Request, code string) error
}

func NewHandler(db *mongo.Database, sessionMgr activeUnionSetter, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Unions:     unions.New(db),
		Log:        logger,
		ErrLog:     errLog,
		SessionMgr: sessionMgr,
	}
}

type formData struct {
	viewdata.BaseVM
	Error      string
	UnionName  string
	InviteCode string
}

// ServeOnboarding shows the create-or-join page.
// GET /onboarding
func (h *Handler) ServeOnboarding(w http.ResponseWriter, r *http.Request) {
	data := formData{
		BaseVM: viewdata.NewBaseVM(r, "Join a union", "/"),
	}
	templates.Render(w, r, "onboarding", data)
}

// HandleCreate creates a union with the caller as its admin member.
// POST /onboarding/create
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse onboarding form failed", err, "Invalid form data.", "/onboarding")
		return
	}

	name := strings.TrimSpace(r.PostFormValue("name"))
	code := normalize.InviteCode(r.PostFormValue("code"))

	render := func(msg string) {
		data := formData{
			BaseVM:     viewdata.NewBaseVM(r, "Join a union", "/"),
			Error:      msg,
			UnionName:  name,
			InviteCode: code,
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		templates.Render(w, r, "onboarding", data)
	}

	switch {
	case name == "":
		render("Enter a name for your union.")
		return
	case len(code) < 3:
		render("Invite code must be at least 3 characters.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	union, err := h.Unions.Create(ctx, code, name, userID)
	if err != nil {
		if errors.Is(err, unions.ErrDuplicateCode) {
			render("That invite code is already taken. Pick another.")
			return
		}
		h.ErrLog.LogServerError(w, r, "create union failed", err, "Could not create the union. Try again.", "/onboarding")
		return
	}

	h.Log.Info("union created",
		zap.String("union", union.Code),
		zap.String("creator", userID.Hex()))

	h.selectAndGo(w, r, union.Code)
}

// HandleJoin joins an existing union by invite code.
// POST /onboarding/join
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse onboarding form failed", err, "Invalid form data.", "/onboarding")
		return
	}

	code := normalize.InviteCode(r.PostFormValue("code"))

	render := func(msg string) {
		data := formData{
			BaseVM:     viewdata.NewBaseVM(r, "Join a union", "/"),
			Error:      msg,
			InviteCode: code,
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		templates.Render(w, r, "onboarding", data)
	}

	if code == "" {
		render("Enter the invite code you were given.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Unions.Join(ctx, code, userID); err != nil {
		if errors.Is(err, unions.ErrNotFound) {
			render("No union found for that invite code.")
			return
		}
		h.ErrLog.LogServerError(w, r, "join union failed", err, "Could not join the union. Try again.", "/onboarding")
		return
	}

	h.Log.Info("union joined",
		zap.String("union", code),
		zap.String("user", userID.Hex()))

	h.selectAndGo(w, r, code)
}

// selectAndGo persists the new union as the active selection and moves
// the user onto the dashboard.
func (h *Handler) selectAndGo(w http.ResponseWriter, r *http.Request, code string) {
	if err := h.SessionMgr.SetActiveUnion(w, r, code); err != nil {
		// The resolver will still pick this union up next request.
		h.Log.Warn("persist active union failed", zap.Error(err))
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func currentUserID(r *http.Request) (primitive.ObjectID, bool) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok || userID.IsZero() {
		return primitive.NilObjectID, false
	}
	return userID, true
}
