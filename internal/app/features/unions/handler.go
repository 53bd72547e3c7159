// internal/app/features/unions/handler.go
package unions

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	uierrors "github.com/unionhubhq/unionhub/internal/app/features/errors"
	unionstore "github.com/unionhubhq/unionhub/internal/app/store/unions"
	"github.com/unionhubhq/unionhub/internal/app/store/users"
	"github.com/unionhubhq/unionhub/internal/app/system/auditlog"
	"github.com/unionhubhq/unionhub/internal/app/system/auth"
	"github.com/unionhubhq/unionhub/internal/app/system/authz"
	"github.com/unionhubhq/unionhub/internal/app/system/normalize"
	"github.com/unionhubhq/unionhub/internal/app/system/timeouts"
	"github.com/unionhubhq/unionhub/internal/app/system/unionctx"
	"github.com/unionhubhq/unionhub/internal/app/system/viewdata"
	"github.com/unionhubhq/unionhub/internal/domain/models"
)

// Handler owns union-scoped membership pages: switching the active
// union, the member roster, union roles, and leaving.
type Handler struct {
	DB         *mongo.Database
	Unions     *unionstore.Store
	Users      *users.Store
	Resolver   *unionctx.Resolver
	SessionMgr *auth.SessionManager
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
	Audit      *auditlog.Logger // nil disables auditing
}

func NewHandler(db *mongo.Database, resolver *unionctx.Resolver, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Unions:     unionstore.New(db),
		Users:      users.New(db),
		Resolver:   resolver,
		SessionMgr: sessionMgr,
		Log:        logger,
		ErrLog:     errLog,
		Audit:      audit,
	}
}

// HandleSwitch changes the active union. The target must be one of the
// caller's unions; anything else keeps the current selection.
// POST /unions/switch
func (h *Handler) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse switch form failed", err, "Invalid form data.", "/dashboard")
		return
	}

	code := normalize.InviteCode(r.PostFormValue("code"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, ok := h.Resolver.Validate(ctx, userID, code); !ok {
		h.Log.Warn("switch to non-member union rejected",
			zap.String("user", userID.Hex()),
			zap.String("union", code))
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	if err := h.SessionMgr.SetActiveUnion(w, r, code); err != nil {
		h.ErrLog.LogServerError(w, r, "persist active union failed", err, "Could not switch unions. Try again.", "/dashboard")
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

type memberRow struct {
	ID          string
	DisplayName string
	Email       string
	UnionRole   string
	Tier        string
	IsSelf      bool
}

type membersVM struct {
	viewdata.BaseVM
	Members    []memberRow
	CanManage  bool
	InviteCode string
}

// ServeMembers shows the union roster.
// GET /unions/members
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	sel, ok := unionctx.Active(r)
	if !ok || sel.None {
		http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
		return
	}
	_, _, userID, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	members, err := h.Users.GetByIDs(ctx, sel.Union.MemberIDs)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load union members failed", err, "A database error occurred.", "/dashboard")
		return
	}

	isUnionAdmin := sel.Union.RoleOf(userID) == models.UnionRoleAdmin

	vm := membersVM{
		BaseVM:     viewdata.NewBaseVM(r, "Members", "/dashboard"),
		CanManage:  isUnionAdmin,
		InviteCode: sel.Union.Code,
	}
	for _, m := range members {
		row := memberRow{
			ID:          m.ID.Hex(),
			DisplayName: m.DisplayName,
			UnionRole:   sel.Union.RoleOf(m.ID),
			Tier:        m.Tier,
			IsSelf:      m.ID == userID,
		}
		if isUnionAdmin {
			row.Email = m.Email
		}
		vm.Members = append(vm.Members, row)
	}

	templates.Render(w, r, "union_members", vm)
}

// HandleSetRole promotes or demotes a member within the union.
// POST /unions/members/{id}/role
func (h *Handler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	sel, ok := unionctx.Active(r)
	if !ok || sel.None {
		http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
		return
	}
	_, _, userID, _ := authz.UserCtx(r)
	if sel.Union.RoleOf(userID) != models.UnionRoleAdmin {
		uierrors.RenderForbidden(w, r, "Only union admins can change member roles.", "/unions/members")
		return
	}

	targetID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad member id", err, "Bad request.", "/unions/members")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse role form failed", err, "Invalid form data.", "/unions/members")
		return
	}
	role := strings.TrimSpace(r.PostFormValue("role"))

	if targetID == userID && role != models.UnionRoleAdmin {
		uierrors.RenderForbidden(w, r, "You cannot demote yourself. Ask another union admin.", "/unions/members")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Unions.SetRole(ctx, sel.Union.Code, targetID, role); err != nil {
		h.ErrLog.LogServerError(w, r, "set union role failed", err, "Could not update the member's role.", "/unions/members")
		return
	}

	h.Audit.UnionRoleChanged(ctx, r, userID, targetID, sel.Union.Code, role)
	h.Log.Info("union role changed",
		zap.String("union", sel.Union.Code),
		zap.String("member", targetID.Hex()),
		zap.String("role", role),
		zap.String("by", userID.Hex()))

	http.Redirect(w, r, "/unions/members", http.StatusSeeOther)
}

// HandleLeave removes the caller from the active union and clears the
// stored selection so the resolver picks a remaining union (or sends
// them to onboarding).
// POST /unions/leave
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	sel, ok := unionctx.Active(r)
	if !ok || sel.None {
		http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
		return
	}
	_, _, userID, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Unions.Leave(ctx, sel.Union.Code, userID); err != nil {
		h.ErrLog.LogServerError(w, r, "leave union failed", err, "Could not leave the union. Try again.", "/dashboard")
		return
	}

	if err := h.SessionMgr.SetActiveUnion(w, r, ""); err != nil {
		h.Log.Warn("clear active union failed", zap.Error(err))
	}

	h.Log.Info("union left",
		zap.String("union", sel.Union.Code),
		zap.String("user", userID.Hex()))

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
