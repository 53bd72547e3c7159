// internal/app/features/groups/groups.go
package groups

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	uierrors "github.com/unionhubhq/unionhub/internal/app/features/errors"
	groupstore "github.com/unionhubhq/unionhub/internal/app/store/groups"
	"github.com/unionhubhq/unionhub/internal/app/system/authz"
	"github.com/unionhubhq/unionhub/internal/app/system/timeouts"
	"github.com/unionhubhq/unionhub/internal/app/system/unionctx"
	"github.com/unionhubhq/unionhub/internal/app/system/viewdata"
	"github.com/unionhubhq/unionhub/internal/domain/models"
)

type groupRow struct {
	ID      string
	Name    string
	Type    string
	Private bool
}

type listVM struct {
	viewdata.BaseVM
	Groups    []groupRow
	CanManage bool
	Error     string
}

// ServeList shows the groups of the active union.
// GET /groups
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	sel, ok := unionctx.Active(r)
	if !ok || sel.None {
		http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
		return
	}
	userID, _ := currentUserID(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	all, err := h.Groups.ListByUnion(ctx, sel.Union.Code)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list groups failed", err, "A database error occurred.", "/dashboard")
		return
	}

	isUnionAdmin := sel.Union.RoleOf(userID) == models.UnionRoleAdmin

	vm := listVM{
		BaseVM:    viewdata.NewBaseVM(r, "Groups", "/dashboard"),
		CanManage: isUnionAdmin,
	}
	for _, g := range all {
		// Hide private groups the user is not part of.
		if g.Type == models.GroupPrivate && !groupHasMember(g, userID) && !isUnionAdmin {
			continue
		}
		vm.Groups = append(vm.Groups, groupRow{
			ID:      g.ID.Hex(),
			Name:    g.Name,
			Type:    g.Type,
			Private: g.Type == models.GroupPrivate,
		})
	}

	templates.Render(w, r, "groups_list", vm)
}

// HandleCreate creates a group in the active union. Union admins only.
// POST /groups
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	sel, ok := unionctx.Active(r)
	if !ok || sel.None {
		http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
		return
	}
	userID, _ := currentUserID(r)
	if sel.Union.RoleOf(userID) != models.UnionRoleAdmin {
		uierrors.RenderForbidden(w, r, "Only union admins can create groups.", "/groups")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse group form failed", err, "Invalid form data.", "/groups")
		return
	}

	name := strings.TrimSpace(r.PostFormValue("name"))
	groupType := strings.TrimSpace(r.PostFormValue("type"))
	if name == "" {
		http.Redirect(w, r, "/groups", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	group, err := h.Groups.Create(ctx, sel.Union.Code, name, groupType)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create group failed", err, "Could not create the group.", "/groups")
		return
	}
	// The creator joins private groups immediately so the group is
	// not orphaned.
	if group.Type == models.GroupPrivate {
		if err := h.Groups.AddMember(ctx, group.ID, userID); err != nil {
			h.Log.Warn("add creator to private group failed", zap.Error(err))
		}
	}

	h.Log.Info("group created",
		zap.String("union", sel.Union.Code),
		zap.String("group", group.ID.Hex()),
		zap.String("type", group.Type))

	http.Redirect(w, r, "/groups/"+group.ID.Hex(), http.StatusSeeOther)
}

// HandleRename renames a group. Union admins only.
// POST /groups/{id}/rename
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	group, err := h.loadGroup(ctx, r, chi.URLParam(r, "id"))
	if err != nil {
		h.renderGroupError(w, r, err)
		return
	}
	if !h.requireUnionAdmin(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse rename form failed", err, "Invalid form data.", "/groups")
		return
	}

	name := strings.TrimSpace(r.PostFormValue("name"))
	if name != "" {
		if err := h.Groups.Rename(ctx, group.ID, name); err != nil {
			h.ErrLog.LogServerError(w, r, "rename group failed", err, "Could not rename the group.", "/groups")
			return
		}
	}
	http.Redirect(w, r, "/groups/"+group.ID.Hex(), http.StatusSeeOther)
}

// HandleDelete deletes a group and its messages. Union admins only.
// POST /groups/{id}/delete
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	group, err := h.loadGroup(ctx, r, chi.URLParam(r, "id"))
	if err != nil {
		h.renderGroupError(w, r, err)
		return
	}
	if !h.requireUnionAdmin(w, r) {
		return
	}

	if _, err := h.Messages.DeleteByGroup(ctx, group.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "delete group messages failed", err, "Could not delete the group.", "/groups")
		return
	}
	if _, err := h.Groups.Delete(ctx, group.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "delete group failed", err, "Could not delete the group.", "/groups")
		return
	}

	h.Log.Info("group deleted",
		zap.String("union", group.UnionCode),
		zap.String("group", group.ID.Hex()))

	http.Redirect(w, r, "/groups", http.StatusSeeOther)
}

// HandleAddMember adds a union member to a private group. Union admins only.
// POST /groups/{id}/members
func (h *Handler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	h.changeMembership(w, r, h.Groups.AddMember)
}

// HandleRemoveMember removes a member from a private group. Union admins only.
// POST /groups/{id}/members/remove
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	h.changeMembership(w, r, h.Groups.RemoveMember)
}

func (h *Handler) changeMembership(w http.ResponseWriter, r *http.Request, op func(context.Context, primitive.ObjectID, primitive.ObjectID) error) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	group, err := h.loadGroup(ctx, r, chi.URLParam(r, "id"))
	if err != nil {
		h.renderGroupError(w, r, err)
		return
	}
	if group.Type != models.GroupPrivate {
		h.ErrLog.LogBadRequest(w, r, "membership change on non-private group", nil, "Only private groups have their own member list.", "/groups")
		return
	}
	if !h.requireUnionAdmin(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse membership form failed", err, "Invalid form data.", "/groups")
		return
	}

	memberID, err := primitive.ObjectIDFromHex(strings.TrimSpace(r.PostFormValue("user_id")))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad member id", err, "Bad request.", "/groups")
		return
	}

	if err := op(ctx, group.ID, memberID); err != nil {
		h.ErrLog.LogServerError(w, r, "change group membership failed", err, "Could not update group members.", "/groups")
		return
	}
	http.Redirect(w, r, "/groups/"+group.ID.Hex(), http.StatusSeeOther)
}

func (h *Handler) requireUnionAdmin(w http.ResponseWriter, r *http.Request) bool {
	sel, _ := unionctx.Active(r)
	userID, ok := currentUserID(r)
	if !ok || sel.Union.RoleOf(userID) != models.UnionRoleAdmin {
		uierrors.RenderForbidden(w, r, "Only union admins can manage groups.", "/groups")
		return false
	}
	return true
}

func (h *Handler) renderGroupError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errNoAccess):
		uierrors.RenderForbidden(w, r, "You don't have access to this group.", "/groups")
	case errors.Is(err, groupstore.ErrNotFound):
		http.NotFound(w, r)
	default:
		h.ErrLog.LogServerError(w, r, "load group failed", err, "A database error occurred.", "/groups")
	}
}

func currentUserID(r *http.Request) (primitive.ObjectID, bool) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok || userID.IsZero() {
		return primitive.NilObjectID, false
	}
	return userID, true
}
