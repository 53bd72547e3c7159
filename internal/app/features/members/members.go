// internal/app/features/members/members.go
package members

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	userstore "github.com/unionhubhq/unionhub/internal/app/store/users"
	"github.com/unionhubhq/unionhub/internal/app/system/authz"
	"github.com/unionhubhq/unionhub/internal/app/system/normalize"
	"github.com/unionhubhq/unionhub/internal/app/system/paging"
	"github.com/unionhubhq/unionhub/internal/app/system/search"
	"github.com/unionhubhq/unionhub/internal/app/system/timeouts"
	"github.com/unionhubhq/unionhub/internal/app/system/viewdata"
	"github.com/unionhubhq/unionhub/internal/domain/models"
)

var (
	validRoles = map[string]struct{}{
		models.RoleMember: {},
		models.RoleBoard:  {},
		models.RoleAdmin:  {},
	}
	validTiers = map[string]struct{}{
		models.TierStandard: {},
		models.TierGold:     {},
		models.TierLifetime: {},
	}
)

type memberRow struct {
	ID           string
	DisplayName  string
	Email        string
	Role         string
	Tier         string
	Banned       bool
	MemberNumber string
}

type listVM struct {
	viewdata.BaseVM
	Items    []memberRow
	Query    string
	Page     int
	NextPage int
	PrevPage int
}

type editVM struct {
	viewdata.BaseVM
	Member memberRow
	Roles  []string
	Tiers  []string
}

// ServeList shows the application-wide user register, searchable by
// name or email.
// GET /members?q=smith&page=2
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	query := normalize.QueryParam(r.URL.Query().Get("q"))
	page := paging.ParsePage(r)
	filter := search.FoldedOr(query, "display_name_ci", "email_ci")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "display_name_ci", Value: 1}}).
		SetSkip(paging.Skip(page)).
		SetLimit(paging.LimitPlusOne())
	users, err := h.Users.Find(ctx, filter, opts)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list users failed", err, "A database error occurred.", "/dashboard")
		return
	}

	hasNext := paging.Trim(&users)

	vm := listVM{
		BaseVM: viewdata.NewBaseVM(r, "Members", "/dashboard"),
		Query:  query,
		Page:   page,
	}
	if hasNext {
		vm.NextPage = page + 1
	}
	if page > 1 {
		vm.PrevPage = page - 1
	}
	for _, u := range users {
		vm.Items = append(vm.Items, rowFromUser(u))
	}

	templates.Render(w, r, "members_list", vm)
}

// ServeEdit shows the admin edit form for one user.
// GET /members/{id}
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.loadUser(ctx, r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	vm := editVM{
		BaseVM: viewdata.NewBaseVM(r, user.DisplayName, "/members"),
		Member: rowFromUser(user),
		Roles:  []string{models.RoleMember, models.RoleBoard, models.RoleAdmin},
		Tiers:  []string{models.TierStandard, models.TierGold, models.TierLifetime},
	}
	templates.Render(w, r, "member_edit", vm)
}

// HandleUpdate applies role, tier, ban, and member-number changes.
// Admins cannot demote or ban themselves; the last admin standing
// stays an admin.
// POST /members/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse member form failed", err, "Invalid form data.", "/members")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.loadUser(ctx, r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	_, _, actingID, _ := authz.UserCtx(r)
	self := user.ID == actingID

	upd := userstore.AdminUpdate{}
	var changed []string

	if role := strings.TrimSpace(r.PostFormValue("role")); role != "" && role != user.Role {
		if _, ok := validRoles[role]; !ok {
			h.ErrLog.LogBadRequest(w, r, "invalid role", nil, "Unknown role.", "/members/"+user.ID.Hex())
			return
		}
		if self && role != models.RoleAdmin {
			h.ErrLog.LogBadRequest(w, r, "self-demotion rejected", nil, "You cannot remove your own admin role.", "/members/"+user.ID.Hex())
			return
		}
		upd.Role = &role
		changed = append(changed, "role")
	}

	if tier := strings.TrimSpace(r.PostFormValue("tier")); tier != "" && tier != user.Tier {
		if _, ok := validTiers[tier]; !ok {
			h.ErrLog.LogBadRequest(w, r, "invalid tier", nil, "Unknown tier.", "/members/"+user.ID.Hex())
			return
		}
		upd.Tier = &tier
		changed = append(changed, "tier")
	}

	banned := r.PostFormValue("banned") != ""
	if banned != user.Banned {
		if self && banned {
			h.ErrLog.LogBadRequest(w, r, "self-ban rejected", nil, "You cannot ban yourself.", "/members/"+user.ID.Hex())
			return
		}
		upd.Banned = &banned
		changed = append(changed, "banned")
	}

	if raw := strings.TrimSpace(r.PostFormValue("member_number")); raw != "" {
		num, err := strconv.Atoi(raw)
		if err != nil || num <= 0 {
			h.ErrLog.LogBadRequest(w, r, "invalid member number", err, "The member number must be a positive number.", "/members/"+user.ID.Hex())
			return
		}
		if user.MemberNumber == nil || *user.MemberNumber != num {
			upd.MemberNumber = &num
			changed = append(changed, "member_number")
		}
	}

	if upd == (userstore.AdminUpdate{}) {
		http.Redirect(w, r, "/members/"+user.ID.Hex(), http.StatusSeeOther)
		return
	}

	if err := h.Users.ApplyAdminUpdate(ctx, user.ID, upd); err != nil {
		h.ErrLog.LogServerError(w, r, "apply admin update failed", err, "Could not save the changes.", "/members")
		return
	}

	h.Audit.MemberUpdated(ctx, r, actingID, user.ID, strings.Join(changed, ","))
	if upd.Banned != nil {
		h.Audit.MemberBanned(ctx, r, actingID, user.ID, *upd.Banned)
	}
	h.Log.Info("member record updated",
		zap.String("user", user.ID.Hex()),
		zap.String("by", actingID.Hex()))

	http.Redirect(w, r, "/members/"+user.ID.Hex(), http.StatusSeeOther)
}

func (h *Handler) loadUser(ctx context.Context, r *http.Request) (models.User, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return models.User{}, userstore.ErrNotFound
	}
	return h.Users.GetByID(ctx, id)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, userstore.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	h.ErrLog.LogServerError(w, r, "load user failed", err, "A database error occurred.", "/members")
}

func rowFromUser(u models.User) memberRow {
	row := memberRow{
		ID:          u.ID.Hex(),
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Role:        u.Role,
		Tier:        u.Tier,
		Banned:      u.Banned,
	}
	if u.MemberNumber != nil {
		row.MemberNumber = strconv.Itoa(*u.MemberNumber)
	}
	return row
}
