// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	uierrors "github.com/unionhubhq/unionhub/internal/app/features/errors"
	announcementstore "github.com/unionhubhq/unionhub/internal/app/store/announcements"
	groupstore "github.com/unionhubhq/unionhub/internal/app/store/groups"
	"github.com/unionhubhq/unionhub/internal/app/store/users"
	"github.com/unionhubhq/unionhub/internal/app/system/authz"
	"github.com/unionhubhq/unionhub/internal/app/system/timeouts"
	"github.com/unionhubhq/unionhub/internal/app/system/unionctx"
	"github.com/unionhubhq/unionhub/internal/app/system/viewdata"
)

// Handler serves the union dashboard: announcements, groups, and the
// member's identity card.
type Handler struct {
	DB            *mongo.Database
	Users         *users.Store
	Groups        *groupstore.Store
	Announcements *announcementstore.Store
	Log           *zap.Logger
	ErrLog        *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:            db,
		Users:         users.New(db),
		Groups:        groupstore.New(db),
		Announcements: announcementstore.New(db),
		Log:           logger,
		ErrLog:        errLog,
	}
}

type announcementRow struct {
	ID       string
	Title    string
	Category string
	Author   string
	Posted   string
}

type groupRow struct {
	ID   string
	Name string
	Type string
}

type cardVM struct {
	DisplayName  string
	Tier         string
	MemberNumber int
	Verified     bool
}

type dashboardVM struct {
	viewdata.BaseVM
	MemberCount   int
	Announcements []announcementRow
	Groups        []groupRow
	Card          cardVM
}

const recentAnnouncements = 5

// ServeDashboard handles GET /dashboard.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	sel, ok := unionctx.Active(r)
	if !ok || sel.None {
		http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
		return
	}
	_, _, userID, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	anns, err := h.Announcements.ListByUnion(ctx, sel.Union.Code, "", recentAnnouncements)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list announcements failed", err, "A database error occurred.", "/")
		return
	}
	groups, err := h.Groups.ListByUnion(ctx, sel.Union.Code)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list groups failed", err, "A database error occurred.", "/")
		return
	}

	vm := dashboardVM{
		BaseVM:      viewdata.NewBaseVM(r, sel.Union.Name, "/"),
		MemberCount: len(sel.Union.MemberIDs),
	}
	for _, a := range anns {
		vm.Announcements = append(vm.Announcements, announcementRow{
			ID:       a.ID.Hex(),
			Title:    a.Title,
			Category: a.Category,
			Author:   a.AuthorName,
			Posted:   a.CreatedAt.Format("Jan 2, 2006"),
		})
	}
	for _, g := range groups {
		vm.Groups = append(vm.Groups, groupRow{
			ID:   g.ID.Hex(),
			Name: g.Name,
			Type: g.Type,
		})
	}

	// The identity card comes from the user record; a lookup failure
	// degrades to a card without the verified number.
	if user, err := h.Users.GetByID(ctx, userID); err == nil {
		vm.Card = cardVM{
			DisplayName: user.DisplayName,
			Tier:        user.Tier,
		}
		if user.MemberNumber != nil {
			vm.Card.MemberNumber = *user.MemberNumber
			vm.Card.Verified = true
		}
	} else {
		h.Log.Warn("load user for identity card failed", zap.Error(err))
	}

	templates.Render(w, r, "dashboard", vm)
}
