// internal/app/features/reports/reports.go
package reports

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
	reportstore "github.com/unionhubhq/unionhub/internal/app/store/reports"
	"github.com/unionhubhq/unionhub/internal/app/system/authz"
	"github.com/unionhubhq/unionhub/internal/app/system/normalize"
	"github.com/unionhubhq/unionhub/internal/app/system/timeouts"
	"github.com/unionhubhq/unionhub/internal/app/system/unionctx"
	"github.com/unionhubhq/unionhub/internal/app/system/viewdata"
	"github.com/unionhubhq/unionhub/internal/domain/models"
)

const maxReasonLen = 2000

type reportRow struct {
	ID           string
	ReportedName string
	ReporterName string
	Reason       string
	Status       string
	HasMessage   bool
	Filed        string
}

type listVM struct {
	viewdata.BaseVM
	Items  []reportRow
	Status string
}

type formVM struct {
	viewdata.BaseVM
	Error        string
	ReportedID   string
	ReportedName string
	MessageID    string
	Reason       string
}

// ServeNew shows the report form. The reported user comes in on the
// query string, usually from a member roster or chat moderation link.
// GET /reports/new?user=<id>&message=<id>
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	sel, ok := unionctx.Active(r)
	if !ok || sel.None {
		http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
		return
	}

	reportedID, err := primitive.ObjectIDFromHex(r.URL.Query().Get("user"))
	if err != nil || !sel.Union.HasMember(reportedID) {
		http.NotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	reported, err := h.Users.GetByID(ctx, reportedID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load reported user failed", err, "A database error occurred.", "/unions/members")
		return
	}

	vm := formVM{
		BaseVM:       viewdata.NewBaseVM(r, "File a report", "/unions/members"),
		ReportedID:   reported.ID.Hex(),
		ReportedName: reported.DisplayName,
		MessageID:    normalize.QueryParam(r.URL.Query().Get("message")),
	}
	templates.Render(w, r, "report_form", vm)
}

// HandleCreate files a report against another member of the active
// union.
// POST /reports
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	sel, ok := unionctx.Active(r)
	if !ok || sel.None {
		http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse report form failed", err, "Invalid form data.", "/dashboard")
		return
	}

	_, _, reporterID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	reportedID, err := primitive.ObjectIDFromHex(strings.TrimSpace(r.PostFormValue("reported_user_id")))
	if err != nil || !sel.Union.HasMember(reportedID) {
		h.ErrLog.LogBadRequest(w, r, "report target invalid", err, "That member could not be found.", "/unions/members")
		return
	}
	if reportedID == reporterID {
		h.ErrLog.LogBadRequest(w, r, "self-report rejected", nil, "You cannot report yourself.", "/unions/members")
		return
	}

	reason := strings.TrimSpace(r.PostFormValue("reason"))
	if reason == "" || len(reason) > maxReasonLen {
		h.ErrLog.LogBadRequest(w, r, "report reason invalid", nil, "A reason is required.", "/unions/members")
		return
	}

	rep := models.Report{
		UnionCode:      sel.Union.Code,
		ReportedUserID: reportedID,
		Reason:         reason,
		ReporterID:     reporterID,
	}
	if raw := strings.TrimSpace(r.PostFormValue("message_id")); raw != "" {
		if msgID, err := primitive.ObjectIDFromHex(raw); err == nil {
			rep.MessageID = &msgID
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created, err := h.Store.Create(ctx, rep)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create report failed", err, "Could not file the report.", "/dashboard")
		return
	}

	h.Log.Info("report filed",
		zap.String("union", sel.Union.Code),
		zap.String("report", created.ID.Hex()),
		zap.String("reported_user", reportedID.Hex()))

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// ServeList shows the union's report queue. Union admins only.
// GET /reports?status=pending
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	sel, ok := unionctx.Active(r)
	if !ok || sel.None {
		http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
		return
	}
	if !h.requireUnionAdmin(w, r) {
		return
	}

	status := normalize.QueryParam(r.URL.Query().Get("status"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	reports, err := h.Store.ListByUnion(ctx, sel.Union.Code, status)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list reports failed", err, "A database error occurred.", "/dashboard")
		return
	}

	names := h.displayNames(ctx, reports)

	vm := listVM{
		BaseVM: viewdata.NewBaseVM(r, "Reports", "/dashboard"),
		Status: status,
	}
	for _, rep := range reports {
		vm.Items = append(vm.Items, reportRow{
			ID:           rep.ID.Hex(),
			ReportedName: names[rep.ReportedUserID],
			ReporterName: names[rep.ReporterID],
			Reason:       rep.Reason,
			Status:       rep.Status,
			HasMessage:   rep.MessageID != nil,
			Filed:        rep.CreatedAt.Format("Jan 2, 2006 3:04 PM"),
		})
	}

	templates.Render(w, r, "reports_list", vm)
}

// HandleSetStatus resolves or dismisses a report. Union admins only.
// POST /reports/{id}/status
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	sel, ok := unionctx.Active(r)
	if !ok || sel.None {
		http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
		return
	}
	if !h.requireUnionAdmin(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse status form failed", err, "Invalid form data.", "/reports")
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rep, err := h.Store.GetByID(ctx, id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	if rep.UnionCode != sel.Union.Code {
		http.NotFound(w, r)
		return
	}

	status := strings.TrimSpace(r.PostFormValue("status"))
	if err := h.Store.SetStatus(ctx, rep.ID, status); err != nil {
		if errors.Is(err, reportstore.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.ErrLog.LogBadRequest(w, r, "set report status failed", err, "Reports can only be resolved or dismissed.", "/reports")
		return
	}

	http.Redirect(w, r, "/reports", http.StatusSeeOther)
}

// displayNames resolves the user IDs a batch of reports references.
// Lookup failures degrade to blank names rather than failing the page.
func (h *Handler) displayNames(ctx context.Context, reports []models.Report) map[primitive.ObjectID]string {
	seen := map[primitive.ObjectID]struct{}{}
	var ids []primitive.ObjectID
	for _, rep := range reports {
		for _, id := range []primitive.ObjectID{rep.ReportedUserID, rep.ReporterID} {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	names := map[primitive.ObjectID]string{}
	if len(ids) == 0 {
		return names
	}
	users, err := h.Users.GetByIDs(ctx, ids)
	if err != nil {
		h.Log.Warn("resolve report user names failed", zap.Error(err))
		return names
	}
	for _, u := range users {
		names[u.ID] = u.DisplayName
	}
	return names
}

func (h *Handler) requireUnionAdmin(w http.ResponseWriter, r *http.Request) bool {
	sel, ok := unionctx.Active(r)
	if !ok || sel.None {
		return false
	}
	_, _, userID, ok := authz.UserCtx(r)
	if !ok || sel.Union.RoleOf(userID) != models.UnionRoleAdmin {
		uierrors.RenderForbidden(w, r, "Only union admins can review reports.", "/dashboard")
		return false
	}
	return true
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, reportstore.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	h.ErrLog.LogServerError(w, r, "load report failed", err, "A database error occurred.", "/reports")
}
