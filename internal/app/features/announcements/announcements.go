// internal/app/features/announcements/announcements.go
package announcements

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	uierrors "github.com/unionhubhq/unionhub/internal/app/features/errors"
	announcementstore "github.com/unionhubhq/unionhub/internal/app/store/announcements"
	"github.com/unionhubhq/unionhub/internal/app/system/authz"
	"github.com/unionhubhq/unionhub/internal/app/system/normalize"
	"github.com/unionhubhq/unionhub/internal/app/system/timeouts"
	"github.com/unionhubhq/unionhub/internal/app/system/unionctx"
	"github.com/unionhubhq/unionhub/internal/app/system/viewdata"
	"github.com/unionhubhq/unionhub/internal/domain/models"
)

var categories = []string{
	models.AnnouncementUrgent,
	models.AnnouncementEvent,
	models.AnnouncementGeneral,
	models.AnnouncementMerch,
}

type announcementRow struct {
	ID       string
	Title    string
	Category string
	Author   string
	Posted   string
}

type listVM struct {
	viewdata.BaseVM
	Items      []announcementRow
	Category   string
	Categories []string
	CanManage  bool
}

type showVM struct {
	viewdata.BaseVM
	ID        string
	Category  string
	Author    string
	Posted    string
	Content   template.HTML
	CanManage bool
}

type formVM struct {
	viewdata.BaseVM
	Error      string
	ID         string
	FormTitle  string
	Category   string
	Content    string
	Categories []string
}

// ServeList shows a union's announcements, optionally filtered by
// category.
// GET /announcements?category=urgent
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	sel, ok := unionctx.Active(r)
	if !ok || sel.None {
		http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
		return
	}

	category := normalize.QueryParam(r.URL.Query().Get("category"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	anns, err := h.Store.ListByUnion(ctx, sel.Union.Code, category, 0)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list announcements failed", err, "A database error occurred.", "/dashboard")
		return
	}

	vm := listVM{
		BaseVM:     viewdata.NewBaseVM(r, "Announcements", "/dashboard"),
		Category:   category,
		Categories: categories,
		CanManage:  isUnionAdmin(r),
	}
	for _, a := range anns {
		vm.Items = append(vm.Items, announcementRow{
			ID:       a.ID.Hex(),
			Title:    a.Title,
			Category: a.Category,
			Author:   a.AuthorName,
			Posted:   a.CreatedAt.Format("Jan 2, 2006 3:04 PM"),
		})
	}

	templates.Render(w, r, "announcements_list", vm)
}

// ServeShow shows one announcement.
// GET /announcements/{id}
func (h *Handler) ServeShow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ann, err := h.loadAnnouncement(ctx, r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	vm := showVM{
		BaseVM:    viewdata.NewBaseVM(r, ann.Title, "/announcements"),
		ID:        ann.ID.Hex(),
		Category:  ann.Category,
		Author:    ann.AuthorName,
		Posted:    ann.CreatedAt.Format("Jan 2, 2006 3:04 PM"),
		Content:   template.HTML(ann.Content), // sanitized at write time
		CanManage: isUnionAdmin(r),
	}
	templates.Render(w, r, "announcement_show", vm)
}

// ServeNew shows the compose form. Union admins only.
// GET /announcements/new
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	if !h.requireUnionAdmin(w, r) {
		return
	}
	vm := formVM{
		BaseVM:     viewdata.NewBaseVM(r, "New announcement", "/announcements"),
		FormTitle:  "New announcement",
		Category:   models.AnnouncementGeneral,
		Categories: categories,
	}
	templates.Render(w, r, "announcement_form", vm)
}

// HandleCreate posts an announcement and fans out a notification to
// the union's members.
// POST /announcements
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	sel, _ := unionctx.Active(r)
	if !h.requireUnionAdmin(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse announcement form failed", err, "Invalid form data.", "/announcements")
		return
	}

	_, authorName, authorID, _ := authz.UserCtx(r)
	title := strings.TrimSpace(r.PostFormValue("title"))
	content := h.sanitizer.Sanitize(strings.TrimSpace(r.PostFormValue("content")))
	category := strings.TrimSpace(r.PostFormValue("category"))

	if title == "" || content == "" {
		vm := formVM{
			BaseVM:     viewdata.NewBaseVM(r, "New announcement", "/announcements"),
			Error:      "Title and content are required.",
			FormTitle:  "New announcement",
			Category:   category,
			Content:    content,
			Categories: categories,
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		templates.Render(w, r, "announcement_form", vm)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ann, err := h.Store.Create(ctx, announcementstore.CreateInput{
		UnionCode:  sel.Union.Code,
		Title:      title,
		Content:    content,
		Category:   category,
		AuthorID:   authorID,
		AuthorName: authorName,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create announcement failed", err, "Could not post the announcement.", "/announcements")
		return
	}

	h.Log.Info("announcement posted",
		zap.String("union", sel.Union.Code),
		zap.String("announcement", ann.ID.Hex()),
		zap.String("category", ann.Category))

	// Notify members off the request path.
	go func() {
		pushCtx, cancel := context.WithTimeout(context.Background(), timeouts.Long())
		defer cancel()
		h.Push.FanoutAnnouncement(pushCtx, ann)
	}()

	http.Redirect(w, r, "/announcements/"+ann.ID.Hex(), http.StatusSeeOther)
}

// ServeEdit shows the edit form. Union admins only.
// GET /announcements/{id}/edit
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	if !h.requireUnionAdmin(w, r) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ann, err := h.loadAnnouncement(ctx, r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	vm := formVM{
		BaseVM:     viewdata.NewBaseVM(r, "Edit announcement", "/announcements"),
		ID:         ann.ID.Hex(),
		FormTitle:  ann.Title,
		Category:   ann.Category,
		Content:    ann.Content,
		Categories: categories,
	}
	templates.Render(w, r, "announcement_form", vm)
}

// HandleUpdate saves edits. Union admins only.
// POST /announcements/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if !h.requireUnionAdmin(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse announcement form failed", err, "Invalid form data.", "/announcements")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ann, err := h.loadAnnouncement(ctx, r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	title := strings.TrimSpace(r.PostFormValue("title"))
	content := h.sanitizer.Sanitize(strings.TrimSpace(r.PostFormValue("content")))
	category := strings.TrimSpace(r.PostFormValue("category"))

	upd := announcementstore.UpdateInput{}
	if title != "" {
		upd.Title = &title
	}
	if content != "" {
		upd.Content = &content
	}
	if category != "" {
		upd.Category = &category
	}

	if err := h.Store.Update(ctx, ann.ID, upd); err != nil {
		h.ErrLog.LogServerError(w, r, "update announcement failed", err, "Could not save the announcement.", "/announcements")
		return
	}

	http.Redirect(w, r, "/announcements/"+ann.ID.Hex(), http.StatusSeeOther)
}

// HandleDelete removes an announcement. Union admins only.
// POST /announcements/{id}/delete
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if !h.requireUnionAdmin(w, r) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ann, err := h.loadAnnouncement(ctx, r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	if _, err := h.Store.Delete(ctx, ann.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "delete announcement failed", err, "Could not delete the announcement.", "/announcements")
		return
	}

	http.Redirect(w, r, "/announcements", http.StatusSeeOther)
}

// loadAnnouncement fetches by URL param, scoped to the active union.
func (h *Handler) loadAnnouncement(ctx context.Context, r *http.Request) (models.Announcement, error) {
	sel, ok := unionctx.Active(r)
	if !ok || sel.None {
		return models.Announcement{}, announcementstore.ErrNotFound
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return models.Announcement{}, announcementstore.ErrNotFound
	}
	ann, err := h.Store.GetByID(ctx, id)
	if err != nil {
		return models.Announcement{}, err
	}
	if ann.UnionCode != sel.Union.Code {
		return models.Announcement{}, announcementstore.ErrNotFound
	}
	return ann, nil
}

func (h *Handler) requireUnionAdmin(w http.ResponseWriter, r *http.Request) bool {
	if !isUnionAdmin(r) {
		uierrors.RenderForbidden(w, r, "Only union admins can manage announcements.", "/announcements")
		return false
	}
	return true
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, announcementstore.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	h.ErrLog.LogServerError(w, r, "load announcement failed", err, "A database error occurred.", "/announcements")
}

func isUnionAdmin(r *http.Request) bool {
	sel, ok := unionctx.Active(r)
	if !ok || sel.None {
		return false
	}
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		return false
	}
	return sel.Union.RoleOf(userID) == models.UnionRoleAdmin
}
