// internal/app/features/vault/vault.go
package vault

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	uierrors "github.com/unionhubhq/unionhub/internal/app/features/errors"
	resourcestore "github.com/unionhubhq/unionhub/internal/app/store/vault"
	"github.com/unionhubhq/unionhub/internal/app/system/authz"
	"github.com/unionhubhq/unionhub/internal/app/system/timeouts"
	"github.com/unionhubhq/unionhub/internal/app/system/unionctx"
	"github.com/unionhubhq/unionhub/internal/app/system/viewdata"
	"github.com/unionhubhq/unionhub/internal/domain/models"
)

var resourceTypes = []string{models.ResourceLink, models.ResourceFile, models.ResourceText}

type resourceRow struct {
	ID          string
	Title       string
	Description string
	Category    string
	Type        string
	URL         string
	AdminOnly   bool
}

type listVM struct {
	viewdata.BaseVM
	Items     []resourceRow
	CanManage bool
}

type showVM struct {
	viewdata.BaseVM
	ID          string
	Description string
	Category    string
	Type        string
	URL         string
	Body        template.HTML
	AdminOnly   bool
	CanManage   bool
}

type formVM struct {
	viewdata.BaseVM
	Error       string
	ID          string
	FormTitle   string
	Description string
	Category    string
	Type        string
	URL         string
	Body        string
	AdminOnly   bool
	Types       []string
}

// ServeList shows the union's vault. Members see public documents
// only; union admins see everything.
// GET /vault
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	sel, ok := unionctx.Active(r)
	if !ok || sel.None {
		http.Redirect(w, r, "/onboarding", http.StatusSeeOther)
		return
	}

	canManage := isUnionAdmin(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	resources, err := h.Store.ListByUnion(ctx, sel.Union.Code, !canManage)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list vault resources failed", err, "A database error occurred.", "/dashboard")
		return
	}

	vm := listVM{
		BaseVM:    viewdata.NewBaseVM(r, "Document vault", "/dashboard"),
		CanManage: canManage,
	}
	for _, res := range resources {
		vm.Items = append(vm.Items, resourceRow{
			ID:          res.ID.Hex(),
			Title:       res.Title,
			Description: res.Description,
			Category:    res.Category,
			Type:        res.Type,
			URL:         res.URL,
			AdminOnly:   res.Visibility == models.VisibilityAdmin,
		})
	}

	templates.Render(w, r, "vault_list", vm)
}

// ServeShow shows one resource. Admin-only documents are hidden from
// members the same way missing ones are.
// GET /vault/{id}
func (h *Handler) ServeShow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, err := h.loadResource(ctx, r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	vm := showVM{
		BaseVM:      viewdata.NewBaseVM(r, res.Title, "/vault"),
		ID:          res.ID.Hex(),
		Description: res.Description,
		Category:    res.Category,
		Type:        res.Type,
		URL:         res.URL,
		Body:        template.HTML(res.Body), // sanitized at write time
		AdminOnly:   res.Visibility == models.VisibilityAdmin,
		CanManage:   isUnionAdmin(r),
	}
	templates.Render(w, r, "vault_show", vm)
}

// ServeNew shows the add form. Union admins only.
// GET /vault/new
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	if !h.requireUnionAdmin(w, r) {
		return
	}
	vm := formVM{
		BaseVM: viewdata.NewBaseVM(r, "Add document", "/vault"),
		Type:   models.ResourceLink,
		Types:  resourceTypes,
	}
	templates.Render(w, r, "vault_form", vm)
}

// HandleCreate adds a document to the vault. Union admins only.
// POST /vault
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	sel, _ := unionctx.Active(r)
	if !h.requireUnionAdmin(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse vault form failed", err, "Invalid form data.", "/vault")
		return
	}

	res, formErr := h.resourceFromForm(r)
	if formErr != "" {
		vm := formVM{
			BaseVM:      viewdata.NewBaseVM(r, "Add document", "/vault"),
			Error:       formErr,
			FormTitle:   res.Title,
			Description: res.Description,
			Category:    res.Category,
			Type:        res.Type,
			URL:         res.URL,
			Body:        res.Body,
			AdminOnly:   res.Visibility == models.VisibilityAdmin,
			Types:       resourceTypes,
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		templates.Render(w, r, "vault_form", vm)
		return
	}

	_, _, userID, _ := authz.UserCtx(r)
	res.UnionCode = sel.Union.Code
	res.CreatedByID = userID

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created, err := h.Store.Create(ctx, res)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create vault resource failed", err, "Could not save the document.", "/vault")
		return
	}

	h.Log.Info("vault resource added",
		zap.String("union", sel.Union.Code),
		zap.String("resource", created.ID.Hex()),
		zap.String("type", created.Type))

	http.Redirect(w, r, "/vault/"+created.ID.Hex(), http.StatusSeeOther)
}

// ServeEdit shows the edit form. Union admins only.
// GET /vault/{id}/edit
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	if !h.requireUnionAdmin(w, r) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, err := h.loadResource(ctx, r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	vm := formVM{
		BaseVM:      viewdata.NewBaseVM(r, "Edit document", "/vault"),
		ID:          res.ID.Hex(),
		FormTitle:   res.Title,
		Description: res.Description,
		Category:    res.Category,
		Type:        res.Type,
		URL:         res.URL,
		Body:        res.Body,
		AdminOnly:   res.Visibility == models.VisibilityAdmin,
		Types:       resourceTypes,
	}
	templates.Render(w, r, "vault_form", vm)
}

// HandleUpdate saves edits. Union admins only.
// POST /vault/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if !h.requireUnionAdmin(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse vault form failed", err, "Invalid form data.", "/vault")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, err := h.loadResource(ctx, r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	upd, formErr := h.resourceFromForm(r)
	if formErr != "" {
		h.ErrLog.LogBadRequest(w, r, "invalid vault form", errors.New(formErr), formErr, "/vault/"+res.ID.Hex()+"/edit")
		return
	}

	if err := h.Store.Update(ctx, res.ID, upd); err != nil {
		h.ErrLog.LogServerError(w, r, "update vault resource failed", err, "Could not save the document.", "/vault")
		return
	}

	http.Redirect(w, r, "/vault/"+res.ID.Hex(), http.StatusSeeOther)
}

// HandleDelete removes a document. Union admins only.
// POST /vault/{id}/delete
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if !h.requireUnionAdmin(w, r) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, err := h.loadResource(ctx, r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	if _, err := h.Store.Delete(ctx, res.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "delete vault resource failed", err, "Could not delete the document.", "/vault")
		return
	}

	http.Redirect(w, r, "/vault", http.StatusSeeOther)
}

// resourceFromForm builds a resource from posted fields. The returned
// string is a user-facing validation error, empty on success.
func (h *Handler) resourceFromForm(r *http.Request) (models.Resource, string) {
	res := models.Resource{
		Title:       strings.TrimSpace(r.PostFormValue("title")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
		Category:    strings.TrimSpace(r.PostFormValue("category")),
		Type:        strings.TrimSpace(r.PostFormValue("type")),
		URL:         strings.TrimSpace(r.PostFormValue("url")),
		Body:        h.sanitizer.Sanitize(strings.TrimSpace(r.PostFormValue("body"))),
		Visibility:  models.VisibilityPublic,
	}
	if r.PostFormValue("admin_only") != "" {
		res.Visibility = models.VisibilityAdmin
	}

	if res.Title == "" {
		return res, "Title is required."
	}
	switch res.Type {
	case models.ResourceLink, models.ResourceFile:
		if res.URL == "" {
			return res, "A URL is required for link and file documents."
		}
		if u, err := url.Parse(res.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return res, "The URL must start with http:// or https://."
		}
	case models.ResourceText:
		if res.Body == "" {
			return res, "Text documents need a body."
		}
	default:
		return res, "Unknown document type."
	}
	return res, ""
}

// loadResource fetches by URL param, scoped to the active union.
// Admin-only documents resolve to ErrNotFound for non-admin members.
func (h *Handler) loadResource(ctx context.Context, r *http.Request) (models.Resource, error) {
	sel, ok := unionctx.Active(r)
	if !ok || sel.None {
		return models.Resource{}, resourcestore.ErrNotFound
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return models.Resource{}, resourcestore.ErrNotFound
	}
	res, err := h.Store.GetByID(ctx, id)
	if err != nil {
		return models.Resource{}, err
	}
	if res.UnionCode != sel.Union.Code {
		return models.Resource{}, resourcestore.ErrNotFound
	}
	if res.Visibility == models.VisibilityAdmin && !isUnionAdmin(r) {
		return models.Resource{}, resourcestore.ErrNotFound
	}
	return res, nil
}

func (h *Handler) requireUnionAdmin(w http.ResponseWriter, r *http.Request) bool {
	if !isUnionAdmin(r) {
		uierrors.RenderForbidden(w, r, "Only union admins can manage the vault.", "/vault")
		return false
	}
	return true
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, resourcestore.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	h.ErrLog.LogServerError(w, r, "load vault resource failed", err, "A database error occurred.", "/vault")
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
