// internal/app/features/groups/chat.go
package groups

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/unionhubhq/unionhub/internal/app/chat"
	"github.com/unionhubhq/unionhub/internal/app/system/timeouts"
	"github.com/unionhubhq/unionhub/internal/app/system/unionctx"
	"github.com/unionhubhq/unionhub/internal/app/system/viewdata"
	"github.com/unionhubhq/unionhub/internal/domain/models"
)

const (
	defaultHistory = 50
	maxHistory     = 200
)

type chatVM struct {
	viewdata.BaseVM
	GroupID   string
	GroupName string
	GroupType string
	CanPost   bool
	CanManage bool
}

// ServeGroup shows the chat page for a group.
// GET /groups/{id}
func (h *Handler) ServeGroup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	group, err := h.loadGroup(ctx, r, chi.URLParam(r, "id"))
	if err != nil {
		h.renderGroupError(w, r, err)
		return
	}

	sel, _ := unionctx.Active(r)
	userID, _ := currentUserID(r)

	vm := chatVM{
		BaseVM:    viewdata.NewBaseVM(r, group.Name, "/groups"),
		GroupID:   group.ID.Hex(),
		GroupName: group.Name,
		GroupType: group.Type,
		CanPost:   canPost(r, group),
		CanManage: sel.Union.RoleOf(userID) == models.UnionRoleAdmin,
	}
	templates.Render(w, r, "group_chat", vm)
}

// ServeMessages returns a group's message history as JSON, oldest
// first, for the chat page's initial load.
// GET /groups/{id}/messages?limit=50
func (h *Handler) ServeMessages(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	group, err := h.loadGroup(ctx, r, chi.URLParam(r, "id"))
	if err != nil {
		h.apiGroupError(w, err)
		return
	}

	limit := int64(defaultHistory)
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.ParseInt(l, 10, 64)
		if err != nil || n < 1 {
			http.Error(w, `{"error":"invalid limit"}`, http.StatusBadRequest)
			return
		}
		if n > maxHistory {
			n = maxHistory
		}
		limit = n
	}

	history, err := h.Messages.ListByGroup(ctx, group.ID, limit)
	if err != nil {
		h.Log.Error("list messages failed", zap.Error(err), zap.String("group", group.ID.Hex()))
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	entries := chat.NewView(history).Entries()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"messages": entries})
}

// HandleDeleteMessage removes a message. Union admin moderation only.
// POST /groups/{id}/messages/{mid}/delete
func (h *Handler) HandleDeleteMessage(w http.ResponseWriter, r *http.Request) {
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

	msgID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "mid"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad message id", err, "Bad request.", "/groups")
		return
	}

	// The message must belong to the group being moderated.
	msg, err := h.Messages.GetByID(ctx, msgID)
	if err != nil || msg.GroupID != group.ID {
		http.NotFound(w, r)
		return
	}

	if _, err := h.Messages.Delete(ctx, msgID); err != nil {
		h.ErrLog.LogServerError(w, r, "delete message failed", err, "Could not delete the message.", "/groups")
		return
	}

	userID, _ := currentUserID(r)
	h.Audit.MessageDeleted(ctx, r, userID, group.UnionCode, group.ID.Hex(), msgID.Hex())
	h.Log.Info("message deleted by moderator",
		zap.String("group", group.ID.Hex()),
		zap.String("message", msgID.Hex()),
		zap.String("by", userID.Hex()))

	http.Redirect(w, r, "/groups/"+group.ID.Hex(), http.StatusSeeOther)
}

func (h *Handler) apiGroupError(w http.ResponseWriter, err error) {
	switch {
	case err == errNoAccess:
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
	default:
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}
}
