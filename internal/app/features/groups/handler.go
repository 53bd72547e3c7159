// internal/app/features/groups/handler.go
package groups

import (
	"context"
	"errors"
	"net/http"

	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/unionhubhq/unionhub/internal/app/chat"
	uierrors "github.com/unionhubhq/unionhub/internal/app/features/errors"
	"github.com/unionhubhq/unionhub/internal/app/push"
	groupstore "github.com/unionhubhq/unionhub/internal/app/store/groups"
	messagestore "github.com/unionhubhq/unionhub/internal/app/store/messages"
	"github.com/unionhubhq/unionhub/internal/app/system/auditlog"
	"github.com/unionhubhq/unionhub/internal/app/system/unionctx"
	"github.com/unionhubhq/unionhub/internal/domain/models"
)

// Handler owns the group pages, the message APIs, and the websocket
// chat endpoint.
type Handler struct {
	DB       *mongo.Database
	Groups   *groupstore.Store
	Messages *messagestore.Store
	Hub      *chat.Hub
	Push     *push.Service
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	Audit    *auditlog.Logger // nil disables auditing

	sanitizer *bluemonday.Policy
}

func NewHandler(db *mongo.Database, hub *chat.Hub, pushSvc *push.Service, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:        db,
		Groups:    groupstore.New(db),
		Messages:  messagestore.New(db),
		Hub:       hub,
		Push:      pushSvc,
		Log:       logger,
		ErrLog:    errLog,
		Audit:     audit,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

var errNoAccess = errors.New("groups: no access")

// loadGroup fetches a group by URL param and verifies it belongs to
// the active union and that the user can see it. Private groups are
// visible to their own members and to union admins.
func (h *Handler) loadGroup(ctx context.Context, r *http.Request, idParam string) (models.Group, error) {
	sel, ok := unionctx.Active(r)
	if !ok || sel.None {
		return models.Group{}, errNoAccess
	}

	groupID, err := primitive.ObjectIDFromHex(idParam)
	if err != nil {
		return models.Group{}, groupstore.ErrNotFound
	}
	group, err := h.Groups.GetByID(ctx, groupID)
	if err != nil {
		return models.Group{}, err
	}
	if group.UnionCode != sel.Union.Code {
		// Group IDs from other unions should not leak existence.
		return models.Group{}, groupstore.ErrNotFound
	}

	if group.Type == models.GroupPrivate {
		userID, ok := currentUserID(r)
		if !ok {
			return models.Group{}, errNoAccess
		}
		if !groupHasMember(group, userID) && sel.Union.RoleOf(userID) != models.UnionRoleAdmin {
			return models.Group{}, errNoAccess
		}
	}

	return group, nil
}

// canPost reports whether the user may send messages to the group.
// Announcement groups are read-only for non-admins.
func canPost(r *http.Request, group models.Group) bool {
	sel, ok := unionctx.Active(r)
	if !ok || sel.None {
		return false
	}
	if group.Type != models.GroupAnnouncement {
		return true
	}
	userID, ok := currentUserID(r)
	if !ok {
		return false
	}
	return sel.Union.RoleOf(userID) == models.UnionRoleAdmin
}

func groupHasMember(g models.Group, userID primitive.ObjectID) bool {
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
