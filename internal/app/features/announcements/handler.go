// internal/app/features/announcements/handler.go
package announcements

import (
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	uierrors "github.com/unionhubhq/unionhub/internal/app/features/errors"
	"github.com/unionhubhq/unionhub/internal/app/push"
	announcementstore "github.com/unionhubhq/unionhub/internal/app/store/announcements"
)

// Handler owns all Announcements handlers.
type Handler struct {
	DB     *mongo.Database
	Store  *announcementstore.Store
	Push   *push.Service
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger

	sanitizer *bluemonday.Policy
}

// NewHandler constructs an Announcements Handler.
func NewHandler(db *mongo.Database, pushSvc *push.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:        db,
		Store:     announcementstore.New(db),
		Push:      pushSvc,
		Log:       logger,
		ErrLog:    errLog,
		sanitizer: bluemonday.UGCPolicy(),
	}
}
