// internal/app/features/profile/handler.go
package profile

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	uierrors "github.com/unionhubhq/unionhub/internal/app/features/errors"
	tokenstore "github.com/unionhubhq/unionhub/internal/app/store/devicetokens"
	userstore "github.com/unionhubhq/unionhub/internal/app/store/users"
	"github.com/unionhubhq/unionhub/internal/app/system/auth"
)

// Handler owns the profile and device-registration handlers.
type Handler struct {
	DB         *mongo.Database
	Users      *userstore.Store
	Tokens     *tokenstore.Store
	SessionMgr *auth.SessionManager
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
}

// NewHandler constructs a profile Handler.
func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Users:      userstore.New(db),
		Tokens:     tokenstore.New(db),
		SessionMgr: sessionMgr,
		Log:        logger,
		ErrLog:     errLog,
	}
}
