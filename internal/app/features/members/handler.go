// internal/app/features/members/handler.go
package members

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	uierrors "github.com/unionhubhq/unionhub/internal/app/features/errors"
	userstore "github.com/unionhubhq/unionhub/internal/app/store/users"
	"github.com/unionhubhq/unionhub/internal/app/system/auditlog"
)

// Handler owns the application-admin user management handlers. This is
// the cross-union surface: role, tier, ban, and member-number
// verification live here, not in any single union.
type Handler struct {
	DB     *mongo.Database
	Users  *userstore.Store
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
	Audit  *auditlog.Logger // nil disables auditing
}

// NewHandler constructs a members Handler.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Users:  userstore.New(db),
		Log:    logger,
		ErrLog: errLog,
		Audit:  audit,
	}
}
