// internal/app/features/reports/handler.go
package reports

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	uierrors "github.com/unionhubhq/unionhub/internal/app/features/errors"
	reportstore "github.com/unionhubhq/unionhub/internal/app/store/reports"
	userstore "github.com/unionhubhq/unionhub/internal/app/store/users"
)

// Handler owns the report intake and review handlers.
type Handler struct {
	DB     *mongo.Database
	Store  *reportstore.Store
	Users  *userstore.Store
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

// NewHandler constructs a reports Handler.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Store:  reportstore.New(db),
		Users:  userstore.New(db),
		Log:    logger,
		ErrLog: errLog,
	}
}
