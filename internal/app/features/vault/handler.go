// internal/app/features/vault/handler.go
package vault

import (
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	uierrors "github.com/unionhubhq/unionhub/internal/app/features/errors"
	resourcestore "github.com/unionhubhq/unionhub/internal/app/store/vault"
)

// Handler owns all document-vault handlers.
type Handler struct {
	DB     *mongo.Database
	Store  *resourcestore.Store
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger

	sanitizer *bluemonday.Policy
}

// NewHandler constructs a vault Handler.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:        db,
		Store:     resourcestore.New(db),
		Log:       logger,
		ErrLog:    errLog,
		sanitizer: bluemonday.UGCPolicy(),
	}
}
