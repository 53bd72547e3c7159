// internal/app/features/login/handler.go
package login

import (
	"encoding/hex"

	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	uierrors "github.com/unionhubhq/unionhub/internal/app/features/errors"
	"github.com/unionhubhq/unionhub/internal/app/store/users"
	"github.com/unionhubhq/unionhub/internal/app/system/auditlog"
	"github.com/unionhubhq/unionhub/internal/app/system/auth"
	"github.com/unionhubhq/unionhub/internal/app/system/ratelimit"
	"github.com/unionhubhq/unionhub/internal/app/system/viewdata"
)

// Handler owns the sign-in, sign-up, and password reset handlers.
type Handler struct {
	DB            *mongo.Database
	Users         *users.Store
	Log           *zap.Logger
	SessionMgr    *auth.SessionManager
	ErrLog        *uierrors.ErrorLogger
	Audit         *auditlog.Logger        // nil disables auditing
	Limits        *ratelimit.LoginLimiter // throttles credential attempts
	BaseURL       string                  // used to build reset links
	GoogleEnabled bool                    // true if Google OAuth is configured
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, baseURL string, googleEnabled bool, logger *zap.Logger) *Handler {
	return &Handler{
		DB:            db,
		Users:         users.New(db),
		Log:           logger,
		SessionMgr:    sessionMgr,
		ErrLog:        errLog,
		Audit:         audit,
		Limits:        ratelimit.NewLoginLimiter(),
		BaseURL:       baseURL,
		GoogleEnabled: googleEnabled,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type loginFormData struct {
	viewdata.BaseVM
	Error         string
	Email         string
	ReturnURL     string
	GoogleEnabled bool
}

type registerFormData struct {
	viewdata.BaseVM
	Error       string
	Email       string
	DisplayName string
}

type resetRequestData struct {
	viewdata.BaseVM
	Error string
	Sent  bool
}

type resetFormData struct {
	viewdata.BaseVM
	Error string
	Token string
}

// newResetToken returns a URL-safe random token for password reset links.
func newResetToken() string {
	return hex.EncodeToString(securecookie.GenerateRandomKey(32))
}
