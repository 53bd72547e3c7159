// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unionhubhq/unionhub/internal/app/chat"
	announcementsfeature "github.com/unionhubhq/unionhub/internal/app/features/announcements"
	authgooglefeature "github.com/unionhubhq/unionhub/internal/app/features/authgoogle"
	dashboardfeature "github.com/unionhubhq/unionhub/internal/app/features/dashboard"
	errorsfeature "github.com/unionhubhq/unionhub/internal/app/features/errors"
	groupsfeature "github.com/unionhubhq/unionhub/internal/app/features/groups"
	healthfeature "github.com/unionhubhq/unionhub/internal/app/features/health"
	homefeature "github.com/unionhubhq/unionhub/internal/app/features/home"
	loginfeature "github.com/unionhubhq/unionhub/internal/app/features/login"
	logoutfeature "github.com/unionhubhq/unionhub/internal/app/features/logout"
	membersfeature "github.com/unionhubhq/unionhub/internal/app/features/members"
	onboardingfeature "github.com/unionhubhq/unionhub/internal/app/features/onboarding"
	profilefeature "github.com/unionhubhq/unionhub/internal/app/features/profile"
	reportsfeature "github.com/unionhubhq/unionhub/internal/app/features/reports"
	unionsfeature "github.com/unionhubhq/unionhub/internal/app/features/unions"
	vaultfeature "github.com/unionhubhq/unionhub/internal/app/features/vault"
	"github.com/unionhubhq/unionhub/internal/app/push"
	auditstore "github.com/unionhubhq/unionhub/internal/app/store/audit"
	tokenstore "github.com/unionhubhq/unionhub/internal/app/store/devicetokens"
	unionstore "github.com/unionhubhq/unionhub/internal/app/store/unions"
	"github.com/unionhubhq/unionhub/internal/app/system/auditlog"
	"github.com/unionhubhq/unionhub/internal/app/system/auth"
	"github.com/unionhubhq/unionhub/internal/app/system/unionctx"
	"github.com/unionhubhq/unionhub/internal/domain/models"
)

// discardSender satisfies push.Sender when no gateway is configured.
// Notifications are dropped; chat and announcements still work.
type discardSender struct{}

func (discardSender) Multicast(ctx context.Context, tokens []string, n push.Notification) error {
	return nil
}

// BuildHandler constructs the root HTTP handler (router) for this
// WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and any Startup hooks have completed. It creates the session manager,
// boots the template engine, starts the chat hub, and mounts every
// feature router with the right middleware stack:
//
//   - LoadSessionUser and Guard run on everything.
//   - /onboarding needs a signed-in user but no union yet.
//   - The union-scoped areas (dashboard, groups, unions, announcements,
//     vault, reports, profile) additionally resolve the active union.
//   - /members is application-admin only.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	errLog := errorsfeature.NewErrorLogger(logger)

	unions := unionstore.New(db)
	resolver := unionctx.New(unions, logger)

	// Audit trail for sign-in attempts and admin mutations. Sinks are
	// configured per category; "off" turns a category into a no-op.
	audit := auditlog.New(auditstore.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditAuth,
		Admin: appCfg.AuditAdmin,
	})

	// Chat hub: local fan-out plus the Redis bridge when configured.
	hub := chat.NewHub(deps.RedisClient, logger)
	go hub.Run(context.Background())

	// Push fan-out. Without a gateway the service still runs so send
	// paths stay uniform; deliveries are just discarded.
	var sender push.Sender = discardSender{}
	if appCfg.PushGatewayURL != "" {
		sender = push.NewHTTPSender(appCfg.PushGatewayURL, appCfg.PushServerKey)
	} else {
		logger.Info("push gateway not configured, notifications disabled")
	}
	pushSvc := push.NewService(unions, tokenstore.New(db), sender, logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context, then the
	// guard bounces anonymous visitors off protected areas.
	r.Use(sessionMgr.LoadSessionUser)
	r.Use(sessionMgr.Guard)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Public pages
	homeHandler := homefeature.NewHandler(logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	// Authentication
	googleEnabled := appCfg.GoogleClientID != ""
	loginHandler := loginfeature.NewHandler(db, sessionMgr, errLog, audit, appCfg.BaseURL, googleEnabled, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))
	r.Mount("/register", loginfeature.RegisterRoutes(loginHandler))

	if googleEnabled {
		googleHandler := authgooglefeature.NewHandler(db, sessionMgr, errLog,
			appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
		r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))
	}

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// Signed in, but not necessarily in a union yet.
	r.Group(func(r chi.Router) {
		r.Use(sessionMgr.RequireSignedIn)

		onboardingHandler := onboardingfeature.NewHandler(db, sessionMgr, errLog, logger)
		r.Mount("/onboarding", onboardingfeature.Routes(onboardingHandler))
	})

	// Union-scoped areas: signed in with an active union resolved.
	r.Group(func(r chi.Router) {
		r.Use(sessionMgr.RequireSignedIn)
		r.Use(unionctx.RequireUnion(resolver, sessionMgr))

		dashboardHandler := dashboardfeature.NewHandler(db, errLog, logger)
		r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler))

		unionsHandler := unionsfeature.NewHandler(db, resolver, sessionMgr, errLog, audit, logger)
		r.Mount("/unions", unionsfeature.Routes(unionsHandler))

		groupsHandler := groupsfeature.NewHandler(db, hub, pushSvc, errLog, audit, logger)
		r.Mount("/groups", groupsfeature.Routes(groupsHandler))

		announcementsHandler := announcementsfeature.NewHandler(db, pushSvc, errLog, logger)
		r.Mount("/announcements", announcementsfeature.Routes(announcementsHandler))

		vaultHandler := vaultfeature.NewHandler(db, errLog, logger)
		r.Mount("/vault", vaultfeature.Routes(vaultHandler))

		reportsHandler := reportsfeature.NewHandler(db, errLog, logger)
		r.Mount("/reports", reportsfeature.Routes(reportsHandler))

		profileHandler := profilefeature.NewHandler(db, sessionMgr, errLog, logger)
		r.Mount("/profile", profilefeature.Routes(profileHandler))
	})

	// Application administration.
	r.Group(func(r chi.Router) {
		r.Use(sessionMgr.RequireSignedIn)
		r.Use(sessionMgr.RequireRole(models.RoleAdmin))

		membersHandler := membersfeature.NewHandler(db, errLog, audit, logger)
		r.Mount("/members", membersfeature.Routes(membersHandler))
	})

	return r, nil
}
