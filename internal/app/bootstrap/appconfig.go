// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration: HTTP ports, TLS,
// logging, and CORS live in WAFFLE's CoreConfig.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Redis configuration for cross-instance chat delivery. Blank
	// disables the bridge and chat stays instance-local.
	RedisURL string

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions
	SessionDomain string // Cookie domain (blank means current host)

	// Base URL for links in outbound messages (password reset, OAuth callback)
	BaseURL string

	// Push gateway configuration. Blank gateway URL disables fan-out.
	PushGatewayURL string // HTTP endpoint that multicasts to device tokens
	PushServerKey  string // Server credential for the gateway

	// Google OAuth configuration. Blank client ID disables the button.
	GoogleClientID     string
	GoogleClientSecret string

	// Audit trail sinks, per category: all, db, log, or off.
	AuditAuth  string
	AuditAdmin string
}
