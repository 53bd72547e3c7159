// internal/app/system/auditlog/auditlog.go
package auditlog

import (
	"context"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/unionhubhq/unionhub/internal/app/store/audit"
	"github.com/unionhubhq/unionhub/internal/app/system/ratelimit"
)

// Config selects the destination per category: "all" (Mongo + zap),
// "db", "log", or "off".
type Config struct {
	Auth  string
	Admin string
}

// Logger records audit events to the audit store and to zap. A nil
// *Logger is a valid no-op, so handlers never have to nil-check and
// tests can leave auditing out.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

// Log routes one event per the category's configured destination.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := "all"
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	}
	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" || setting == "" {
		l.logToZap(event)
	}
	if setting == "all" || setting == "db" || setting == "" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("store audit event failed",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UnionCode != "" {
		fields = append(fields, zap.String("union", event.UnionCode))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// --- Authentication events ---

// LoginSuccess records a completed password or OAuth sign-in.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, method string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details:   map[string]string{"method": method},
	})
}

// LoginFailed records a rejected credential attempt. The attempted
// email goes into details; the reason never reaches the user.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, email, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailed,
		IP:            ratelimit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: reason,
		Details:       map[string]string{"email": strings.ToLower(email)},
	})
}

// LoginRateLimited records an attempt blocked by the login throttle.
func (l *Logger) LoginRateLimited(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginRateLimited,
		IP:            ratelimit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "rate limit exceeded",
		Details:       map[string]string{"email": strings.ToLower(email)},
	})
}

// PasswordReset records a completed password reset.
func (l *Logger) PasswordReset(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventPasswordReset,
		UserID:    &userID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// --- Admin events ---

// MemberUpdated records an admin edit to a user record. fieldsChanged
// names the fields, comma-separated.
func (l *Logger) MemberUpdated(ctx context.Context, r *http.Request, actorID, targetID primitive.ObjectID, fieldsChanged string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventMemberUpdated,
		UserID:    &targetID,
		ActorID:   &actorID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details:   map[string]string{"fields_changed": fieldsChanged},
	})
}

// MemberBanned records an admin banning or unbanning a user.
func (l *Logger) MemberBanned(ctx context.Context, r *http.Request, actorID, targetID primitive.ObjectID, banned bool) {
	eventType := audit.EventMemberBanned
	if !banned {
		eventType = audit.EventMemberUnbanned
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		UserID:    &targetID,
		ActorID:   &actorID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// UnionRoleChanged records a union admin granting or revoking the
// union admin role.
func (l *Logger) UnionRoleChanged(ctx context.Context, r *http.Request, actorID, targetID primitive.ObjectID, unionCode, role string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventUnionRoleChanged,
		UserID:    &targetID,
		ActorID:   &actorID,
		UnionCode: unionCode,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details:   map[string]string{"role": role},
	})
}

// MessageDeleted records a moderation delete in a chat group.
func (l *Logger) MessageDeleted(ctx context.Context, r *http.Request, actorID primitive.ObjectID, unionCode, groupID, messageID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventMessageDeleted,
		ActorID:   &actorID,
		UnionCode: unionCode,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"group_id":   groupID,
			"message_id": messageID,
		},
	})
}
