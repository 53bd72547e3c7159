package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/unionhubhq/unionhub/internal/app/store/audit"
	"github.com/unionhubhq/unionhub/internal/app/system/auditlog"
	"github.com/unionhubhq/unionhub/internal/testutil"
)

func TestNilLoggerIsNoop(t *testing.T) {
	var logger *auditlog.Logger

	req := httptest.NewRequest("POST", "/login", nil)
	// Must not panic.
	logger.LoginFailed(req.Context(), req, "a@example.com", "wrong password")
	logger.MemberBanned(req.Context(), req, primitive.NewObjectID(), primitive.NewObjectID(), true)
}

func TestLogWritesToStore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "all", Admin: "all"})
	ctx := testutil.TestContext(t)

	req := httptest.NewRequest("POST", "/members/abc", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.4")
	actor := primitive.NewObjectID()
	target := primitive.NewObjectID()

	logger.MemberUpdated(ctx, req, actor, target, "tier,member_number")

	events, err := store.Recent(ctx, audit.EventMemberUpdated, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.Category != audit.CategoryAdmin {
		t.Errorf("category = %q, want admin", ev.Category)
	}
	if ev.ActorID == nil || *ev.ActorID != actor {
		t.Errorf("actor = %v, want %s", ev.ActorID, actor.Hex())
	}
	if ev.UserID == nil || *ev.UserID != target {
		t.Errorf("user = %v, want %s", ev.UserID, target.Hex())
	}
	if ev.IP != "203.0.113.4" {
		t.Errorf("ip = %q, want forwarded address", ev.IP)
	}
	if ev.Details["fields_changed"] != "tier,member_number" {
		t.Errorf("details = %v", ev.Details)
	}
	if ev.Timestamp.IsZero() {
		t.Error("timestamp should be set by the store")
	}
}

func TestCategoryOffSkipsStore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "off", Admin: "all"})
	ctx := testutil.TestContext(t)

	req := httptest.NewRequest("POST", "/login", nil)
	logger.LoginFailed(ctx, req, "a@example.com", "wrong password")

	events, err := store.Recent(ctx, "", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events, want none with auth logging off", len(events))
	}
}

func TestBanEventTypeFollowsDirection(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Admin: "db"})
	ctx := testutil.TestContext(t)

	req := httptest.NewRequest("POST", "/members/abc", nil)
	actor := primitive.NewObjectID()
	target := primitive.NewObjectID()

	logger.MemberBanned(ctx, req, actor, target, true)
	logger.MemberBanned(ctx, req, actor, target, false)

	banned, err := store.Recent(ctx, audit.EventMemberBanned, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	unbanned, err := store.Recent(ctx, audit.EventMemberUnbanned, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(banned) != 1 || len(unbanned) != 1 {
		t.Errorf("banned = %d, unbanned = %d, want 1 and 1", len(banned), len(unbanned))
	}
}
