// internal/app/store/audit/auditstore.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories.
const (
	CategoryAuth  = "auth"
	CategoryAdmin = "admin"
)

// Auth event types.
const (
	EventLoginSuccess     = "login_success"
	EventLoginFailed      = "login_failed"
	EventLoginRateLimited = "login_rate_limited"
	EventPasswordReset    = "password_reset"
)

// Admin event types.
const (
	EventMemberUpdated    = "member_updated"
	EventMemberBanned     = "member_banned"
	EventMemberUnbanned   = "member_unbanned"
	EventUnionRoleChanged = "union_role_changed"
	EventMessageDeleted   = "message_deleted"
)

// Event is one audit record: who did what to whom, from where, and
// whether it succeeded.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp time.Time          `bson:"timestamp"`
	UnionCode string             `bson:"union_code,omitempty"`

	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	// UserID is the affected user; ActorID is who performed the
	// action when the two differ (admin events).
	UserID  *primitive.ObjectID `bson:"user_id,omitempty"`
	ActorID *primitive.ObjectID `bson:"actor_id,omitempty"`

	IP        string `bson:"ip"`
	UserAgent string `bson:"user_agent,omitempty"`

	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty"`
}

// Store persists audit events.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log appends one event. The timestamp is set here so callers can't
// backdate records.
func (s *Store) Log(ctx context.Context, event Event) error {
	event.ID = primitive.NewObjectID()
	event.Timestamp = time.Now().UTC()
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Recent returns the newest events, optionally filtered by event type.
func (s *Store) Recent(ctx context.Context, eventType string, limit int64) ([]Event, error) {
	filter := bson.M{}
	if eventType != "" {
		filter["event_type"] = eventType
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
