package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/unionhubhq/unionhub/internal/domain/models"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
// Repeated calls accumulate parameters on the same route context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		rctx.URLParams.Add(key, value)
		return r
	}
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with the given role.
func (f *Fixtures) CreateUser(ctx context.Context, displayName, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:            primitive.NewObjectID(),
		Email:         email,
		EmailCI:       text.Fold(email),
		DisplayName:   displayName,
		DisplayNameCI: text.Fold(displayName),
		AuthMethod:    "password",
		Role:          role,
		Tier:          models.TierStandard,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateUserWithPassword creates a member user that can complete the
// password sign-in flow.
func (f *Fixtures) CreateUserWithPassword(ctx context.Context, displayName, email, password string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to hash test password: %v", err)
	}

	user := f.CreateUser(ctx, displayName, email, models.RoleMember)
	_, err = f.db.Collection("users").UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"password_hash": string(hash)}})
	if err != nil {
		f.t.Fatalf("failed to set test password: %v", err)
	}
	user.PasswordHash = string(hash)
	return user
}

// CreateAdmin creates a test user with the admin role.
func (f *Fixtures) CreateAdmin(ctx context.Context, displayName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, displayName, email, models.RoleAdmin)
}

// CreateMember creates a test user with the member role.
func (f *Fixtures) CreateMember(ctx context.Context, displayName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, displayName, email, models.RoleMember)
}

// CreateUnion creates a test union with the given code and members.
// The first member is recorded as the creator and union admin.
func (f *Fixtures) CreateUnion(ctx context.Context, code, name string, memberIDs ...primitive.ObjectID) models.Union {
	f.t.Helper()

	now := time.Now().UTC()
	union := models.Union{
		Code:      code,
		Name:      name,
		NameCI:    text.Fold(name),
		MemberIDs: memberIDs,
		Roles:     map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if len(memberIDs) > 0 {
		union.CreatedBy = memberIDs[0]
		union.Roles[memberIDs[0].Hex()] = models.UnionRoleAdmin
		for _, id := range memberIDs[1:] {
			union.Roles[id.Hex()] = models.UnionRoleMember
		}
	}

	_, err := f.db.Collection("unions").InsertOne(ctx, union)
	if err != nil {
		f.t.Fatalf("failed to create test union: %v", err)
	}

	return union
}

// CreateGroup creates a public test group in the given union.
func (f *Fixtures) CreateGroup(ctx context.Context, unionCode, name string) models.Group {
	f.t.Helper()
	return f.CreateGroupOfType(ctx, unionCode, name, models.GroupPublic)
}

// CreateGroupOfType creates a test group with an explicit type.
func (f *Fixtures) CreateGroupOfType(ctx context.Context, unionCode, name, groupType string) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	group := models.Group{
		ID:        primitive.NewObjectID(),
		UnionCode: unionCode,
		Name:      name,
		NameCI:    text.Fold(name),
		Type:      groupType,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := f.db.Collection("groups").InsertOne(ctx, group)
	if err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}

	return group
}

// CreateMessage inserts a confirmed message into the given group.
func (f *Fixtures) CreateMessage(ctx context.Context, group models.Group, sender models.User, content string) models.Message {
	f.t.Helper()

	msg := models.Message{
		ID:         primitive.NewObjectID(),
		GroupID:    group.ID,
		UnionCode:  group.UnionCode,
		SenderID:   sender.ID,
		SenderName: sender.DisplayName,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}

	_, err := f.db.Collection("messages").InsertOne(ctx, msg)
	if err != nil {
		f.t.Fatalf("failed to create test message: %v", err)
	}

	return msg
}

// CreateAnnouncement creates a test announcement.
func (f *Fixtures) CreateAnnouncement(ctx context.Context, unionCode, title, category string, author models.User) models.Announcement {
	f.t.Helper()

	now := time.Now().UTC()
	a := models.Announcement{
		ID:         primitive.NewObjectID(),
		UnionCode:  unionCode,
		Title:      title,
		Content:    "Test announcement body.",
		Category:   category,
		AuthorID:   author.ID,
		AuthorName: author.DisplayName,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := f.db.Collection("announcements").InsertOne(ctx, a)
	if err != nil {
		f.t.Fatalf("failed to create test announcement: %v", err)
	}

	return a
}

// CreateResource creates a test vault resource.
func (f *Fixtures) CreateResource(ctx context.Context, unionCode, title, visibility string, creator models.User) models.Resource {
	f.t.Helper()

	now := time.Now().UTC()
	res := models.Resource{
		ID:          primitive.NewObjectID(),
		UnionCode:   unionCode,
		Title:       title,
		TitleCI:     text.Fold(title),
		Type:        models.ResourceLink,
		URL:         "https://example.org/doc",
		Visibility:  visibility,
		CreatedByID: creator.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := f.db.Collection("resources").InsertOne(ctx, res)
	if err != nil {
		f.t.Fatalf("failed to create test resource: %v", err)
	}

	return res
}

// CreateDeviceToken registers a push token for the given user.
func (f *Fixtures) CreateDeviceToken(ctx context.Context, userID primitive.ObjectID, token string) models.DeviceToken {
	f.t.Helper()

	dt := models.DeviceToken{
		ID:           primitive.NewObjectID(),
		UserID:       userID,
		Token:        token,
		Platform:     "web",
		RegisteredAt: time.Now().UTC(),
	}

	_, err := f.db.Collection("device_tokens").InsertOne(ctx, dt)
	if err != nil {
		f.t.Fatalf("failed to create test device token: %v", err)
	}

	return dt
}
