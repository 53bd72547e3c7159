// internal/app/store/users/userstore.go
package users

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/unionhubhq/unionhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateEmail = errors.New("an account with this email already exists")
	ErrNotFound       = errors.New("user not found")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// Create inserts a new user profile. Role and tier default to
// member/standard when unset. The email check here catches the common
// duplicate case; the unique email_ci index catches the race.
func (s *Store) Create(ctx context.Context, user models.User) (models.User, error) {
	now := time.Now().UTC()
	user.ID = primitive.NewObjectID()
	user.EmailCI = text.Fold(user.Email)
	user.DisplayNameCI = text.Fold(user.DisplayName)

	if err := s.c.FindOne(ctx, bson.M{"email_ci": user.EmailCI}).Err(); err == nil {
		return models.User{}, ErrDuplicateEmail
	} else if err != mongo.ErrNoDocuments {
		return models.User{}, err
	}
	if user.Role == "" {
		user.Role = models.RoleMember
	}
	if user.Tier == "" {
		user.Tier = models.TierStandard
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, user); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return user, nil
}

// GetByID loads one user.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var user models.User
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// GetByEmailCI looks a user up by case/diacritic-insensitive email.
func (s *Store) GetByEmailCI(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := s.c.FindOne(ctx, bson.M{"email_ci": text.Fold(email)}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// GetByIDs loads multiple users by ObjectID.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateProfile changes the fields a user may edit about themselves.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, displayName string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"display_name":    displayName,
		"display_name_ci": text.Fold(displayName),
		"updated_at":      time.Now().UTC(),
	}})
	return err
}

// AdminUpdate mutates the admin-owned fields: role, tier, ban flag,
// and the verified member number. Nil pointers leave a field untouched.
type AdminUpdate struct {
	Role         *string
	Tier         *string
	Banned       *bool
	MemberNumber *int
}

// ApplyAdminUpdate applies an AdminUpdate and refreshes UpdatedAt.
func (s *Store) ApplyAdminUpdate(ctx context.Context, id primitive.ObjectID, upd AdminUpdate) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Role != nil {
		set["role"] = *upd.Role
	}
	if upd.Tier != nil {
		set["tier"] = *upd.Tier
	}
	if upd.Banned != nil {
		set["banned"] = *upd.Banned
	}
	if upd.MemberNumber != nil {
		set["member_number"] = *upd.MemberNumber
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPasswordHash replaces the stored credential after a reset.
func (s *Store) SetPasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"password_hash": hash,
		"updated_at":    time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Find returns users matching the given filter with optional find options.
// The caller builds the filter and options (pagination, sorting).
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.User, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Delete removes a user account. Admin action only; normal lifecycle
// never hard-deletes.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
