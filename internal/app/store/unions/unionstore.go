// internal/app/store/unions/unionstore.go
package unions

import (
	"context"
	"errors"
	"fmt"
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
	ErrDuplicateCode = errors.New("a union with this invite code already exists")
	ErrNotFound      = errors.New("union not found")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("unions")}
}

// Create inserts a union keyed by its invite code. The creator is
// always placed in the member set with the admin role, so a union can
// never exist without at least one admin.
func (s *Store) Create(ctx context.Context, code, name string, creator primitive.ObjectID) (models.Union, error) {
	now := time.Now().UTC()
	union := models.Union{
		Code:      code,
		Name:      name,
		NameCI:    text.Fold(name),
		MemberIDs: []primitive.ObjectID{creator},
		Roles:     map[string]string{creator.Hex(): models.UnionRoleAdmin},
		CreatedBy: creator,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, union); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Union{}, ErrDuplicateCode
		}
		return models.Union{}, err
	}
	return union, nil
}

// GetByCode loads a union by its invite code.
func (s *Store) GetByCode(ctx context.Context, code string) (models.Union, error) {
	var union models.Union
	err := s.c.FindOne(ctx, bson.M{"_id": code}).Decode(&union)
	if err == mongo.ErrNoDocuments {
		return models.Union{}, ErrNotFound
	}
	if err != nil {
		return models.Union{}, err
	}
	return union, nil
}

// ListByMember returns every union whose member set contains userID,
// in creation order. The resolver relies on this order being stable:
// "first result" selection must not flap between requests.
func (s *Store) ListByMember(ctx context.Context, userID primitive.ObjectID) ([]models.Union, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"member_ids": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var unions []models.Union
	if err := cur.All(ctx, &unions); err != nil {
		return nil, err
	}
	return unions, nil
}

// Join adds userID to the member set with the member role. Both
// updates are atomic server-side operators, so concurrent joins cannot
// lose members ($addToSet also makes Join idempotent).
func (s *Store) Join(ctx context.Context, code string, userID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, code, bson.M{
		"$addToSet": bson.M{"member_ids": userID},
		"$set": bson.M{
			"roles." + userID.Hex(): models.UnionRoleMember,
			"updated_at":            time.Now().UTC(),
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Leave removes userID from the member set and drops its role entry.
func (s *Store) Leave(ctx context.Context, code string, userID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, code, bson.M{
		"$pull":  bson.M{"member_ids": userID},
		"$unset": bson.M{"roles." + userID.Hex(): ""},
		"$set":   bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRole changes a member's union role.
func (s *Store) SetRole(ctx context.Context, code string, userID primitive.ObjectID, role string) error {
	if role != models.UnionRoleMember && role != models.UnionRoleAdmin {
		return fmt.Errorf("invalid union role %q", role)
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": code, "member_ids": userID},
		bson.M{"$set": bson.M{
			"roles." + userID.Hex(): role,
			"updated_at":            time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MemberIDs returns the member set of a union. Used by the push
// fan-out so it only ever enumerates the relevant union, never the
// whole user table.
func (s *Store) MemberIDs(ctx context.Context, code string) ([]primitive.ObjectID, error) {
	var doc struct {
		MemberIDs []primitive.ObjectID `bson:"member_ids"`
	}
	opts := options.FindOne().SetProjection(bson.M{"member_ids": 1})
	err := s.c.FindOne(ctx, bson.M{"_id": code}, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.MemberIDs, nil
}

// Delete removes a union. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, code string) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": code})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
