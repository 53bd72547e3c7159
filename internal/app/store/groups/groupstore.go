// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"time"

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
	ErrNotFound = errors.New("group not found")
	errBadType  = errors.New(`group type must be "public", "private", or "announcement"`)
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

// Create inserts a chat group for a union.
func (s *Store) Create(ctx context.Context, unionCode, name, groupType string) (models.Group, error) {
	switch groupType {
	case models.GroupPublic, models.GroupPrivate, models.GroupAnnouncement:
	default:
		return models.Group{}, errBadType
	}

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
	if _, err := s.c.InsertOne(ctx, group); err != nil {
		return models.Group{}, err
	}
	return group, nil
}

// GetByID loads one group.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	var group models.Group
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&group)
	if err == mongo.ErrNoDocuments {
		return models.Group{}, ErrNotFound
	}
	if err != nil {
		return models.Group{}, err
	}
	return group, nil
}

// ListByUnion returns all groups in a union, newest last.
func (s *Store) ListByUnion(ctx context.Context, unionCode string) ([]models.Group, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"union_code": unionCode}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var groups []models.Group
	if err := cur.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// AddMember adds a user to a private group's member set ($addToSet,
// so repeat adds are no-ops).
func (s *Store) AddMember(ctx context.Context, groupID, userID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, groupID, bson.M{
		"$addToSet": bson.M{"member_ids": userID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveMember pulls a user out of a private group's member set.
func (s *Store) RemoveMember(ctx context.Context, groupID, userID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, groupID, bson.M{
		"$pull": bson.M{"member_ids": userID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Rename updates the group name.
func (s *Store) Rename(ctx context.Context, groupID primitive.ObjectID, name string) error {
	res, err := s.c.UpdateByID(ctx, groupID, bson.M{"$set": bson.M{
		"name":       name,
		"name_ci":    text.Fold(name),
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a group. Message cleanup is the caller's concern.
func (s *Store) Delete(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
