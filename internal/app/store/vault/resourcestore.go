// internal/app/store/vault/resourcestore.go
package resourcestore

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

var ErrNotFound = errors.New("resource not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("resources")}
}

// Create inserts a vault resource. Visibility defaults to admin-only
// so a half-filled form can never leak a document to members.
func (s *Store) Create(ctx context.Context, res models.Resource) (models.Resource, error) {
	now := time.Now().UTC()
	res.ID = primitive.NewObjectID()
	res.TitleCI = text.Fold(res.Title)
	if res.Visibility == "" {
		res.Visibility = models.VisibilityAdmin
	}
	res.CreatedAt = now
	res.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, res); err != nil {
		return models.Resource{}, err
	}
	return res, nil
}

// GetByID loads one resource.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Resource, error) {
	var res models.Resource
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return models.Resource{}, ErrNotFound
	}
	if err != nil {
		return models.Resource{}, err
	}
	return res, nil
}

// ListByUnion returns a union's resources sorted by title. When
// publicOnly is set, admin-only documents are filtered out — this is
// the member-facing query.
func (s *Store) ListByUnion(ctx context.Context, unionCode string, publicOnly bool) ([]models.Resource, error) {
	filter := bson.M{"union_code": unionCode}
	if publicOnly {
		filter["visibility"] = models.VisibilityPublic
	}
	opts := options.Find().SetSort(bson.D{{Key: "title_ci", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var resources []models.Resource
	if err := cur.All(ctx, &resources); err != nil {
		return nil, err
	}
	return resources, nil
}

// Update replaces the editable fields of a resource.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, res models.Resource) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if res.Title != "" {
		set["title"] = res.Title
		set["title_ci"] = text.Fold(res.Title)
	}
	if res.Description != "" {
		set["description"] = res.Description
	}
	if res.Category != "" {
		set["category"] = res.Category
	}
	if res.Type != "" {
		set["type"] = res.Type
	}
	if res.URL != "" {
		set["url"] = res.URL
	}
	if res.Body != "" {
		set["body"] = res.Body
	}
	if res.Visibility != "" {
		set["visibility"] = res.Visibility
	}
	upd, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if upd.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a resource.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
