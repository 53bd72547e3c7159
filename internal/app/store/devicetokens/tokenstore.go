// internal/app/store/devicetokens/tokenstore.go
package tokenstore

import (
	"context"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/unionhubhq/unionhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("device_tokens")}
}

// Register records a push token for a user. Re-registering the same
// token is a no-op: the write upserts on (user_id, token), and the
// unique index turns a racing double-insert into a duplicate error we
// swallow.
func (s *Store) Register(ctx context.Context, userID primitive.ObjectID, token, platform string) error {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{"platform": platform},
		"$setOnInsert": bson.M{
			"_id":           primitive.NewObjectID(),
			"user_id":       userID,
			"token":         token,
			"registered_at": now,
		},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := s.c.UpdateOne(ctx, bson.M{"user_id": userID, "token": token}, update, opts); err != nil {
		if wafflemongo.IsDup(err) {
			return nil
		}
		return err
	}
	return nil
}

// Unregister drops a token, e.g. when the push platform reports it stale
// or the user signs out of a device.
func (s *Store) Unregister(ctx context.Context, userID primitive.ObjectID, token string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"user_id": userID, "token": token})
	return err
}

// ListByUser returns all registered tokens for one user.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]string, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var tokens []string
	for cur.Next(ctx) {
		var doc models.DeviceToken
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		tokens = append(tokens, doc.Token)
	}
	return tokens, cur.Err()
}

// DeleteByUser removes every token for a user (account deletion cleanup).
func (s *Store) DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
