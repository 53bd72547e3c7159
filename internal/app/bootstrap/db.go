// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB establishes the MongoDB connection and, when configured,
// the Redis client for the chat bridge. Both are verified with a ping
// so startup fails loudly on a bad backend.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}

	if appCfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(appCfg.RedisURL)
		if err != nil {
			return DBDeps{}, fmt.Errorf("redis url: %w", err)
		}
		rdb := redis.NewClient(redisOpts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return DBDeps{}, fmt.Errorf("redis ping: %w", err)
		}
		deps.RedisClient = rdb
		logger.Info("redis chat bridge enabled")
	} else {
		logger.Info("redis_url not set, chat delivery is instance-local")
	}

	return deps, nil
}

// EnsureSchema creates the indexes the stores rely on. All creations
// are idempotent; Mongo ignores an index that already exists.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	indexes := map[string][]mongo.IndexModel{
		"users": {
			{
				Keys:    bson.D{{Key: "email_ci", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "display_name_ci", Value: 1}}},
		},
		"unions": {
			{Keys: bson.D{{Key: "member_ids", Value: 1}}},
		},
		"groups": {
			{Keys: bson.D{{Key: "union_code", Value: 1}, {Key: "name_ci", Value: 1}}},
		},
		"messages": {
			{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		"announcements": {
			{Keys: bson.D{{Key: "union_code", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		"resources": {
			{Keys: bson.D{{Key: "union_code", Value: 1}, {Key: "title_ci", Value: 1}}},
		},
		"reports": {
			{Keys: bson.D{{Key: "union_code", Value: 1}, {Key: "status", Value: 1}}},
		},
		"device_tokens": {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "token", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		"password_resets": {
			{
				Keys:    bson.D{{Key: "expires_at", Value: 1}},
				Options: options.Index().SetExpireAfterSeconds(0),
			},
		},
		"audit_events": {
			{Keys: bson.D{{Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "event_type", Value: 1}, {Key: "timestamp", Value: -1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes for %s: %w", coll, err)
		}
	}

	logger.Info("schema indexes ensured")
	return nil
}
