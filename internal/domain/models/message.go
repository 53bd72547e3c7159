// internal/domain/models/message.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is a single chat message. Messages are append-only; the only
// mutation is a moderation delete by an admin.
//
// SenderName is denormalized at write time so message lists never need
// a join against the users collection. Realtime events forwarded from
// other clients may carry a placeholder name instead.
type Message struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	GroupID    primitive.ObjectID `bson:"group_id" json:"group_id"`
	UnionCode  string             `bson:"union_code" json:"union_code"`
	SenderID   primitive.ObjectID `bson:"sender_id" json:"sender_id"`
	SenderName string             `bson:"sender_name" json:"sender_name"`
	Content    string             `bson:"content" json:"content"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}
