// internal/domain/models/announcement.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Announcement categories.
const (
	AnnouncementUrgent  = "urgent"
	AnnouncementEvent   = "event"
	AnnouncementGeneral = "general"
	AnnouncementMerch   = "merch"
)

// Announcement is a board/admin post visible to every union member.
type Announcement struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	UnionCode  string             `bson:"union_code" json:"union_code"`
	Title      string             `bson:"title" json:"title"`
	Content    string             `bson:"content" json:"content"`
	Category   string             `bson:"category" json:"category"` // urgent | event | general | merch
	AuthorID   primitive.ObjectID `bson:"author_id" json:"author_id"`
	AuthorName string             `bson:"author_name" json:"author_name"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}
