// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group types.
const (
	GroupPublic       = "public"
	GroupPrivate      = "private"
	GroupAnnouncement = "announcement"
)

// Group is a chat channel inside a union.
//
// Public groups are open to every union member. Private groups carry
// their own member list. Announcement groups are read-only for
// non-admins.
type Group struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	UnionCode string             `bson:"union_code" json:"union_code"`
	Name      string             `bson:"name" json:"name"`
	NameCI    string             `bson:"name_ci" json:"name_ci"`
	Type      string             `bson:"type" json:"type"` // public | private | announcement

	// MemberIDs is only consulted for private groups.
	MemberIDs []primitive.ObjectID `bson:"member_ids,omitempty" json:"member_ids,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
