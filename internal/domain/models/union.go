// internal/domain/models/union.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Union roles, scoped to a single union (distinct from the global User.Role).
const (
	UnionRoleMember = "member"
	UnionRoleAdmin  = "admin"
)

// Union is a supporter club tenant. The admin-chosen invite code is the
// document key, so joining by code is a single lookup.
//
// MemberIDs and Roles are mutated with $addToSet/$pull and field-level
// $set/$unset so concurrent join/leave operations cannot lose updates.
type Union struct {
	Code   string `bson:"_id" json:"code"`
	Name   string `bson:"name" json:"name"`
	NameCI string `bson:"name_ci" json:"name_ci"`

	MemberIDs []primitive.ObjectID `bson:"member_ids" json:"member_ids"`
	// Roles maps member ObjectID hex -> union role.
	Roles map[string]string `bson:"roles" json:"roles"`

	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// HasMember reports whether userID is in the member set.
func (u Union) HasMember(userID primitive.ObjectID) bool {
	for _, id := range u.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// RoleOf returns the union role for userID, defaulting to member for
// anyone in the member set without an explicit entry.
func (u Union) RoleOf(userID primitive.ObjectID) string {
	if role, ok := u.Roles[userID.Hex()]; ok {
		return role
	}
	return UnionRoleMember
}
