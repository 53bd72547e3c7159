// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user can hold across the application.
const (
	RoleMember = "member"
	RoleBoard  = "board"
	RoleAdmin  = "admin"
)

// Membership tiers.
const (
	TierStandard = "standard"
	TierGold     = "gold"
	TierLifetime = "lifetime"
)

// User represents a supporter account.
//
// NOTE:
//   - Union membership is not embedded on User.
//     Use the unions collection (member_ids) to discover a user's unions.
type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email         string             `bson:"email" json:"email"`
	EmailCI       string             `bson:"email_ci" json:"email_ci"` // lowercase, diacritics-stripped
	DisplayName   string             `bson:"display_name" json:"display_name"`
	DisplayNameCI string             `bson:"display_name_ci" json:"display_name_ci"`
	PasswordHash  string             `bson:"password_hash,omitempty" json:"-"`
	AuthMethod    string             `bson:"auth_method,omitempty" json:"auth_method,omitempty"` // "password" | "google"

	Role string `bson:"role" json:"role"` // member | board | admin
	Tier string `bson:"tier" json:"tier"` // standard | gold | lifetime

	Banned bool `bson:"banned" json:"banned"`

	// Verified supporter number, assigned by an admin after
	// checking the official register. Nil until verified.
	MemberNumber *int `bson:"member_number,omitempty" json:"member_number,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
