// internal/domain/models/resource.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Resource types.
const (
	ResourceLink = "link"
	ResourceFile = "file"
	ResourceText = "text"
)

// Resource visibility.
const (
	VisibilityPublic = "public"
	VisibilityAdmin  = "admin"
)

// Resource is a document-vault entry. Lifecycle is owned entirely by
// union admins; members only read.
type Resource struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	UnionCode   string             `bson:"union_code" json:"union_code"`
	Title       string             `bson:"title" json:"title"`
	TitleCI     string             `bson:"title_ci" json:"title_ci"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Category    string             `bson:"category,omitempty" json:"category,omitempty"`

	Type string `bson:"type" json:"type"` // link | file | text
	URL  string `bson:"url,omitempty" json:"url,omitempty"`
	Body string `bson:"body,omitempty" json:"body,omitempty"` // inline text resources

	Visibility string `bson:"visibility" json:"visibility"` // public | admin

	CreatedByID primitive.ObjectID `bson:"created_by_id" json:"created_by_id"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
