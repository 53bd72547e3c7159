// internal/domain/models/report.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Report statuses.
const (
	ReportPending   = "pending"
	ReportResolved  = "resolved"
	ReportDismissed = "dismissed"
)

// Report is a member-filed complaint about a user or a piece of
// content. Members create; only admins mutate.
type Report struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	UnionCode string             `bson:"union_code" json:"union_code"`

	ReportedUserID primitive.ObjectID `bson:"reported_user_id" json:"reported_user_id"`
	// MessageID points at the offending message when the report is
	// about content rather than behavior.
	MessageID *primitive.ObjectID `bson:"message_id,omitempty" json:"message_id,omitempty"`

	Reason string `bson:"reason" json:"reason"`
	Status string `bson:"status" json:"status"` // pending | resolved | dismissed

	ReporterID primitive.ObjectID `bson:"reporter_id" json:"reporter_id"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}
