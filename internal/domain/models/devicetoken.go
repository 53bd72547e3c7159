// internal/domain/models/devicetoken.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeviceToken is one registered push target for a user. A user may
// have several (phone, tablet, browser). Unique on (user_id, token).
type DeviceToken struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"user_id" json:"user_id"`
	Token        string             `bson:"token" json:"token"`
	Platform     string             `bson:"platform,omitempty" json:"platform,omitempty"` // web | ios | android
	RegisteredAt time.Time          `bson:"registered_at" json:"registered_at"`
}
