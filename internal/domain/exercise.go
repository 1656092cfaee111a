// internal/domain/exercise.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Exercise is an ordered movement under a Session.
//
// Title and Name carry the same value. Older mobile clients read "name",
// newer ones read "title"; both are written on every mutation so either
// reader sees current data.
type Exercise struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID primitive.ObjectID `bson:"sessionId" json:"sessionId"`
	Title     string             `bson:"title" json:"title"`
	Name      string             `bson:"name" json:"name"`
	Order     int                `bson:"order" json:"order"`
	Notes     string             `bson:"notes,omitempty" json:"notes,omitempty"`
	VideoURL  string             `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
