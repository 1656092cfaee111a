// internal/domain/override.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionOverride is the sparse per-program patch applied on top of a
// resolved library session. At most one exists per program-side session
// (document id == session id). It is only meaningful for sessions that
// carry a library reference; standalone sessions never have one.
//
// Pointer fields: nil means "inherit the library value". There is no way to
// force an empty value over a non-empty library one (override-wins-if-present,
// not override-as-deletion).
type SessionOverride struct {
	SessionID   primitive.ObjectID `bson:"_id" json:"sessionId"`
	Title       *string            `bson:"title,omitempty" json:"title,omitempty"`
	Description *string            `bson:"description,omitempty" json:"description,omitempty"`
	ImageKey    *string            `bson:"imageKey,omitempty" json:"imageKey,omitempty"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsEmpty reports whether the override patches nothing.
func (o *SessionOverride) IsEmpty() bool {
	return o == nil || (o.Title == nil && o.Description == nil && o.ImageKey == nil)
}
