// internal/domain/session.go
package domain

import (
	"crypto/sha1"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session is an ordered training day under a Module.
//
// A session carrying LibrarySessionID is a reference into the creator's
// library: its displayable fields come from the library session, patched by
// the per-program override (see SessionOverride). Such a document may start
// life as a lazily materialized placeholder holding only {order, ref}.
type Session struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ModuleID         primitive.ObjectID  `bson:"moduleId" json:"moduleId"`
	ProgramID        primitive.ObjectID  `bson:"programId,omitempty" json:"programId,omitempty"` // Denormalized for program-wide queries
	LibrarySessionID *primitive.ObjectID `bson:"librarySessionId,omitempty" json:"librarySessionId,omitempty"`
	Order            int                 `bson:"order" json:"order"`
	Title            string              `bson:"title,omitempty" json:"title,omitempty"`
	Description      string              `bson:"description,omitempty" json:"description,omitempty"`
	ImageKey         string              `bson:"imageKey,omitempty" json:"-"`
	CreatedAt        time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// IsLibraryRef reports whether this session resolves from the library.
func (s *Session) IsLibraryRef() bool {
	return s.LibrarySessionID != nil && *s.LibrarySessionID != primitive.NilObjectID
}

// PlaceholderSessionID derives the document id for the lazily materialized
// session referencing librarySessionID under moduleID. The id is a stable
// function of the pair, so materialization is an idempotent upsert and
// concurrent callers converge on a single document instead of racing
// scan-then-create into duplicates.
func PlaceholderSessionID(moduleID, librarySessionID primitive.ObjectID) primitive.ObjectID {
	sum := sha1.Sum(append(moduleID[:], librarySessionID[:]...))
	var id primitive.ObjectID
	copy(id[:], sum[:12])
	return id
}
