// internal/domain/module.go
package domain

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Module is an ordered week of training under a Program (or a shared Plan).
// Exactly one of ProgramID / PlanID is set, depending on the parent.
//
// The title is derived from the order ("Semana 1", "Semana 2", ...) and is
// recomputed on every order-affecting mutation, so it must never be edited
// directly. A module carrying LibraryModuleID pulls its sessions from the
// creator's library; its own fields other than order stay read-only.
type Module struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ProgramID       primitive.ObjectID  `bson:"programId,omitempty" json:"programId,omitempty"`
	PlanID          primitive.ObjectID  `bson:"planId,omitempty" json:"planId,omitempty"`
	LibraryModuleID *primitive.ObjectID `bson:"libraryModuleId,omitempty" json:"libraryModuleId,omitempty"`
	Order           int                 `bson:"order" json:"order"`
	Title           string              `bson:"title" json:"title"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// ModuleTitle derives the display title for a module at the given order.
// Orders are zero-based, titles are one-based.
func ModuleTitle(order int) string {
	return fmt.Sprintf("Semana %d", order+1)
}

// IsLibraryRef reports whether this module resolves from the library.
func (m *Module) IsLibraryRef() bool {
	return m.LibraryModuleID != nil && *m.LibraryModuleID != primitive.NilObjectID
}
