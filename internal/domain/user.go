package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleCreator Role = "creator"
	RoleClient  Role = "client"
)

// User represents a user in the system (either a Creator or a Client).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// --- Creator-specific ---
	// Stores ObjectIDs of Clients coached by this Creator.
	ClientIDs []primitive.ObjectID `bson:"clientIds,omitempty" json:"clientIds,omitempty"`

	// --- Client-specific ---
	// The Creator coaching this Client, plus the one-on-one programs
	// assigned to them.
	CreatorID  *primitive.ObjectID  `bson:"creatorId,omitempty" json:"creatorId,omitempty"`
	ProgramIDs []primitive.ObjectID `bson:"programIds,omitempty" json:"programIds,omitempty"`
}

// Helper methods (Optional but can be useful)
func (u *User) IsCreator() bool {
	return u.Role == RoleCreator
}

func (u *User) IsClient() bool {
	return u.Role == RoleClient
}
