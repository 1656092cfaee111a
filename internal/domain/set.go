// internal/domain/set.go
package domain

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Set is an ordered series under an Exercise. Its title is derived from the
// order ("Serie 1", "Serie 2", ...) the same way module titles are.
type Set struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ExerciseID  primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Title       string             `bson:"title" json:"title"`
	Order       int                `bson:"order" json:"order"`
	Reps        int                `bson:"reps,omitempty" json:"reps,omitempty"`
	Weight      float64            `bson:"weight,omitempty" json:"weight,omitempty"`
	RestSeconds int                `bson:"restSeconds,omitempty" json:"restSeconds,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SetTitle derives the display title for a set at the given order.
func SetTitle(order int) string {
	return fmt.Sprintf("Serie %d", order+1)
}
