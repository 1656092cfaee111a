// internal/domain/program.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeliveryType distinguishes how a program is sold and delivered.
type DeliveryType string

const (
	// DeliveryLowTicket is a scalable program sold to many clients at once.
	DeliveryLowTicket DeliveryType = "low_ticket"
	// DeliveryOneOnOne is a per-client program assigned individually.
	DeliveryOneOnOne DeliveryType = "one_on_one"
)

// Program is the top-level training product owned by a creator.
// When ContentPlanID is set, ALL content reads are redirected to that
// shared Plan's hierarchy instead of the program's own modules.
type Program struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	CreatorID     primitive.ObjectID  `bson:"creatorId" json:"creatorId"`
	Title         string              `bson:"title" json:"title"`
	Description   string              `bson:"description,omitempty" json:"description,omitempty"`
	DeliveryType  DeliveryType        `bson:"deliveryType" json:"deliveryType"`
	ContentPlanID *primitive.ObjectID `bson:"contentPlanId,omitempty" json:"contentPlanId,omitempty"`
	CoverImageKey string              `bson:"coverImageKey,omitempty" json:"-"` // S3 object key, presigned on the way out
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time           `bson:"updatedAt" json:"updatedAt"`
}
