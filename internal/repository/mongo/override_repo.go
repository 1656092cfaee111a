// internal/repository/mongo/override_repo.go
package mongo

import (
	"context"
	"errors"
	"time"

	"entrena/coach-app/internal/domain"
	"entrena/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const overrideCollectionName = "session_overrides"

// mongoOverrideRepository implements repository.OverrideRepository.
// The document id IS the session id, which makes the singleton-per-session
// rule structural rather than conventional.
type mongoOverrideRepository struct {
	collection *mongo.Collection
}

// NewMongoOverrideRepository creates a new SessionOverride repository.
func NewMongoOverrideRepository(db *mongo.Database) repository.OverrideRepository {
	return &mongoOverrideRepository{
		collection: db.Collection(overrideCollectionName),
	}
}

// Get retrieves the override for a session, ErrNotFound when absent.
func (r *mongoOverrideRepository) Get(ctx context.Context, sessionID primitive.ObjectID) (*domain.SessionOverride, error) {
	var override domain.SessionOverride
	err := r.collection.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&override)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &override, nil
}

// Upsert replaces the session's override document, creating it on first write.
func (r *mongoOverrideRepository) Upsert(ctx context.Context, override *domain.SessionOverride) error {
	if override.SessionID == primitive.NilObjectID {
		return errors.New("override requires a session ID")
	}
	override.UpdatedAt = time.Now().UTC()

	_, err := r.collection.ReplaceOne(
		ctx,
		bson.M{"_id": override.SessionID},
		override,
		options.Replace().SetUpsert(true),
	)
	return err
}

// Delete removes the session's override. Deleting an absent override is not
// an error; the end state is the same.
func (r *mongoOverrideRepository) Delete(ctx context.Context, sessionID primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": sessionID})
	return err
}
