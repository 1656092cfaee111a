// internal/repository/mongo/set_repo.go
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

const setCollectionName = "sets"

// mongoSetRepository implements repository.SetRepository
type mongoSetRepository struct {
	collection *mongo.Collection
}

// NewMongoSetRepository creates a new Set repository.
func NewMongoSetRepository(db *mongo.Database) repository.SetRepository {
	return &mongoSetRepository{
		collection: db.Collection(setCollectionName),
	}
}

// Create inserts a new set.
func (r *mongoSetRepository) Create(ctx context.Context, set *domain.Set) (primitive.ObjectID, error) {
	if set.ExerciseID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("set requires exerciseId")
	}
	set.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	set.CreatedAt = now
	set.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, set)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted set ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single set by its ID.
func (r *mongoSetRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Set, error) {
	var set domain.Set
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&set)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &set, nil
}

// GetByExerciseID retrieves an exercise's sets sorted by order.
func (r *mongoSetRepository) GetByExerciseID(ctx context.Context, exerciseID primitive.ObjectID) ([]domain.Set, error) {
	var sets []domain.Set
	filter := bson.M{"exerciseId": exerciseID}
	findOptions := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

// NextOrder computes max(order)+1 among an exercise's sets.
func (r *mongoSetRepository) NextOrder(ctx context.Context, exerciseID primitive.ObjectID) (int, error) {
	var top domain.Set
	findOptions := options.FindOne().SetSort(bson.D{{Key: "order", Value: -1}})
	err := r.collection.FindOne(ctx, bson.M{"exerciseId": exerciseID}, findOptions).Decode(&top)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, err
	}
	return top.Order + 1, nil
}

// Update rewrites the mutable fields of a set.
func (r *mongoSetRepository) Update(ctx context.Context, set *domain.Set) error {
	if set.ID == primitive.NilObjectID {
		return errors.New("set ID is required for update")
	}

	updateDoc := bson.M{
		"$set": bson.M{
			"title":       set.Title,
			"order":       set.Order,
			"reps":        set.Reps,
			"weight":      set.Weight,
			"restSeconds": set.RestSeconds,
			"updatedAt":   time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": set.ID}, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a single set document.
func (r *mongoSetRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureSetIndexes creates necessary indexes. Call during startup.
func EnsureSetIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "exerciseId", Value: 1}, {Key: "order", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
