// internal/repository/mongo/library_repo.go
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

const (
	libraryModuleCollectionName   = "library_modules"
	librarySessionCollectionName  = "library_sessions"
	libraryExerciseCollectionName = "library_exercises"
)

// mongoLibraryRepository implements repository.LibraryRepository across the
// three library collections.
type mongoLibraryRepository struct {
	modules   *mongo.Collection
	sessions  *mongo.Collection
	exercises *mongo.Collection
}

// NewMongoLibraryRepository creates the library store accessor.
func NewMongoLibraryRepository(db *mongo.Database) repository.LibraryRepository {
	return &mongoLibraryRepository{
		modules:   db.Collection(libraryModuleCollectionName),
		sessions:  db.Collection(librarySessionCollectionName),
		exercises: db.Collection(libraryExerciseCollectionName),
	}
}

// === Library Modules ===

func (r *mongoLibraryRepository) CreateModule(ctx context.Context, module *domain.LibraryModule) (primitive.ObjectID, error) {
	if module.CreatorID == primitive.NilObjectID || module.Title == "" {
		return primitive.NilObjectID, errors.New("library module requires creatorId and title")
	}
	module.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	module.CreatedAt = now
	module.UpdatedAt = now

	result, err := r.modules.InsertOne(ctx, module)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted library module ID")
	}
	return insertedID, nil
}

func (r *mongoLibraryRepository) GetModuleByID(ctx context.Context, id primitive.ObjectID) (*domain.LibraryModule, error) {
	var module domain.LibraryModule
	err := r.modules.FindOne(ctx, bson.M{"_id": id}).Decode(&module)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &module, nil
}

func (r *mongoLibraryRepository) GetModulesByCreatorID(ctx context.Context, creatorID primitive.ObjectID) ([]domain.LibraryModule, error) {
	var modules []domain.LibraryModule
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.modules.Find(ctx, bson.M{"creatorId": creatorID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &modules); err != nil {
		return nil, err
	}
	return modules, nil
}

func (r *mongoLibraryRepository) UpdateModule(ctx context.Context, module *domain.LibraryModule) error {
	if module.ID == primitive.NilObjectID {
		return errors.New("library module ID is required for update")
	}

	updateDoc := bson.M{
		"$set": bson.M{
			"title":       module.Title,
			"description": module.Description,
			"sessionRefs": module.SessionRefs,
			"updatedAt":   time.Now().UTC(),
		},
	}

	result, err := r.modules.UpdateOne(ctx, bson.M{"_id": module.ID}, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoLibraryRepository) DeleteModule(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.modules.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// === Library Sessions ===

func (r *mongoLibraryRepository) CreateSession(ctx context.Context, session *domain.LibrarySession) (primitive.ObjectID, error) {
	if session.CreatorID == primitive.NilObjectID || session.Title == "" {
		return primitive.NilObjectID, errors.New("library session requires creatorId and title")
	}
	session.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	result, err := r.sessions.InsertOne(ctx, session)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted library session ID")
	}
	return insertedID, nil
}

func (r *mongoLibraryRepository) GetSessionByID(ctx context.Context, id primitive.ObjectID) (*domain.LibrarySession, error) {
	var session domain.LibrarySession
	err := r.sessions.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *mongoLibraryRepository) GetSessionsByCreatorID(ctx context.Context, creatorID primitive.ObjectID) ([]domain.LibrarySession, error) {
	var sessions []domain.LibrarySession
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.sessions.Find(ctx, bson.M{"creatorId": creatorID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *mongoLibraryRepository) UpdateSession(ctx context.Context, session *domain.LibrarySession) error {
	if session.ID == primitive.NilObjectID {
		return errors.New("library session ID is required for update")
	}

	updateDoc := bson.M{
		"$set": bson.M{
			"title":       session.Title,
			"description": session.Description,
			"imageKey":    session.ImageKey,
			"updatedAt":   time.Now().UTC(),
		},
	}

	result, err := r.sessions.UpdateOne(ctx, bson.M{"_id": session.ID}, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoLibraryRepository) DeleteSession(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.sessions.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// === Library Exercises ===

func (r *mongoLibraryRepository) CreateExercise(ctx context.Context, exercise *domain.LibraryExercise) (primitive.ObjectID, error) {
	if exercise.LibrarySessionID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("library exercise requires librarySessionId")
	}
	exercise.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	exercise.CreatedAt = now
	exercise.UpdatedAt = now

	result, err := r.exercises.InsertOne(ctx, exercise)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted library exercise ID")
	}
	return insertedID, nil
}

func (r *mongoLibraryRepository) GetExerciseByID(ctx context.Context, id primitive.ObjectID) (*domain.LibraryExercise, error) {
	var exercise domain.LibraryExercise
	err := r.exercises.FindOne(ctx, bson.M{"_id": id}).Decode(&exercise)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &exercise, nil
}

func (r *mongoLibraryRepository) GetExercisesBySessionID(ctx context.Context, librarySessionID primitive.ObjectID) ([]domain.LibraryExercise, error) {
	var exercises []domain.LibraryExercise
	findOptions := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})

	cursor, err := r.exercises.Find(ctx, bson.M{"librarySessionId": librarySessionID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

func (r *mongoLibraryRepository) NextExerciseOrder(ctx context.Context, librarySessionID primitive.ObjectID) (int, error) {
	var top domain.LibraryExercise
	findOptions := options.FindOne().SetSort(bson.D{{Key: "order", Value: -1}})
	err := r.exercises.FindOne(ctx, bson.M{"librarySessionId": librarySessionID}, findOptions).Decode(&top)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, err
	}
	return top.Order + 1, nil
}

func (r *mongoLibraryRepository) UpdateExercise(ctx context.Context, exercise *domain.LibraryExercise) error {
	if exercise.ID == primitive.NilObjectID {
		return errors.New("library exercise ID is required for update")
	}

	updateDoc := bson.M{
		"$set": bson.M{
			"title":     exercise.Title,
			"name":      exercise.Name,
			"order":     exercise.Order,
			"notes":     exercise.Notes,
			"videoUrl":  exercise.VideoURL,
			"updatedAt": time.Now().UTC(),
		},
	}

	result, err := r.exercises.UpdateOne(ctx, bson.M{"_id": exercise.ID}, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoLibraryRepository) DeleteExercise(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.exercises.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureLibraryIndexes creates necessary indexes. Call during startup.
func EnsureLibraryIndexes(ctx context.Context, db *mongo.Database) {
	_, _ = db.Collection(libraryModuleCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "creatorId", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	_, _ = db.Collection(librarySessionCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "creatorId", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	_, _ = db.Collection(libraryExerciseCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "librarySessionId", Value: 1}, {Key: "order", Value: 1}}},
	})
}
