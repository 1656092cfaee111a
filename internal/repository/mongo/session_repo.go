// internal/repository/mongo/session_repo.go
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

const sessionCollectionName = "sessions"

// mongoSessionRepository implements repository.SessionRepository
type mongoSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoSessionRepository creates a new Session repository.
func NewMongoSessionRepository(db *mongo.Database) repository.SessionRepository {
	return &mongoSessionRepository{
		collection: db.Collection(sessionCollectionName),
	}
}

// Create inserts a new session.
func (r *mongoSessionRepository) Create(ctx context.Context, session *domain.Session) (primitive.ObjectID, error) {
	if session.ModuleID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("session requires moduleId")
	}
	if session.ID == primitive.NilObjectID {
		session.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted session ID")
	}
	return insertedID, nil
}

// EnsurePlaceholder upserts a placeholder session by its pre-derived ID.
// Fields are written only on insert, so repeated or concurrent calls for the
// same (module, library session) pair converge on one document and never
// clobber a session that already exists.
func (r *mongoSessionRepository) EnsurePlaceholder(ctx context.Context, session *domain.Session) error {
	if session.ID == primitive.NilObjectID || session.ModuleID == primitive.NilObjectID {
		return errors.New("placeholder session requires a derived ID and moduleId")
	}
	now := time.Now().UTC()

	update := bson.M{
		"$setOnInsert": bson.M{
			"moduleId":         session.ModuleID,
			"programId":        session.ProgramID,
			"librarySessionId": session.LibrarySessionID,
			"order":            session.Order,
			"createdAt":        now,
			"updatedAt":        now,
		},
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": session.ID}, update, options.Update().SetUpsert(true))
	return err
}

// GetByID retrieves a single session by its ID.
func (r *mongoSessionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Session, error) {
	var session domain.Session
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// GetByModuleID retrieves a module's sessions sorted by order.
func (r *mongoSessionRepository) GetByModuleID(ctx context.Context, moduleID primitive.ObjectID) ([]domain.Session, error) {
	var sessions []domain.Session
	filter := bson.M{"moduleId": moduleID}
	findOptions := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// FindByLibraryRef scans a module's sessions for one referencing the given
// library session.
func (r *mongoSessionRepository) FindByLibraryRef(ctx context.Context, moduleID, librarySessionID primitive.ObjectID) (*domain.Session, error) {
	var session domain.Session
	filter := bson.M{
		"moduleId":         moduleID,
		"librarySessionId": librarySessionID,
	}
	err := r.collection.FindOne(ctx, filter).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// NextOrder computes max(order)+1 among a module's sessions.
func (r *mongoSessionRepository) NextOrder(ctx context.Context, moduleID primitive.ObjectID) (int, error) {
	var top domain.Session
	findOptions := options.FindOne().SetSort(bson.D{{Key: "order", Value: -1}})
	err := r.collection.FindOne(ctx, bson.M{"moduleId": moduleID}, findOptions).Decode(&top)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, err
	}
	return top.Order + 1, nil
}

// UpdateOrders applies a batched sibling reorder.
func (r *mongoSessionRepository) UpdateOrders(ctx context.Context, updates []repository.OrderUpdate) error {
	return bulkUpdateOrders(ctx, r.collection, updates)
}

// Update rewrites the mutable fields of a session.
func (r *mongoSessionRepository) Update(ctx context.Context, session *domain.Session) error {
	if session.ID == primitive.NilObjectID {
		return errors.New("session ID is required for update")
	}

	updateDoc := bson.M{
		"$set": bson.M{
			"order":       session.Order,
			"title":       session.Title,
			"description": session.Description,
			"imageKey":    session.ImageKey,
			"updatedAt":   time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": session.ID}, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a single session document.
func (r *mongoSessionRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureSessionIndexes creates necessary indexes. Call during startup.
func EnsureSessionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "moduleId", Value: 1}, {Key: "order", Value: 1}},
			Options: options.Index(),
		},
		{
			// Reference lookups during module resolution
			Keys:    bson.D{{Key: "moduleId", Value: 1}, {Key: "librarySessionId", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "programId", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}

// bulkUpdateOrders is the shared batched reorder used by session and
// exercise repositories: one ordered BulkWrite of {order, updatedAt} sets,
// rejected up front when the batch exceeds the store ceiling.
func bulkUpdateOrders(ctx context.Context, collection *mongo.Collection, updates []repository.OrderUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	if len(updates) > repository.MaxWriteBatchSize {
		return repository.ErrBatchTooLarge
	}

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(updates))
	for _, u := range updates {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": u.ID}).
			SetUpdate(bson.M{"$set": bson.M{
				"order":     u.Order,
				"updatedAt": now,
			}}))
	}

	_, err := collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	return err
}
