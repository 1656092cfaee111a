// internal/repository/mongo/module_repo.go
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

const moduleCollectionName = "modules"

// mongoModuleRepository implements repository.ModuleRepository
type mongoModuleRepository struct {
	collection *mongo.Collection
}

// NewMongoModuleRepository creates a new Module repository.
func NewMongoModuleRepository(db *mongo.Database) repository.ModuleRepository {
	return &mongoModuleRepository{
		collection: db.Collection(moduleCollectionName),
	}
}

// Create inserts a new module under its program or plan parent.
func (r *mongoModuleRepository) Create(ctx context.Context, module *domain.Module) (primitive.ObjectID, error) {
	hasProgram := module.ProgramID != primitive.NilObjectID
	hasPlan := module.PlanID != primitive.NilObjectID
	if hasProgram == hasPlan {
		return primitive.NilObjectID, errors.New("module requires exactly one of programId or planId")
	}
	if module.ID == primitive.NilObjectID {
		module.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	module.CreatedAt = now
	module.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, module)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted module ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single module by its ID.
func (r *mongoModuleRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Module, error) {
	var module domain.Module
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&module)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &module, nil
}

// GetByProgramID retrieves a program's modules sorted by order.
func (r *mongoModuleRepository) GetByProgramID(ctx context.Context, programID primitive.ObjectID) ([]domain.Module, error) {
	return r.findSorted(ctx, bson.M{"programId": programID})
}

// GetByPlanID retrieves a plan's modules sorted by order.
func (r *mongoModuleRepository) GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.Module, error) {
	return r.findSorted(ctx, bson.M{"planId": planID})
}

func (r *mongoModuleRepository) findSorted(ctx context.Context, filter bson.M) ([]domain.Module, error) {
	var modules []domain.Module
	findOptions := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &modules); err != nil {
		return nil, err
	}
	return modules, nil
}

// NextProgramOrder computes max(order)+1 among a program's modules.
func (r *mongoModuleRepository) NextProgramOrder(ctx context.Context, programID primitive.ObjectID) (int, error) {
	return r.nextOrder(ctx, bson.M{"programId": programID})
}

// NextPlanOrder computes max(order)+1 among a plan's modules.
func (r *mongoModuleRepository) NextPlanOrder(ctx context.Context, planID primitive.ObjectID) (int, error) {
	return r.nextOrder(ctx, bson.M{"planId": planID})
}

// nextOrder queries siblings sorted descending, limited to one.
func (r *mongoModuleRepository) nextOrder(ctx context.Context, filter bson.M) (int, error) {
	var top domain.Module
	findOptions := options.FindOne().SetSort(bson.D{{Key: "order", Value: -1}})
	err := r.collection.FindOne(ctx, filter, findOptions).Decode(&top)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, err
	}
	return top.Order + 1, nil
}

// UpdateOrders applies a batched sibling reorder. The derived title travels
// in the same batch as the order so no caller can observe one without the
// other. Batches over the store ceiling are rejected before any write.
func (r *mongoModuleRepository) UpdateOrders(ctx context.Context, updates []repository.ModuleOrderUpdate) error {
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
				"title":     u.Title,
				"updatedAt": now,
			}}))
	}

	_, err := r.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	return err
}

// Update rewrites the mutable fields of a module.
func (r *mongoModuleRepository) Update(ctx context.Context, module *domain.Module) error {
	if module.ID == primitive.NilObjectID {
		return errors.New("module ID is required for update")
	}

	updateDoc := bson.M{
		"$set": bson.M{
			"order":           module.Order,
			"title":           module.Title,
			"libraryModuleId": module.LibraryModuleID,
			"updatedAt":       time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": module.ID}, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a single module document.
func (r *mongoModuleRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureModuleIndexes creates necessary indexes. Call during startup.
func EnsureModuleIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "programId", Value: 1}, {Key: "order", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "planId", Value: 1}, {Key: "order", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
