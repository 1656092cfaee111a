package repository

import (
	"context"

	"entrena/coach-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxWriteBatchSize is the store's ceiling for a single batched write.
// Order-update batches larger than this are rejected before any write.
const MaxWriteBatchSize = 500

// Error constants for repository layer
var (
	ErrNotFound      = RepositoryError("not found")
	ErrUpdateFailed  = RepositoryError("update failed")
	ErrDeleteFailed  = RepositoryError("delete failed")
	ErrBatchTooLarge = RepositoryError("batch exceeds maximum write batch size")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// OrderUpdate is one entry of a batched sibling reorder.
type OrderUpdate struct {
	ID    primitive.ObjectID
	Order int
}

// ModuleOrderUpdate additionally carries the derived title so order and
// title change in the same batch and can never be observed out of sync.
type ModuleOrderUpdate struct {
	ID    primitive.ObjectID
	Order int
	Title string
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	AddClientIDToCreator(ctx context.Context, creatorID, clientID primitive.ObjectID) error
	GetClientsByCreatorID(ctx context.Context, creatorID primitive.ObjectID) ([]domain.User, error)
	SetCreatorForClient(ctx context.Context, clientID, creatorID primitive.ObjectID) error
	AddProgramIDToClient(ctx context.Context, clientID, programID primitive.ObjectID) error
}

// ProgramRepository defines the interface for interacting with program data.
type ProgramRepository interface {
	Create(ctx context.Context, program *domain.Program) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Program, error)
	GetByCreatorID(ctx context.Context, creatorID primitive.ObjectID) ([]domain.Program, error)
	Update(ctx context.Context, program *domain.Program) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// PlanRepository defines the interface for interacting with shared content
// plans (the Program.ContentPlanID redirection target).
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error)
	GetByCreatorID(ctx context.Context, creatorID primitive.ObjectID) ([]domain.Plan, error)
	Update(ctx context.Context, plan *domain.Plan) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ModuleRepository defines the interface for interacting with module data.
// Modules are parented by either a program or a plan, never both.
type ModuleRepository interface {
	Create(ctx context.Context, module *domain.Module) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Module, error)
	GetByProgramID(ctx context.Context, programID primitive.ObjectID) ([]domain.Module, error)
	GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.Module, error)
	// NextProgramOrder returns max(order)+1 among the program's modules (0 when none).
	NextProgramOrder(ctx context.Context, programID primitive.ObjectID) (int, error)
	NextPlanOrder(ctx context.Context, planID primitive.ObjectID) (int, error)
	// UpdateOrders applies a sibling reorder, titles included, in one batch.
	// Batches over MaxWriteBatchSize are rejected with ErrBatchTooLarge.
	UpdateOrders(ctx context.Context, updates []ModuleOrderUpdate) error
	Update(ctx context.Context, module *domain.Module) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// SessionRepository defines the interface for interacting with session data.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) (primitive.ObjectID, error)
	// EnsurePlaceholder upserts session by its (pre-derived) ID, writing the
	// fields only on insert. Safe under concurrent callers for the same ID.
	EnsurePlaceholder(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Session, error)
	GetByModuleID(ctx context.Context, moduleID primitive.ObjectID) ([]domain.Session, error)
	// FindByLibraryRef scans a module's sessions for one referencing the
	// given library session. Returns ErrNotFound when no sibling matches.
	FindByLibraryRef(ctx context.Context, moduleID, librarySessionID primitive.ObjectID) (*domain.Session, error)
	NextOrder(ctx context.Context, moduleID primitive.ObjectID) (int, error)
	UpdateOrders(ctx context.Context, updates []OrderUpdate) error
	Update(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ExerciseRepository defines the interface for interacting with
// program-side exercise data.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	GetBySessionID(ctx context.Context, sessionID primitive.ObjectID) ([]domain.Exercise, error)
	NextOrder(ctx context.Context, sessionID primitive.ObjectID) (int, error)
	UpdateOrders(ctx context.Context, updates []OrderUpdate) error
	Update(ctx context.Context, exercise *domain.Exercise) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// SetRepository defines the interface for interacting with set data.
type SetRepository interface {
	Create(ctx context.Context, set *domain.Set) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Set, error)
	GetByExerciseID(ctx context.Context, exerciseID primitive.ObjectID) ([]domain.Set, error)
	NextOrder(ctx context.Context, exerciseID primitive.ObjectID) (int, error)
	Update(ctx context.Context, set *domain.Set) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// OverrideRepository manages the singleton per-session override documents.
type OverrideRepository interface {
	// Get returns ErrNotFound when the session has no override.
	Get(ctx context.Context, sessionID primitive.ObjectID) (*domain.SessionOverride, error)
	Upsert(ctx context.Context, override *domain.SessionOverride) error
	Delete(ctx context.Context, sessionID primitive.ObjectID) error
}

// LibraryRepository is the accessor for the canonical, creator-scoped
// library namespace (modules, sessions, exercises).
type LibraryRepository interface {
	CreateModule(ctx context.Context, module *domain.LibraryModule) (primitive.ObjectID, error)
	GetModuleByID(ctx context.Context, id primitive.ObjectID) (*domain.LibraryModule, error)
	GetModulesByCreatorID(ctx context.Context, creatorID primitive.ObjectID) ([]domain.LibraryModule, error)
	UpdateModule(ctx context.Context, module *domain.LibraryModule) error
	DeleteModule(ctx context.Context, id primitive.ObjectID) error

	CreateSession(ctx context.Context, session *domain.LibrarySession) (primitive.ObjectID, error)
	GetSessionByID(ctx context.Context, id primitive.ObjectID) (*domain.LibrarySession, error)
	GetSessionsByCreatorID(ctx context.Context, creatorID primitive.ObjectID) ([]domain.LibrarySession, error)
	UpdateSession(ctx context.Context, session *domain.LibrarySession) error
	DeleteSession(ctx context.Context, id primitive.ObjectID) error

	CreateExercise(ctx context.Context, exercise *domain.LibraryExercise) (primitive.ObjectID, error)
	GetExerciseByID(ctx context.Context, id primitive.ObjectID) (*domain.LibraryExercise, error)
	GetExercisesBySessionID(ctx context.Context, librarySessionID primitive.ObjectID) ([]domain.LibraryExercise, error)
	NextExerciseOrder(ctx context.Context, librarySessionID primitive.ObjectID) (int, error)
	UpdateExercise(ctx context.Context, exercise *domain.LibraryExercise) error
	DeleteExercise(ctx context.Context, id primitive.ObjectID) error
}
