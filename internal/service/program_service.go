package service

import (
	"context"
	"errors"
	"fmt"

	"entrena/coach-app/internal/domain"
	"entrena/coach-app/internal/repository"
	"entrena/coach-app/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	ErrProgramNotFound      = errors.New("program not found")
	ErrProgramAccessDenied  = errors.New("access denied to this program")
	ErrModuleNotFound       = errors.New("module not found")
	ErrModuleNotInProgram   = errors.New("module does not belong to this program")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionNotInProgram  = errors.New("session does not belong to this program")
	ErrExerciseNotFound     = errors.New("exercise not found")
	ErrExerciseNotInProgram = errors.New("exercise does not belong to this program")
	ErrSetNotFound          = errors.New("set not found")
	ErrSetNotInProgram      = errors.New("set does not belong to this program")
	ErrModuleIsReference    = errors.New("library-referenced module content is read-only")
	ErrSessionIsReference   = errors.New("library-referenced session fields can only change through its override")
	ErrOverrideNotAllowed   = errors.New("overrides only apply to library-referenced sessions")
	ErrContentPlanNotFound  = errors.New("content plan not found")
	ErrReorderBatchTooLarge = errors.New("reorder batch exceeds the store write ceiling")
)

// SessionOverridePatch is the sparse patch a creator applies on top of a
// resolved library session. Nil fields inherit the library value.
type SessionOverridePatch struct {
	Title       *string
	Description *string
	ImageKey    *string
}

// UploadTarget is a presigned upload issued to the dashboard: the client
// PUTs the file to URL, then stores Key on the owning document.
type UploadTarget struct {
	URL string
	Key string
}

// ProgramService is the operation surface consumed by handler code: program
// CRUD, the resolved content reads, and every hierarchy mutation. Content
// reads honor Program.ContentPlanID redirection; when it is set the whole
// hierarchy is served from the shared plan, bypassing library resolution.
type ProgramService interface {
	// Program CRUD
	CreateProgram(ctx context.Context, creatorID primitive.ObjectID, title, description string, deliveryType domain.DeliveryType) (*domain.Program, error)
	GetProgramByID(ctx context.Context, userID primitive.ObjectID, userRole domain.Role, programID primitive.ObjectID) (*domain.Program, error)
	GetProgramsByCreator(ctx context.Context, creatorID primitive.ObjectID) ([]domain.Program, error)
	UpdateProgram(ctx context.Context, creatorID, programID primitive.ObjectID, title, description string, deliveryType domain.DeliveryType, contentPlanID *primitive.ObjectID) (*domain.Program, error)
	DeleteProgram(ctx context.Context, creatorID, programID primitive.ObjectID) error

	// Resolved content reads. Readable by the owning creator or by a
	// client the program has been assigned to.
	GetModulesByProgram(ctx context.Context, userID primitive.ObjectID, userRole domain.Role, programID primitive.ObjectID) ([]domain.ResolvedModule, error)
	GetSessionsByModule(ctx context.Context, userID primitive.ObjectID, userRole domain.Role, programID, moduleID primitive.ObjectID) ([]domain.ResolvedSession, error)
	GetSessionByID(ctx context.Context, userID primitive.ObjectID, userRole domain.Role, programID, moduleID, sessionID primitive.ObjectID) (*domain.ResolvedSession, error)
	GetExercisesBySession(ctx context.Context, userID primitive.ObjectID, userRole domain.Role, programID, moduleID, sessionID primitive.ObjectID) ([]domain.Exercise, error)
	GetSetsByExercise(ctx context.Context, userID primitive.ObjectID, userRole domain.Role, programID, exerciseID primitive.ObjectID) ([]domain.Set, error)

	// Module mutation
	CreateModule(ctx context.Context, creatorID, programID primitive.ObjectID, order *int) (*domain.Module, error)
	CreateModuleFromLibrary(ctx context.Context, creatorID, programID, libraryModuleID primitive.ObjectID) (*domain.Module, error)
	UpdateModuleOrders(ctx context.Context, creatorID, programID primitive.ObjectID, updates []repository.OrderUpdate) error
	DeleteModule(ctx context.Context, creatorID, programID, moduleID primitive.ObjectID) error

	// Session mutation
	CreateSession(ctx context.Context, creatorID, programID, moduleID primitive.ObjectID, title, description string, order *int) (*domain.Session, error)
	UpdateSession(ctx context.Context, creatorID, programID, sessionID primitive.ObjectID, title, description, imageKey string) (*domain.Session, error)
	UpdateSessionOrders(ctx context.Context, creatorID, programID primitive.ObjectID, updates []repository.OrderUpdate) error
	DeleteSession(ctx context.Context, creatorID, programID, sessionID primitive.ObjectID) error
	UpdateSessionOverride(ctx context.Context, creatorID, programID, moduleID, sessionID primitive.ObjectID, patch SessionOverridePatch) (*domain.ResolvedSession, error)

	// Exercise mutation
	CreateExercise(ctx context.Context, creatorID, programID, sessionID primitive.ObjectID, title, notes, videoURL string, order *int) (*domain.Exercise, error)
	UpdateExercise(ctx context.Context, creatorID, programID, exerciseID primitive.ObjectID, title, notes, videoURL string) (*domain.Exercise, error)
	UpdateExerciseOrders(ctx context.Context, creatorID, programID primitive.ObjectID, updates []repository.OrderUpdate) error
	DeleteExercise(ctx context.Context, creatorID, programID, exerciseID primitive.ObjectID) error

	// Set mutation
	CreateSet(ctx context.Context, creatorID, programID, exerciseID primitive.ObjectID, reps int, weight float64, restSeconds int, order *int) (*domain.Set, error)
	UpdateSet(ctx context.Context, creatorID, programID, setID primitive.ObjectID, reps int, weight float64, restSeconds int) (*domain.Set, error)
	DeleteSet(ctx context.Context, creatorID, programID, setID primitive.ObjectID) error

	// Image uploads (dashboard → S3, direct)
	GenerateProgramCoverUpload(ctx context.Context, creatorID, programID primitive.ObjectID, contentType string) (*UploadTarget, error)
	GenerateSessionImageUpload(ctx context.Context, creatorID, programID, sessionID primitive.ObjectID, contentType string) (*UploadTarget, error)
}

// programService implements the ProgramService interface.
type programService struct {
	userRepo     repository.UserRepository
	programRepo  repository.ProgramRepository
	planRepo     repository.PlanRepository
	moduleRepo   repository.ModuleRepository
	sessionRepo  repository.SessionRepository
	exerciseRepo repository.ExerciseRepository
	setRepo      repository.SetRepository
	overrideRepo repository.OverrideRepository
	libraryRepo  repository.LibraryRepository
	resolver     *contentResolver
	mutator      *hierarchyMutator
	fileStorage  storage.FileStorage
	log          *zap.SugaredLogger
}

// NewProgramService creates a new instance of programService.
func NewProgramService(
	userRepo repository.UserRepository,
	programRepo repository.ProgramRepository,
	planRepo repository.PlanRepository,
	moduleRepo repository.ModuleRepository,
	sessionRepo repository.SessionRepository,
	exerciseRepo repository.ExerciseRepository,
	setRepo repository.SetRepository,
	overrideRepo repository.OverrideRepository,
	libraryRepo repository.LibraryRepository,
	fileStorage storage.FileStorage,
	log *zap.SugaredLogger,
) ProgramService {
	return &programService{
		userRepo:     userRepo,
		programRepo:  programRepo,
		planRepo:     planRepo,
		moduleRepo:   moduleRepo,
		sessionRepo:  sessionRepo,
		exerciseRepo: exerciseRepo,
		setRepo:      setRepo,
		overrideRepo: overrideRepo,
		libraryRepo:  libraryRepo,
		resolver:     newContentResolver(moduleRepo, sessionRepo, exerciseRepo, setRepo, overrideRepo, libraryRepo, log),
		mutator:      newHierarchyMutator(moduleRepo, sessionRepo, exerciseRepo, setRepo, overrideRepo),
		fileStorage:  fileStorage,
		log:          log,
	}
}

// === Program CRUD ===

func (s *programService) CreateProgram(ctx context.Context, creatorID primitive.ObjectID, title, description string, deliveryType domain.DeliveryType) (*domain.Program, error) {
	if creatorID == primitive.NilObjectID || title == "" {
		return nil, errors.New("creator ID and title are required")
	}
	if deliveryType == "" {
		deliveryType = domain.DeliveryLowTicket
	}

	program := &domain.Program{
		CreatorID:    creatorID,
		Title:        title,
		Description:  description,
		DeliveryType: deliveryType,
	}
	programID, err := s.programRepo.Create(ctx, program)
	if err != nil {
		return nil, err
	}
	return s.programRepo.GetByID(ctx, programID)
}

func (s *programService) GetProgramByID(ctx context.Context, userID primitive.ObjectID, userRole domain.Role, programID primitive.ObjectID) (*domain.Program, error) {
	return s.readableProgram(ctx, userID, userRole, programID)
}

func (s *programService) GetProgramsByCreator(ctx context.Context, creatorID primitive.ObjectID) ([]domain.Program, error) {
	if creatorID == primitive.NilObjectID {
		return nil, errors.New("creator ID is required")
	}
	return s.programRepo.GetByCreatorID(ctx, creatorID)
}

func (s *programService) UpdateProgram(ctx context.Context, creatorID, programID primitive.ObjectID, title, description string, deliveryType domain.DeliveryType, contentPlanID *primitive.ObjectID) (*domain.Program, error) {
	program, err := s.ownedProgram(ctx, creatorID, programID)
	if err != nil {
		return nil, err
	}

	// Redirecting content to a plan requires the plan to exist and be owned
	// by the same creator.
	if contentPlanID != nil && *contentPlanID != primitive.NilObjectID {
		plan, err := s.planRepo.GetByID(ctx, *contentPlanID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrContentPlanNotFound
			}
			return nil, err
		}
		if plan.CreatorID != creatorID {
			return nil, ErrProgramAccessDenied
		}
	}

	if title != "" {
		program.Title = title
	}
	program.Description = description
	if deliveryType != "" {
		program.DeliveryType = deliveryType
	}
	program.ContentPlanID = contentPlanID

	if err := s.programRepo.Update(ctx, program); err != nil {
		return nil, err
	}
	return program, nil
}

// DeleteProgram walks the whole subtree bottom-up before removing the
// program document itself.
func (s *programService) DeleteProgram(ctx context.Context, creatorID, programID primitive.ObjectID) error {
	if _, err := s.ownedProgram(ctx, creatorID, programID); err != nil {
		return err
	}
	if err := s.mutator.deleteProgramCascade(ctx, programID); err != nil {
		return err
	}
	return s.programRepo.Delete(ctx, programID)
}

// === Resolved content reads ===

func (s *programService) GetModulesByProgram(ctx context.Context, userID primitive.ObjectID, userRole domain.Role, programID primitive.ObjectID) ([]domain.ResolvedModule, error) {
	program, err := s.readableProgram(ctx, userID, userRole, programID)
	if err != nil {
		return nil, err
	}

	// contentPlanId redirection: serve the shared plan's hierarchy instead
	// of the program's own; plan content never resolves from the library.
	if program.ContentPlanID != nil && *program.ContentPlanID != primitive.NilObjectID {
		modules, err := s.moduleRepo.GetByPlanID(ctx, *program.ContentPlanID)
		if err != nil {
			return nil, err
		}
		resolved := make([]domain.ResolvedModule, len(modules))
		for i := range modules {
			resolved[i] = domain.ResolvedModule{Module: modules[i]}
			resolved[i].Title = domain.ModuleTitle(modules[i].Order)
		}
		return resolved, nil
	}

	return s.resolver.resolveProgramModules(ctx, programID)
}

func (s *programService) GetSessionsByModule(ctx context.Context, userID primitive.ObjectID, userRole domain.Role, programID, moduleID primitive.ObjectID) ([]domain.ResolvedSession, error) {
	if _, err := s.readableProgram(ctx, userID, userRole, programID); err != nil {
		return nil, err
	}
	module, err := s.moduleForProgram(ctx, programID, moduleID)
	if err != nil {
		return nil, err
	}
	return s.resolver.resolveModuleSessions(ctx, programID, module)
}

func (s *programService) GetSessionByID(ctx context.Context, userID primitive.ObjectID, userRole domain.Role, programID, moduleID, sessionID primitive.ObjectID) (*domain.ResolvedSession, error) {
	if _, err := s.readableProgram(ctx, userID, userRole, programID); err != nil {
		return nil, err
	}
	session, err := s.sessionForProgram(ctx, programID, sessionID)
	if err != nil {
		return nil, err
	}
	resolved := s.resolver.resolveSession(ctx, session)
	return &resolved, nil
}

func (s *programService) GetExercisesBySession(ctx context.Context, userID primitive.ObjectID, userRole domain.Role, programID, moduleID, sessionID primitive.ObjectID) ([]domain.Exercise, error) {
	if _, err := s.readableProgram(ctx, userID, userRole, programID); err != nil {
		return nil, err
	}
	session, err := s.sessionForProgram(ctx, programID, sessionID)
	if err != nil {
		return nil, err
	}
	return s.resolver.resolveSessionExercises(ctx, session)
}

func (s *programService) GetSetsByExercise(ctx context.Context, userID primitive.ObjectID, userRole domain.Role, programID, exerciseID primitive.ObjectID) ([]domain.Set, error) {
	program, err := s.readableProgram(ctx, userID, userRole, programID)
	if err != nil {
		return nil, err
	}

	// Program-side exercises are checked through their session parentage.
	// Resolved library sessions surface library exercise ids, which have no
	// program-side document; those are tied to the program through the
	// library session's creator instead.
	if _, err := s.exerciseForProgram(ctx, programID, exerciseID); err != nil {
		if !errors.Is(err, ErrExerciseNotFound) {
			return nil, err
		}
		libraryExercise, lerr := s.libraryRepo.GetExerciseByID(ctx, exerciseID)
		if lerr != nil {
			if errors.Is(lerr, repository.ErrNotFound) {
				return nil, ErrExerciseNotFound
			}
			return nil, lerr
		}
		librarySession, lerr := s.libraryRepo.GetSessionByID(ctx, libraryExercise.LibrarySessionID)
		if lerr != nil {
			if errors.Is(lerr, repository.ErrNotFound) {
				return nil, ErrExerciseNotFound
			}
			return nil, lerr
		}
		if librarySession.CreatorID != program.CreatorID {
			return nil, ErrExerciseNotInProgram
		}
	}

	return s.resolver.resolveExerciseSets(ctx, exerciseID)
}

// === Module mutation ===

func (s *programService) CreateModule(ctx context.Context, creatorID, programID primitive.ObjectID, order *int) (*domain.Module, error) {
	if _, err := s.ownedProgram(ctx, creatorID, programID); err != nil {
		return nil, err
	}
	return s.mutator.createProgramModule(ctx, programID, nil, order)
}

// CreateModuleFromLibrary creates a module referencing a library module and
// eagerly materializes one program-side session placeholder per library
// sessionRef. Placeholder creation is best-effort: a failure on one session
// logs and continues rather than aborting the rest; partial success is
// accepted and the lazy path fills gaps on the next read.
func (s *programService) CreateModuleFromLibrary(ctx context.Context, creatorID, programID, libraryModuleID primitive.ObjectID) (*domain.Module, error) {
	if _, err := s.ownedProgram(ctx, creatorID, programID); err != nil {
		return nil, err
	}

	libraryModule, err := s.libraryRepo.GetModuleByID(ctx, libraryModuleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLibraryModuleNotFound
		}
		return nil, err
	}
	if libraryModule.CreatorID != creatorID {
		return nil, ErrLibraryAccessDenied
	}

	module, err := s.mutator.createProgramModule(ctx, programID, &libraryModuleID, nil)
	if err != nil {
		return nil, err
	}

	for _, ref := range domain.NormalizeSessionRefs(libraryModule.SessionRefs) {
		libID := ref.LibrarySessionID
		placeholder := &domain.Session{
			ID:               domain.PlaceholderSessionID(module.ID, libID),
			ModuleID:         module.ID,
			ProgramID:        programID,
			LibrarySessionID: &libID,
			Order:            ref.Order,
		}
		if err := s.sessionRepo.EnsurePlaceholder(ctx, placeholder); err != nil {
			s.log.Warnw("eager placeholder creation failed, continuing",
				"moduleId", module.ID.Hex(), "librarySessionId", libID.Hex(), "error", err)
		}
	}

	return module, nil
}

func (s *programService) UpdateModuleOrders(ctx context.Context, creatorID, programID primitive.ObjectID, updates []repository.OrderUpdate) error {
	if _, err := s.ownedProgram(ctx, creatorID, programID); err != nil {
		return err
	}
	if len(updates) > repository.MaxWriteBatchSize {
		return ErrReorderBatchTooLarge
	}
	// Every id must parent to this program before the bulk write.
	for _, update := range updates {
		module, err := s.moduleRepo.GetByID(ctx, update.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrModuleNotFound
			}
			return err
		}
		if module.ProgramID != programID {
			return ErrModuleNotInProgram
		}
	}
	if err := s.mutator.reorderModules(ctx, updates); err != nil {
		if errors.Is(err, repository.ErrBatchTooLarge) {
			return ErrReorderBatchTooLarge
		}
		return err
	}
	return nil
}

func (s *programService) DeleteModule(ctx context.Context, creatorID, programID, moduleID primitive.ObjectID) error {
	if _, err := s.ownedProgram(ctx, creatorID, programID); err != nil {
		return err
	}
	if _, err := s.moduleForProgram(ctx, programID, moduleID); err != nil {
		return err
	}
	return s.mutator.deleteModuleCascade(ctx, moduleID)
}

// === Session mutation ===

func (s *programService) CreateSession(ctx context.Context, creatorID, programID, moduleID primitive.ObjectID, title, description string, order *int) (*domain.Session, error) {
	if _, err := s.ownedProgram(ctx, creatorID, programID); err != nil {
		return nil, err
	}
	module, err := s.moduleForProgram(ctx, programID, moduleID)
	if err != nil {
		return nil, err
	}
	// A library-referenced module's session list is owned by the library.
	if module.IsLibraryRef() {
		return nil, ErrModuleIsReference
	}
	return s.mutator.createSession(ctx, programID, moduleID, title, description, order)
}

func (s *programService) UpdateSession(ctx context.Context, creatorID, programID, sessionID primitive.ObjectID, title, description, imageKey string) (*domain.Session, error) {
	if _, err := s.ownedProgram(ctx, creatorID, programID); err != nil {
		return nil, err
	}
	session, err := s.sessionForProgram(ctx, programID, sessionID)
	if err != nil {
		return nil, err
	}
	// Referenced sessions change only through their override.
	if session.IsLibraryRef() {
		return nil, ErrSessionIsReference
	}

	session.Title = title
	session.Description = description
	session.ImageKey = imageKey
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *programService) UpdateSessionOrders(ctx context.Context, creatorID, programID primitive.ObjectID, updates []repository.OrderUpdate) error {
	if _, err := s.ownedProgram(ctx, creatorID, programID); err != nil {
		return err
	}
	if len(updates) > repository.MaxWriteBatchSize {
		return ErrReorderBatchTooLarge
	}
	for _, update := range updates {
		if _, err := s.sessionForProgram(ctx, programID, update.ID); err != nil {
			return err
		}
	}
	if err := s.mutator.reorderSessions(ctx, updates); err != nil {
		if errors.Is(err, repository.ErrBatchTooLarge) {
			return ErrReorderBatchTooLarge
		}
		return err
	}
	return nil
}

func (s *programService) DeleteSession(ctx context.Context, creatorID, programID, sessionID primitive.ObjectID) error {
	if _, err := s.ownedProgram(ctx, creatorID, programID); err != nil {
		return err
	}
	if _, err := s.sessionForProgram(ctx, programID, sessionID); err != nil {
		return err
	}
	return s.mutator.deleteSessionCascade(ctx, sessionID)
}

// UpdateSessionOverride attaches (or rewrites) the sparse patch on a
// materialized, library-referenced session. An all-nil patch clears the
// override entirely.
func (s *programService) UpdateSessionOverride(ctx context.Context, creatorID, programID, moduleID, sessionID primitive.ObjectID, patch SessionOverridePatch) (*domain.ResolvedSession, error) {
	if _, err := s.ownedProgram(ctx, creatorID, programID); err != nil {
		return nil, err
	}
	session, err := s.sessionForProgram(ctx, programID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsLibraryRef() {
		return nil, ErrOverrideNotAllowed
	}

	override := &domain.SessionOverride{
		SessionID:   sessionID,
		Title:       patch.Title,
		Description: patch.Description,
		ImageKey:    patch.ImageKey,
	}
	if override.IsEmpty() {
		if err := s.overrideRepo.Delete(ctx, sessionID); err != nil {
			return nil, err
		}
	} else if err := s.overrideRepo.Upsert(ctx, override); err != nil {
		return nil, err
	}

	resolved := s.resolver.resolveSession(ctx, session)
	return &resolved, nil
}

// === Exercise mutation ===

func (s *programService) CreateExercise(ctx context.Context, creatorID, programID, sessionID primitive.ObjectID, title, notes, videoURL string, order *int) (*domain.Exercise, error) {
	if title == "" {
		return nil, errors.New("exercise title is required")
	}
	if _, err := s.ownedProgram(ctx, creatorID, programID); err != nil {
		return nil, err
	}
	session, err := s.sessionForProgram(ctx, programID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsLibraryRef() {
		return nil, ErrSessionIsReference
	}
	return s.mutator.createExercise(ctx, sessionID, title, notes, videoURL, order)
}

func (s *programService) UpdateExercise(ctx context.Context, creatorID, programID, exerciseID primitive.ObjectID, title, notes, videoURL string) (*domain.Exercise, error) {
	if _, err := s.ownedProgram(ctx, creatorID, programID); err != nil {
		return nil, err
	}
	exercise, err := s.exerciseForProgram(ctx, programID, exerciseID)
	if err != nil {
		return nil, err
	}

	if title != "" {
		exercise.Title = title
		exercise.Name = title
	}
	exercise.Notes = notes
	exercise.VideoURL = videoURL
	if err := s.exerciseRepo.Update(ctx, exercise); err != nil {
		return nil, err
	}
	return exercise, nil
}

func (s *programService) UpdateExerciseOrders(ctx context.Context, creatorID, programID primitive.ObjectID, updates []repository.OrderUpdate) error {
	if _, err := s.ownedProgram(ctx, creatorID, programID); err != nil {
		return err
	}
	if len(updates) > repository.MaxWriteBatchSize {
		return ErrReorderBatchTooLarge
	}
	for _, update := range updates {
		if _, err := s.exerciseForProgram(ctx, programID, update.ID); err != nil {
			return err
		}
	}
	if err := s.mutator.reorderExercises(ctx, updates); err != nil {
		if errors.Is(err, repository.ErrBatchTooLarge) {
			return ErrReorderBatchTooLarge
		}
		return err
	}
	return nil
}

func (s *programService) DeleteExercise(ctx context.Context, creatorID, programID, exerciseID primitive.ObjectID) error {
	if _, err := s.ownedProgram(ctx, creatorID, programID); err != nil {
		return err
	}
	if _, err := s.exerciseForProgram(ctx, programID, exerciseID); err != nil {
		return err
	}
	return s.mutator.deleteExerciseCascade(ctx, exerciseID)
}

// === Set mutation ===

func (s *programService) CreateSet(ctx context.Context, creatorID, programID, exerciseID primitive.ObjectID, reps int, weight float64, restSeconds int, order *int) (*domain.Set, error) {
	if _, err := s.ownedProgram(ctx, creatorID, programID); err != nil {
		return nil, err
	}
	if _, err := s.exerciseForProgram(ctx, programID, exerciseID); err != nil {
		return nil, err
	}
	return s.mutator.createSet(ctx, exerciseID, reps, weight, restSeconds, order)
}

func (s *programService) UpdateSet(ctx context.Context, creatorID, programID, setID primitive.ObjectID, reps int, weight float64, restSeconds int) (*domain.Set, error) {
	if _, err := s.ownedProgram(ctx, creatorID, programID); err != nil {
		return nil, err
	}
	set, err := s.setForProgram(ctx, programID, setID)
	if err != nil {
		return nil, err
	}

	set.Reps = reps
	set.Weight = weight
	set.RestSeconds = restSeconds
	if err := s.setRepo.Update(ctx, set); err != nil {
		return nil, err
	}
	return set, nil
}

func (s *programService) DeleteSet(ctx context.Context, creatorID, programID, setID primitive.ObjectID) error {
	if _, err := s.ownedProgram(ctx, creatorID, programID); err != nil {
		return err
	}
	if _, err := s.setForProgram(ctx, programID, setID); err != nil {
		return err
	}
	if err := s.setRepo.Delete(ctx, setID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSetNotFound
		}
		return err
	}
	return nil
}

// === Image uploads ===

func (s *programService) GenerateProgramCoverUpload(ctx context.Context, creatorID, programID primitive.ObjectID, contentType string) (*UploadTarget, error) {
	if _, err := s.ownedProgram(ctx, creatorID, programID); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("programs/%s/cover/%s", programID.Hex(), uuid.NewString())
	return s.presignUpload(ctx, key, contentType)
}

func (s *programService) GenerateSessionImageUpload(ctx context.Context, creatorID, programID, sessionID primitive.ObjectID, contentType string) (*UploadTarget, error) {
	if _, err := s.ownedProgram(ctx, creatorID, programID); err != nil {
		return nil, err
	}
	if _, err := s.sessionForProgram(ctx, programID, sessionID); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("programs/%s/sessions/%s/%s", programID.Hex(), sessionID.Hex(), uuid.NewString())
	return s.presignUpload(ctx, key, contentType)
}

func (s *programService) presignUpload(ctx context.Context, key, contentType string) (*UploadTarget, error) {
	url, err := s.fileStorage.GeneratePresignedUploadURL(ctx, key, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, err
	}
	return &UploadTarget{URL: url, Key: key}, nil
}

// === Helpers ===

// ownedProgram fetches the program and enforces creator ownership.
func (s *programService) ownedProgram(ctx context.Context, creatorID, programID primitive.ObjectID) (*domain.Program, error) {
	if creatorID == primitive.NilObjectID || programID == primitive.NilObjectID {
		return nil, errors.New("creator ID and program ID are required")
	}
	program, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	if program.CreatorID != creatorID {
		return nil, ErrProgramAccessDenied
	}
	return program, nil
}

// moduleForProgram fetches a module and checks its program parentage,
// accepting plan-parented modules when the program redirects to that plan.
func (s *programService) moduleForProgram(ctx context.Context, programID, moduleID primitive.ObjectID) (*domain.Module, error) {
	module, err := s.moduleRepo.GetByID(ctx, moduleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrModuleNotFound
		}
		return nil, err
	}
	if module.ProgramID == programID {
		return module, nil
	}
	if module.PlanID != primitive.NilObjectID {
		program, err := s.programRepo.GetByID(ctx, programID)
		if err == nil && program.ContentPlanID != nil && *program.ContentPlanID == module.PlanID {
			return module, nil
		}
	}
	return nil, ErrModuleNotInProgram
}

// readableProgram fetches the program and enforces read access: the owning
// creator, or a client the program has been assigned to.
func (s *programService) readableProgram(ctx context.Context, userID primitive.ObjectID, userRole domain.Role, programID primitive.ObjectID) (*domain.Program, error) {
	if userID == primitive.NilObjectID || programID == primitive.NilObjectID {
		return nil, errors.New("user ID and program ID are required")
	}
	program, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}

	switch userRole {
	case domain.RoleCreator:
		if program.CreatorID != userID {
			return nil, ErrProgramAccessDenied
		}
	case domain.RoleClient:
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrProgramAccessDenied
			}
			return nil, err
		}
		assigned := false
		for _, id := range user.ProgramIDs {
			if id == programID {
				assigned = true
				break
			}
		}
		if !assigned {
			return nil, ErrProgramAccessDenied
		}
	default:
		return nil, ErrProgramAccessDenied
	}
	return program, nil
}

// sessionForProgram fetches a session and checks its program parentage:
// directly through the denormalized ProgramID, or through its module for
// plan-parented content served via redirection.
func (s *programService) sessionForProgram(ctx context.Context, programID, sessionID primitive.ObjectID) (*domain.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.ProgramID == programID {
		return session, nil
	}
	if _, err := s.moduleForProgram(ctx, programID, session.ModuleID); err == nil {
		return session, nil
	}
	return nil, ErrSessionNotInProgram
}

// exerciseForProgram fetches an exercise and checks, through its session,
// that it belongs to the program.
func (s *programService) exerciseForProgram(ctx context.Context, programID, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	if _, err := s.sessionForProgram(ctx, programID, exercise.SessionID); err != nil {
		return nil, ErrExerciseNotInProgram
	}
	return exercise, nil
}

// setForProgram fetches a set and checks, through its exercise, that it
// belongs to the program.
func (s *programService) setForProgram(ctx context.Context, programID, setID primitive.ObjectID) (*domain.Set, error) {
	set, err := s.setRepo.GetByID(ctx, setID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSetNotFound
		}
		return nil, err
	}
	if _, err := s.exerciseForProgram(ctx, programID, set.ExerciseID); err != nil {
		return nil, ErrSetNotInProgram
	}
	return set, nil
}
