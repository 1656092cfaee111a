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

var (
	ErrLibraryModuleNotFound   = errors.New("library module not found")
	ErrLibrarySessionNotFound  = errors.New("library session not found")
	ErrLibraryExerciseNotFound = errors.New("library exercise not found")
	ErrLibraryAccessDenied     = errors.New("access denied to this library content")
)

// LibraryService manages a creator's reusable content: library modules,
// library sessions and their exercises. Programs point at this content
// through module/session references; edits here propagate to every
// referencing program on its next resolved read.
type LibraryService interface {
	// Library modules
	CreateModule(ctx context.Context, creatorID primitive.ObjectID, title, description string, sessionIDs []primitive.ObjectID) (*domain.LibraryModule, error)
	GetModuleByID(ctx context.Context, creatorID, moduleID primitive.ObjectID) (*domain.LibraryModule, error)
	GetModulesByCreator(ctx context.Context, creatorID primitive.ObjectID) ([]domain.LibraryModule, error)
	UpdateModule(ctx context.Context, creatorID, moduleID primitive.ObjectID, title, description string) (*domain.LibraryModule, error)
	SetModuleSessions(ctx context.Context, creatorID, moduleID primitive.ObjectID, sessionIDs []primitive.ObjectID) (*domain.LibraryModule, error)
	DeleteModule(ctx context.Context, creatorID, moduleID primitive.ObjectID) error

	// Library sessions
	CreateSession(ctx context.Context, creatorID primitive.ObjectID, title, description string) (*domain.LibrarySession, error)
	GetSessionByID(ctx context.Context, creatorID, sessionID primitive.ObjectID) (*domain.LibrarySession, error)
	GetSessionsByCreator(ctx context.Context, creatorID primitive.ObjectID) ([]domain.LibrarySession, error)
	UpdateSession(ctx context.Context, creatorID, sessionID primitive.ObjectID, title, description, imageKey string) (*domain.LibrarySession, error)
	DeleteSession(ctx context.Context, creatorID, sessionID primitive.ObjectID) error
	GenerateSessionImageUpload(ctx context.Context, creatorID, sessionID primitive.ObjectID, contentType string) (*UploadTarget, error)

	// Library exercises
	CreateExercise(ctx context.Context, creatorID, sessionID primitive.ObjectID, title, notes, videoURL string, order *int) (*domain.LibraryExercise, error)
	GetExercisesBySession(ctx context.Context, creatorID, sessionID primitive.ObjectID) ([]domain.LibraryExercise, error)
	UpdateExercise(ctx context.Context, creatorID, exerciseID primitive.ObjectID, title, notes, videoURL string) (*domain.LibraryExercise, error)
	DeleteExercise(ctx context.Context, creatorID, exerciseID primitive.ObjectID) error
}

type libraryService struct {
	libraryRepo repository.LibraryRepository
	fileStorage storage.FileStorage
	log         *zap.SugaredLogger
}

// NewLibraryService creates a new instance of libraryService.
func NewLibraryService(libraryRepo repository.LibraryRepository, fileStorage storage.FileStorage, log *zap.SugaredLogger) LibraryService {
	return &libraryService{libraryRepo: libraryRepo, fileStorage: fileStorage, log: log}
}

// === Library modules ===

func (s *libraryService) CreateModule(ctx context.Context, creatorID primitive.ObjectID, title, description string, sessionIDs []primitive.ObjectID) (*domain.LibraryModule, error) {
	if creatorID == primitive.NilObjectID || title == "" {
		return nil, errors.New("creator ID and title are required")
	}
	refs, err := s.refsForSessions(ctx, creatorID, sessionIDs)
	if err != nil {
		return nil, err
	}

	module := &domain.LibraryModule{
		CreatorID:   creatorID,
		Title:       title,
		Description: description,
		SessionRefs: refs,
	}
	moduleID, err := s.libraryRepo.CreateModule(ctx, module)
	if err != nil {
		return nil, err
	}
	return s.libraryRepo.GetModuleByID(ctx, moduleID)
}

func (s *libraryService) GetModuleByID(ctx context.Context, creatorID, moduleID primitive.ObjectID) (*domain.LibraryModule, error) {
	return s.ownedModule(ctx, creatorID, moduleID)
}

func (s *libraryService) GetModulesByCreator(ctx context.Context, creatorID primitive.ObjectID) ([]domain.LibraryModule, error) {
	if creatorID == primitive.NilObjectID {
		return nil, errors.New("creator ID is required")
	}
	return s.libraryRepo.GetModulesByCreatorID(ctx, creatorID)
}

func (s *libraryService) UpdateModule(ctx context.Context, creatorID, moduleID primitive.ObjectID, title, description string) (*domain.LibraryModule, error) {
	module, err := s.ownedModule(ctx, creatorID, moduleID)
	if err != nil {
		return nil, err
	}
	if title != "" {
		module.Title = title
	}
	module.Description = description
	if err := s.libraryRepo.UpdateModule(ctx, module); err != nil {
		return nil, err
	}
	return module, nil
}

// SetModuleSessions replaces the module's session list wholesale. The refs
// are written in the document encoding with list-index orders.
func (s *libraryService) SetModuleSessions(ctx context.Context, creatorID, moduleID primitive.ObjectID, sessionIDs []primitive.ObjectID) (*domain.LibraryModule, error) {
	module, err := s.ownedModule(ctx, creatorID, moduleID)
	if err != nil {
		return nil, err
	}
	refs, err := s.refsForSessions(ctx, creatorID, sessionIDs)
	if err != nil {
		return nil, err
	}
	module.SessionRefs = refs
	if err := s.libraryRepo.UpdateModule(ctx, module); err != nil {
		return nil, err
	}
	return module, nil
}

// DeleteModule removes the library module only. Program modules referencing
// it degrade to their standalone fields on the next read.
func (s *libraryService) DeleteModule(ctx context.Context, creatorID, moduleID primitive.ObjectID) error {
	if _, err := s.ownedModule(ctx, creatorID, moduleID); err != nil {
		return err
	}
	return s.libraryRepo.DeleteModule(ctx, moduleID)
}

// === Library sessions ===

func (s *libraryService) CreateSession(ctx context.Context, creatorID primitive.ObjectID, title, description string) (*domain.LibrarySession, error) {
	if creatorID == primitive.NilObjectID || title == "" {
		return nil, errors.New("creator ID and title are required")
	}
	session := &domain.LibrarySession{
		CreatorID:   creatorID,
		Title:       title,
		Description: description,
	}
	sessionID, err := s.libraryRepo.CreateSession(ctx, session)
	if err != nil {
		return nil, err
	}
	return s.libraryRepo.GetSessionByID(ctx, sessionID)
}

func (s *libraryService) GetSessionByID(ctx context.Context, creatorID, sessionID primitive.ObjectID) (*domain.LibrarySession, error) {
	return s.ownedSession(ctx, creatorID, sessionID)
}

func (s *libraryService) GetSessionsByCreator(ctx context.Context, creatorID primitive.ObjectID) ([]domain.LibrarySession, error) {
	if creatorID == primitive.NilObjectID {
		return nil, errors.New("creator ID is required")
	}
	return s.libraryRepo.GetSessionsByCreatorID(ctx, creatorID)
}

func (s *libraryService) UpdateSession(ctx context.Context, creatorID, sessionID primitive.ObjectID, title, description, imageKey string) (*domain.LibrarySession, error) {
	session, err := s.ownedSession(ctx, creatorID, sessionID)
	if err != nil {
		return nil, err
	}
	if title != "" {
		session.Title = title
	}
	session.Description = description
	if imageKey != "" {
		session.ImageKey = imageKey
	}
	if err := s.libraryRepo.UpdateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// DeleteSession removes the library session and its exercises. Placeholder
// sessions referencing it keep resolving; they fall back to their own
// (mostly empty) fields, which the dashboard surfaces as a broken ref.
func (s *libraryService) DeleteSession(ctx context.Context, creatorID, sessionID primitive.ObjectID) error {
	if _, err := s.ownedSession(ctx, creatorID, sessionID); err != nil {
		return err
	}
	exercises, err := s.libraryRepo.GetExercisesBySessionID(ctx, sessionID)
	if err != nil {
		return err
	}
	for _, exercise := range exercises {
		if err := s.libraryRepo.DeleteExercise(ctx, exercise.ID); err != nil {
			return fmt.Errorf("deleting library exercise %s: %w", exercise.ID.Hex(), err)
		}
	}
	return s.libraryRepo.DeleteSession(ctx, sessionID)
}

func (s *libraryService) GenerateSessionImageUpload(ctx context.Context, creatorID, sessionID primitive.ObjectID, contentType string) (*UploadTarget, error) {
	if _, err := s.ownedSession(ctx, creatorID, sessionID); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("library/sessions/%s/%s", sessionID.Hex(), uuid.NewString())
	url, err := s.fileStorage.GeneratePresignedUploadURL(ctx, key, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, err
	}
	return &UploadTarget{URL: url, Key: key}, nil
}

// === Library exercises ===

func (s *libraryService) CreateExercise(ctx context.Context, creatorID, sessionID primitive.ObjectID, title, notes, videoURL string, order *int) (*domain.LibraryExercise, error) {
	if title == "" {
		return nil, errors.New("exercise title is required")
	}
	if _, err := s.ownedSession(ctx, creatorID, sessionID); err != nil {
		return nil, err
	}

	ord := 0
	if order != nil {
		ord = *order
	} else {
		next, err := s.libraryRepo.NextExerciseOrder(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		ord = next
	}

	exercise := &domain.LibraryExercise{
		LibrarySessionID: sessionID,
		Title:            title,
		Name:             title,
		Order:            ord,
		Notes:            notes,
		VideoURL:         videoURL,
	}
	exerciseID, err := s.libraryRepo.CreateExercise(ctx, exercise)
	if err != nil {
		return nil, err
	}
	return s.libraryRepo.GetExerciseByID(ctx, exerciseID)
}

func (s *libraryService) GetExercisesBySession(ctx context.Context, creatorID, sessionID primitive.ObjectID) ([]domain.LibraryExercise, error) {
	if _, err := s.ownedSession(ctx, creatorID, sessionID); err != nil {
		return nil, err
	}
	return s.libraryRepo.GetExercisesBySessionID(ctx, sessionID)
}

func (s *libraryService) UpdateExercise(ctx context.Context, creatorID, exerciseID primitive.ObjectID, title, notes, videoURL string) (*domain.LibraryExercise, error) {
	exercise, err := s.ownedExercise(ctx, creatorID, exerciseID)
	if err != nil {
		return nil, err
	}
	if title != "" {
		exercise.Title = title
		exercise.Name = title
	}
	exercise.Notes = notes
	exercise.VideoURL = videoURL
	if err := s.libraryRepo.UpdateExercise(ctx, exercise); err != nil {
		return nil, err
	}
	return exercise, nil
}

func (s *libraryService) DeleteExercise(ctx context.Context, creatorID, exerciseID primitive.ObjectID) error {
	if _, err := s.ownedExercise(ctx, creatorID, exerciseID); err != nil {
		return err
	}
	return s.libraryRepo.DeleteExercise(ctx, exerciseID)
}

// === Helpers ===

func (s *libraryService) ownedModule(ctx context.Context, creatorID, moduleID primitive.ObjectID) (*domain.LibraryModule, error) {
	module, err := s.libraryRepo.GetModuleByID(ctx, moduleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLibraryModuleNotFound
		}
		return nil, err
	}
	if module.CreatorID != creatorID {
		return nil, ErrLibraryAccessDenied
	}
	return module, nil
}

func (s *libraryService) ownedSession(ctx context.Context, creatorID, sessionID primitive.ObjectID) (*domain.LibrarySession, error) {
	session, err := s.libraryRepo.GetSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLibrarySessionNotFound
		}
		return nil, err
	}
	if session.CreatorID != creatorID {
		return nil, ErrLibraryAccessDenied
	}
	return session, nil
}

func (s *libraryService) ownedExercise(ctx context.Context, creatorID, exerciseID primitive.ObjectID) (*domain.LibraryExercise, error) {
	exercise, err := s.libraryRepo.GetExerciseByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLibraryExerciseNotFound
		}
		return nil, err
	}
	if _, err := s.ownedSession(ctx, creatorID, exercise.LibrarySessionID); err != nil {
		return nil, err
	}
	return exercise, nil
}

// refsForSessions validates ownership of every session and builds the
// ordered ref list.
func (s *libraryService) refsForSessions(ctx context.Context, creatorID primitive.ObjectID, sessionIDs []primitive.ObjectID) ([]domain.SessionRef, error) {
	refs := make([]domain.SessionRef, 0, len(sessionIDs))
	for i, sessionID := range sessionIDs {
		if _, err := s.ownedSession(ctx, creatorID, sessionID); err != nil {
			return nil, err
		}
		refs = append(refs, domain.SessionRef{
			LibrarySessionID: sessionID,
			Order:            i,
			HasOrder:         true,
		})
	}
	return refs, nil
}
