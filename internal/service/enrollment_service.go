package service

import (
	"context"
	"errors"

	"entrena/coach-app/internal/domain"
	"entrena/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrClientNotFound        = errors.New("client user not found")
	ErrClientNotRole         = errors.New("user found but is not a client")
	ErrClientAlreadyManaged  = errors.New("client is already managed by another creator")
	ErrClientNotManaged      = errors.New("client is not managed by this creator")
	ErrProgramNotForDelivery = errors.New("only one-on-one programs can be assigned directly")
)

// EnrollmentService manages the creator/client relationship and which
// programs a client can read.
type EnrollmentService interface {
	AddClientByEmail(ctx context.Context, creatorID primitive.ObjectID, clientEmail string) (*domain.User, error)
	GetManagedClients(ctx context.Context, creatorID primitive.ObjectID) ([]domain.User, error)
	AssignProgramToClient(ctx context.Context, creatorID, clientID, programID primitive.ObjectID) error
	GetClientPrograms(ctx context.Context, clientID primitive.ObjectID) ([]domain.Program, error)
}

// enrollmentService implements the EnrollmentService interface.
type enrollmentService struct {
	userRepo    repository.UserRepository
	programRepo repository.ProgramRepository
}

// NewEnrollmentService creates a new instance of enrollmentService.
func NewEnrollmentService(userRepo repository.UserRepository, programRepo repository.ProgramRepository) EnrollmentService {
	return &enrollmentService{
		userRepo:    userRepo,
		programRepo: programRepo,
	}
}

// AddClientByEmail finds a client by email and places them under the creator.
func (s *enrollmentService) AddClientByEmail(ctx context.Context, creatorID primitive.ObjectID, clientEmail string) (*domain.User, error) {
	if creatorID == primitive.NilObjectID || clientEmail == "" {
		return nil, errors.New("creator ID and client email are required")
	}

	client, err := s.userRepo.GetByEmail(ctx, clientEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	if client.Role != domain.RoleClient {
		return nil, ErrClientNotRole
	}

	if client.CreatorID != nil && *client.CreatorID != primitive.NilObjectID {
		if *client.CreatorID == creatorID {
			client.PasswordHash = ""
			return client, nil
		}
		return nil, ErrClientAlreadyManaged
	}

	if err := s.userRepo.AddClientIDToCreator(ctx, creatorID, client.ID); err != nil {
		return nil, err
	}
	if err := s.userRepo.SetCreatorForClient(ctx, client.ID, creatorID); err != nil {
		return nil, err
	}

	client.CreatorID = &creatorID
	client.PasswordHash = ""
	return client, nil
}

// GetManagedClients retrieves the list of clients managed by the creator.
func (s *enrollmentService) GetManagedClients(ctx context.Context, creatorID primitive.ObjectID) ([]domain.User, error) {
	if creatorID == primitive.NilObjectID {
		return nil, errors.New("creator ID is required")
	}
	clients, err := s.userRepo.GetClientsByCreatorID(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	for i := range clients {
		clients[i].PasswordHash = ""
	}
	return clients, nil
}

// AssignProgramToClient grants a managed client read access to a one-on-one
// program owned by the creator. Low-ticket programs are granted through the
// purchase flow, not here.
func (s *enrollmentService) AssignProgramToClient(ctx context.Context, creatorID, clientID, programID primitive.ObjectID) error {
	if creatorID == primitive.NilObjectID || clientID == primitive.NilObjectID || programID == primitive.NilObjectID {
		return errors.New("creator ID, client ID, and program ID are required")
	}

	program, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProgramNotFound
		}
		return err
	}
	if program.CreatorID != creatorID {
		return ErrProgramAccessDenied
	}
	if program.DeliveryType != domain.DeliveryOneOnOne {
		return ErrProgramNotForDelivery
	}

	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrClientNotFound
		}
		return err
	}
	if client.CreatorID == nil || *client.CreatorID != creatorID {
		return ErrClientNotManaged
	}

	return s.userRepo.AddProgramIDToClient(ctx, clientID, programID)
}

// GetClientPrograms lists the programs a client has been granted.
func (s *enrollmentService) GetClientPrograms(ctx context.Context, clientID primitive.ObjectID) ([]domain.Program, error) {
	if clientID == primitive.NilObjectID {
		return nil, errors.New("client ID is required")
	}
	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	programs := make([]domain.Program, 0, len(client.ProgramIDs))
	for _, programID := range client.ProgramIDs {
		program, err := s.programRepo.GetByID(ctx, programID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, err
		}
		programs = append(programs, *program)
	}
	return programs, nil
}
