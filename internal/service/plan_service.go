package service

import (
	"context"
	"errors"

	"entrena/coach-app/internal/domain"
	"entrena/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrPlanNotFound     = errors.New("content plan not found")
	ErrPlanAccessDenied = errors.New("access denied to this content plan")
	ErrModuleNotInPlan  = errors.New("module does not belong to this content plan")
)

// PlanService manages shared content plans: reusable module hierarchies a
// creator can point any number of programs at via contentPlanId. Plan
// content is always standalone, never library-referenced.
type PlanService interface {
	CreatePlan(ctx context.Context, creatorID primitive.ObjectID, title, description string) (*domain.Plan, error)
	GetPlanByID(ctx context.Context, creatorID, planID primitive.ObjectID) (*domain.Plan, error)
	GetPlansByCreator(ctx context.Context, creatorID primitive.ObjectID) ([]domain.Plan, error)
	UpdatePlan(ctx context.Context, creatorID, planID primitive.ObjectID, title, description string) (*domain.Plan, error)
	DeletePlan(ctx context.Context, creatorID, planID primitive.ObjectID) error

	GetModulesByPlan(ctx context.Context, creatorID, planID primitive.ObjectID) ([]domain.Module, error)
	CreateModule(ctx context.Context, creatorID, planID primitive.ObjectID, order *int) (*domain.Module, error)
	UpdateModuleOrders(ctx context.Context, creatorID, planID primitive.ObjectID, updates []repository.OrderUpdate) error
	DeleteModule(ctx context.Context, creatorID, planID, moduleID primitive.ObjectID) error

	CreateSession(ctx context.Context, creatorID, planID, moduleID primitive.ObjectID, title, description string, order *int) (*domain.Session, error)
}

type planService struct {
	planRepo   repository.PlanRepository
	moduleRepo repository.ModuleRepository
	mutator    *hierarchyMutator
	log        *zap.SugaredLogger
}

// NewPlanService creates a new instance of planService.
func NewPlanService(
	planRepo repository.PlanRepository,
	moduleRepo repository.ModuleRepository,
	sessionRepo repository.SessionRepository,
	exerciseRepo repository.ExerciseRepository,
	setRepo repository.SetRepository,
	overrideRepo repository.OverrideRepository,
	log *zap.SugaredLogger,
) PlanService {
	return &planService{
		planRepo:   planRepo,
		moduleRepo: moduleRepo,
		mutator:    newHierarchyMutator(moduleRepo, sessionRepo, exerciseRepo, setRepo, overrideRepo),
		log:        log,
	}
}

func (s *planService) CreatePlan(ctx context.Context, creatorID primitive.ObjectID, title, description string) (*domain.Plan, error) {
	if creatorID == primitive.NilObjectID || title == "" {
		return nil, errors.New("creator ID and title are required")
	}
	plan := &domain.Plan{
		CreatorID:   creatorID,
		Title:       title,
		Description: description,
	}
	planID, err := s.planRepo.Create(ctx, plan)
	if err != nil {
		return nil, err
	}
	return s.planRepo.GetByID(ctx, planID)
}

func (s *planService) GetPlanByID(ctx context.Context, creatorID, planID primitive.ObjectID) (*domain.Plan, error) {
	return s.ownedPlan(ctx, creatorID, planID)
}

func (s *planService) GetPlansByCreator(ctx context.Context, creatorID primitive.ObjectID) ([]domain.Plan, error) {
	if creatorID == primitive.NilObjectID {
		return nil, errors.New("creator ID is required")
	}
	return s.planRepo.GetByCreatorID(ctx, creatorID)
}

func (s *planService) UpdatePlan(ctx context.Context, creatorID, planID primitive.ObjectID, title, description string) (*domain.Plan, error) {
	plan, err := s.ownedPlan(ctx, creatorID, planID)
	if err != nil {
		return nil, err
	}
	if title != "" {
		plan.Title = title
	}
	plan.Description = description
	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// DeletePlan cascades through the plan's module hierarchy, then removes the
// plan. Programs still pointing at the plan fall back to their own content
// on the next read, so no program update is required here.
func (s *planService) DeletePlan(ctx context.Context, creatorID, planID primitive.ObjectID) error {
	if _, err := s.ownedPlan(ctx, creatorID, planID); err != nil {
		return err
	}
	if err := s.mutator.deletePlanCascade(ctx, planID); err != nil {
		return err
	}
	return s.planRepo.Delete(ctx, planID)
}

func (s *planService) GetModulesByPlan(ctx context.Context, creatorID, planID primitive.ObjectID) ([]domain.Module, error) {
	if _, err := s.ownedPlan(ctx, creatorID, planID); err != nil {
		return nil, err
	}
	modules, err := s.moduleRepo.GetByPlanID(ctx, planID)
	if err != nil {
		return nil, err
	}
	for i := range modules {
		modules[i].Title = domain.ModuleTitle(modules[i].Order)
	}
	return modules, nil
}

func (s *planService) CreateModule(ctx context.Context, creatorID, planID primitive.ObjectID, order *int) (*domain.Module, error) {
	if _, err := s.ownedPlan(ctx, creatorID, planID); err != nil {
		return nil, err
	}
	return s.mutator.createPlanModule(ctx, planID, order)
}

func (s *planService) UpdateModuleOrders(ctx context.Context, creatorID, planID primitive.ObjectID, updates []repository.OrderUpdate) error {
	if _, err := s.ownedPlan(ctx, creatorID, planID); err != nil {
		return err
	}
	if err := s.mutator.reorderModules(ctx, updates); err != nil {
		if errors.Is(err, repository.ErrBatchTooLarge) {
			return ErrReorderBatchTooLarge
		}
		return err
	}
	return nil
}

func (s *planService) DeleteModule(ctx context.Context, creatorID, planID, moduleID primitive.ObjectID) error {
	if _, err := s.ownedPlan(ctx, creatorID, planID); err != nil {
		return err
	}
	module, err := s.moduleRepo.GetByID(ctx, moduleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrModuleNotFound
		}
		return err
	}
	if module.PlanID != planID {
		return ErrModuleNotInPlan
	}
	return s.mutator.deleteModuleCascade(ctx, moduleID)
}

func (s *planService) CreateSession(ctx context.Context, creatorID, planID, moduleID primitive.ObjectID, title, description string, order *int) (*domain.Session, error) {
	if _, err := s.ownedPlan(ctx, creatorID, planID); err != nil {
		return nil, err
	}
	module, err := s.moduleRepo.GetByID(ctx, moduleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrModuleNotFound
		}
		return nil, err
	}
	if module.PlanID != planID {
		return nil, ErrModuleNotInPlan
	}
	// Plan sessions reuse the program session shape with no program parent.
	return s.mutator.createSession(ctx, primitive.NilObjectID, moduleID, title, description, order)
}

func (s *planService) ownedPlan(ctx context.Context, creatorID, planID primitive.ObjectID) (*domain.Plan, error) {
	if creatorID == primitive.NilObjectID || planID == primitive.NilObjectID {
		return nil, errors.New("creator ID and plan ID are required")
	}
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if plan.CreatorID != creatorID {
		return nil, ErrPlanAccessDenied
	}
	return plan, nil
}
