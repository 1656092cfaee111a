package service

import (
	"context"

	"entrena/coach-app/internal/domain"
	"entrena/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// hierarchyMutator owns create/reorder/cascade-delete across the
// Module → Session → Exercise → Set hierarchy. It performs no
// authorization; the owning service checks ownership before calling in.
// Program-parented and plan-parented modules go through the same code.
type hierarchyMutator struct {
	moduleRepo   repository.ModuleRepository
	sessionRepo  repository.SessionRepository
	exerciseRepo repository.ExerciseRepository
	setRepo      repository.SetRepository
	overrideRepo repository.OverrideRepository
}

func newHierarchyMutator(
	moduleRepo repository.ModuleRepository,
	sessionRepo repository.SessionRepository,
	exerciseRepo repository.ExerciseRepository,
	setRepo repository.SetRepository,
	overrideRepo repository.OverrideRepository,
) *hierarchyMutator {
	return &hierarchyMutator{
		moduleRepo:   moduleRepo,
		sessionRepo:  sessionRepo,
		exerciseRepo: exerciseRepo,
		setRepo:      setRepo,
		overrideRepo: overrideRepo,
	}
}

// === Creates ===
// When the caller supplies no explicit order, siblings are appended at
// max(order)+1. The derived titles (modules, sets) are stamped here so a
// freshly created entity already satisfies the title invariant.

func (m *hierarchyMutator) createProgramModule(ctx context.Context, programID primitive.ObjectID, libraryModuleID *primitive.ObjectID, order *int) (*domain.Module, error) {
	ord, err := m.resolveOrder(ctx, order, func(ctx context.Context) (int, error) {
		return m.moduleRepo.NextProgramOrder(ctx, programID)
	})
	if err != nil {
		return nil, err
	}

	module := &domain.Module{
		ProgramID:       programID,
		LibraryModuleID: libraryModuleID,
		Order:           ord,
		Title:           domain.ModuleTitle(ord),
	}
	moduleID, err := m.moduleRepo.Create(ctx, module)
	if err != nil {
		return nil, err
	}
	module.ID = moduleID
	return module, nil
}

func (m *hierarchyMutator) createPlanModule(ctx context.Context, planID primitive.ObjectID, order *int) (*domain.Module, error) {
	ord, err := m.resolveOrder(ctx, order, func(ctx context.Context) (int, error) {
		return m.moduleRepo.NextPlanOrder(ctx, planID)
	})
	if err != nil {
		return nil, err
	}

	module := &domain.Module{
		PlanID: planID,
		Order:  ord,
		Title:  domain.ModuleTitle(ord),
	}
	moduleID, err := m.moduleRepo.Create(ctx, module)
	if err != nil {
		return nil, err
	}
	module.ID = moduleID
	return module, nil
}

func (m *hierarchyMutator) createSession(ctx context.Context, programID, moduleID primitive.ObjectID, title, description string, order *int) (*domain.Session, error) {
	ord, err := m.resolveOrder(ctx, order, func(ctx context.Context) (int, error) {
		return m.sessionRepo.NextOrder(ctx, moduleID)
	})
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		ModuleID:    moduleID,
		ProgramID:   programID,
		Order:       ord,
		Title:       title,
		Description: description,
	}
	sessionID, err := m.sessionRepo.Create(ctx, session)
	if err != nil {
		return nil, err
	}
	session.ID = sessionID
	return session, nil
}

func (m *hierarchyMutator) createExercise(ctx context.Context, sessionID primitive.ObjectID, title, notes, videoURL string, order *int) (*domain.Exercise, error) {
	ord, err := m.resolveOrder(ctx, order, func(ctx context.Context) (int, error) {
		return m.exerciseRepo.NextOrder(ctx, sessionID)
	})
	if err != nil {
		return nil, err
	}

	exercise := &domain.Exercise{
		SessionID: sessionID,
		Title:     title,
		Name:      title, // Duplicated for backward-compatible reads
		Order:     ord,
		Notes:     notes,
		VideoURL:  videoURL,
	}
	exerciseID, err := m.exerciseRepo.Create(ctx, exercise)
	if err != nil {
		return nil, err
	}
	exercise.ID = exerciseID
	return exercise, nil
}

func (m *hierarchyMutator) createSet(ctx context.Context, exerciseID primitive.ObjectID, reps int, weight float64, restSeconds int, order *int) (*domain.Set, error) {
	ord, err := m.resolveOrder(ctx, order, func(ctx context.Context) (int, error) {
		return m.setRepo.NextOrder(ctx, exerciseID)
	})
	if err != nil {
		return nil, err
	}

	set := &domain.Set{
		ExerciseID:  exerciseID,
		Title:       domain.SetTitle(ord),
		Order:       ord,
		Reps:        reps,
		Weight:      weight,
		RestSeconds: restSeconds,
	}
	setID, err := m.setRepo.Create(ctx, set)
	if err != nil {
		return nil, err
	}
	set.ID = setID
	return set, nil
}

func (m *hierarchyMutator) resolveOrder(ctx context.Context, explicit *int, next func(context.Context) (int, error)) (int, error) {
	if explicit != nil {
		return *explicit, nil
	}
	return next(ctx)
}

// === Reorders ===

// reorderModules rewrites order and the derived title in one batch, so a
// caller can never observe a module whose title disagrees with its order.
func (m *hierarchyMutator) reorderModules(ctx context.Context, updates []repository.OrderUpdate) error {
	if len(updates) > repository.MaxWriteBatchSize {
		return repository.ErrBatchTooLarge
	}
	withTitles := make([]repository.ModuleOrderUpdate, 0, len(updates))
	for _, u := range updates {
		withTitles = append(withTitles, repository.ModuleOrderUpdate{
			ID:    u.ID,
			Order: u.Order,
			Title: domain.ModuleTitle(u.Order),
		})
	}
	return m.moduleRepo.UpdateOrders(ctx, withTitles)
}

func (m *hierarchyMutator) reorderSessions(ctx context.Context, updates []repository.OrderUpdate) error {
	return m.sessionRepo.UpdateOrders(ctx, updates)
}

func (m *hierarchyMutator) reorderExercises(ctx context.Context, updates []repository.OrderUpdate) error {
	return m.exerciseRepo.UpdateOrders(ctx, updates)
}

// === Cascading deletes ===
// Strictly bottom-up and fully sequential: Sets, then the Exercise, then the
// Session, then the Module, then the root. Sequential traversal bounds store
// load, and a failure partway leaves a consistent partially trimmed subtree
// rather than children dangling under a deleted ancestor. The first failing
// deletion aborts the remaining sequence; nothing already deleted is restored.

func (m *hierarchyMutator) deleteExerciseCascade(ctx context.Context, exerciseID primitive.ObjectID) error {
	sets, err := m.setRepo.GetByExerciseID(ctx, exerciseID)
	if err != nil {
		return err
	}
	for _, set := range sets {
		if err := m.setRepo.Delete(ctx, set.ID); err != nil {
			return err
		}
	}
	return m.exerciseRepo.Delete(ctx, exerciseID)
}

func (m *hierarchyMutator) deleteSessionCascade(ctx context.Context, sessionID primitive.ObjectID) error {
	exercises, err := m.exerciseRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return err
	}
	for _, exercise := range exercises {
		if err := m.deleteExerciseCascade(ctx, exercise.ID); err != nil {
			return err
		}
	}
	// The override is part of the session subtree.
	if err := m.overrideRepo.Delete(ctx, sessionID); err != nil {
		return err
	}
	return m.sessionRepo.Delete(ctx, sessionID)
}

func (m *hierarchyMutator) deleteModuleCascade(ctx context.Context, moduleID primitive.ObjectID) error {
	sessions, err := m.sessionRepo.GetByModuleID(ctx, moduleID)
	if err != nil {
		return err
	}
	for _, session := range sessions {
		if err := m.deleteSessionCascade(ctx, session.ID); err != nil {
			return err
		}
	}
	return m.moduleRepo.Delete(ctx, moduleID)
}

func (m *hierarchyMutator) deleteProgramCascade(ctx context.Context, programID primitive.ObjectID) error {
	modules, err := m.moduleRepo.GetByProgramID(ctx, programID)
	if err != nil {
		return err
	}
	for _, module := range modules {
		if err := m.deleteModuleCascade(ctx, module.ID); err != nil {
			return err
		}
	}
	return nil
}

func (m *hierarchyMutator) deletePlanCascade(ctx context.Context, planID primitive.ObjectID) error {
	modules, err := m.moduleRepo.GetByPlanID(ctx, planID)
	if err != nil {
		return err
	}
	for _, module := range modules {
		if err := m.deleteModuleCascade(ctx, module.ID); err != nil {
			return err
		}
	}
	return nil
}
