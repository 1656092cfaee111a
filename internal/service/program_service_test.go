package service

import (
	"context"
	"fmt"
	"testing"

	"entrena/coach-app/internal/domain"
	"entrena/coach-app/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type programFixture struct {
	users     *fakeUserRepo
	programs  *fakeProgramRepo
	plans     *fakePlanRepo
	modules   *fakeModuleRepo
	sessions  *fakeSessionRepo
	exercises *fakeExerciseRepo
	sets      *fakeSetRepo
	overrides *fakeOverrideRepo
	library   *fakeLibraryRepo
	svc       ProgramService

	creatorID primitive.ObjectID
}

func newProgramFixture() *programFixture {
	f := &programFixture{
		users:     newFakeUserRepo(),
		programs:  newFakeProgramRepo(),
		plans:     newFakePlanRepo(),
		modules:   newFakeModuleRepo(),
		sessions:  newFakeSessionRepo(),
		exercises: newFakeExerciseRepo(),
		sets:      newFakeSetRepo(),
		overrides: newFakeOverrideRepo(),
		library:   newFakeLibraryRepo(),
		creatorID: primitive.NewObjectID(),
	}
	f.svc = NewProgramService(
		f.users, f.programs, f.plans, f.modules, f.sessions, f.exercises,
		f.sets, f.overrides, f.library, fakeFileStorage{}, testLogger(),
	)
	return f
}

func (f *programFixture) createProgram(t *testing.T) *domain.Program {
	t.Helper()
	program, err := f.svc.CreateProgram(context.Background(), f.creatorID, "Hipertrofia 12 semanas", "", domain.DeliveryLowTicket)
	require.NoError(t, err)
	return program
}

func (f *programFixture) createLibrarySession(t *testing.T, title string) *domain.LibrarySession {
	t.Helper()
	session := &domain.LibrarySession{CreatorID: f.creatorID, Title: title, Description: "desc " + title}
	_, err := f.library.CreateSession(context.Background(), session)
	require.NoError(t, err)
	return session
}

func (f *programFixture) createLibraryModule(t *testing.T, sessions ...*domain.LibrarySession) *domain.LibraryModule {
	t.Helper()
	refs := make([]domain.SessionRef, len(sessions))
	for i, s := range sessions {
		refs[i] = domain.SessionRef{LibrarySessionID: s.ID, Order: i, HasOrder: true}
	}
	module := &domain.LibraryModule{CreatorID: f.creatorID, Title: "Fase de fuerza", SessionRefs: refs}
	_, err := f.library.CreateModule(context.Background(), module)
	require.NoError(t, err)
	return module
}

func TestCreateModuleDerivesTitleFromOrder(t *testing.T) {
	f := newProgramFixture()
	ctx := context.Background()
	program := f.createProgram(t)

	for i := 0; i < 3; i++ {
		module, err := f.svc.CreateModule(ctx, f.creatorID, program.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, i, module.Order)
		assert.Equal(t, fmt.Sprintf("Semana %d", i+1), module.Title)
	}
}

func TestGetModulesReturnsDerivedTitlesInOrder(t *testing.T) {
	f := newProgramFixture()
	ctx := context.Background()
	program := f.createProgram(t)

	for i := 0; i < 3; i++ {
		_, err := f.svc.CreateModule(ctx, f.creatorID, program.ID, nil)
		require.NoError(t, err)
	}

	modules, err := f.svc.GetModulesByProgram(ctx, f.creatorID, domain.RoleCreator, program.ID)
	require.NoError(t, err)
	require.Len(t, modules, 3)
	for i, m := range modules {
		assert.Equal(t, i, m.Order)
		assert.Equal(t, domain.ModuleTitle(i), m.Title)
		assert.False(t, m.FromLibrary)
	}
}

func TestReorderModulesRewritesTitlesInSameBatch(t *testing.T) {
	f := newProgramFixture()
	ctx := context.Background()
	program := f.createProgram(t)

	first, err := f.svc.CreateModule(ctx, f.creatorID, program.ID, nil)
	require.NoError(t, err)
	second, err := f.svc.CreateModule(ctx, f.creatorID, program.ID, nil)
	require.NoError(t, err)

	err = f.svc.UpdateModuleOrders(ctx, f.creatorID, program.ID, []repository.OrderUpdate{
		{ID: first.ID, Order: 1},
		{ID: second.ID, Order: 0},
	})
	require.NoError(t, err)

	modules, err := f.svc.GetModulesByProgram(ctx, f.creatorID, domain.RoleCreator, program.ID)
	require.NoError(t, err)
	require.Len(t, modules, 2)
	assert.Equal(t, second.ID, modules[0].ID)
	assert.Equal(t, "Semana 1", modules[0].Title)
	assert.Equal(t, first.ID, modules[1].ID)
	assert.Equal(t, "Semana 2", modules[1].Title)
}

func TestReorderRejectsOversizedBatch(t *testing.T) {
	f := newProgramFixture()
	ctx := context.Background()
	program := f.createProgram(t)

	updates := make([]repository.OrderUpdate, repository.MaxWriteBatchSize+1)
	for i := range updates {
		updates[i] = repository.OrderUpdate{ID: primitive.NewObjectID(), Order: i}
	}

	err := f.svc.UpdateModuleOrders(ctx, f.creatorID, program.ID, updates)
	assert.ErrorIs(t, err, ErrReorderBatchTooLarge)

	err = f.svc.UpdateSessionOrders(ctx, f.creatorID, program.ID, updates)
	assert.ErrorIs(t, err, ErrReorderBatchTooLarge)
}

func TestProgramOwnershipEnforced(t *testing.T) {
	f := newProgramFixture()
	ctx := context.Background()
	program := f.createProgram(t)
	stranger := primitive.NewObjectID()

	_, err := f.svc.CreateModule(ctx, stranger, program.ID, nil)
	assert.ErrorIs(t, err, ErrProgramAccessDenied)

	err = f.svc.DeleteProgram(ctx, stranger, program.ID)
	assert.ErrorIs(t, err, ErrProgramAccessDenied)

	_, err = f.svc.CreateModule(ctx, f.creatorID, primitive.NewObjectID(), nil)
	assert.ErrorIs(t, err, ErrProgramNotFound)
}

func TestLibrarySessionMaterializationIsIdempotent(t *testing.T) {
	f := newProgramFixture()
	ctx := context.Background()
	program := f.createProgram(t)

	libA := f.createLibrarySession(t, "Empuje")
	libB := f.createLibrarySession(t, "Tirón")
	libModule := f.createLibraryModule(t, libA, libB)

	module, err := f.svc.CreateModule(ctx, f.creatorID, program.ID, nil)
	require.NoError(t, err)
	module.LibraryModuleID = &libModule.ID
	require.NoError(t, f.modules.Update(ctx, module))

	first, err := f.svc.GetSessionsByModule(ctx, f.creatorID, domain.RoleCreator, program.ID, module.ID)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 2, f.sessions.count())

	second, err := f.svc.GetSessionsByModule(ctx, f.creatorID, domain.RoleCreator, program.ID, module.ID)
	require.NoError(t, err)
	require.Len(t, second, 2)
	// No duplicate placeholders on repeated resolution.
	assert.Equal(t, 2, f.sessions.count())

	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
	// Placeholder ids are derived, not random.
	assert.Equal(t, domain.PlaceholderSessionID(module.ID, libA.ID), first[0].ID)
	assert.Equal(t, "Empuje", first[0].Title)
	assert.True(t, first[0].FromLibrary)
	assert.Equal(t, 0, first[0].Order)
	assert.Equal(t, 1, first[1].Order)
}

func TestOverrideWinsFieldByField(t *testing.T) {
	f := newProgramFixture()
	ctx := context.Background()
	program := f.createProgram(t)

	lib := f.createLibrarySession(t, "Empuje")
	libModule := f.createLibraryModule(t, lib)

	module, err := f.svc.CreateModuleFromLibrary(ctx, f.creatorID, program.ID, libModule.ID)
	require.NoError(t, err)

	sessions, err := f.svc.GetSessionsByModule(ctx, f.creatorID, domain.RoleCreator, program.ID, module.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	sessionID := sessions[0].ID

	title := "Empuje adaptado"
	resolved, err := f.svc.UpdateSessionOverride(ctx, f.creatorID, program.ID, module.ID, sessionID, SessionOverridePatch{Title: &title})
	require.NoError(t, err)

	// Overridden field wins, absent fields inherit the library value.
	assert.Equal(t, "Empuje adaptado", resolved.Title)
	assert.Equal(t, "desc Empuje", resolved.Description)
	// The id stays program-side so exercise/set lookups keep working.
	assert.Equal(t, sessionID, resolved.ID)
	require.NotNil(t, resolved.Override)
	assert.Equal(t, "Empuje adaptado", *resolved.Override.Title)
}

func TestEmptyOverridePatchClearsOverride(t *testing.T) {
	f := newProgramFixture()
	ctx := context.Background()
	program := f.createProgram(t)

	lib := f.createLibrarySession(t, "Empuje")
	libModule := f.createLibraryModule(t, lib)
	module, err := f.svc.CreateModuleFromLibrary(ctx, f.creatorID, program.ID, libModule.ID)
	require.NoError(t, err)

	sessionID := domain.PlaceholderSessionID(module.ID, lib.ID)
	title := "Custom"
	_, err = f.svc.UpdateSessionOverride(ctx, f.creatorID, program.ID, module.ID, sessionID, SessionOverridePatch{Title: &title})
	require.NoError(t, err)
	require.Equal(t, 1, f.overrides.count())

	resolved, err := f.svc.UpdateSessionOverride(ctx, f.creatorID, program.ID, module.ID, sessionID, SessionOverridePatch{})
	require.NoError(t, err)
	assert.Equal(t, 0, f.overrides.count())
	assert.Equal(t, "Empuje", resolved.Title)
}

func TestOverrideRejectedOnStandaloneSession(t *testing.T) {
	f := newProgramFixture()
	ctx := context.Background()
	program := f.createProgram(t)

	module, err := f.svc.CreateModule(ctx, f.creatorID, program.ID, nil)
	require.NoError(t, err)
	session, err := f.svc.CreateSession(ctx, f.creatorID, program.ID, module.ID, "Día propio", "", nil)
	require.NoError(t, err)

	title := "nope"
	_, err = f.svc.UpdateSessionOverride(ctx, f.creatorID, program.ID, module.ID, session.ID, SessionOverridePatch{Title: &title})
	assert.ErrorIs(t, err, ErrOverrideNotAllowed)
}

func TestCreateSessionRejectedOnLibraryModule(t *testing.T) {
	f := newProgramFixture()
	ctx := context.Background()
	program := f.createProgram(t)

	lib := f.createLibrarySession(t, "Empuje")
	libModule := f.createLibraryModule(t, lib)
	module, err := f.svc.CreateModuleFromLibrary(ctx, f.creatorID, program.ID, libModule.ID)
	require.NoError(t, err)

	_, err = f.svc.CreateSession(ctx, f.creatorID, program.ID, module.ID, "extra", "", nil)
	assert.ErrorIs(t, err, ErrModuleIsReference)
}

func TestCreateModuleFromLibraryEagerlyMaterializes(t *testing.T) {
	f := newProgramFixture()
	ctx := context.Background()
	program := f.createProgram(t)

	libA := f.createLibrarySession(t, "Empuje")
	libB := f.createLibrarySession(t, "Tirón")
	libModule := f.createLibraryModule(t, libA, libB)

	module, err := f.svc.CreateModuleFromLibrary(ctx, f.creatorID, program.ID, libModule.ID)
	require.NoError(t, err)
	require.NotNil(t, module.LibraryModuleID)
	assert.Equal(t, libModule.ID, *module.LibraryModuleID)

	// One placeholder per ref, before any read.
	assert.Equal(t, 2, f.sessions.count())

	stored, err := f.sessions.FindByLibraryRef(ctx, module.ID, libA.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Order)
}

func TestContentPlanRedirection(t *testing.T) {
	f := newProgramFixture()
	ctx := context.Background()
	program := f.createProgram(t)

	plan := &domain.Plan{CreatorID: f.creatorID, Title: "Plan base"}
	_, err := f.plans.Create(ctx, plan)
	require.NoError(t, err)

	planModule := &domain.Module{PlanID: plan.ID, Order: 0, Title: domain.ModuleTitle(0)}
	_, err = f.modules.Create(ctx, planModule)
	require.NoError(t, err)

	// A module the program owns directly; must be hidden while redirected.
	_, err = f.svc.CreateModule(ctx, f.creatorID, program.ID, nil)
	require.NoError(t, err)

	_, err = f.svc.UpdateProgram(ctx, f.creatorID, program.ID, "", "", "", &plan.ID)
	require.NoError(t, err)

	modules, err := f.svc.GetModulesByProgram(ctx, f.creatorID, domain.RoleCreator, program.ID)
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, planModule.ID, modules[0].ID)
	assert.Equal(t, plan.ID, modules[0].PlanID)
	assert.False(t, modules[0].FromLibrary)
}

func TestRedirectionRequiresOwnedPlan(t *testing.T) {
	f := newProgramFixture()
	ctx := context.Background()
	program := f.createProgram(t)

	foreignPlan := &domain.Plan{CreatorID: primitive.NewObjectID(), Title: "Ajena"}
	_, err := f.plans.Create(ctx, foreignPlan)
	require.NoError(t, err)

	_, err = f.svc.UpdateProgram(ctx, f.creatorID, program.ID, "", "", "", &foreignPlan.ID)
	assert.ErrorIs(t, err, ErrProgramAccessDenied)

	missing := primitive.NewObjectID()
	_, err = f.svc.UpdateProgram(ctx, f.creatorID, program.ID, "", "", "", &missing)
	assert.ErrorIs(t, err, ErrContentPlanNotFound)
}

func TestBrokenLibraryRefDegradesGracefully(t *testing.T) {
	f := newProgramFixture()
	ctx := context.Background()
	program := f.createProgram(t)

	module, err := f.svc.CreateModule(ctx, f.creatorID, program.ID, nil)
	require.NoError(t, err)
	danglingRef := primitive.NewObjectID()
	module.LibraryModuleID = &danglingRef
	require.NoError(t, f.modules.Update(ctx, module))

	// The read serves the module's own fields instead of failing.
	modules, err := f.svc.GetModulesByProgram(ctx, f.creatorID, domain.RoleCreator, program.ID)
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, domain.ModuleTitle(0), modules[0].Title)
	assert.False(t, modules[0].FromLibrary)

	sessions, err := f.svc.GetSessionsByModule(ctx, f.creatorID, domain.RoleCreator, program.ID, module.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestLibrarySessionExercisesCarryProgramSessionID(t *testing.T) {
	f := newProgramFixture()
	ctx := context.Background()
	program := f.createProgram(t)

	lib := f.createLibrarySession(t, "Empuje")
	_, err := f.library.CreateExercise(ctx, &domain.LibraryExercise{
		LibrarySessionID: lib.ID, Title: "Press banca", Name: "Press banca", Order: 0,
	})
	require.NoError(t, err)
	libModule := f.createLibraryModule(t, lib)

	module, err := f.svc.CreateModuleFromLibrary(ctx, f.creatorID, program.ID, libModule.ID)
	require.NoError(t, err)

	sessionID := domain.PlaceholderSessionID(module.ID, lib.ID)
	exercises, err := f.svc.GetExercisesBySession(ctx, f.creatorID, domain.RoleCreator, program.ID, module.ID, sessionID)
	require.NoError(t, err)
	require.Len(t, exercises, 1)
	assert.Equal(t, "Press banca", exercises[0].Title)
	assert.Equal(t, sessionID, exercises[0].SessionID)
}

func TestDeleteModuleCascadesBottomUp(t *testing.T) {
	f := newProgramFixture()
	ctx := context.Background()
	program := f.createProgram(t)

	module, err := f.svc.CreateModule(ctx, f.creatorID, program.ID, nil)
	require.NoError(t, err)

	for s := 0; s < 2; s++ {
		session, err := f.svc.CreateSession(ctx, f.creatorID, program.ID, module.ID, fmt.Sprintf("Día %d", s+1), "", nil)
		require.NoError(t, err)
		for e := 0; e < 2; e++ {
			exercise, err := f.svc.CreateExercise(ctx, f.creatorID, program.ID, session.ID, fmt.Sprintf("Ejercicio %d", e+1), "", "", nil)
			require.NoError(t, err)
			for k := 0; k < 2; k++ {
				_, err := f.svc.CreateSet(ctx, f.creatorID, program.ID, exercise.ID, 10, 60, 90, nil)
				require.NoError(t, err)
			}
		}
	}

	require.Equal(t, 2, f.sessions.count())
	require.Equal(t, 4, f.exercises.count())
	require.Equal(t, 8, f.sets.count())

	require.NoError(t, f.svc.DeleteModule(ctx, f.creatorID, program.ID, module.ID))

	assert.Equal(t, 0, f.sessions.count())
	assert.Equal(t, 0, f.exercises.count())
	assert.Equal(t, 0, f.sets.count())
	_, err = f.modules.GetByID(ctx, module.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteProgramRemovesOverrides(t *testing.T) {
	f := newProgramFixture()
	ctx := context.Background()
	program := f.createProgram(t)

	lib := f.createLibrarySession(t, "Empuje")
	libModule := f.createLibraryModule(t, lib)
	module, err := f.svc.CreateModuleFromLibrary(ctx, f.creatorID, program.ID, libModule.ID)
	require.NoError(t, err)

	sessionID := domain.PlaceholderSessionID(module.ID, lib.ID)
	title := "Custom"
	_, err = f.svc.UpdateSessionOverride(ctx, f.creatorID, program.ID, module.ID, sessionID, SessionOverridePatch{Title: &title})
	require.NoError(t, err)
	require.Equal(t, 1, f.overrides.count())

	require.NoError(t, f.svc.DeleteProgram(ctx, f.creatorID, program.ID))

	assert.Equal(t, 0, f.sessions.count())
	assert.Equal(t, 0, f.overrides.count())
	_, err = f.programs.GetByID(ctx, program.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// Library content survives program deletion.
	_, err = f.library.GetSessionByID(ctx, lib.ID)
	assert.NoError(t, err)
}

func TestSetTitlesFollowOrder(t *testing.T) {
	f := newProgramFixture()
	ctx := context.Background()
	program := f.createProgram(t)

	module, err := f.svc.CreateModule(ctx, f.creatorID, program.ID, nil)
	require.NoError(t, err)
	session, err := f.svc.CreateSession(ctx, f.creatorID, program.ID, module.ID, "Día 1", "", nil)
	require.NoError(t, err)
	exercise, err := f.svc.CreateExercise(ctx, f.creatorID, program.ID, session.ID, "Sentadilla", "", "", nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		set, err := f.svc.CreateSet(ctx, f.creatorID, program.ID, exercise.ID, 8, 100, 120, nil)
		require.NoError(t, err)
		assert.Equal(t, i, set.Order)
		assert.Equal(t, fmt.Sprintf("Serie %d", i+1), set.Title)
	}
}

func TestUpdateSessionRejectedOnLibraryRefSession(t *testing.T) {
	f := newProgramFixture()
	ctx := context.Background()
	program := f.createProgram(t)

	lib := f.createLibrarySession(t, "Empuje")
	libModule := f.createLibraryModule(t, lib)
	module, err := f.svc.CreateModuleFromLibrary(ctx, f.creatorID, program.ID, libModule.ID)
	require.NoError(t, err)

	sessionID := domain.PlaceholderSessionID(module.ID, lib.ID)
	_, err = f.svc.UpdateSession(ctx, f.creatorID, program.ID, sessionID, "direct edit", "", "")
	assert.ErrorIs(t, err, ErrSessionIsReference)
}

func TestGenerateUploadTargets(t *testing.T) {
	f := newProgramFixture()
	ctx := context.Background()
	program := f.createProgram(t)

	target, err := f.svc.GenerateProgramCoverUpload(ctx, f.creatorID, program.ID, "image/jpeg")
	require.NoError(t, err)
	assert.Contains(t, target.Key, "programs/"+program.ID.Hex()+"/cover/")
	assert.Contains(t, target.URL, target.Key)
}

// victimHierarchy builds a full standalone subtree owned by the fixture
// creator and a second creator with their own program.
func (f *programFixture) victimHierarchy(t *testing.T) (victim *domain.Program, session *domain.Session, exercise *domain.Exercise, set *domain.Set, attackerID primitive.ObjectID, attackerProgram *domain.Program) {
	t.Helper()
	ctx := context.Background()

	victim = f.createProgram(t)
	module, err := f.svc.CreateModule(ctx, f.creatorID, victim.ID, nil)
	require.NoError(t, err)
	session, err = f.svc.CreateSession(ctx, f.creatorID, victim.ID, module.ID, "Día 1", "", nil)
	require.NoError(t, err)
	exercise, err = f.svc.CreateExercise(ctx, f.creatorID, victim.ID, session.ID, "Sentadilla", "", "", nil)
	require.NoError(t, err)
	set, err = f.svc.CreateSet(ctx, f.creatorID, victim.ID, exercise.ID, 8, 100, 120, nil)
	require.NoError(t, err)

	attackerID = primitive.NewObjectID()
	attackerProgram, err = f.svc.CreateProgram(ctx, attackerID, "Programa ajeno", "", domain.DeliveryLowTicket)
	require.NoError(t, err)
	return victim, session, exercise, set, attackerID, attackerProgram
}

func TestMutationsRejectForeignEntities(t *testing.T) {
	f := newProgramFixture()
	ctx := context.Background()
	_, session, exercise, set, attackerID, attackerProgram := f.victimHierarchy(t)

	// Owning any program is not enough; the target must parent to it.
	_, err := f.svc.UpdateSession(ctx, attackerID, attackerProgram.ID, session.ID, "hijacked", "", "")
	assert.ErrorIs(t, err, ErrSessionNotInProgram)

	err = f.svc.DeleteSession(ctx, attackerID, attackerProgram.ID, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotInProgram)
	_, err = f.sessions.GetByID(ctx, session.ID)
	assert.NoError(t, err)

	_, err = f.svc.CreateExercise(ctx, attackerID, attackerProgram.ID, session.ID, "intruso", "", "", nil)
	assert.ErrorIs(t, err, ErrSessionNotInProgram)

	_, err = f.svc.UpdateExercise(ctx, attackerID, attackerProgram.ID, exercise.ID, "hijacked", "", "")
	assert.ErrorIs(t, err, ErrExerciseNotInProgram)

	err = f.svc.DeleteExercise(ctx, attackerID, attackerProgram.ID, exercise.ID)
	assert.ErrorIs(t, err, ErrExerciseNotInProgram)
	assert.Equal(t, 1, f.exercises.count())

	_, err = f.svc.CreateSet(ctx, attackerID, attackerProgram.ID, exercise.ID, 1, 1, 1, nil)
	assert.ErrorIs(t, err, ErrExerciseNotInProgram)

	_, err = f.svc.UpdateSet(ctx, attackerID, attackerProgram.ID, set.ID, 1, 1, 1)
	assert.ErrorIs(t, err, ErrSetNotInProgram)

	err = f.svc.DeleteSet(ctx, attackerID, attackerProgram.ID, set.ID)
	assert.ErrorIs(t, err, ErrSetNotInProgram)
	assert.Equal(t, 1, f.sets.count())

	_, err = f.svc.GenerateSessionImageUpload(ctx, attackerID, attackerProgram.ID, session.ID, "image/png")
	assert.ErrorIs(t, err, ErrSessionNotInProgram)

	stored, err := f.sessions.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "Día 1", stored.Title)
}

func TestOverrideRejectsForeignSession(t *testing.T) {
	f := newProgramFixture()
	ctx := context.Background()
	program := f.createProgram(t)

	lib := f.createLibrarySession(t, "Empuje")
	libModule := f.createLibraryModule(t, lib)
	module, err := f.svc.CreateModuleFromLibrary(ctx, f.creatorID, program.ID, libModule.ID)
	require.NoError(t, err)
	sessionID := domain.PlaceholderSessionID(module.ID, lib.ID)

	attackerID := primitive.NewObjectID()
	attackerProgram, err := f.svc.CreateProgram(ctx, attackerID, "Programa ajeno", "", domain.DeliveryLowTicket)
	require.NoError(t, err)

	title := "hijacked"
	_, err = f.svc.UpdateSessionOverride(ctx, attackerID, attackerProgram.ID, module.ID, sessionID, SessionOverridePatch{Title: &title})
	assert.ErrorIs(t, err, ErrSessionNotInProgram)
	assert.Equal(t, 0, f.overrides.count())
}

func TestReorderRejectsForeignIDs(t *testing.T) {
	f := newProgramFixture()
	ctx := context.Background()
	victim, session, exercise, _, attackerID, attackerProgram := f.victimHierarchy(t)

	victimModule, err := f.modules.GetByID(ctx, session.ModuleID)
	require.NoError(t, err)

	err = f.svc.UpdateModuleOrders(ctx, attackerID, attackerProgram.ID, []repository.OrderUpdate{
		{ID: victimModule.ID, Order: 7},
	})
	assert.ErrorIs(t, err, ErrModuleNotInProgram)

	err = f.svc.UpdateSessionOrders(ctx, attackerID, attackerProgram.ID, []repository.OrderUpdate{
		{ID: session.ID, Order: 7},
	})
	assert.ErrorIs(t, err, ErrSessionNotInProgram)

	err = f.svc.UpdateExerciseOrders(ctx, attackerID, attackerProgram.ID, []repository.OrderUpdate{
		{ID: exercise.ID, Order: 7},
	})
	assert.ErrorIs(t, err, ErrExerciseNotInProgram)

	// Nothing moved.
	modules, err := f.svc.GetModulesByProgram(ctx, f.creatorID, domain.RoleCreator, victim.ID)
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, 0, modules[0].Order)
}

func TestClientReadsRequireAssignment(t *testing.T) {
	f := newProgramFixture()
	ctx := context.Background()
	program := f.createProgram(t)
	module, err := f.svc.CreateModule(ctx, f.creatorID, program.ID, nil)
	require.NoError(t, err)

	client := &domain.User{Name: "Cliente", Email: "cliente@example.com", Role: domain.RoleClient}
	_, err = f.users.Create(ctx, client)
	require.NoError(t, err)

	_, err = f.svc.GetModulesByProgram(ctx, client.ID, domain.RoleClient, program.ID)
	assert.ErrorIs(t, err, ErrProgramAccessDenied)
	_, err = f.svc.GetSessionsByModule(ctx, client.ID, domain.RoleClient, program.ID, module.ID)
	assert.ErrorIs(t, err, ErrProgramAccessDenied)

	require.NoError(t, f.users.AddProgramIDToClient(ctx, client.ID, program.ID))

	modules, err := f.svc.GetModulesByProgram(ctx, client.ID, domain.RoleClient, program.ID)
	require.NoError(t, err)
	assert.Len(t, modules, 1)

	// A creator who is not the owner is denied too.
	_, err = f.svc.GetModulesByProgram(ctx, primitive.NewObjectID(), domain.RoleCreator, program.ID)
	assert.ErrorIs(t, err, ErrProgramAccessDenied)
}

func TestGetSetsScopedToProgram(t *testing.T) {
	f := newProgramFixture()
	ctx := context.Background()
	victim, _, exercise, set, attackerID, attackerProgram := f.victimHierarchy(t)

	_, err := f.svc.GetSetsByExercise(ctx, attackerID, domain.RoleCreator, attackerProgram.ID, exercise.ID)
	assert.ErrorIs(t, err, ErrExerciseNotInProgram)

	sets, err := f.svc.GetSetsByExercise(ctx, f.creatorID, domain.RoleCreator, victim.ID, exercise.ID)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, set.ID, sets[0].ID)
}

func TestGetSetsServesLibraryExercises(t *testing.T) {
	f := newProgramFixture()
	ctx := context.Background()
	program := f.createProgram(t)

	lib := f.createLibrarySession(t, "Empuje")
	libExercise := &domain.LibraryExercise{LibrarySessionID: lib.ID, Title: "Press banca", Name: "Press banca"}
	_, err := f.library.CreateExercise(ctx, libExercise)
	require.NoError(t, err)
	libModule := f.createLibraryModule(t, lib)
	_, err = f.svc.CreateModuleFromLibrary(ctx, f.creatorID, program.ID, libModule.ID)
	require.NoError(t, err)

	sets, err := f.svc.GetSetsByExercise(ctx, f.creatorID, domain.RoleCreator, program.ID, libExercise.ID)
	require.NoError(t, err)
	assert.Empty(t, sets)

	// A library exercise from another creator is not reachable through
	// this program.
	foreignSession := &domain.LibrarySession{CreatorID: primitive.NewObjectID(), Title: "Ajena"}
	_, err = f.library.CreateSession(ctx, foreignSession)
	require.NoError(t, err)
	foreignExercise := &domain.LibraryExercise{LibrarySessionID: foreignSession.ID, Title: "Ajeno", Name: "Ajeno"}
	_, err = f.library.CreateExercise(ctx, foreignExercise)
	require.NoError(t, err)

	_, err = f.svc.GetSetsByExercise(ctx, f.creatorID, domain.RoleCreator, program.ID, foreignExercise.ID)
	assert.ErrorIs(t, err, ErrExerciseNotInProgram)
}

func TestLibraryTitleDemotedToDescription(t *testing.T) {
	f := newProgramFixture()
	ctx := context.Background()
	program := f.createProgram(t)

	lib := f.createLibrarySession(t, "Empuje")
	libModule := &domain.LibraryModule{
		CreatorID:   f.creatorID,
		Title:       "Fase de fuerza",
		Description: "Bloque de adaptación",
		SessionRefs: []domain.SessionRef{{LibrarySessionID: lib.ID, Order: 0, HasOrder: true}},
	}
	_, err := f.library.CreateModule(ctx, libModule)
	require.NoError(t, err)

	module, err := f.svc.CreateModuleFromLibrary(ctx, f.creatorID, program.ID, libModule.ID)
	require.NoError(t, err)

	modules, err := f.svc.GetModulesByProgram(ctx, f.creatorID, domain.RoleCreator, program.ID)
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, module.ID, modules[0].ID)
	// The derived title keeps the display position; the library title is
	// demoted, not discarded.
	assert.Equal(t, domain.ModuleTitle(0), modules[0].Title)
	assert.Equal(t, "Fase de fuerza", modules[0].Description)
}

func TestLibrarySessionDeletedAfterMaterialization(t *testing.T) {
	f := newProgramFixture()
	ctx := context.Background()
	program := f.createProgram(t)

	lib := f.createLibrarySession(t, "Empuje")
	libModule := f.createLibraryModule(t, lib)
	module, err := f.svc.CreateModuleFromLibrary(ctx, f.creatorID, program.ID, libModule.ID)
	require.NoError(t, err)

	first, err := f.svc.GetSessionsByModule(ctx, f.creatorID, domain.RoleCreator, program.ID, module.ID)
	require.NoError(t, err)
	require.Len(t, first, 1)

	require.NoError(t, f.library.DeleteSession(ctx, lib.ID))

	// The dangling placeholder still resolves; it serves its own fields
	// instead of failing the whole read.
	second, err := f.svc.GetSessionsByModule(ctx, f.creatorID, domain.RoleCreator, program.ID, module.ID)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.False(t, second[0].FromLibrary)
	assert.Equal(t, 1, f.sessions.count())
}
