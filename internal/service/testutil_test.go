package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"entrena/coach-app/internal/domain"
	"entrena/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// In-memory repository fakes. They mirror the mongo layer's observable
// behavior (ErrNotFound, order-sorted listings, upsert-on-insert semantics)
// so service tests exercise real control flow without a database.

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// --- module repo ---

type fakeModuleRepo struct {
	mu      sync.Mutex
	modules map[primitive.ObjectID]domain.Module
}

func newFakeModuleRepo() *fakeModuleRepo {
	return &fakeModuleRepo{modules: make(map[primitive.ObjectID]domain.Module)}
}

func (r *fakeModuleRepo) Create(_ context.Context, module *domain.Module) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if module.ID == primitive.NilObjectID {
		module.ID = primitive.NewObjectID()
	}
	module.CreatedAt = time.Now().UTC()
	module.UpdatedAt = module.CreatedAt
	r.modules[module.ID] = *module
	return module.ID, nil
}

func (r *fakeModuleRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Module, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.modules[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (r *fakeModuleRepo) GetByProgramID(_ context.Context, programID primitive.ObjectID) ([]domain.Module, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Module
	for _, m := range r.modules {
		if m.ProgramID == programID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *fakeModuleRepo) GetByPlanID(_ context.Context, planID primitive.ObjectID) ([]domain.Module, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Module
	for _, m := range r.modules {
		if m.PlanID == planID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *fakeModuleRepo) NextProgramOrder(_ context.Context, programID primitive.ObjectID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := 0
	for _, m := range r.modules {
		if m.ProgramID == programID && m.Order >= next {
			next = m.Order + 1
		}
	}
	return next, nil
}

func (r *fakeModuleRepo) NextPlanOrder(_ context.Context, planID primitive.ObjectID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := 0
	for _, m := range r.modules {
		if m.PlanID == planID && m.Order >= next {
			next = m.Order + 1
		}
	}
	return next, nil
}

func (r *fakeModuleRepo) UpdateOrders(_ context.Context, updates []repository.ModuleOrderUpdate) error {
	if len(updates) > repository.MaxWriteBatchSize {
		return repository.ErrBatchTooLarge
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range updates {
		m, ok := r.modules[u.ID]
		if !ok {
			continue
		}
		m.Order = u.Order
		m.Title = u.Title
		m.UpdatedAt = time.Now().UTC()
		r.modules[u.ID] = m
	}
	return nil
}

func (r *fakeModuleRepo) Update(_ context.Context, module *domain.Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.modules[module.ID]; !ok {
		return repository.ErrNotFound
	}
	module.UpdatedAt = time.Now().UTC()
	r.modules[module.ID] = *module
	return nil
}

func (r *fakeModuleRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.modules[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.modules, id)
	return nil
}

// --- session repo ---

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[primitive.ObjectID]domain.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[primitive.ObjectID]domain.Session)}
}

func (r *fakeSessionRepo) Create(_ context.Context, session *domain.Session) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session.ID == primitive.NilObjectID {
		session.ID = primitive.NewObjectID()
	}
	session.CreatedAt = time.Now().UTC()
	session.UpdatedAt = session.CreatedAt
	r.sessions[session.ID] = *session
	return session.ID, nil
}

func (r *fakeSessionRepo) EnsurePlaceholder(_ context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[session.ID]; ok {
		*session = existing
		return nil
	}
	session.CreatedAt = time.Now().UTC()
	session.UpdatedAt = session.CreatedAt
	r.sessions[session.ID] = *session
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *fakeSessionRepo) GetByModuleID(_ context.Context, moduleID primitive.ObjectID) ([]domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Session
	for _, s := range r.sessions {
		if s.ModuleID == moduleID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *fakeSessionRepo) FindByLibraryRef(_ context.Context, moduleID, librarySessionID primitive.ObjectID) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.ModuleID == moduleID && s.LibrarySessionID != nil && *s.LibrarySessionID == librarySessionID {
			out := s
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeSessionRepo) NextOrder(_ context.Context, moduleID primitive.ObjectID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := 0
	for _, s := range r.sessions {
		if s.ModuleID == moduleID && s.Order >= next {
			next = s.Order + 1
		}
	}
	return next, nil
}

func (r *fakeSessionRepo) UpdateOrders(_ context.Context, updates []repository.OrderUpdate) error {
	if len(updates) > repository.MaxWriteBatchSize {
		return repository.ErrBatchTooLarge
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range updates {
		s, ok := r.sessions[u.ID]
		if !ok {
			continue
		}
		s.Order = u.Order
		r.sessions[u.ID] = s
	}
	return nil
}

func (r *fakeSessionRepo) Update(_ context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.ID]; !ok {
		return repository.ErrNotFound
	}
	session.UpdatedAt = time.Now().UTC()
	r.sessions[session.ID] = *session
	return nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// --- exercise repo ---

type fakeExerciseRepo struct {
	mu        sync.Mutex
	exercises map[primitive.ObjectID]domain.Exercise
}

func newFakeExerciseRepo() *fakeExerciseRepo {
	return &fakeExerciseRepo{exercises: make(map[primitive.ObjectID]domain.Exercise)}
}

func (r *fakeExerciseRepo) Create(_ context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if exercise.ID == primitive.NilObjectID {
		exercise.ID = primitive.NewObjectID()
	}
	exercise.CreatedAt = time.Now().UTC()
	exercise.UpdatedAt = exercise.CreatedAt
	r.exercises[exercise.ID] = *exercise
	return exercise.ID, nil
}

func (r *fakeExerciseRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r *fakeExerciseRepo) GetBySessionID(_ context.Context, sessionID primitive.ObjectID) ([]domain.Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Exercise
	for _, e := range r.exercises {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *fakeExerciseRepo) NextOrder(_ context.Context, sessionID primitive.ObjectID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := 0
	for _, e := range r.exercises {
		if e.SessionID == sessionID && e.Order >= next {
			next = e.Order + 1
		}
	}
	return next, nil
}

func (r *fakeExerciseRepo) UpdateOrders(_ context.Context, updates []repository.OrderUpdate) error {
	if len(updates) > repository.MaxWriteBatchSize {
		return repository.ErrBatchTooLarge
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range updates {
		e, ok := r.exercises[u.ID]
		if !ok {
			continue
		}
		e.Order = u.Order
		r.exercises[u.ID] = e
	}
	return nil
}

func (r *fakeExerciseRepo) Update(_ context.Context, exercise *domain.Exercise) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.exercises[exercise.ID]; !ok {
		return repository.ErrNotFound
	}
	exercise.UpdatedAt = time.Now().UTC()
	r.exercises[exercise.ID] = *exercise
	return nil
}

func (r *fakeExerciseRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.exercises[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.exercises, id)
	return nil
}

func (r *fakeExerciseRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.exercises)
}

// --- set repo ---

type fakeSetRepo struct {
	mu   sync.Mutex
	sets map[primitive.ObjectID]domain.Set
}

func newFakeSetRepo() *fakeSetRepo {
	return &fakeSetRepo{sets: make(map[primitive.ObjectID]domain.Set)}
}

func (r *fakeSetRepo) Create(_ context.Context, set *domain.Set) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set.ID == primitive.NilObjectID {
		set.ID = primitive.NewObjectID()
	}
	set.CreatedAt = time.Now().UTC()
	set.UpdatedAt = set.CreatedAt
	r.sets[set.ID] = *set
	return set.ID, nil
}

func (r *fakeSetRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Set, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *fakeSetRepo) GetByExerciseID(_ context.Context, exerciseID primitive.ObjectID) ([]domain.Set, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Set
	for _, s := range r.sets {
		if s.ExerciseID == exerciseID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *fakeSetRepo) NextOrder(_ context.Context, exerciseID primitive.ObjectID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := 0
	for _, s := range r.sets {
		if s.ExerciseID == exerciseID && s.Order >= next {
			next = s.Order + 1
		}
	}
	return next, nil
}

func (r *fakeSetRepo) Update(_ context.Context, set *domain.Set) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sets[set.ID]; !ok {
		return repository.ErrNotFound
	}
	set.UpdatedAt = time.Now().UTC()
	r.sets[set.ID] = *set
	return nil
}

func (r *fakeSetRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sets[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.sets, id)
	return nil
}

func (r *fakeSetRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sets)
}

// --- override repo ---

type fakeOverrideRepo struct {
	mu        sync.Mutex
	overrides map[primitive.ObjectID]domain.SessionOverride
}

func newFakeOverrideRepo() *fakeOverrideRepo {
	return &fakeOverrideRepo{overrides: make(map[primitive.ObjectID]domain.SessionOverride)}
}

func (r *fakeOverrideRepo) Get(_ context.Context, sessionID primitive.ObjectID) (*domain.SessionOverride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.overrides[sessionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (r *fakeOverrideRepo) Upsert(_ context.Context, override *domain.SessionOverride) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	override.UpdatedAt = time.Now().UTC()
	r.overrides[override.SessionID] = *override
	return nil
}

func (r *fakeOverrideRepo) Delete(_ context.Context, sessionID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.overrides, sessionID)
	return nil
}

func (r *fakeOverrideRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.overrides)
}

// --- library repo ---

type fakeLibraryRepo struct {
	mu        sync.Mutex
	modules   map[primitive.ObjectID]domain.LibraryModule
	sessions  map[primitive.ObjectID]domain.LibrarySession
	exercises map[primitive.ObjectID]domain.LibraryExercise
}

func newFakeLibraryRepo() *fakeLibraryRepo {
	return &fakeLibraryRepo{
		modules:   make(map[primitive.ObjectID]domain.LibraryModule),
		sessions:  make(map[primitive.ObjectID]domain.LibrarySession),
		exercises: make(map[primitive.ObjectID]domain.LibraryExercise),
	}
}

func (r *fakeLibraryRepo) CreateModule(_ context.Context, module *domain.LibraryModule) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if module.ID == primitive.NilObjectID {
		module.ID = primitive.NewObjectID()
	}
	module.CreatedAt = time.Now().UTC()
	module.UpdatedAt = module.CreatedAt
	r.modules[module.ID] = *module
	return module.ID, nil
}

func (r *fakeLibraryRepo) GetModuleByID(_ context.Context, id primitive.ObjectID) (*domain.LibraryModule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.modules[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (r *fakeLibraryRepo) GetModulesByCreatorID(_ context.Context, creatorID primitive.ObjectID) ([]domain.LibraryModule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.LibraryModule
	for _, m := range r.modules {
		if m.CreatorID == creatorID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeLibraryRepo) UpdateModule(_ context.Context, module *domain.LibraryModule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.modules[module.ID]; !ok {
		return repository.ErrNotFound
	}
	module.UpdatedAt = time.Now().UTC()
	r.modules[module.ID] = *module
	return nil
}

func (r *fakeLibraryRepo) DeleteModule(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.modules[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.modules, id)
	return nil
}

func (r *fakeLibraryRepo) CreateSession(_ context.Context, session *domain.LibrarySession) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session.ID == primitive.NilObjectID {
		session.ID = primitive.NewObjectID()
	}
	session.CreatedAt = time.Now().UTC()
	session.UpdatedAt = session.CreatedAt
	r.sessions[session.ID] = *session
	return session.ID, nil
}

func (r *fakeLibraryRepo) GetSessionByID(_ context.Context, id primitive.ObjectID) (*domain.LibrarySession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *fakeLibraryRepo) GetSessionsByCreatorID(_ context.Context, creatorID primitive.ObjectID) ([]domain.LibrarySession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.LibrarySession
	for _, s := range r.sessions {
		if s.CreatorID == creatorID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeLibraryRepo) UpdateSession(_ context.Context, session *domain.LibrarySession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.ID]; !ok {
		return repository.ErrNotFound
	}
	session.UpdatedAt = time.Now().UTC()
	r.sessions[session.ID] = *session
	return nil
}

func (r *fakeLibraryRepo) DeleteSession(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *fakeLibraryRepo) CreateExercise(_ context.Context, exercise *domain.LibraryExercise) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if exercise.ID == primitive.NilObjectID {
		exercise.ID = primitive.NewObjectID()
	}
	exercise.CreatedAt = time.Now().UTC()
	exercise.UpdatedAt = exercise.CreatedAt
	r.exercises[exercise.ID] = *exercise
	return exercise.ID, nil
}

func (r *fakeLibraryRepo) GetExerciseByID(_ context.Context, id primitive.ObjectID) (*domain.LibraryExercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r *fakeLibraryRepo) GetExercisesBySessionID(_ context.Context, librarySessionID primitive.ObjectID) ([]domain.LibraryExercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.LibraryExercise
	for _, e := range r.exercises {
		if e.LibrarySessionID == librarySessionID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *fakeLibraryRepo) NextExerciseOrder(_ context.Context, librarySessionID primitive.ObjectID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := 0
	for _, e := range r.exercises {
		if e.LibrarySessionID == librarySessionID && e.Order >= next {
			next = e.Order + 1
		}
	}
	return next, nil
}

func (r *fakeLibraryRepo) UpdateExercise(_ context.Context, exercise *domain.LibraryExercise) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.exercises[exercise.ID]; !ok {
		return repository.ErrNotFound
	}
	exercise.UpdatedAt = time.Now().UTC()
	r.exercises[exercise.ID] = *exercise
	return nil
}

func (r *fakeLibraryRepo) DeleteExercise(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.exercises[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.exercises, id)
	return nil
}

// --- program repo ---

type fakeProgramRepo struct {
	mu       sync.Mutex
	programs map[primitive.ObjectID]domain.Program
}

func newFakeProgramRepo() *fakeProgramRepo {
	return &fakeProgramRepo{programs: make(map[primitive.ObjectID]domain.Program)}
}

func (r *fakeProgramRepo) Create(_ context.Context, program *domain.Program) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if program.ID == primitive.NilObjectID {
		program.ID = primitive.NewObjectID()
	}
	program.CreatedAt = time.Now().UTC()
	program.UpdatedAt = program.CreatedAt
	r.programs[program.ID] = *program
	return program.ID, nil
}

func (r *fakeProgramRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.programs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *fakeProgramRepo) GetByCreatorID(_ context.Context, creatorID primitive.ObjectID) ([]domain.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Program
	for _, p := range r.programs {
		if p.CreatorID == creatorID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProgramRepo) Update(_ context.Context, program *domain.Program) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.programs[program.ID]; !ok {
		return repository.ErrNotFound
	}
	program.UpdatedAt = time.Now().UTC()
	r.programs[program.ID] = *program
	return nil
}

func (r *fakeProgramRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.programs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.programs, id)
	return nil
}

// --- plan repo ---

type fakePlanRepo struct {
	mu    sync.Mutex
	plans map[primitive.ObjectID]domain.Plan
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: make(map[primitive.ObjectID]domain.Plan)}
}

func (r *fakePlanRepo) Create(_ context.Context, plan *domain.Plan) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if plan.ID == primitive.NilObjectID {
		plan.ID = primitive.NewObjectID()
	}
	plan.CreatedAt = time.Now().UTC()
	plan.UpdatedAt = plan.CreatedAt
	r.plans[plan.ID] = *plan
	return plan.ID, nil
}

func (r *fakePlanRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *fakePlanRepo) GetByCreatorID(_ context.Context, creatorID primitive.ObjectID) ([]domain.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Plan
	for _, p := range r.plans {
		if p.CreatorID == creatorID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePlanRepo) Update(_ context.Context, plan *domain.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[plan.ID]; !ok {
		return repository.ErrNotFound
	}
	plan.UpdatedAt = time.Now().UTC()
	r.plans[plan.ID] = *plan
	return nil
}

func (r *fakePlanRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.plans, id)
	return nil
}

// --- users ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == primitive.NilObjectID {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = *user
	return user.ID, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := u
	return &cp, nil
}

func (r *fakeUserRepo) AddClientIDToCreator(_ context.Context, creatorID, clientID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	creator, ok := r.users[creatorID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, id := range creator.ClientIDs {
		if id == clientID {
			return nil
		}
	}
	creator.ClientIDs = append(creator.ClientIDs, clientID)
	r.users[creatorID] = creator
	return nil
}

func (r *fakeUserRepo) GetClientsByCreatorID(_ context.Context, creatorID primitive.ObjectID) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		if u.CreatorID != nil && *u.CreatorID == creatorID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) SetCreatorForClient(_ context.Context, clientID, creatorID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	client, ok := r.users[clientID]
	if !ok {
		return repository.ErrNotFound
	}
	client.CreatorID = &creatorID
	r.users[clientID] = client
	return nil
}

func (r *fakeUserRepo) AddProgramIDToClient(_ context.Context, clientID, programID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	client, ok := r.users[clientID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, id := range client.ProgramIDs {
		if id == programID {
			return nil
		}
	}
	client.ProgramIDs = append(client.ProgramIDs, programID)
	r.users[clientID] = client
	return nil
}

// --- file storage ---

type fakeFileStorage struct{}

func (fakeFileStorage) GeneratePresignedUploadURL(_ context.Context, objectKey, _ string, _ time.Duration) (string, error) {
	return "https://storage.test/upload/" + objectKey, nil
}

func (fakeFileStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://storage.test/download/" + objectKey, nil
}

func (fakeFileStorage) DeleteObject(_ context.Context, _ string) error {
	return nil
}
