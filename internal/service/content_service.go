package service

import (
	"context"
	"errors"
	"sort"

	"entrena/coach-app/internal/domain"
	"entrena/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// contentResolver materializes a program's curriculum from its two possible
// sources: content authored directly inside the program, or references into
// the creator's shared library, with per-program overrides merged on top.
//
// Reads never fail on a broken reference: any failed resolution step is
// logged and degraded to whatever standalone data exists locally, so the
// caller always receives something displayable. Store I/O failures on the
// program's own documents still propagate.
type contentResolver struct {
	moduleRepo   repository.ModuleRepository
	sessionRepo  repository.SessionRepository
	exerciseRepo repository.ExerciseRepository
	setRepo      repository.SetRepository
	overrideRepo repository.OverrideRepository
	libraryRepo  repository.LibraryRepository
	log          *zap.SugaredLogger
}

func newContentResolver(
	moduleRepo repository.ModuleRepository,
	sessionRepo repository.SessionRepository,
	exerciseRepo repository.ExerciseRepository,
	setRepo repository.SetRepository,
	overrideRepo repository.OverrideRepository,
	libraryRepo repository.LibraryRepository,
	log *zap.SugaredLogger,
) *contentResolver {
	return &contentResolver{
		moduleRepo:   moduleRepo,
		sessionRepo:  sessionRepo,
		exerciseRepo: exerciseRepo,
		setRepo:      setRepo,
		overrideRepo: overrideRepo,
		libraryRepo:  libraryRepo,
		log:          log,
	}
}

// === Module resolution ===

// resolveProgramModules lists a program's modules with library data applied.
// Library fetches for distinct modules are independent and fanned out; the
// result order is reimposed by sorting on order, never taken from
// completion order.
func (r *contentResolver) resolveProgramModules(ctx context.Context, programID primitive.ObjectID) ([]domain.ResolvedModule, error) {
	modules, err := r.moduleRepo.GetByProgramID(ctx, programID)
	if err != nil {
		return nil, err
	}

	resolved := make([]domain.ResolvedModule, len(modules))
	g, gctx := errgroup.WithContext(ctx)
	for i := range modules {
		i := i
		g.Go(func() error {
			resolved[i] = r.resolveModule(gctx, &modules[i])
			return nil
		})
	}
	_ = g.Wait() // Workers mask their own failures

	sort.SliceStable(resolved, func(i, j int) bool { return resolved[i].Order < resolved[j].Order })
	return resolved, nil
}

// resolveModule applies library data to one module. The display title stays
// derived from the program-side order ("Semana N"); the library module's own
// title is demoted into the description. Program order wins over library
// title for display position.
func (r *contentResolver) resolveModule(ctx context.Context, module *domain.Module) domain.ResolvedModule {
	out := domain.ResolvedModule{Module: *module}
	if !module.IsLibraryRef() {
		out.Title = domain.ModuleTitle(module.Order)
		return out
	}

	libModule, err := r.libraryRepo.GetModuleByID(ctx, *module.LibraryModuleID)
	if err != nil {
		r.log.Warnw("library module resolution failed, serving standalone fields",
			"moduleId", module.ID.Hex(), "libraryModuleId", module.LibraryModuleID.Hex(), "error", err)
		return out
	}

	out.Title = domain.ModuleTitle(module.Order)
	// The demoted library title stays visible; the library's own
	// description only fills in when there is no title to demote.
	out.Description = libModule.Title
	if out.Description == "" {
		out.Description = libModule.Description
	}
	out.FromLibrary = true
	return out
}

// === Session resolution ===

// resolveModuleSessions lists the sessions under a module. For a
// library-referenced module the session list is driven by the library
// module's sessionRefs; program-side placeholder documents are lazily
// materialized for refs that have none yet, which makes this read a writer
// the first time through. The second call returns identical content without
// further writes.
func (r *contentResolver) resolveModuleSessions(ctx context.Context, programID primitive.ObjectID, module *domain.Module) ([]domain.ResolvedSession, error) {
	if !module.IsLibraryRef() {
		return r.standaloneSessions(ctx, module.ID)
	}

	libModule, err := r.libraryRepo.GetModuleByID(ctx, *module.LibraryModuleID)
	if err != nil {
		r.log.Warnw("library module fetch failed, listing standalone sessions",
			"moduleId", module.ID.Hex(), "libraryModuleId", module.LibraryModuleID.Hex(), "error", err)
		return r.standaloneSessions(ctx, module.ID)
	}

	refs := domain.NormalizeSessionRefs(libModule.SessionRefs)
	resolved := make([]domain.ResolvedSession, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			resolved[i] = r.resolveSessionRef(gctx, programID, module.ID, ref)
			return nil
		})
	}
	_ = g.Wait() // Workers mask their own failures

	sort.SliceStable(resolved, func(i, j int) bool { return resolved[i].Order < resolved[j].Order })
	return resolved, nil
}

// resolveSessionRef resolves one sessionRefs entry: locate (or materialize)
// the program-side session, fetch the canonical library session, merge the
// override. Each step degrades instead of failing.
func (r *contentResolver) resolveSessionRef(ctx context.Context, programID, moduleID primitive.ObjectID, ref domain.SessionRef) domain.ResolvedSession {
	programSession, err := r.sessionRepo.FindByLibraryRef(ctx, moduleID, ref.LibrarySessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			programSession, err = r.materializeSession(ctx, programID, moduleID, ref)
		}
		if err != nil {
			r.log.Warnw("session placeholder lookup failed, synthesizing in-memory session",
				"moduleId", moduleID.Hex(), "librarySessionId", ref.LibrarySessionID.Hex(), "error", err)
			libID := ref.LibrarySessionID
			programSession = &domain.Session{
				ID:               domain.PlaceholderSessionID(moduleID, libID),
				ModuleID:         moduleID,
				ProgramID:        programID,
				LibrarySessionID: &libID,
				Order:            ref.Order,
			}
		}
	}

	return r.resolveSession(ctx, programSession)
}

// resolveSession folds library fields and the override into a program-side
// session. Used both by module-level traversal (after materialization) and
// by direct session reads (which never materialize).
func (r *contentResolver) resolveSession(ctx context.Context, session *domain.Session) domain.ResolvedSession {
	if !session.IsLibraryRef() {
		return domain.ResolvedSession{Session: *session}
	}

	librarySession, err := r.libraryRepo.GetSessionByID(ctx, *session.LibrarySessionID)
	if err != nil {
		r.log.Warnw("library session resolution failed, serving standalone fields",
			"sessionId", session.ID.Hex(), "librarySessionId", session.LibrarySessionID.Hex(), "error", err)
		return domain.ResolvedSession{Session: *session}
	}

	override := r.loadOverride(ctx, session.ID)
	return mergeSessionOverride(session, librarySession, override)
}

// loadOverride fetches the session's override. An override that fails to
// load, for any reason, resolves the same as no override; it never blocks
// resolution. Only genuine store errors are worth a log line.
func (r *contentResolver) loadOverride(ctx context.Context, sessionID primitive.ObjectID) *domain.SessionOverride {
	override, err := r.overrideRepo.Get(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			r.log.Warnw("override load failed, resolving without it",
				"sessionId", sessionID.Hex(), "error", err)
		}
		return nil
	}
	return override
}

func (r *contentResolver) standaloneSessions(ctx context.Context, moduleID primitive.ObjectID) ([]domain.ResolvedSession, error) {
	sessions, err := r.sessionRepo.GetByModuleID(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	resolved := make([]domain.ResolvedSession, len(sessions))
	for i := range sessions {
		resolved[i] = r.resolveSession(ctx, &sessions[i])
	}
	return resolved, nil
}

// === Lazy Materializer ===

// materializeSession creates the program-side placeholder document for a
// library session reference. The placeholder carries only {order, ref}; it
// is the only place an override can attach. The document id is derived from
// (moduleID, librarySessionID) and written as an idempotent upsert.
func (r *contentResolver) materializeSession(ctx context.Context, programID, moduleID primitive.ObjectID, ref domain.SessionRef) (*domain.Session, error) {
	libID := ref.LibrarySessionID
	session := &domain.Session{
		ID:               domain.PlaceholderSessionID(moduleID, libID),
		ModuleID:         moduleID,
		ProgramID:        programID,
		LibrarySessionID: &libID,
		Order:            ref.Order,
	}
	if err := r.sessionRepo.EnsurePlaceholder(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// === Override Merge Engine ===

// mergeSessionOverride shallow-merges the override over the library fields,
// field by field: an override field wins when present, absent fields fall
// through to the library value. The returned identifier is always the
// program-side session id, never the library id, so downstream exercise and
// set lookups address program-scoped storage. The original override rides
// along so UI layers can tell which fields are overridden.
func mergeSessionOverride(programSession *domain.Session, librarySession *domain.LibrarySession, override *domain.SessionOverride) domain.ResolvedSession {
	merged := *programSession
	merged.Title = librarySession.Title
	merged.Description = librarySession.Description
	merged.ImageKey = librarySession.ImageKey

	if override != nil {
		if override.Title != nil {
			merged.Title = *override.Title
		}
		if override.Description != nil {
			merged.Description = *override.Description
		}
		if override.ImageKey != nil {
			merged.ImageKey = *override.ImageKey
		}
	}

	merged.ID = programSession.ID
	return domain.ResolvedSession{
		Session:     merged,
		Override:    override,
		FromLibrary: true,
	}
}

// === Exercise / Set resolution ===

// resolveSessionExercises lists a session's exercises. A library-referenced
// session reads from the library namespace; the returned rows carry the
// program-side session id. Standalone sessions read program-scoped storage.
func (r *contentResolver) resolveSessionExercises(ctx context.Context, session *domain.Session) ([]domain.Exercise, error) {
	if !session.IsLibraryRef() {
		return r.exerciseRepo.GetBySessionID(ctx, session.ID)
	}

	libraryExercises, err := r.libraryRepo.GetExercisesBySessionID(ctx, *session.LibrarySessionID)
	if err != nil {
		r.log.Warnw("library exercise listing failed, serving program-side exercises",
			"sessionId", session.ID.Hex(), "librarySessionId", session.LibrarySessionID.Hex(), "error", err)
		return r.exerciseRepo.GetBySessionID(ctx, session.ID)
	}

	exercises := make([]domain.Exercise, len(libraryExercises))
	for i, le := range libraryExercises {
		exercises[i] = domain.Exercise{
			ID:        le.ID,
			SessionID: session.ID,
			Title:     le.Title,
			Name:      le.Name,
			Order:     le.Order,
			Notes:     le.Notes,
			VideoURL:  le.VideoURL,
			CreatedAt: le.CreatedAt,
			UpdatedAt: le.UpdatedAt,
		}
	}
	return exercises, nil
}

// resolveExerciseSets lists an exercise's sets. Sets are keyed by exercise
// id in one collection for both namespaces, so the same query serves
// program-side and library-side exercises.
func (r *contentResolver) resolveExerciseSets(ctx context.Context, exerciseID primitive.ObjectID) ([]domain.Set, error) {
	return r.setRepo.GetByExerciseID(ctx, exerciseID)
}
