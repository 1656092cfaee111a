// internal/domain/resolved.go
package domain

// Resolved content is what the content reads hand to collaborator code:
// the stored document with library data and overrides already folded in.
// These types are never persisted.

// ResolvedModule is a module with library data applied. For a
// library-referenced module the title stays derived from the program-side
// order ("Semana N") and the library module's own title is demoted into
// Description; display position always follows the program, not the library.
type ResolvedModule struct {
	Module
	Description string `json:"description,omitempty"`
	FromLibrary bool   `json:"fromLibrary"`
}

// ResolvedSession is a session with library fields and the override merged.
// Its ID is always the program-side session id, never the library id, so
// downstream exercise/set lookups address program-scoped storage. The
// original override travels along so UI layers can tell which fields are
// overridden.
type ResolvedSession struct {
	Session
	Override    *SessionOverride `json:"override,omitempty"`
	FromLibrary bool             `json:"fromLibrary"`
}
