// Package search implements the Retriever: fast-path file shortcuts, a
// journal timeline path, and a hybrid vector+full-text search with
// reciprocal-rank fusion and multi-factor salience scoring.
package search

import "github.com/openclaw/memory/internal/store"

// Result is one snippet returned to a caller, shaped for the search verb's
// `[salience: X | reinforcement: R | <uri>]` rendering.
type Result struct {
	ID            string
	URI           string
	Content       string
	Salience      float64
	MemoryType    store.ContentType
	Section       string
	Reinforcement int
	TokenCount    int
}

// Response is the full search() return value.
type Response struct {
	Results         []Result
	TotalTokens     int
	BudgetRemaining int
	// Partial is true when Stage 3 degraded to FTS-only because the
	// embedding provider was unavailable.
	Partial bool
}

const (
	DefaultTopK           = 10
	DefaultMaxTokens      = 1500
	DefaultHalfLifeDays   = 30.0
	rrfK                  = 60
)

// ScopeFilter is the optional scope restriction accepted by search().
type ScopeFilter string

const (
	ScopeFilterNone    ScopeFilter = ""
	ScopeFilterGlobal  ScopeFilter = "global"
	ScopeFilterProject ScopeFilter = "project"
	ScopeFilterJournal ScopeFilter = "journal"
	ScopeFilterAgent   ScopeFilter = "agent"
	ScopeFilterUser    ScopeFilter = "user"
)

// stores returns the scopes to search and, for parent_dir filters, the
// parent_dir restriction to apply within them.
func (f ScopeFilter) stores(scopes *Scopes) ([]*store.Store, string) {
	switch f {
	case ScopeFilterGlobal:
		return []*store.Store{scopes.Global}, ""
	case ScopeFilterProject:
		return []*store.Store{scopes.Project}, ""
	case ScopeFilterJournal:
		return []*store.Store{scopes.Project}, "journal"
	case ScopeFilterAgent:
		return []*store.Store{scopes.Project}, "agent"
	case ScopeFilterUser:
		return []*store.Store{scopes.Global}, "user"
	default:
		return []*store.Store{scopes.Global, scopes.Project}, ""
	}
}

// Scopes holds both open Stores the Retriever searches across.
type Scopes struct {
	Global     *store.Store
	GlobalRoot string

	Project     *store.Store
	ProjectRoot string
}

func (s *Scopes) root(scope store.Scope) string {
	if scope == store.ScopeGlobal {
		return s.GlobalRoot
	}
	return s.ProjectRoot
}
