// Package writer implements the write pipeline: quality gate, privacy
// filter, smart router, embed, and the dedup/conflict/reinforcement
// similarity branch that turns an agent note into exactly one durable
// effect on a Markdown file.
package writer

import "github.com/openclaw/memory/internal/store"

// Outcome is the result of one Write call. Exactly one of the typed result
// fields is populated, matching the three branches of the similarity stage
// plus outright rejection.
type Outcome struct {
	Kind OutcomeKind

	// Appended
	Path string
	Type store.ContentType

	// Reinforced / ConflictUpdated
	Score float64

	// Rejected
	Reason string
}

// OutcomeKind distinguishes which pipeline branch produced an Outcome.
type OutcomeKind string

const (
	Appended        OutcomeKind = "appended"
	Reinforced      OutcomeKind = "reinforced"
	ConflictUpdated OutcomeKind = "conflict_updated"
	Rejected        OutcomeKind = "rejected"
)

// Route is the router's decision: where a note lands and how it is tagged.
type Route struct {
	TargetFile string // scope-relative path, e.g. "user/preferences.md"
	Scope      store.Scope
	Type       store.ContentType
	Importance float64 // 0-1 scale stored on the chunk; the route table's 1-5 column is importance*5
	Section    string  // canonical Markdown heading for this kind
}

// Similarity thresholds from §4.3/§9: tuned to cosine similarity over
// normalized embeddings.
const (
	ReinforceThreshold = 0.92
	ConflictThreshold  = 0.85
)
