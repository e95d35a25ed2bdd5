package search

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/openclaw/memory/internal/embed"
	"github.com/openclaw/memory/internal/store"
)

// Retriever answers queries with a salience-ranked, token-bounded sequence
// of chunks, per §4.5.
type Retriever struct {
	scopes       *Scopes
	embedder     embed.Embedder
	log          *slog.Logger
	topK         int
	halfLifeDays float64

	now func() time.Time // overridable in tests
}

// New builds a Retriever over both scopes.
func New(scopes *Scopes, embedder embed.Embedder, halfLifeDays float64, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	if halfLifeDays <= 0 {
		halfLifeDays = DefaultHalfLifeDays
	}
	return &Retriever{scopes: scopes, embedder: embedder, log: logger, topK: DefaultTopK, halfLifeDays: halfLifeDays}
}

func (r *Retriever) nowFn() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

// Search implements the search() entry contract: try the fast path, then
// the timeline path, then fall through to hybrid search.
func (r *Retriever) Search(ctx context.Context, query string, scopeFilter ScopeFilter, maxTokens int) (*Response, error) {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	if rule, ok := matchFastPath(query); ok {
		return r.fastPathResult(rule, maxTokens)
	}
	if scopeFilter == ScopeFilterJournal || timelinePattern.MatchString(query) {
		return r.timelinePath(maxTokens)
	}
	return r.hybridSearch(ctx, query, scopeFilter, maxTokens)
}

func (r *Retriever) hybridSearch(ctx context.Context, query string, scopeFilter ScopeFilter, maxTokens int) (*Response, error) {
	stores, parentDir := scopeFilter.stores(r.scopes)

	var qv []float32
	partial := false
	if r.embedder != nil && r.embedder.Available(ctx) {
		vec, err := r.embedder.Embed(ctx, query)
		if err != nil {
			r.log.Warn("embedding unavailable for search, degrading to FTS-only", "error", err)
			partial = true
		} else {
			qv = vec
		}
	} else {
		partial = true
	}

	var allVec []store.ScoredChunk
	var allFTS []store.FTSResult
	for _, s := range stores {
		if qv != nil {
			v, err := s.VectorSearch(ctx, qv, 2*r.topK, parentDir)
			if err != nil {
				return nil, err
			}
			allVec = append(allVec, v...)
		}
		f, err := s.FTSSearch(ctx, query, 2*r.topK, parentDir)
		if err != nil {
			return nil, err
		}
		allFTS = append(allFTS, f...)
	}

	merged := rrfMerge(allVec, allFTS)
	if len(merged) == 0 {
		return &Response{BudgetRemaining: maxTokens, Partial: partial}, nil
	}

	salience := computeSalience(merged, r.nowFn(), r.halfLifeDays)

	type ranked struct {
		cand  *mergedCandidate
		score float64
	}
	order := make([]ranked, len(merged))
	for i, c := range merged {
		order[i] = ranked{cand: c, score: salience[i]}
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].score != order[j].score {
			return order[i].score > order[j].score
		}
		return order[i].cand.chunk.ID < order[j].cand.chunk.ID
	})

	var results []Result
	var accepted []*store.Chunk
	total := 0
	for _, o := range order {
		tc := o.cand.chunk.TokenCount
		if total+tc > maxTokens {
			break
		}
		c := o.cand.chunk
		results = append(results, Result{
			ID:            c.ID,
			URI:           c.URI,
			Content:       c.Content,
			Salience:      o.score,
			MemoryType:    c.Type,
			Section:       c.Section,
			Reinforcement: c.Reinforcement,
			TokenCount:    tc,
		})
		accepted = append(accepted, c)
		total += tc
	}

	r.bumpAccessCounts(ctx, stores, accepted)

	return &Response{Results: results, TotalTokens: total, BudgetRemaining: maxTokens - total, Partial: partial}, nil
}

// bumpAccessCounts implements §4.5 Stage 3 step 6: a best-effort, batched
// increment per scope. Failures are logged, never surfaced to the caller.
func (r *Retriever) bumpAccessCounts(ctx context.Context, stores []*store.Store, accepted []*store.Chunk) {
	if len(accepted) == 0 {
		return
	}
	byScope := make(map[store.Scope][]string)
	for _, c := range accepted {
		byScope[c.Scope] = append(byScope[c.Scope], c.ID)
	}
	for _, s := range stores {
		ids := byScope[s.Scope()]
		if len(ids) == 0 {
			continue
		}
		if err := s.IncrementAccessCount(ctx, ids); err != nil {
			r.log.Warn("increment access count failed", "scope", s.Scope(), "error", err)
		}
	}
}
