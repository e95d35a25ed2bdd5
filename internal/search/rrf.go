package search

import (
	"sort"

	"github.com/openclaw/memory/internal/store"
)

// mergedCandidate is one chunk surviving RRF merge, carrying the semantic
// similarity it had in the vector list (0 if it was FTS-only) for salience.
type mergedCandidate struct {
	chunk *store.Chunk
	rrf   float64
	sem   float64
}

// rrfMerge implements §4.5 Stage 3 step 3: for each chunk, sum
// 1/(k+rank_i+1) across every ranked list it appears in, rank_i zero-based,
// k=60. The merged order is by descending RRF score, ties broken by ID.
func rrfMerge(vec []store.ScoredChunk, fts []store.FTSResult) []*mergedCandidate {
	byID := make(map[string]*mergedCandidate)

	for rank, v := range vec {
		c := byID[v.Chunk.ID]
		if c == nil {
			c = &mergedCandidate{chunk: v.Chunk}
			byID[v.Chunk.ID] = c
		}
		c.sem = v.Similarity
		c.rrf += 1.0 / float64(rrfK+rank+1)
	}
	for rank, f := range fts {
		c := byID[f.Chunk.ID]
		if c == nil {
			c = &mergedCandidate{chunk: f.Chunk}
			byID[f.Chunk.ID] = c
		}
		c.rrf += 1.0 / float64(rrfK+rank+1)
	}

	out := make([]*mergedCandidate, 0, len(byID))
	for _, c := range byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].rrf != out[j].rrf {
			return out[i].rrf > out[j].rrf
		}
		return out[i].chunk.ID < out[j].chunk.ID
	})
	return out
}
