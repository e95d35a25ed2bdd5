package search

import (
	"math"
	"time"
)

// computeSalience implements §4.5 Stage 3 step 4's multi-factor score:
//
//	salience = 0.50*sem + 0.20*reinforcement_score + 0.20*recency_decay + 0.10*access_score
//
// reinforcement_score and access_score are log-normalized against the
// maximum value present in the candidate set; recency_decay is an
// exponential half-life decay over days since the chunk was last updated.
func computeSalience(cands []*mergedCandidate, now time.Time, halfLifeDays float64) []float64 {
	maxR, maxA := 0, 0
	for _, c := range cands {
		if c.chunk.Reinforcement > maxR {
			maxR = c.chunk.Reinforcement
		}
		if c.chunk.AccessCount > maxA {
			maxA = c.chunk.AccessCount
		}
	}

	lambda := math.Ln2 / halfLifeDays
	scores := make([]float64, len(cands))
	for i, c := range cands {
		reinforcementScore := math.Log(float64(c.chunk.Reinforcement)+1) / math.Log(float64(maxR)+2)
		accessScore := math.Log(float64(c.chunk.AccessCount)+1) / math.Log(float64(maxA)+2)

		days := now.Sub(c.chunk.UpdatedAt).Hours() / 24
		if days < 0 {
			days = 0
		}
		recencyDecay := math.Exp(-lambda * days)

		scores[i] = 0.50*c.sem + 0.20*reinforcementScore + 0.20*recencyDecay + 0.10*accessScore
	}
	return scores
}
