// Package search provides hybrid (keyword + semantic) paper search.
package search

import (
	"sort"

	"github.com/arxivmind/arxivmind/internal/keyword"
	"github.com/arxivmind/arxivmind/internal/vector"
	"github.com/arxivmind/arxivmind/pkg/utils"
)

// FusedResult holds a paper ID and its fused keyword/semantic scores.
type FusedResult struct {
	PaperID       string
	Score         float64
	KeywordScore  float64
	SemanticScore float64
}

// NormalizeKeywordScores normalizes BM25 scores to [0,1] by the max score.
func NormalizeKeywordScores(results []*keyword.KeywordResult) map[string]float64 {
	normalized := make(map[string]float64, len(results))
	if len(results) == 0 {
		return normalized
	}
	maxScore := results[0].Score
	for _, r := range results {
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}
	for _, r := range results {
		if maxScore > 0 {
			normalized[r.ID] = r.Score / maxScore
		} else {
			normalized[r.ID] = 0
		}
	}
	return normalized
}

// SemanticScores maps vector results to paper ID -> score. Cosine similarity
// can be negative; negatives are clamped to 0 so fusion weights stay additive.
func SemanticScores(results []*vector.Result) map[string]float64 {
	scores := make(map[string]float64, len(results))
	for _, r := range results {
		scores[r.ID] = utils.Clamp(r.Similarity, 0, 1)
	}
	return scores
}

// Fuse merges keyword and semantic score maps with the given weights and
// returns results sorted by fused score descending.
func Fuse(keywordScores, semanticScores map[string]float64, keywordWeight, semanticWeight float64) []*FusedResult {
	merged := make(map[string]*FusedResult)
	for id, score := range keywordScores {
		merged[id] = &FusedResult{
			PaperID:      id,
			KeywordScore: score,
		}
	}
	for id, score := range semanticScores {
		if r, ok := merged[id]; ok {
			r.SemanticScore = score
		} else {
			merged[id] = &FusedResult{
				PaperID:       id,
				SemanticScore: score,
			}
		}
	}
	results := make([]*FusedResult, 0, len(merged))
	for _, r := range merged {
		r.Score = keywordWeight*r.KeywordScore + semanticWeight*r.SemanticScore
		results = append(results, r)
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].PaperID < results[j].PaperID
	})
	return results
}
